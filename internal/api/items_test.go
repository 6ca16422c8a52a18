package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/designcomb/influenter/client/internal/types"
)

func TestListCollaborationItems_NullDataIsEmpty(t *testing.T) {
	t.Parallel()
	srv := jsonServer(t, http.StatusOK, map[string]any{"data": nil}, nil)
	got, err := ListCollaborationItems(context.Background(), srv.Client(), srv.URL)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got=%v err=%v", got, err)
	}
}

func TestReorderCollaborationItems_Body(t *testing.T) {
	t.Parallel()
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/v1/collaboration-items/reorder" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := ReorderCollaborationItems(context.Background(), srv.Client(), srv.URL, []string{"b", "a"}, nil); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if _, ok := body["parent_id"]; !ok || body["parent_id"] != nil {
		t.Fatalf("root scope must be sent as explicit null: %v", body)
	}
	ids, _ := body["item_ids"].([]any)
	if len(ids) != 2 || ids[0] != "b" {
		t.Fatalf("item_ids=%v", body["item_ids"])
	}
}

func TestUpdateCollaborationItem_MoveToRoot(t *testing.T) {
	t.Parallel()
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(types.CollaborationItem{ID: "i1"})
	}))
	defer srv.Close()

	_, err := UpdateCollaborationItem(context.Background(), srv.Client(), srv.URL, "i1", types.UpdateCollaborationItemRequest{ParentID: types.Null[string]()})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if string(raw) != `{"parent_id":null}` {
		t.Fatalf("body=%s", raw)
	}
}

func TestEndpointEscapesSegments(t *testing.T) {
	t.Parallel()
	got := endpoint("http://h/", "cases", "a/b", "tasks")
	if got != "http://h/api/v1/cases/a%2Fb/tasks" {
		t.Fatalf("endpoint=%s", got)
	}
}
