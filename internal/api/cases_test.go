package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/types"
)

func TestListCases_QueryAndDecode(t *testing.T) {
	t.Parallel()
	var last *http.Request
	resp := types.CaseListResponse{
		Data:       []types.Case{{ID: "c1", Title: "Nike Deal", Status: types.CaseToConfirm}},
		Pagination: types.Pagination{Page: 2, PerPage: 20, Total: 21, TotalPages: 2},
	}
	srv := jsonServer(t, http.StatusOK, resp, &last)

	got, err := ListCases(context.Background(), srv.Client(), srv.URL, map[string]string{"page": "2", "status": "", "sort": "updated_at_desc"})
	if err != nil || len(got.Data) != 1 || got.Pagination.TotalPages != 2 {
		t.Fatalf("ListCases unexpected: got=%+v err=%v", got, err)
	}
	if last.URL.Path != "/api/v1/cases" {
		t.Fatalf("path=%s", last.URL.Path)
	}
	q := last.URL.Query()
	if q.Get("page") != "2" || q.Get("sort") != "updated_at_desc" || q.Has("status") {
		t.Fatalf("query=%v", q)
	}
}

func TestCreateCase_SendsJSON(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		raw, _ := io.ReadAll(r.Body)
		var req types.CreateCaseRequest
		_ = json.Unmarshal(raw, &req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(types.Case{ID: "c9", Title: req.Title, BrandName: req.BrandName, Status: types.CaseToConfirm})
	}))
	defer srv.Close()

	got, err := CreateCase(context.Background(), srv.Client(), srv.URL, types.CreateCaseRequest{Title: "Nike Deal", BrandName: "Nike"})
	if err != nil || got.ID != "c9" || got.BrandName != "Nike" {
		t.Fatalf("CreateCase unexpected: got=%+v err=%v", got, err)
	}
}

func TestDeleteCase_NoContent(t *testing.T) {
	t.Parallel()
	srv := jsonServer(t, http.StatusNoContent, nil, nil)
	if err := DeleteCase(context.Background(), srv.Client(), srv.URL, "c1"); err != nil {
		t.Fatalf("DeleteCase error: %v", err)
	}
}

func TestCases_ErrorClassification(t *testing.T) {
	t.Parallel()
	nf := jsonServer(t, http.StatusNotFound, map[string]string{"error": "not_found"}, nil)
	if _, err := GetCase(context.Background(), nf.Client(), nf.URL, "c1"); !clienterrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	bad := jsonServer(t, http.StatusUnprocessableEntity, map[string]string{"error": "validation", "message": "title is required"}, nil)
	_, err := CreateCase(context.Background(), bad.Client(), bad.URL, types.CreateCaseRequest{})
	if !clienterrors.IsValidation(err) || clienterrors.MessageOf(err) != "title is required" {
		t.Fatalf("expected validation error with message, got %v", err)
	}

	offline := &http.Client{Transport: &errRT{}}
	if _, err := ListCases(context.Background(), offline, "http://invalid", nil); !clienterrors.IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCases_EmptyIDRejectedBeforeCall(t *testing.T) {
	t.Parallel()
	offline := &http.Client{Transport: &errRT{}}
	if _, err := GetCase(context.Background(), offline, "http://invalid", ""); err == nil || clienterrors.IsTransport(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := jsonServer(t, http.StatusOK, types.CaseListResponse{}, nil)
	if _, err := ListCases(ctx, srv.Client(), srv.URL, nil); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
