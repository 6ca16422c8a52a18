package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCaseStatusValid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in CaseStatus
		ok bool
	}{
		{CaseToConfirm, true}, {CaseOther, true}, {CaseCancelled, true}, {"archived", false}, {"", false},
	}
	for _, c := range cases {
		if got := c.in.Valid(); got != c.ok {
			t.Fatalf("Valid(%q)=%v want %v", c.in, got, c.ok)
		}
	}
}

func TestCreateRequestsValidate(t *testing.T) {
	t.Parallel()
	checks := []struct {
		name string
		err  error
		ok   bool
	}{
		{"case ok", CreateCaseRequest{Title: "Nike Deal", BrandName: "Nike"}.Validate(), true},
		{"case no brand", CreateCaseRequest{Title: "Nike Deal"}.Validate(), false},
		{"case bad status", CreateCaseRequest{Title: "a", BrandName: "b", Status: "archived"}.Validate(), false},
		{"field select needs options", CreateFieldRequest{Name: "tier", Label: "Tier", Type: FieldSelect}.Validate(), false},
		{"field text", CreateFieldRequest{Name: "note", Label: "Note", Type: FieldText}.Validate(), true},
		{"field bad type", CreateFieldRequest{Name: "x", Label: "X", Type: "rich"}.Validate(), false},
		{"workflow bad color", CreateWorkflowTemplateRequest{Name: "w", Color: "pink"}.Validate(), false},
		{"workflow phase zero days", CreateWorkflowPhaseRequest{Name: "p"}.Validate(), false},
		{"item negative price", CreateCollaborationItemRequest{Title: "Reel", Price: -1}.Validate(), false},
	}
	for _, c := range checks {
		if c.ok && c.err != nil {
			t.Fatalf("%s: expected ok, got %v", c.name, c.err)
		}
		if !c.ok && !errors.Is(c.err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", c.name, c.err)
		}
	}
}

func TestCaseQueryMerge(t *testing.T) {
	t.Parallel()
	retained := map[string]string{"page": "3", "status": "completed", "brand": "Nike"}
	got := CaseQuery{Page: Set(1), Status: Clear[CaseStatus](), Search: Set("reel")}.Merge(retained)

	if got["page"] != "1" || got["search"] != "reel" || got["brand"] != "Nike" {
		t.Fatalf("unexpected merge: %v", got)
	}
	if _, ok := got["status"]; ok {
		t.Fatalf("status should be cleared: %v", got)
	}
	if retained["page"] != "3" {
		t.Fatal("retained filters must not be modified")
	}
}

func TestPhaseEndInclusive(t *testing.T) {
	t.Parallel()
	start := NewDate(2025, 3, 30)
	if got := PhaseEnd(start, 3).String(); got != "2025-04-01" {
		t.Fatalf("PhaseEnd=%s", got)
	}
	if got := PhaseEnd(start, 1).String(); got != "2025-03-30" {
		t.Fatalf("single day PhaseEnd=%s", got)
	}
}

func TestUpdateItemParentPatch(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(UpdateCollaborationItemRequest{ParentID: Null[string]()})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"parent_id":null}` {
		t.Fatalf("body=%s", b)
	}
	b, _ = json.Marshal(UpdateCollaborationItemRequest{Title: Ptr("x")})
	if string(b) != `{"title":"x"}` {
		t.Fatalf("body=%s", b)
	}

	parent := "p1"
	it := CollaborationItem{ID: "c", ParentID: &parent}
	moved := UpdateCollaborationItemRequest{ParentID: Null[string]()}.Apply(it, it.UpdatedAt)
	if moved.ParentID != nil || it.ParentID == nil {
		t.Fatalf("apply should detach only the copy: %+v %+v", moved, it)
	}
}

func TestDateJSON(t *testing.T) {
	t.Parallel()
	var d struct {
		Due  Date  `json:"due"`
		Opt  *Date `json:"opt"`
		Zero Date  `json:"zero"`
	}
	if err := json.Unmarshal([]byte(`{"due":"2025-06-01","opt":"2025-06-02T10:00:00Z","zero":""}`), &d); err != nil {
		t.Fatal(err)
	}
	if d.Due.String() != "2025-06-01" || d.Opt.String() != "2025-06-02" || !d.Zero.IsZero() {
		t.Fatalf("unexpected %+v", d)
	}
}
