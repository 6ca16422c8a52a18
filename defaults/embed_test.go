package defaults

import (
	"testing"

	"github.com/designcomb/influenter/client/internal/types"
)

func TestSystemFields(t *testing.T) {
	t.Parallel()
	fields, err := SystemFields()
	if err != nil {
		t.Fatalf("SystemFields: %v", err)
	}
	if len(fields) != 5 {
		t.Fatalf("expected 5 system fields, got %d", len(fields))
	}
	for i, f := range fields {
		if !f.IsSystem || f.SystemColumnName == "" || f.ID != "system-"+f.Name {
			t.Fatalf("field %d is not a well-formed system field: %+v", i, f)
		}
		if f.Order != i+1 {
			t.Fatalf("field %s order=%d", f.Name, f.Order)
		}
		if !f.Type.Valid() {
			t.Fatalf("field %s has invalid type %q", f.Name, f.Type)
		}
	}
	if fields[2].Type != types.FieldSelect || len(fields[2].Options) != len(types.CaseStatuses) {
		t.Fatalf("status field should list every status: %+v", fields[2])
	}

	fields[0].Label = "mutated"
	again, _ := SystemFields()
	if again[0].Label == "mutated" {
		t.Fatal("SystemFields must return a fresh copy")
	}
}
