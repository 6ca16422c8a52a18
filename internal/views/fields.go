package views

import (
	"sort"

	"github.com/designcomb/influenter/client/internal/types"
)

// SortFields returns fields sorted by order.
func SortFields(fields []types.CaseField) []types.CaseField {
	out := append([]types.CaseField(nil), fields...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// VisibleFields returns the visible fields sorted by order.
func VisibleFields(fields []types.CaseField) []types.CaseField {
	out := []types.CaseField{}
	for _, f := range SortFields(fields) {
		if f.IsVisible {
			out = append(out, f)
		}
	}
	return out
}

// RequiredFields returns the required fields sorted by order.
func RequiredFields(fields []types.CaseField) []types.CaseField {
	out := []types.CaseField{}
	for _, f := range SortFields(fields) {
		if f.IsRequired {
			out = append(out, f)
		}
	}
	return out
}

// NextCustomFieldOrder returns max(order)+1 over all fields, so a new custom
// field lands after every existing one.
func NextCustomFieldOrder(fields []types.CaseField) int {
	next := 0
	for _, f := range fields {
		if f.Order+1 > next {
			next = f.Order + 1
		}
	}
	return next
}

// ResequenceFields orders fields by ids across both variants. Fields not
// listed keep their relative order after the listed ones.
func ResequenceFields(fields []types.CaseField, ids []string) []types.CaseField {
	listed := Resequence(fields, ids,
		func(f types.CaseField) string { return f.ID },
		func(f types.CaseField, i int) types.CaseField { f.Order = i; return f })
	seen := make(map[string]bool, len(listed))
	for _, f := range listed {
		seen[f.ID] = true
	}
	for _, f := range SortFields(fields) {
		if !seen[f.ID] {
			f.Order = len(listed)
			listed = append(listed, f)
		}
	}
	return listed
}
