// Package views holds pure projections over store snapshots. Nothing here
// performs I/O or mutates its input.
package views

import (
	"sort"
	"strings"

	"github.com/designcomb/influenter/client/internal/types"
)

// GroupByStatus partitions cases into the five fixed buckets, keeping source
// order within each bucket. Cases with any other status land in no bucket.
func GroupByStatus(cases []types.Case) map[types.CaseStatus][]types.Case {
	out := make(map[types.CaseStatus][]types.Case, len(types.CaseStatuses))
	for _, s := range types.CaseStatuses {
		out[s] = []types.Case{}
	}
	for _, c := range cases {
		if bucket, ok := out[c.Status]; ok {
			out[c.Status] = append(bucket, c)
		}
	}
	return out
}

// FilterCasesByStatus returns the cases with status s, in source order.
func FilterCasesByStatus(cases []types.Case, s types.CaseStatus) []types.Case {
	out := []types.Case{}
	for _, c := range cases {
		if c.Status == s {
			out = append(out, c)
		}
	}
	return out
}

// SearchCases matches q case-insensitively against title, brand and contact.
// An empty query returns a copy of cases.
func SearchCases(cases []types.Case, q string) []types.Case {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]types.Case, 0, len(cases))
	for _, c := range cases {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.BrandName), q) ||
			strings.Contains(strings.ToLower(c.ContactName), q) ||
			strings.Contains(strings.ToLower(c.ContactEmail), q) {
			out = append(out, c)
		}
	}
	return out
}

// SortCases returns a sorted copy. key is one of the backend sort keys
// (updated_at_desc, created_at_asc, deadline_asc, title_asc). Unknown fields
// sort by updated_at; an empty key means updated_at_desc. Cases without a
// deadline sort last.
func SortCases(cases []types.Case, key string) []types.Case {
	out := append([]types.Case(nil), cases...)
	field, desc := splitSortKey(key)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if field == "deadline" || field == "deadline_date" {
			if (a.DeadlineDate == nil) != (b.DeadlineDate == nil) {
				return b.DeadlineDate == nil
			}
			if a.DeadlineDate == nil {
				return false
			}
		}
		c := compareCases(field, a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareCases(field string, a, b types.Case) int {
	switch field {
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "deadline", "deadline_date":
		return a.DeadlineDate.Compare(b.DeadlineDate.Time)
	default:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
}

func splitSortKey(key string) (string, bool) {
	switch {
	case strings.HasSuffix(key, "_desc"):
		return strings.TrimSuffix(key, "_desc"), true
	case strings.HasSuffix(key, "_asc"):
		return strings.TrimSuffix(key, "_asc"), false
	case key == "":
		return "updated_at", true
	default:
		return key, false
	}
}

// StatusLabel returns the display label of s, or s itself when unknown.
func StatusLabel(s types.CaseStatus) string {
	switch s {
	case types.CaseToConfirm:
		return "To confirm"
	case types.CaseInProgress:
		return "In progress"
	case types.CaseCompleted:
		return "Completed"
	case types.CaseCancelled:
		return "Cancelled"
	case types.CaseOther:
		return "Other"
	}
	return string(s)
}

// StatusColor returns the palette entry used to badge s.
func StatusColor(s types.CaseStatus) types.WorkflowColor {
	switch s {
	case types.CaseToConfirm:
		return types.ColorWarning
	case types.CaseInProgress:
		return types.ColorPrimary
	case types.CaseCompleted:
		return types.ColorSuccess
	case types.CaseCancelled:
		return types.ColorError
	}
	return types.ColorNeutral
}

// StatusColorHex returns the calendar color of s.
func StatusColorHex(s types.CaseStatus) string {
	switch s {
	case types.CaseToConfirm:
		return "#f59e0b"
	case types.CaseInProgress:
		return "#3b82f6"
	case types.CaseCompleted:
		return "#10b981"
	case types.CaseCancelled:
		return "#6b7280"
	}
	return "#3b82f6"
}

// CalendarEvent is an all-day deadline entry.
type CalendarEvent struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	Date   types.Date       `json:"date"`
	AllDay bool             `json:"all_day"`
	Color  string           `json:"color"`
	Status types.CaseStatus `json:"status"`
}

// CalendarEvents turns every case with a deadline into an all-day event.
func CalendarEvents(cases []types.Case) []CalendarEvent {
	out := []CalendarEvent{}
	for _, c := range cases {
		if c.DeadlineDate == nil || c.DeadlineDate.IsZero() {
			continue
		}
		out = append(out, CalendarEvent{
			ID:     c.ID,
			Title:  c.Title + " - " + c.BrandName,
			Date:   *c.DeadlineDate,
			AllDay: true,
			Color:  StatusColorHex(c.Status),
			Status: c.Status,
		})
	}
	return out
}
