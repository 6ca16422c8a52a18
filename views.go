package client

import "github.com/designcomb/influenter/client/internal/views"

// CalendarEvent is an all-day deadline entry.
type CalendarEvent = views.CalendarEvent

// Derived views over store snapshots. None of them mutate their input.

func FilterCasesByStatus(cases []Case, s CaseStatus) []Case {
	return views.FilterCasesByStatus(cases, s)
}

func SearchCases(cases []Case, q string) []Case { return views.SearchCases(cases, q) }

// SortCases accepts the backend sort keys, e.g. "deadline_asc".
func SortCases(cases []Case, key string) []Case { return views.SortCases(cases, key) }

func CalendarEvents(cases []Case) []CalendarEvent { return views.CalendarEvents(cases) }

func StatusLabel(s CaseStatus) string { return views.StatusLabel(s) }

func StatusColor(s CaseStatus) WorkflowColor { return views.StatusColor(s) }

func PendingTasks(tasks []Task) []Task { return views.PendingTasks(tasks) }

// TaskProgress returns completed and total counts and the rounded percentage.
func TaskProgress(tasks []Task) (completed, total, percent int) {
	return views.TaskProgress(tasks)
}

func EmailsForCase(emails []Email, caseID string) []Email {
	return views.EmailsForCase(emails, caseID)
}
