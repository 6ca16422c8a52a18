package views

import (
	"sort"

	"github.com/designcomb/influenter/client/internal/types"
)

// SortTasks returns tasks sorted by order, stable for equal orders.
func SortTasks(tasks []types.Task) []types.Task {
	out := append([]types.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// PendingTasks returns tasks that are neither completed nor cancelled.
func PendingTasks(tasks []types.Task) []types.Task {
	out := []types.Task{}
	for _, t := range tasks {
		if t.Status != types.TaskCompleted && t.Status != types.TaskCancelled {
			out = append(out, t)
		}
	}
	return out
}

// TaskProgress returns completed and total counts and the rounded percentage.
func TaskProgress(tasks []types.Task) (completed, total, percent int) {
	total = len(tasks)
	for _, t := range tasks {
		if t.Status == types.TaskCompleted {
			completed++
		}
	}
	if total > 0 {
		percent = (completed*100 + total/2) / total
	}
	return completed, total, percent
}

// NextTaskOrder returns max(order)+1, or 0 for an empty list.
func NextTaskOrder(tasks []types.Task) int {
	next := 0
	for _, t := range tasks {
		if t.Order+1 > next {
			next = t.Order + 1
		}
	}
	return next
}

// Resequence returns the elements of list whose ids appear in ids, in ids
// order, with setOrder applied to each at its new index. Unknown ids are
// skipped; listed elements keep every other attribute.
func Resequence[T any](list []T, ids []string, idOf func(T) string, setOrder func(T, int) T) []T {
	byID := make(map[string]T, len(list))
	for _, v := range list {
		byID[idOf(v)] = v
	}
	out := make([]T, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, setOrder(v, len(out)))
	}
	return out
}

// ResequenceTasks reorders tasks to exactly match ids, rewriting order.
func ResequenceTasks(tasks []types.Task, ids []string) []types.Task {
	return Resequence(tasks, ids,
		func(t types.Task) string { return t.ID },
		func(t types.Task, i int) types.Task { t.Order = i; return t })
}
