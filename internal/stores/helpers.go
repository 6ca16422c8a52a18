package stores

import (
	"math"
	"strconv"

	"github.com/designcomb/influenter/client/internal/types"
)

func idOfCase(c types.Case) string { return c.ID }
func idOfTask(t types.Task) string { return t.ID }
func idOfPhase(p types.CasePhase) string { return p.ID }
func idOfField(f types.CaseField) string { return f.ID }
func idOfItem(it types.CollaborationItem) string { return it.ID }
func idOfWorkflow(w types.WorkflowTemplate) string { return w.ID }
func idOfWFPhase(p types.WorkflowPhase) string { return p.ID }
func idOfEmail(e types.Email) string { return e.ID }

func findByID[T any](list []T, id string, idOf func(T) string) (T, bool) {
	for _, v := range list {
		if idOf(v) == id {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// replaceByID returns a copy of list with the element carrying id replaced.
func replaceByID[T any](list []T, id string, idOf func(T) string, v T) ([]T, bool) {
	out := make([]T, len(list))
	found := false
	for i, cur := range list {
		if idOf(cur) == id {
			cur = v
			found = true
		}
		out[i] = cur
	}
	return out, found
}

// removeByID returns a copy of list without the element carrying id.
func removeByID[T any](list []T, id string, idOf func(T) string) ([]T, bool) {
	out := make([]T, 0, len(list))
	found := false
	for _, cur := range list {
		if idOf(cur) == id {
			found = true
			continue
		}
		out = append(out, cur)
	}
	return out, found
}

// mergeByID returns a, followed by the elements of b whose ids a lacks.
func mergeByID[T any](a, b []T, idOf func(T) string) []T {
	seen := make(map[string]bool, len(a))
	out := make([]T, 0, len(a)+len(b))
	for _, v := range a {
		seen[idOf(v)] = true
		out = append(out, v)
	}
	for _, v := range b {
		if !seen[idOf(v)] {
			out = append(out, v)
		}
	}
	return out
}

func intParam(params map[string]string, key string, def int) int {
	if n, err := strconv.Atoi(params[key]); err == nil && n > 0 {
		return n
	}
	return def
}

func totalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}
