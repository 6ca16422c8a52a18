package localcache

import (
	"context"

	"github.com/designcomb/influenter/client/internal/tree"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

// ---- Cases ----

// Cases returns the cached case list.
func (c *Cache) Cases(ctx context.Context) ([]types.Case, bool) {
	return load[[]types.Case](ctx, c, FamilyCases)
}

// SetCases replaces the cached case list.
func (c *Cache) SetCases(ctx context.Context, cases []types.Case) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return save(ctx, c, FamilyCases, nonNil(cases))
}

// AddCase puts cs at the head of the cached list, replacing an entry with the
// same id.
func (c *Cache) AddCase(ctx context.Context, cs types.Case) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := load[[]types.Case](ctx, c, FamilyCases)
	next := make([]types.Case, 0, len(cur)+1)
	next = append(next, cs)
	for _, v := range cur {
		if v.ID != cs.ID {
			next = append(next, v)
		}
	}
	return save(ctx, c, FamilyCases, next)
}

// UpdateCase replaces the cached list entry with cs and refreshes the case
// part of a cached detail.
func (c *Cache) UpdateCase(ctx context.Context, cs types.Case) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := load[[]types.Case](ctx, c, FamilyCases); ok {
		next := make([]types.Case, len(cur))
		for i, v := range cur {
			if v.ID == cs.ID {
				v = cs
			}
			next[i] = v
		}
		if err := save(ctx, c, FamilyCases, next); err != nil {
			return err
		}
	}
	details, _ := load[map[string]types.CaseDetail](ctx, c, FamilyCaseDetails)
	if d, ok := details[cs.ID]; ok {
		d.Case = cs
		details[cs.ID] = d
		return save(ctx, c, FamilyCaseDetails, details)
	}
	return nil
}

// DeleteCase drops a case from the list, its detail, its tasks and phases.
func (c *Cache) DeleteCase(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if cur, ok := load[[]types.Case](ctx, c, FamilyCases); ok {
		next := make([]types.Case, 0, len(cur))
		for _, v := range cur {
			if v.ID != id {
				next = append(next, v)
			}
		}
		keep(save(ctx, c, FamilyCases, next))
	}
	if m, ok := load[map[string]types.CaseDetail](ctx, c, FamilyCaseDetails); ok {
		delete(m, id)
		keep(save(ctx, c, FamilyCaseDetails, m))
	}
	if m, ok := load[map[string][]types.Task](ctx, c, FamilyTasks); ok {
		delete(m, id)
		keep(save(ctx, c, FamilyTasks, m))
	}
	if m, ok := load[map[string][]types.CasePhase](ctx, c, FamilyPhases); ok {
		delete(m, id)
		keep(save(ctx, c, FamilyPhases, m))
	}
	return firstErr
}

// CaseDetail returns the cached detail of a case.
func (c *Cache) CaseDetail(ctx context.Context, id string) (types.CaseDetail, bool) {
	m, _ := load[map[string]types.CaseDetail](ctx, c, FamilyCaseDetails)
	d, ok := m[id]
	return d, ok
}

// SetCaseDetail stores d under its id.
func (c *Cache) SetCaseDetail(ctx context.Context, d types.CaseDetail) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, _ := load[map[string]types.CaseDetail](ctx, c, FamilyCaseDetails)
	if m == nil {
		m = map[string]types.CaseDetail{}
	}
	if d.Tasks == nil {
		d.Tasks = []types.Task{}
	}
	if d.Emails == nil {
		d.Emails = []types.CaseEmail{}
	}
	m[d.ID] = d
	return save(ctx, c, FamilyCaseDetails, m)
}

// ---- Tasks (keyed by case id) ----

// Tasks returns the cached tasks of a case.
func (c *Cache) Tasks(ctx context.Context, caseID string) ([]types.Task, bool) {
	m, _ := load[map[string][]types.Task](ctx, c, FamilyTasks)
	t, ok := m[caseID]
	return t, ok
}

// SetTasks replaces the cached tasks of a case.
func (c *Cache) SetTasks(ctx context.Context, caseID string, tasks []types.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setTasks(ctx, caseID, tasks)
}

func (c *Cache) setTasks(ctx context.Context, caseID string, tasks []types.Task) error {
	m, _ := load[map[string][]types.Task](ctx, c, FamilyTasks)
	if m == nil {
		m = map[string][]types.Task{}
	}
	m[caseID] = nonNil(tasks)
	return save(ctx, c, FamilyTasks, m)
}

func (c *Cache) editTasks(ctx context.Context, caseID string, edit func([]types.Task) []types.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, _ := load[map[string][]types.Task](ctx, c, FamilyTasks)
	return c.setTasks(ctx, caseID, edit(m[caseID]))
}

// AddTask appends t to its case's cached tasks.
func (c *Cache) AddTask(ctx context.Context, t types.Task) error {
	return c.editTasks(ctx, t.CaseID, func(cur []types.Task) []types.Task {
		next := make([]types.Task, 0, len(cur)+1)
		for _, v := range cur {
			if v.ID != t.ID {
				next = append(next, v)
			}
		}
		return append(next, t)
	})
}

// UpdateTask replaces the cached task with the same id.
func (c *Cache) UpdateTask(ctx context.Context, t types.Task) error {
	return c.editTasks(ctx, t.CaseID, func(cur []types.Task) []types.Task {
		next := make([]types.Task, len(cur))
		for i, v := range cur {
			if v.ID == t.ID {
				v = t
			}
			next[i] = v
		}
		return next
	})
}

// DeleteTask removes a cached task.
func (c *Cache) DeleteTask(ctx context.Context, caseID, taskID string) error {
	return c.editTasks(ctx, caseID, func(cur []types.Task) []types.Task {
		next := make([]types.Task, 0, len(cur))
		for _, v := range cur {
			if v.ID != taskID {
				next = append(next, v)
			}
		}
		return next
	})
}

// ReorderTasks resequences the cached tasks of a case to ids.
func (c *Cache) ReorderTasks(ctx context.Context, caseID string, ids []string) error {
	return c.editTasks(ctx, caseID, func(cur []types.Task) []types.Task {
		return views.ResequenceTasks(cur, ids)
	})
}

// ---- Case phases (keyed by case id) ----

// Phases returns the cached phases of a case.
func (c *Cache) Phases(ctx context.Context, caseID string) ([]types.CasePhase, bool) {
	m, _ := load[map[string][]types.CasePhase](ctx, c, FamilyPhases)
	p, ok := m[caseID]
	return p, ok
}

// SetPhases replaces the cached phases of a case.
func (c *Cache) SetPhases(ctx context.Context, caseID string, phases []types.CasePhase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, _ := load[map[string][]types.CasePhase](ctx, c, FamilyPhases)
	if m == nil {
		m = map[string][]types.CasePhase{}
	}
	m[caseID] = nonNil(phases)
	return save(ctx, c, FamilyPhases, m)
}

// ---- Fields ----

// Fields returns the cached field definitions of both variants.
func (c *Cache) Fields(ctx context.Context) ([]types.CaseField, bool) {
	return load[[]types.CaseField](ctx, c, FamilyFields)
}

// SetFields replaces the cached field definitions.
func (c *Cache) SetFields(ctx context.Context, fields []types.CaseField) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return save(ctx, c, FamilyFields, nonNil(fields))
}

// AddField appends a field definition.
func (c *Cache) AddField(ctx context.Context, f types.CaseField) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := load[[]types.CaseField](ctx, c, FamilyFields)
	next := make([]types.CaseField, 0, len(cur)+1)
	for _, v := range cur {
		if v.ID != f.ID {
			next = append(next, v)
		}
	}
	return save(ctx, c, FamilyFields, append(next, f))
}

// UpdateField replaces the cached definition with the same id. The variant
// of the stored definition is kept.
func (c *Cache) UpdateField(ctx context.Context, f types.CaseField) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := load[[]types.CaseField](ctx, c, FamilyFields)
	next := make([]types.CaseField, len(cur))
	for i, v := range cur {
		if v.ID == f.ID {
			f.IsSystem, f.SystemColumnName = v.IsSystem, v.SystemColumnName
			v = f
		}
		next[i] = v
	}
	return save(ctx, c, FamilyFields, next)
}

// DeleteField removes a custom field. System fields are refused.
func (c *Cache) DeleteField(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := load[[]types.CaseField](ctx, c, FamilyFields)
	next := make([]types.CaseField, 0, len(cur))
	for _, v := range cur {
		if v.ID == id {
			if v.IsSystem {
				return types.ErrSystemFieldDelete
			}
			continue
		}
		next = append(next, v)
	}
	return save(ctx, c, FamilyFields, next)
}

// ---- Collaboration items (flat form) ----

// Items returns the cached flat catalog.
func (c *Cache) Items(ctx context.Context) ([]types.CollaborationItem, bool) {
	return load[[]types.CollaborationItem](ctx, c, FamilyItems)
}

// SetItems replaces the cached flat catalog.
func (c *Cache) SetItems(ctx context.Context, items []types.CollaborationItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return save(ctx, c, FamilyItems, nonNil(items))
}

// AddItem appends an item to the cached catalog.
func (c *Cache) AddItem(ctx context.Context, it types.CollaborationItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := load[[]types.CollaborationItem](ctx, c, FamilyItems)
	next := make([]types.CollaborationItem, 0, len(cur)+1)
	for _, v := range cur {
		if v.ID != it.ID {
			next = append(next, v)
		}
	}
	return save(ctx, c, FamilyItems, append(next, it))
}

// UpdateItem replaces the cached item with the same id.
func (c *Cache) UpdateItem(ctx context.Context, it types.CollaborationItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := load[[]types.CollaborationItem](ctx, c, FamilyItems)
	next := make([]types.CollaborationItem, len(cur))
	for i, v := range cur {
		if v.ID == it.ID {
			v = it
		}
		next[i] = v
	}
	return save(ctx, c, FamilyItems, next)
}

// DeleteItem removes an item and every descendant, returning the removed ids.
func (c *Cache) DeleteItem(ctx context.Context, id string) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, _ := load[[]types.CollaborationItem](ctx, c, FamilyItems)
	next, removed := tree.RemoveSubtree(cur, id)
	return removed, save(ctx, c, FamilyItems, next)
}

// ---- Workflow templates ----

// Workflows returns the cached templates.
func (c *Cache) Workflows(ctx context.Context) ([]types.WorkflowTemplate, bool) {
	return load[[]types.WorkflowTemplate](ctx, c, FamilyWorkflows)
}

// SetWorkflows replaces the cached templates.
func (c *Cache) SetWorkflows(ctx context.Context, w []types.WorkflowTemplate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return save(ctx, c, FamilyWorkflows, nonNil(w))
}

// ---- Auth token ----

// Token returns the persisted bearer token.
func (c *Cache) Token(ctx context.Context) (string, bool) {
	tok, ok := load[string](ctx, c, FamilyAuthToken)
	return tok, ok && tok != ""
}

// SetToken persists the bearer token.
func (c *Cache) SetToken(ctx context.Context, tok string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return save(ctx, c, FamilyAuthToken, tok)
}

// ClearToken forgets the bearer token.
func (c *Cache) ClearToken(ctx context.Context) error {
	return c.Remove(ctx, FamilyAuthToken)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
