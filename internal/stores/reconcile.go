package stores

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/designcomb/influenter/client/internal/api"
	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/job"
	"github.com/designcomb/influenter/client/internal/localcache"
	"github.com/designcomb/influenter/client/internal/tree"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

// ErrParentPending is returned by a replay whose parent record still
// carries a temporary id.
var ErrParentPending = errors.New("parent not reconciled")

func parentPending(kind, id, parent string) error {
	return &clienterrors.ClassifiedError{
		Kind:       clienterrors.Validation,
		Category:   clienterrors.Irrecoverable,
		Underlying: fmt.Errorf("%s %s under %s: %w", kind, id, parent, ErrParentPending),
	}
}

// Replay families. Tasks share the case family so they run after the case
// they belong to.
var (
	ReplayCases     = string(localcache.FamilyCases)
	ReplayFields    = string(localcache.FamilyFields)
	ReplayItems     = string(localcache.FamilyItems)
	ReplayWorkflows = string(localcache.FamilyWorkflows)
)

func resolve(resolved map[string]string, id string) string {
	if to, ok := resolved[id]; ok {
		return to
	}
	return id
}

// ---- Cases and tasks ----

// ResolvedID returns the server id a provisional case or task was replaced
// with, or id itself.
func (s *Cases) ResolvedID(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(s.resolved, id)
}

// PendingReplays returns one replay per provisional case followed by one per
// provisional task and case phase, gathered from memory and the local cache.
func (s *Cases) PendingReplays(ctx context.Context) []job.Replay {
	cached, _ := s.cache().Cases(ctx)

	s.mu.RLock()
	all := mergeByID(s.cases, cached, idOfCase)
	if s.current != nil {
		all = mergeByID(all, []types.Case{s.current.Case}, idOfCase)
	}
	caseIDs := make([]string, 0, len(all)+len(s.tasks))
	for _, c := range all {
		caseIDs = append(caseIDs, c.ID)
	}
	for id := range s.tasks {
		caseIDs = append(caseIDs, id)
	}
	for id := range s.phases {
		caseIDs = append(caseIDs, id)
	}
	s.mu.RUnlock()

	var out []job.Replay
	for _, c := range all {
		if !localcache.IsTempID(c.ID) {
			continue
		}
		d := s.provisionalDetail(ctx, c)
		out = append(out, job.Replay{Family: ReplayCases, TempID: c.ID, Fn: func(ctx context.Context) error {
			return s.replayCase(ctx, d)
		}})
	}

	seen := map[string]bool{}
	sort.Strings(caseIDs)
	for _, caseID := range caseIDs {
		if seen[caseID] {
			continue
		}
		seen[caseID] = true
		for _, t := range s.provisionalTasks(ctx, caseID) {
			out = append(out, job.Replay{Family: ReplayCases, TempID: t.ID, Fn: func(ctx context.Context) error {
				return s.replayTask(ctx, t)
			}})
		}
	}
	for _, caseID := range caseIDs {
		if !seen[caseID] {
			continue
		}
		seen[caseID] = false
		for _, p := range s.provisionalPhases(ctx, caseID) {
			out = append(out, job.Replay{Family: ReplayCases, TempID: p.ID, Fn: func(ctx context.Context) error {
				return s.replayPhase(ctx, p)
			}})
		}
	}
	return out
}

func (s *Cases) provisionalPhases(ctx context.Context, caseID string) []types.CasePhase {
	cached, _ := s.cache().Phases(ctx, caseID)
	s.mu.RLock()
	phases := mergeByID(s.phases[caseID], cached, idOfPhase)
	if s.current != nil && s.current.ID == caseID {
		phases = mergeByID(phases, s.current.Phases, idOfPhase)
	}
	s.mu.RUnlock()

	out := []types.CasePhase{}
	for _, p := range sortPhases(phases) {
		if localcache.IsTempID(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Cases) provisionalDetail(ctx context.Context, c types.Case) types.CaseDetail {
	s.mu.RLock()
	if s.current != nil && s.current.ID == c.ID {
		d := *s.current
		s.mu.RUnlock()
		return d
	}
	s.mu.RUnlock()
	if d, ok := s.cache().CaseDetail(ctx, c.ID); ok {
		return d
	}
	return types.CaseDetail{Case: c}
}

func (s *Cases) provisionalTasks(ctx context.Context, caseID string) []types.Task {
	cached, _ := s.cache().Tasks(ctx, caseID)
	s.mu.RLock()
	tasks := mergeByID(s.tasks[caseID], cached, idOfTask)
	s.mu.RUnlock()

	out := []types.Task{}
	for _, t := range views.SortTasks(tasks) {
		if localcache.IsTempID(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Cases) replayCase(ctx context.Context, d types.CaseDetail) error {
	created, err := api.CreateCase(ctx, s.deps.HTTP, s.deps.BaseURL, createRequestFor(d))
	if err != nil {
		return err
	}
	s.swapCase(ctx, d.ID, *created)
	s.log.Info().Str("temp_id", d.ID).Str("id", created.ID).Msg("reconciled case")
	return nil
}

// swapCase replaces a provisional case with its server record everywhere the
// temporary id is referenced.
func (s *Cases) swapCase(ctx context.Context, tempID string, created types.Case) {
	newID := created.ID
	retag := func(tasks []types.Task) []types.Task {
		out := cloneSlice(tasks)
		for i := range out {
			out[i].CaseID = newID
		}
		return out
	}
	rephase := func(phases []types.CasePhase) []types.CasePhase {
		out := cloneSlice(phases)
		for i := range out {
			out[i].CaseID = newID
		}
		return out
	}

	s.mu.Lock()
	s.resolved[tempID] = newID
	// local counters survive until the next fetch
	if prev, ok := findByID(s.cases, tempID, idOfCase); ok {
		created.TaskCount, created.CompletedTaskCount = prev.TaskCount, prev.CompletedTaskCount
	}
	s.cases, _ = replaceByID(s.cases, tempID, idOfCase, created)
	if t, ok := s.tasks[tempID]; ok {
		delete(s.tasks, tempID)
		s.tasks[newID] = retag(t)
	}
	if p, ok := s.phases[tempID]; ok {
		delete(s.phases, tempID)
		s.phases[newID] = rephase(p)
	}
	if e, ok := s.emails[tempID]; ok {
		delete(s.emails, tempID)
		s.emails[newID] = e
	}
	if s.current != nil && s.current.ID == tempID {
		d := *s.current
		d.Case = created
		d.Tasks = retag(d.Tasks)
		d.Phases = rephase(d.Phases)
		s.current = &d
	}
	s.mu.Unlock()

	cache := s.cache()
	list, hadList := cache.Cases(ctx)
	detail, hadDetail := cache.CaseDetail(ctx, tempID)
	tasks, hadTasks := cache.Tasks(ctx, tempID)
	phases, hadPhases := cache.Phases(ctx, tempID)

	s.persist("reconcile", cache.DeleteCase(ctx, tempID))
	if hadList {
		list, _ = replaceByID(list, tempID, idOfCase, created)
		s.persist("reconcile", cache.SetCases(ctx, list))
	}
	if hadDetail {
		detail.Case = created
		detail.Tasks = retag(detail.Tasks)
		detail.Phases = rephase(detail.Phases)
		s.persist("reconcile", cache.SetCaseDetail(ctx, detail))
	}
	if hadTasks {
		s.persist("reconcile", cache.SetTasks(ctx, newID, retag(tasks)))
	}
	if hadPhases {
		s.persist("reconcile", cache.SetPhases(ctx, newID, rephase(phases)))
	}
}

func (s *Cases) replayTask(ctx context.Context, t types.Task) error {
	caseID := s.ResolvedID(t.CaseID)
	if localcache.IsTempID(caseID) {
		return parentPending("task", t.ID, caseID)
	}
	req := types.CreateTaskRequest{
		Title:        t.Title,
		Description:  t.Description,
		DueDate:      t.DueDate,
		DueTime:      t.DueTime,
		ReminderDays: t.ReminderDays,
	}
	created, err := api.CreateTask(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, req)
	if err != nil {
		return err
	}
	if t.Status == types.TaskCompleted && created.Status != types.TaskCompleted {
		if done, err := api.CompleteTask(ctx, s.deps.HTTP, s.deps.BaseURL, created.ID); err == nil {
			created = done
		} else {
			s.log.Warn().Str("id", created.ID).Err(err).Msg("replayed task not marked completed")
		}
	}
	s.swapTask(ctx, caseID, t.ID, *created)
	s.log.Info().Str("temp_id", t.ID).Str("id", created.ID).Msg("reconciled task")
	return nil
}

func (s *Cases) swapTask(ctx context.Context, caseID, tempID string, created types.Task) {
	// keep the local position until the next fetch
	swap := func(list []types.Task) []types.Task {
		out := cloneSlice(list)
		for i, t := range out {
			if t.ID == tempID {
				created.Order = t.Order
				out[i] = created
			}
		}
		return out
	}

	s.mu.Lock()
	s.resolved[tempID] = created.ID
	if cur, ok := s.tasks[caseID]; ok {
		s.setTasks(caseID, swap(cur))
	}
	s.mu.Unlock()
	if cached, ok := s.cache().Tasks(ctx, caseID); ok {
		s.persist("reconcile", s.cache().SetTasks(ctx, caseID, swap(cached)))
	}
}

func (s *Cases) replayPhase(ctx context.Context, p types.CasePhase) error {
	caseID := s.ResolvedID(p.CaseID)
	if localcache.IsTempID(caseID) {
		return parentPending("phase", p.ID, caseID)
	}
	order := p.Order
	req := types.CreateCasePhaseRequest{
		Name:         p.Name,
		StartDate:    p.StartDate,
		DurationDays: p.DurationDays,
		Order:        &order,
	}
	// a template phase still waiting for its own id is not sent
	if p.WorkflowPhaseID != nil && !localcache.IsTempID(*p.WorkflowPhaseID) {
		req.WorkflowPhaseID = p.WorkflowPhaseID
	}
	created, err := api.CreateCasePhase(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, req)
	if err != nil {
		return err
	}
	s.swapPhase(ctx, caseID, p.ID, *created)
	s.log.Info().Str("temp_id", p.ID).Str("id", created.ID).Msg("reconciled phase")
	return nil
}

func (s *Cases) swapPhase(ctx context.Context, caseID, tempID string, created types.CasePhase) {
	swap := func(list []types.CasePhase) []types.CasePhase {
		next, _ := replaceByID(list, tempID, idOfPhase, created)
		return next
	}

	s.mu.Lock()
	s.resolved[tempID] = created.ID
	if cur, ok := s.phases[caseID]; ok {
		s.setPhases(caseID, swap(cur))
	} else if s.current != nil && s.current.ID == caseID {
		d := *s.current
		d.Phases = swap(d.Phases)
		s.current = &d
	}
	s.mu.Unlock()
	if cached, ok := s.cache().Phases(ctx, caseID); ok {
		s.persist("reconcile", s.cache().SetPhases(ctx, caseID, swap(cached)))
	}
	if d, ok := s.cache().CaseDetail(ctx, caseID); ok {
		d.Phases = swap(d.Phases)
		s.persist("reconcile", s.cache().SetCaseDetail(ctx, d))
	}
}

// ---- Fields ----

// ResolvedID returns the server id a provisional field was replaced with,
// or id itself.
func (s *Fields) ResolvedID(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(s.resolved, id)
}

// PendingReplays returns one replay per provisional custom field.
func (s *Fields) PendingReplays(ctx context.Context) []job.Replay {
	cached, _ := s.cache().Fields(ctx)
	s.mu.RLock()
	all := mergeByID(s.fields, cached, idOfField)
	s.mu.RUnlock()

	var out []job.Replay
	for _, f := range all {
		if f.IsSystem || !localcache.IsTempID(f.ID) {
			continue
		}
		out = append(out, job.Replay{Family: ReplayFields, TempID: f.ID, Fn: func(ctx context.Context) error {
			return s.replay(ctx, f)
		}})
	}
	return out
}

func (s *Fields) replay(ctx context.Context, f types.CaseField) error {
	visible := f.IsVisible
	req := types.CreateFieldRequest{
		Name:         f.Name,
		Label:        f.Label,
		Type:         f.Type,
		IsRequired:   f.IsRequired,
		IsVisible:    &visible,
		DefaultValue: f.DefaultValue,
		Options:      f.Options,
		Placeholder:  f.Placeholder,
		Description:  f.Description,
	}
	created, err := api.CreateField(ctx, s.deps.HTTP, s.deps.BaseURL, req)
	if err != nil {
		return err
	}
	swap := func(list []types.CaseField) []types.CaseField {
		next, _ := replaceByID(list, f.ID, idOfField, *created)
		return next
	}
	s.mu.Lock()
	s.resolved[f.ID] = created.ID
	s.fields = swap(s.fields)
	s.mu.Unlock()
	if cached, ok := s.cache().Fields(ctx); ok {
		s.persist("reconcile", s.cache().SetFields(ctx, swap(cached)))
	}
	s.log.Info().Str("temp_id", f.ID).Str("id", created.ID).Msg("reconciled field")
	return nil
}

// ---- Collaboration items ----

// ResolvedID returns the server id a provisional item was replaced with,
// or id itself.
func (s *Items) ResolvedID(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(s.resolved, id)
}

// PendingReplays returns one replay per provisional item, parents first.
func (s *Items) PendingReplays(ctx context.Context) []job.Replay {
	cached, _ := s.cache().Items(ctx)
	s.mu.RLock()
	all := mergeByID(s.flat, cached, idOfItem)
	s.mu.RUnlock()

	// pre-order walk yields every parent before its children
	var out []job.Replay
	for _, it := range tree.Flatten(tree.Build(all)) {
		if !localcache.IsTempID(it.ID) {
			continue
		}
		out = append(out, job.Replay{Family: ReplayItems, TempID: it.ID, Fn: func(ctx context.Context) error {
			return s.replay(ctx, it)
		}})
	}
	return out
}

func (s *Items) replay(ctx context.Context, it types.CollaborationItem) error {
	s.mu.RLock()
	var parent *string
	if it.ParentID != nil {
		p := resolve(s.resolved, *it.ParentID)
		parent = &p
	}
	s.mu.RUnlock()
	if parent != nil && localcache.IsTempID(*parent) {
		return parentPending("item", it.ID, *parent)
	}

	req := types.CreateCollaborationItemRequest{
		Title:       it.Title,
		Description: it.Description,
		Price:       it.Price,
		ParentID:    parent,
		WorkflowID:  it.WorkflowID,
		Order:       it.Order,
	}
	created, err := api.CreateCollaborationItem(ctx, s.deps.HTTP, s.deps.BaseURL, req)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.resolved[it.ID] = created.ID
	s.flat = tree.ReplaceID(s.flat, it.ID, created.ID)
	s.mu.Unlock()
	if cached, ok := s.cache().Items(ctx); ok {
		s.persist("reconcile", s.cache().SetItems(ctx, tree.ReplaceID(cached, it.ID, created.ID)))
	}
	s.log.Info().Str("temp_id", it.ID).Str("id", created.ID).Msg("reconciled item")
	return nil
}

// ---- Workflow templates ----

// ResolvedID returns the server id a provisional template or template phase
// was replaced with, or id itself.
func (s *Workflows) ResolvedID(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return resolve(s.resolved, id)
}

// PendingReplays returns one replay per provisional template followed by
// one per provisional template phase.
func (s *Workflows) PendingReplays(ctx context.Context) []job.Replay {
	cached, _ := s.cache().Workflows(ctx)
	s.mu.RLock()
	all := mergeByID(s.templates, cached, idOfWorkflow)
	s.mu.RUnlock()

	var out, phases []job.Replay
	for _, w := range all {
		if localcache.IsTempID(w.ID) {
			out = append(out, job.Replay{Family: ReplayWorkflows, TempID: w.ID, Fn: func(ctx context.Context) error {
				return s.replay(ctx, w)
			}})
		}
		for _, p := range sortTemplate(w).Phases {
			if !localcache.IsTempID(p.ID) {
				continue
			}
			phases = append(phases, job.Replay{Family: ReplayWorkflows, TempID: p.ID, Fn: func(ctx context.Context) error {
				return s.replayPhase(ctx, p)
			}})
		}
	}
	return append(out, phases...)
}

func (s *Workflows) replay(ctx context.Context, w types.WorkflowTemplate) error {
	req := types.CreateWorkflowTemplateRequest{Name: w.Name, Description: w.Description, Color: w.Color}
	created, err := api.CreateWorkflowTemplate(ctx, s.deps.HTTP, s.deps.BaseURL, req)
	if err != nil {
		return err
	}
	newID := created.ID
	s.mu.Lock()
	s.resolved[w.ID] = newID
	s.mu.Unlock()
	swap := func(list []types.WorkflowTemplate) []types.WorkflowTemplate {
		out := cloneSlice(list)
		for i, t := range out {
			if t.ID != w.ID {
				continue
			}
			t.ID = newID
			t.CreatedAt, t.UpdatedAt = created.CreatedAt, created.UpdatedAt
			t.Phases = cloneSlice(t.Phases)
			for j := range t.Phases {
				t.Phases[j].WorkflowTemplateID = newID
			}
			out[i] = t
		}
		return out
	}
	s.swapBoth(ctx, swap)
	s.log.Info().Str("temp_id", w.ID).Str("id", newID).Msg("reconciled workflow template")
	return nil
}

func (s *Workflows) replayPhase(ctx context.Context, p types.WorkflowPhase) error {
	// the template may have been reconciled after this replay was planned
	tmplID := p.WorkflowTemplateID
	for _, w := range s.Templates() {
		for _, wp := range w.Phases {
			if wp.ID == p.ID {
				tmplID = w.ID
			}
		}
	}
	if localcache.IsTempID(tmplID) {
		return parentPending("workflow phase", p.ID, tmplID)
	}
	order := p.Order
	req := types.CreateWorkflowPhaseRequest{Name: p.Name, DurationDays: p.DurationDays, Order: &order}
	created, err := api.CreateWorkflowPhase(ctx, s.deps.HTTP, s.deps.BaseURL, tmplID, req)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.resolved[p.ID] = created.ID
	s.mu.Unlock()
	s.swapBoth(ctx, func(list []types.WorkflowTemplate) []types.WorkflowTemplate {
		out := cloneSlice(list)
		for i, w := range out {
			if w.ID == tmplID {
				w.Phases, _ = replaceByID(w.Phases, p.ID, idOfWFPhase, *created)
				out[i] = w
			}
		}
		return out
	})
	s.log.Info().Str("temp_id", p.ID).Str("id", created.ID).Msg("reconciled workflow phase")
	return nil
}

// swapBoth applies fn to the in-memory and the cached templates separately,
// so a cache holding templates never loaded into memory keeps them.
func (s *Workflows) swapBoth(ctx context.Context, fn func([]types.WorkflowTemplate) []types.WorkflowTemplate) {
	s.mu.Lock()
	s.templates = fn(s.templates)
	s.mu.Unlock()
	if cached, ok := s.cache().Workflows(ctx); ok {
		s.persist("reconcile", s.cache().SetWorkflows(ctx, fn(cached)))
	}
}
