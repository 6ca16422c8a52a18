package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/designcomb/influenter/client/internal/api"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

// Workflows mirrors the workflow templates and their phases.
type Workflows struct {
	base

	mu        sync.RWMutex
	templates []types.WorkflowTemplate
	loaded    bool
	resolved  map[string]string
}

// NewWorkflows returns an empty Workflows store.
func NewWorkflows(d Deps) *Workflows {
	s := &Workflows{templates: []types.WorkflowTemplate{}, resolved: map[string]string{}}
	s.init("workflows", d)
	return s
}

// Reset drops the in-memory templates.
func (s *Workflows) Reset() {
	s.mu.Lock()
	s.templates = []types.WorkflowTemplate{}
	s.loaded = false
	s.resolved = map[string]string{}
	s.mu.Unlock()
	s.setError("")
}

func sortTemplate(w types.WorkflowTemplate) types.WorkflowTemplate {
	w.Phases = cloneSlice(w.Phases)
	sort.SliceStable(w.Phases, func(i, j int) bool { return w.Phases[i].Order < w.Phases[j].Order })
	return w
}

// Templates returns the templates sorted by order, each with its phases
// sorted by order.
func (s *Workflows) Templates() []types.WorkflowTemplate {
	s.mu.RLock()
	out := make([]types.WorkflowTemplate, len(s.templates))
	for i, w := range s.templates {
		out[i] = sortTemplate(w)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Find returns the template with id.
func (s *Workflows) Find(id string) (types.WorkflowTemplate, bool) {
	return findByID(s.Templates(), id, idOfWorkflow)
}

func (s *Workflows) edit(ctx context.Context, op string, fn func([]types.WorkflowTemplate) []types.WorkflowTemplate) {
	s.mu.Lock()
	next := fn(s.templates)
	if next == nil {
		next = []types.WorkflowTemplate{}
	}
	s.templates = next
	s.loaded = true
	s.mu.Unlock()
	s.persist(op, s.cache().SetWorkflows(ctx, next))
}

// ensure seeds templates that were never fetched from the cache.
func (s *Workflows) ensure(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	cached, _ := s.cache().Workflows(ctx)
	s.mu.Lock()
	if !s.loaded {
		s.templates = cloneSlice(cached)
		s.loaded = true
	}
	s.mu.Unlock()
}

// Fetch loads the templates, falling back to the cached ones.
func (s *Workflows) Fetch(ctx context.Context) (Result[[]types.WorkflowTemplate], error) {
	end, ok := s.begin("fetch", "workflows")
	if !ok {
		return Result[[]types.WorkflowTemplate]{Value: s.Templates(), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	list, err := api.ListWorkflowTemplates(ctx, s.deps.HTTP, s.deps.BaseURL)
	if err == nil {
		s.edit(ctx, "fetch", func([]types.WorkflowTemplate) []types.WorkflowTemplate { return list })
		s.succeeded("fetch")
		return Result[[]types.WorkflowTemplate]{Value: s.Templates(), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.WorkflowTemplate]{}, err
	}

	s.failed("fetch", true, err, "Failed to load workflows")
	if cached, ok := s.cache().Workflows(ctx); ok {
		s.mu.Lock()
		s.templates = cached
		s.loaded = true
		s.mu.Unlock()
		s.fellBack("fetch")
	}
	return Result[[]types.WorkflowTemplate]{Value: s.Templates(), Origin: Cached, RemoteErr: err}, nil
}

// Create adds a template after every existing one.
func (s *Workflows) Create(ctx context.Context, req types.CreateWorkflowTemplateRequest) (Result[types.WorkflowTemplate], error) {
	if err := req.Validate(); err != nil {
		return Result[types.WorkflowTemplate]{}, err
	}
	s.ensure(ctx)
	end, _ := s.begin("create", "")
	defer end()

	created, err := api.CreateWorkflowTemplate(ctx, s.deps.HTTP, s.deps.BaseURL, req)
	if err == nil {
		w := *created
		if w.Phases == nil {
			w.Phases = []types.WorkflowPhase{}
		}
		s.edit(ctx, "create", func(cur []types.WorkflowTemplate) []types.WorkflowTemplate {
			rest, _ := removeByID(cur, w.ID, idOfWorkflow)
			return append(rest, w)
		})
		s.succeeded("create")
		return Result[types.WorkflowTemplate]{Value: w, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.WorkflowTemplate]{}, err
	}

	s.failed("create", false, err, "Failed to create workflow (saved locally)")
	now := s.now()
	order := 0
	for _, w := range s.Templates() {
		order = max(order, w.Order+1)
	}
	w := types.WorkflowTemplate{
		ID:          s.deps.NewTempID(),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Order:       order,
		Phases:      []types.WorkflowPhase{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.edit(ctx, "create", func(cur []types.WorkflowTemplate) []types.WorkflowTemplate {
		return append(cloneSlice(cur), w)
	})
	s.provisional("create", w.ID)
	return Result[types.WorkflowTemplate]{Value: w, Origin: Provisional, TempID: w.ID, RemoteErr: err}, nil
}

// Update patches a template. The phases are kept.
func (s *Workflows) Update(ctx context.Context, id string, req types.UpdateWorkflowTemplateRequest) (Result[types.WorkflowTemplate], error) {
	if err := types.ValidateID("workflow template", id); err != nil {
		return Result[types.WorkflowTemplate]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.WorkflowTemplate]{}, err
	}
	s.ensure(ctx)
	end, _ := s.begin("update", "")
	defer end()

	prev, known := s.Find(id)
	updated, err := api.UpdateWorkflowTemplate(ctx, s.deps.HTTP, s.deps.BaseURL, id, req)
	if err == nil {
		w := *updated
		if w.Phases == nil && known {
			w.Phases = prev.Phases
		}
		s.put(ctx, "update", w)
		s.succeeded("update")
		return Result[types.WorkflowTemplate]{Value: w, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.WorkflowTemplate]{}, err
	}

	s.failed("update", false, err, "Failed to update workflow (saved locally)")
	if !known {
		return Result[types.WorkflowTemplate]{RemoteErr: err}, fmt.Errorf("workflow template %s: %w", id, types.ErrNotFound)
	}
	merged := req.Apply(prev, s.now())
	s.put(ctx, "update", merged)
	s.fellBack("update")
	return Result[types.WorkflowTemplate]{Value: merged, Origin: Provisional, RemoteErr: err}, nil
}

func (s *Workflows) put(ctx context.Context, op string, w types.WorkflowTemplate) {
	s.edit(ctx, op, func(cur []types.WorkflowTemplate) []types.WorkflowTemplate {
		next, found := replaceByID(cur, w.ID, idOfWorkflow, w)
		if !found {
			next = append(next, w)
		}
		return next
	})
}

// Delete removes a template locally whatever the backend answers.
func (s *Workflows) Delete(ctx context.Context, id string) (Result[string], error) {
	if err := types.ValidateID("workflow template", id); err != nil {
		return Result[string]{}, err
	}
	s.ensure(ctx)
	end, _ := s.begin("delete", "")
	defer end()

	res := Result[string]{Value: id, Origin: Confirmed}
	err := api.DeleteWorkflowTemplate(ctx, s.deps.HTTP, s.deps.BaseURL, id)
	switch {
	case err == nil:
		s.succeeded("delete")
	case canceled(ctx, err):
		return Result[string]{}, err
	default:
		s.failed("delete", false, err, "Failed to delete workflow (removed locally)")
		s.fellBack("delete")
		res.Origin, res.RemoteErr = Provisional, err
	}
	s.edit(ctx, "delete", func(cur []types.WorkflowTemplate) []types.WorkflowTemplate {
		next, _ := removeByID(cur, id, idOfWorkflow)
		return next
	})
	return res, nil
}

// Reorder sets the template order to the order of ids. The backend has no
// endpoint for it, so the order only lives locally.
func (s *Workflows) Reorder(ctx context.Context, ids []string) []types.WorkflowTemplate {
	s.ensure(ctx)
	s.edit(ctx, "reorder", func(cur []types.WorkflowTemplate) []types.WorkflowTemplate {
		return views.Resequence(cur, ids, idOfWorkflow, func(w types.WorkflowTemplate, i int) types.WorkflowTemplate {
			w.Order = i
			return w
		})
	})
	return s.Templates()
}

// editPhases rewrites the phases of one template.
func (s *Workflows) editPhases(ctx context.Context, op, templateID string, fn func([]types.WorkflowPhase) []types.WorkflowPhase) {
	s.edit(ctx, op, func(cur []types.WorkflowTemplate) []types.WorkflowTemplate {
		next := cloneSlice(cur)
		for i, w := range next {
			if w.ID == templateID {
				w.Phases = fn(cloneSlice(w.Phases))
				next[i] = w
			}
		}
		return next
	})
}

// CreatePhase appends a phase to a template.
func (s *Workflows) CreatePhase(ctx context.Context, templateID string, req types.CreateWorkflowPhaseRequest) (Result[types.WorkflowPhase], error) {
	if err := types.ValidateID("workflow template", templateID); err != nil {
		return Result[types.WorkflowPhase]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.WorkflowPhase]{}, err
	}
	s.ensure(ctx)
	tmpl, known := s.Find(templateID)
	end, _ := s.begin("create_phase", "")
	defer end()

	add := func(p types.WorkflowPhase) func([]types.WorkflowPhase) []types.WorkflowPhase {
		return func(cur []types.WorkflowPhase) []types.WorkflowPhase {
			rest, _ := removeByID(cur, p.ID, idOfWFPhase)
			return append(rest, p)
		}
	}

	created, err := api.CreateWorkflowPhase(ctx, s.deps.HTTP, s.deps.BaseURL, templateID, req)
	if err == nil {
		s.editPhases(ctx, "create_phase", templateID, add(*created))
		s.succeeded("create_phase")
		return Result[types.WorkflowPhase]{Value: *created, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.WorkflowPhase]{}, err
	}

	s.failed("create_phase", false, err, "Failed to create workflow phase (saved locally)")
	if !known {
		return Result[types.WorkflowPhase]{RemoteErr: err}, fmt.Errorf("workflow template %s: %w", templateID, types.ErrNotFound)
	}
	now := s.now()
	order := len(tmpl.Phases)
	if req.Order != nil {
		order = *req.Order
	}
	p := types.WorkflowPhase{
		ID:                 s.deps.NewTempID(),
		WorkflowTemplateID: templateID,
		Name:               req.Name,
		DurationDays:       req.DurationDays,
		Order:              order,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.editPhases(ctx, "create_phase", templateID, add(p))
	s.provisional("create_phase", p.ID)
	return Result[types.WorkflowPhase]{Value: p, Origin: Provisional, TempID: p.ID, RemoteErr: err}, nil
}

// UpdatePhase patches a template phase.
func (s *Workflows) UpdatePhase(ctx context.Context, templateID, phaseID string, req types.UpdateWorkflowPhaseRequest) (Result[types.WorkflowPhase], error) {
	if err := types.ValidateID("workflow template", templateID); err != nil {
		return Result[types.WorkflowPhase]{}, err
	}
	if err := types.ValidateID("workflow phase", phaseID); err != nil {
		return Result[types.WorkflowPhase]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.WorkflowPhase]{}, err
	}
	s.ensure(ctx)
	end, _ := s.begin("update_phase", "")
	defer end()

	replace := func(p types.WorkflowPhase) func([]types.WorkflowPhase) []types.WorkflowPhase {
		return func(cur []types.WorkflowPhase) []types.WorkflowPhase {
			next, found := replaceByID(cur, p.ID, idOfWFPhase, p)
			if !found {
				next = append(next, p)
			}
			return next
		}
	}

	updated, err := api.UpdateWorkflowPhase(ctx, s.deps.HTTP, s.deps.BaseURL, templateID, phaseID, req)
	if err == nil {
		s.editPhases(ctx, "update_phase", templateID, replace(*updated))
		s.succeeded("update_phase")
		return Result[types.WorkflowPhase]{Value: *updated, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.WorkflowPhase]{}, err
	}

	s.failed("update_phase", false, err, "Failed to update workflow phase (saved locally)")
	tmpl, _ := s.Find(templateID)
	prev, ok := findByID(tmpl.Phases, phaseID, idOfWFPhase)
	if !ok {
		return Result[types.WorkflowPhase]{RemoteErr: err}, fmt.Errorf("workflow phase %s: %w", phaseID, types.ErrNotFound)
	}
	merged := req.Apply(prev, s.now())
	s.editPhases(ctx, "update_phase", templateID, replace(merged))
	s.fellBack("update_phase")
	return Result[types.WorkflowPhase]{Value: merged, Origin: Provisional, RemoteErr: err}, nil
}

// DeletePhase removes a template phase locally whatever the backend answers.
func (s *Workflows) DeletePhase(ctx context.Context, templateID, phaseID string) (Result[string], error) {
	if err := types.ValidateID("workflow template", templateID); err != nil {
		return Result[string]{}, err
	}
	if err := types.ValidateID("workflow phase", phaseID); err != nil {
		return Result[string]{}, err
	}
	s.ensure(ctx)
	end, _ := s.begin("delete_phase", "")
	defer end()

	res := Result[string]{Value: phaseID, Origin: Confirmed}
	err := api.DeleteWorkflowPhase(ctx, s.deps.HTTP, s.deps.BaseURL, templateID, phaseID)
	switch {
	case err == nil:
		s.succeeded("delete_phase")
	case canceled(ctx, err):
		return Result[string]{}, err
	default:
		s.failed("delete_phase", false, err, "Failed to delete workflow phase (removed locally)")
		s.fellBack("delete_phase")
		res.Origin, res.RemoteErr = Provisional, err
	}
	s.editPhases(ctx, "delete_phase", templateID, func(cur []types.WorkflowPhase) []types.WorkflowPhase {
		next, _ := removeByID(cur, phaseID, idOfWFPhase)
		return next
	})
	return res, nil
}
