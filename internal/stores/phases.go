package stores

import (
	"context"
	"fmt"
	"sort"

	"github.com/designcomb/influenter/client/internal/api"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

func sortPhases(phases []types.CasePhase) []types.CasePhase {
	out := cloneSlice(phases)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Phases returns the timeline of a case sorted by order.
func (s *Cases) Phases(caseID string) []types.CasePhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.phases[caseID]; ok {
		return sortPhases(p)
	}
	if s.current != nil && s.current.ID == caseID {
		return sortPhases(s.current.Phases)
	}
	return []types.CasePhase{}
}

// The caller holds s.mu.
func (s *Cases) setPhases(caseID string, phases []types.CasePhase) {
	s.phases[caseID] = phases
	if s.current != nil && s.current.ID == caseID {
		d := *s.current
		d.Phases = phases
		s.current = &d
	}
}

func (s *Cases) ensurePhases(ctx context.Context, caseID string) {
	s.mu.RLock()
	_, ok := s.phases[caseID]
	s.mu.RUnlock()
	if ok {
		return
	}
	cached, _ := s.cache().Phases(ctx, caseID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.phases[caseID]; ok {
		return
	}
	seed := cached
	if s.current != nil && s.current.ID == caseID && s.current.Phases != nil {
		seed = s.current.Phases
	}
	s.phases[caseID] = cloneSlice(seed)
}

// editPhases applies edit to the phases of a case and writes the result
// through to the cache.
func (s *Cases) editPhases(ctx context.Context, op, caseID string, edit func([]types.CasePhase) []types.CasePhase) []types.CasePhase {
	s.mu.Lock()
	next := edit(s.phases[caseID])
	s.setPhases(caseID, next)
	s.mu.Unlock()
	s.persist(op, s.cache().SetPhases(ctx, caseID, next))
	return next
}

// FetchPhases loads the timeline of a case, falling back to the cached one.
func (s *Cases) FetchPhases(ctx context.Context, caseID string) (Result[[]types.CasePhase], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[[]types.CasePhase]{}, err
	}
	end, ok := s.begin("fetch_phases", "phases:"+caseID)
	if !ok {
		return Result[[]types.CasePhase]{Value: s.Phases(caseID), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	phases, err := api.ListCasePhases(ctx, s.deps.HTTP, s.deps.BaseURL, caseID)
	if err == nil {
		phases = sortPhases(phases)
		s.mu.Lock()
		s.setPhases(caseID, phases)
		s.mu.Unlock()
		s.persist("fetch_phases", s.cache().SetPhases(ctx, caseID, phases))
		s.succeeded("fetch_phases")
		return Result[[]types.CasePhase]{Value: cloneSlice(phases), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.CasePhase]{}, err
	}

	s.failed("fetch_phases", true, err, "Failed to load phases")
	if cached, ok := s.cache().Phases(ctx, caseID); ok {
		s.mu.Lock()
		s.setPhases(caseID, cached)
		s.mu.Unlock()
		s.fellBack("fetch_phases")
		return Result[[]types.CasePhase]{Value: sortPhases(cached), Origin: Cached, RemoteErr: err}, nil
	}
	return Result[[]types.CasePhase]{Value: s.Phases(caseID), Origin: Cached, RemoteErr: err}, nil
}

// CreatePhase adds a phase to a case timeline. The end date is inclusive:
// start + duration - 1.
func (s *Cases) CreatePhase(ctx context.Context, caseID string, req types.CreateCasePhaseRequest) (Result[types.CasePhase], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[types.CasePhase]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.CasePhase]{}, err
	}
	s.ensurePhases(ctx, caseID)
	end, _ := s.begin("create_phase", "")
	defer end()

	add := func(p types.CasePhase) func([]types.CasePhase) []types.CasePhase {
		return func(cur []types.CasePhase) []types.CasePhase {
			rest, _ := removeByID(cur, p.ID, idOfPhase)
			return append(rest, p)
		}
	}

	created, err := api.CreateCasePhase(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, req)
	if err == nil {
		s.editPhases(ctx, "create_phase", caseID, add(*created))
		s.succeeded("create_phase")
		return Result[types.CasePhase]{Value: *created, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.CasePhase]{}, err
	}

	s.failed("create_phase", false, err, "Failed to create phase (saved locally)")
	now := s.now()
	s.mu.RLock()
	order := len(s.phases[caseID])
	s.mu.RUnlock()
	if req.Order != nil {
		order = *req.Order
	}
	p := types.CasePhase{
		ID:              s.deps.NewTempID(),
		CaseID:          caseID,
		Name:            req.Name,
		StartDate:       req.StartDate,
		EndDate:         views.PhaseEndDate(req.StartDate, req.DurationDays),
		DurationDays:    req.DurationDays,
		Order:           order,
		WorkflowPhaseID: req.WorkflowPhaseID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.editPhases(ctx, "create_phase", caseID, add(p))
	s.provisional("create_phase", p.ID)
	return Result[types.CasePhase]{Value: p, Origin: Provisional, TempID: p.ID, RemoteErr: err}, nil
}

// UpdatePhase patches a phase. Changing start or duration without an
// explicit end recomputes the end date.
func (s *Cases) UpdatePhase(ctx context.Context, caseID, phaseID string, req types.UpdateCasePhaseRequest) (Result[types.CasePhase], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[types.CasePhase]{}, err
	}
	if err := types.ValidateID("phase", phaseID); err != nil {
		return Result[types.CasePhase]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.CasePhase]{}, err
	}
	s.ensurePhases(ctx, caseID)
	end, _ := s.begin("update_phase", "")
	defer end()

	updated, err := api.UpdateCasePhase(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, phaseID, req)
	if err == nil {
		s.editPhases(ctx, "update_phase", caseID, func(cur []types.CasePhase) []types.CasePhase {
			next, found := replaceByID(cur, phaseID, idOfPhase, *updated)
			if !found {
				next = append(next, *updated)
			}
			return next
		})
		s.succeeded("update_phase")
		return Result[types.CasePhase]{Value: *updated, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.CasePhase]{}, err
	}

	s.failed("update_phase", false, err, "Failed to update phase (saved locally)")
	s.mu.RLock()
	prev, ok := findByID(s.phases[caseID], phaseID, idOfPhase)
	s.mu.RUnlock()
	if !ok {
		return Result[types.CasePhase]{RemoteErr: err}, fmt.Errorf("phase %s: %w", phaseID, types.ErrNotFound)
	}
	merged := req.Apply(prev, s.now())
	s.editPhases(ctx, "update_phase", caseID, func(cur []types.CasePhase) []types.CasePhase {
		next, _ := replaceByID(cur, phaseID, idOfPhase, merged)
		return next
	})
	s.fellBack("update_phase")
	return Result[types.CasePhase]{Value: merged, Origin: Provisional, RemoteErr: err}, nil
}

// DeletePhase removes a phase locally whatever the backend answers.
func (s *Cases) DeletePhase(ctx context.Context, caseID, phaseID string) (Result[string], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[string]{}, err
	}
	if err := types.ValidateID("phase", phaseID); err != nil {
		return Result[string]{}, err
	}
	s.ensurePhases(ctx, caseID)
	end, _ := s.begin("delete_phase", "")
	defer end()

	res := Result[string]{Value: phaseID, Origin: Confirmed}
	err := api.DeleteCasePhase(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, phaseID)
	switch {
	case err == nil:
		s.succeeded("delete_phase")
	case canceled(ctx, err):
		return Result[string]{}, err
	default:
		s.failed("delete_phase", false, err, "Failed to delete phase (removed locally)")
		s.fellBack("delete_phase")
		res.Origin, res.RemoteErr = Provisional, err
	}
	s.editPhases(ctx, "delete_phase", caseID, func(cur []types.CasePhase) []types.CasePhase {
		next, _ := removeByID(cur, phaseID, idOfPhase)
		return next
	})
	return res, nil
}

// ApplyTemplate replaces the timeline of a case with the phases of tmpl laid
// back to back from start. When the backend fails the schedule is computed
// locally from tmpl.
func (s *Cases) ApplyTemplate(ctx context.Context, caseID string, tmpl types.WorkflowTemplate, start types.Date) (Result[[]types.CasePhase], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[[]types.CasePhase]{}, err
	}
	if err := types.ValidateID("workflow template", tmpl.ID); err != nil {
		return Result[[]types.CasePhase]{}, err
	}
	end, _ := s.begin("apply_template", "")
	defer end()

	req := types.ApplyTemplateRequest{WorkflowID: tmpl.ID, StartDate: start}
	phases, err := api.ApplyWorkflowTemplate(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, req)
	if err == nil {
		phases = sortPhases(phases)
		s.editPhases(ctx, "apply_template", caseID, func([]types.CasePhase) []types.CasePhase { return phases })
		s.succeeded("apply_template")
		return Result[[]types.CasePhase]{Value: cloneSlice(phases), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.CasePhase]{}, err
	}

	s.failed("apply_template", false, err, "Failed to apply workflow (saved locally)")
	phases = views.SchedulePhases(caseID, tmpl.Phases, start, s.now(), s.deps.NewTempID)
	s.editPhases(ctx, "apply_template", caseID, func([]types.CasePhase) []types.CasePhase { return phases })
	s.fellBack("apply_template")
	return Result[[]types.CasePhase]{Value: cloneSlice(phases), Origin: Provisional, RemoteErr: err}, nil
}
