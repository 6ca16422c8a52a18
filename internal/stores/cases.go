package stores

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/designcomb/influenter/client/internal/api"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

const defaultPerPage = 20

// Cases mirrors the case list and the open case detail, together with the
// tasks, phases and linked emails of each case.
type Cases struct {
	base
	validateCustom func(context.Context, map[string]any) error

	mu         sync.RWMutex
	cases      []types.Case
	current    *types.CaseDetail
	tasks      map[string][]types.Task
	phases     map[string][]types.CasePhase
	emails     map[string][]types.CaseEmail
	pagination types.Pagination
	filters    map[string]string
	view       types.ViewType
	// server ids of reconciled provisional cases
	resolved map[string]string
}

// NewCases returns an empty Cases store.
func NewCases(d Deps) *Cases {
	s := &Cases{}
	s.init("cases", d)
	s.reset()
	return s
}

// UseFieldValidator makes Create check custom field values with fn before
// calling the backend.
func (s *Cases) UseFieldValidator(fn func(context.Context, map[string]any) error) {
	s.mu.Lock()
	s.validateCustom = fn
	s.mu.Unlock()
}

func (s *Cases) reset() {
	s.cases = []types.Case{}
	s.current = nil
	s.tasks = map[string][]types.Task{}
	s.phases = map[string][]types.CasePhase{}
	s.emails = map[string][]types.CaseEmail{}
	s.pagination = types.Pagination{Page: 1, PerPage: s.deps.PerPage}
	s.filters = types.DefaultCaseFilters()
	s.filters["per_page"] = strconv.Itoa(s.deps.PerPage)
	s.view = types.ViewBoard
	s.resolved = map[string]string{}
}

// Reset drops the in-memory state. The local cache is kept.
func (s *Cases) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	s.setError("")
}

// Cases returns the current case list.
func (s *Cases) Cases() []types.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.cases)
}

// Current returns the open case detail.
func (s *Cases) Current() (types.CaseDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return types.CaseDetail{}, false
	}
	return *s.current, true
}

// Pagination returns the pagination snapshot of the last list fetch.
func (s *Cases) Pagination() types.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// Filters returns the retained list query.
func (s *Cases) Filters() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.filters)
}

// View returns the selected presentation of the case list.
func (s *Cases) View() types.ViewType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView selects board or list presentation.
func (s *Cases) SetView(v types.ViewType) error {
	if !v.Valid() {
		return fmt.Errorf("%w: view %q", types.ErrInvalidInput, v)
	}
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	return nil
}

// ByStatus partitions the current list into the fixed status buckets.
func (s *Cases) ByStatus() map[types.CaseStatus][]types.Case {
	return views.GroupByStatus(s.Cases())
}

// Fetch lists cases with q merged onto the retained filters. The merged
// filters are retained whatever the outcome. When the backend fails, a
// non-empty cached list replaces the collection; otherwise the collection
// is left as it was.
func (s *Cases) Fetch(ctx context.Context, q types.CaseQuery) (Result[[]types.Case], error) {
	s.mu.Lock()
	params := q.Merge(s.filters)
	s.filters = params
	s.mu.Unlock()

	end, ok := s.begin("fetch", "cases")
	if !ok {
		return Result[[]types.Case]{Value: s.Cases(), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	resp, err := api.ListCases(ctx, s.deps.HTTP, s.deps.BaseURL, params)
	if err == nil {
		data := cloneSlice(resp.Data)
		s.mu.Lock()
		s.cases = data
		s.pagination = resp.Pagination
		s.mu.Unlock()
		s.persist("fetch", s.cache().SetCases(ctx, data))
		s.succeeded("fetch")
		return Result[[]types.Case]{Value: cloneSlice(data), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.Case]{}, err
	}

	s.failed("fetch", true, err, "Failed to load cases")
	if cached, ok := s.cache().Cases(ctx); ok && len(cached) > 0 {
		perPage := intParam(params, "per_page", s.deps.PerPage)
		s.mu.Lock()
		s.cases = cached
		s.pagination = types.Pagination{
			Page:       1,
			PerPage:    perPage,
			Total:      len(cached),
			TotalPages: totalPages(len(cached), perPage),
		}
		s.mu.Unlock()
		s.fellBack("fetch")
		return Result[[]types.Case]{Value: cloneSlice(cached), Origin: Cached, RemoteErr: err}, nil
	}
	return Result[[]types.Case]{Value: s.Cases(), Origin: Cached, RemoteErr: err}, nil
}

// Get loads a case detail, makes it the open case and refreshes the list
// entry. When the backend fails the cached detail is used; without one the
// error wraps types.ErrNotFound.
func (s *Cases) Get(ctx context.Context, id string) (Result[types.CaseDetail], error) {
	if err := types.ValidateID("case", id); err != nil {
		return Result[types.CaseDetail]{}, err
	}
	end, _ := s.begin("get", "")
	defer end()

	d, err := api.GetCase(ctx, s.deps.HTTP, s.deps.BaseURL, id)
	if err == nil {
		detail := *d
		s.mu.Lock()
		s.current = &detail
		s.cases, _ = replaceByID(s.cases, id, idOfCase, detail.Case)
		if detail.Tasks != nil {
			s.tasks[id] = views.SortTasks(detail.Tasks)
		}
		if detail.Phases != nil {
			s.phases[id] = sortPhases(detail.Phases)
		}
		if detail.Emails != nil {
			s.emails[id] = detail.Emails
		}
		s.mu.Unlock()
		s.persist("get", s.cache().SetCaseDetail(ctx, detail))
		s.persist("get", s.cache().UpdateCase(ctx, detail.Case))
		s.succeeded("get")
		return Result[types.CaseDetail]{Value: detail, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.CaseDetail]{}, err
	}

	s.failed("get", true, err, "Failed to load case")
	if cached, ok := s.cache().CaseDetail(ctx, id); ok {
		s.mu.Lock()
		s.current = &cached
		s.mu.Unlock()
		s.fellBack("get")
		return Result[types.CaseDetail]{Value: cached, Origin: Cached, RemoteErr: err}, nil
	}
	return Result[types.CaseDetail]{RemoteErr: err}, fmt.Errorf("case %s: %w", id, types.ErrNotFound)
}

// Create adds a case at the head of the list. When the backend fails the
// case is created locally under a temporary id with status to_confirm
// unless one was given.
func (s *Cases) Create(ctx context.Context, req types.CreateCaseRequest) (Result[types.Case], error) {
	if err := req.Validate(); err != nil {
		return Result[types.Case]{}, err
	}
	s.mu.RLock()
	check := s.validateCustom
	s.mu.RUnlock()
	if check != nil && len(req.CustomFields) > 0 {
		if err := check(ctx, req.CustomFields); err != nil {
			return Result[types.Case]{}, err
		}
	}

	end, _ := s.begin("create", "")
	defer end()

	created, err := api.CreateCase(ctx, s.deps.HTTP, s.deps.BaseURL, req)
	if err == nil {
		s.insertCase(ctx, detailFor(*created, req))
		s.succeeded("create")
		return Result[types.Case]{Value: *created, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.Case]{}, err
	}

	s.failed("create", false, err, "Failed to create case (saved locally)")
	tempID := s.deps.NewTempID()
	d := provisionalCase(tempID, req, s.now())
	s.insertCase(ctx, d)
	s.provisional("create", tempID)
	return Result[types.Case]{Value: d.Case, Origin: Provisional, TempID: tempID, RemoteErr: err}, nil
}

func (s *Cases) insertCase(ctx context.Context, d types.CaseDetail) {
	s.mu.Lock()
	rest, _ := removeByID(s.cases, d.ID, idOfCase)
	s.cases = append([]types.Case{d.Case}, rest...)
	s.pagination.Total++
	s.pagination.TotalPages = totalPages(s.pagination.Total, s.pagination.PerPage)
	s.tasks[d.ID] = []types.Task{}
	s.mu.Unlock()
	s.persist("create", s.cache().AddCase(ctx, d.Case))
	s.persist("create", s.cache().SetCaseDetail(ctx, d))
}

// Update patches a case. When the backend fails the patch is merged into
// the local copies with a fresh updated_at.
func (s *Cases) Update(ctx context.Context, id string, req types.UpdateCaseRequest) (Result[types.Case], error) {
	if err := types.ValidateID("case", id); err != nil {
		return Result[types.Case]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.Case]{}, err
	}
	end, _ := s.begin("update", "")
	defer end()

	updated, err := api.UpdateCase(ctx, s.deps.HTTP, s.deps.BaseURL, id, req)
	if err == nil {
		s.mu.Lock()
		s.cases, _ = replaceByID(s.cases, id, idOfCase, *updated)
		var detail *types.CaseDetail
		if s.current != nil && s.current.ID == id {
			d := req.ApplyDetail(*s.current, updated.UpdatedAt)
			d.Case = *updated
			s.current = &d
			detail = &d
		}
		s.mu.Unlock()
		s.persist("update", s.cache().UpdateCase(ctx, *updated))
		if detail != nil {
			s.persist("update", s.cache().SetCaseDetail(ctx, *detail))
		}
		s.succeeded("update")
		return Result[types.Case]{Value: *updated, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.Case]{}, err
	}

	s.failed("update", false, err, "Failed to update case (saved locally)")
	merged, ok := s.patchLocal(ctx, id, req)
	if !ok {
		return Result[types.Case]{RemoteErr: err}, fmt.Errorf("case %s: %w", id, types.ErrNotFound)
	}
	s.fellBack("update")
	return Result[types.Case]{Value: merged, Origin: Provisional, RemoteErr: err}, nil
}

// patchLocal merges req into the in-memory and cached copies of a case.
func (s *Cases) patchLocal(ctx context.Context, id string, req types.UpdateCaseRequest) (types.Case, bool) {
	now := s.now()
	var merged types.Case
	found := false

	s.mu.Lock()
	if c, ok := findByID(s.cases, id, idOfCase); ok {
		merged = req.Apply(c, now)
		s.cases, _ = replaceByID(s.cases, id, idOfCase, merged)
		found = true
	}
	var detail *types.CaseDetail
	if s.current != nil && s.current.ID == id {
		d := req.ApplyDetail(*s.current, now)
		s.current = &d
		detail = &d
		if !found {
			merged, found = d.Case, true
		}
	}
	s.mu.Unlock()

	if !found {
		if cached, ok := s.cache().Cases(ctx); ok {
			if c, ok := findByID(cached, id, idOfCase); ok {
				merged, found = req.Apply(c, now), true
			}
		}
	}
	if detail == nil {
		if d, ok := s.cache().CaseDetail(ctx, id); ok {
			d = req.ApplyDetail(d, now)
			detail = &d
			if !found {
				merged, found = d.Case, true
			}
		}
	}
	if !found {
		return types.Case{}, false
	}
	s.persist("update", s.cache().UpdateCase(ctx, merged))
	if detail != nil {
		s.persist("update", s.cache().SetCaseDetail(ctx, *detail))
	}
	return merged, true
}

// UpdateStatus moves a case to another status bucket.
func (s *Cases) UpdateStatus(ctx context.Context, id string, status types.CaseStatus) (Result[types.Case], error) {
	return s.Update(ctx, id, types.UpdateCaseRequest{Status: &status})
}

// Delete removes a case locally whatever the backend answers.
func (s *Cases) Delete(ctx context.Context, id string) (Result[string], error) {
	if err := types.ValidateID("case", id); err != nil {
		return Result[string]{}, err
	}
	end, _ := s.begin("delete", "")
	defer end()

	res := Result[string]{Value: id, Origin: Confirmed}
	err := api.DeleteCase(ctx, s.deps.HTTP, s.deps.BaseURL, id)
	switch {
	case err == nil:
		s.succeeded("delete")
	case canceled(ctx, err):
		return Result[string]{}, err
	default:
		s.failed("delete", false, err, "Failed to delete case (removed locally)")
		s.fellBack("delete")
		res.Origin, res.RemoteErr = Provisional, err
	}

	s.mu.Lock()
	var found bool
	s.cases, found = removeByID(s.cases, id, idOfCase)
	if found || err == nil {
		s.pagination.Total = max(0, s.pagination.Total-1)
		s.pagination.TotalPages = totalPages(s.pagination.Total, s.pagination.PerPage)
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	delete(s.tasks, id)
	delete(s.phases, id)
	delete(s.emails, id)
	s.mu.Unlock()
	s.persist("delete", s.cache().DeleteCase(ctx, id))
	return res, nil
}

// LinkEmail associates an email with a case. It only succeeds remotely; the
// error is returned as is.
func (s *Cases) LinkEmail(ctx context.Context, caseID, emailID string) error {
	return s.emailLink(ctx, "link_email", caseID, emailID, api.LinkCaseEmail)
}

// UnlinkEmail removes the association between an email and a case.
func (s *Cases) UnlinkEmail(ctx context.Context, caseID, emailID string) error {
	return s.emailLink(ctx, "unlink_email", caseID, emailID, api.UnlinkCaseEmail)
}

func (s *Cases) emailLink(ctx context.Context, op, caseID, emailID string,
	call func(context.Context, api.HTTPClient, string, string, string) error) error {
	if err := types.ValidateID("case", caseID); err != nil {
		return err
	}
	if err := types.ValidateID("email", emailID); err != nil {
		return err
	}
	end, _ := s.begin(op, "")
	defer end()

	if err := call(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, emailID); err != nil {
		if !canceled(ctx, err) {
			s.failed(op, false, err, "Failed to update linked emails")
		}
		return err
	}
	s.succeeded(op)

	s.mu.RLock()
	open := s.current != nil && s.current.ID == caseID
	s.mu.RUnlock()
	if open {
		if _, err := s.Get(ctx, caseID); err != nil {
			s.log.Debug().Str("op", op).Err(err).Msg("refresh after link failed")
		}
	}
	return nil
}

// Emails returns the emails linked to a case.
func (s *Cases) Emails(caseID string) []types.CaseEmail {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.emails[caseID]; ok {
		return cloneSlice(e)
	}
	if s.current != nil && s.current.ID == caseID {
		return cloneSlice(s.current.Emails)
	}
	return []types.CaseEmail{}
}

// FetchEmails loads the emails linked to a case, falling back to the cached
// detail.
func (s *Cases) FetchEmails(ctx context.Context, caseID string) (Result[[]types.CaseEmail], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[[]types.CaseEmail]{}, err
	}
	end, ok := s.begin("fetch_emails", "emails:"+caseID)
	if !ok {
		return Result[[]types.CaseEmail]{Value: s.Emails(caseID), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	list, err := api.ListCaseEmails(ctx, s.deps.HTTP, s.deps.BaseURL, caseID)
	if err == nil {
		list = cloneSlice(list)
		s.mu.Lock()
		s.emails[caseID] = list
		if s.current != nil && s.current.ID == caseID {
			d := *s.current
			d.Emails = list
			s.current = &d
		}
		s.mu.Unlock()
		if d, ok := s.cache().CaseDetail(ctx, caseID); ok {
			d.Emails = list
			s.persist("fetch_emails", s.cache().SetCaseDetail(ctx, d))
		}
		s.succeeded("fetch_emails")
		return Result[[]types.CaseEmail]{Value: cloneSlice(list), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.CaseEmail]{}, err
	}

	s.failed("fetch_emails", true, err, "Failed to load linked emails")
	if d, ok := s.cache().CaseDetail(ctx, caseID); ok && d.Emails != nil {
		s.mu.Lock()
		s.emails[caseID] = d.Emails
		s.mu.Unlock()
		s.fellBack("fetch_emails")
		return Result[[]types.CaseEmail]{Value: cloneSlice(d.Emails), Origin: Cached, RemoteErr: err}, nil
	}
	return Result[[]types.CaseEmail]{Value: s.Emails(caseID), Origin: Cached, RemoteErr: err}, nil
}

// bumpCounts adjusts the task counters of a case in memory. The caller holds
// s.mu. It returns the adjusted case to write through, if it is loaded.
func (s *Cases) bumpCounts(id string, total, completed int) (types.Case, bool) {
	if total == 0 && completed == 0 {
		return types.Case{}, false
	}
	adjust := func(c types.Case) types.Case {
		c.TaskCount = max(0, c.TaskCount+total)
		c.CompletedTaskCount = max(0, c.CompletedTaskCount+completed)
		return c
	}
	var out types.Case
	found := false
	if s.current != nil && s.current.ID == id {
		d := *s.current
		d.Case = adjust(d.Case)
		s.current = &d
		out, found = d.Case, true
	}
	if c, ok := findByID(s.cases, id, idOfCase); ok {
		c = adjust(c)
		s.cases, _ = replaceByID(s.cases, id, idOfCase, c)
		out, found = c, true
	}
	return out, found
}

func detailFor(c types.Case, req types.CreateCaseRequest) types.CaseDetail {
	return types.CaseDetail{
		Case:         c,
		Description:  req.Description,
		Notes:        req.Notes,
		Tags:         append([]string(nil), req.Tags...),
		CustomFields: maps.Clone(req.CustomFields),
		Emails:       []types.CaseEmail{},
		Tasks:        []types.Task{},
	}
}

func provisionalCase(id string, req types.CreateCaseRequest, now time.Time) types.CaseDetail {
	status := req.Status
	if status == "" {
		status = types.CaseToConfirm
	}
	c := types.Case{
		ID:                 id,
		Title:              req.Title,
		BrandName:          req.BrandName,
		CollaborationType:  req.CollaborationType,
		Status:             status,
		ContactName:        req.ContactName,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		CollaborationItems: append([]string(nil), req.CollaborationItems...),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if req.QuotedAmount != nil {
		c.QuotedAmount = types.Ptr(*req.QuotedAmount)
	}
	if req.DeadlineDate != nil {
		c.DeadlineDate = types.Ptr(*req.DeadlineDate)
	}
	return detailFor(c, req)
}

// createRequestFor rebuilds the create request of a provisional case.
func createRequestFor(d types.CaseDetail) types.CreateCaseRequest {
	return types.CreateCaseRequest{
		Title:              d.Title,
		BrandName:          d.BrandName,
		CollaborationType:  d.CollaborationType,
		Description:        d.Description,
		Status:             d.Status,
		QuotedAmount:       d.QuotedAmount,
		DeadlineDate:       d.DeadlineDate,
		ContactName:        d.ContactName,
		ContactEmail:       d.ContactEmail,
		ContactPhone:       d.ContactPhone,
		Notes:              d.Notes,
		Tags:               d.Tags,
		CollaborationItems: d.CollaborationItems,
		CustomFields:       d.CustomFields,
	}
}
