package fakeapi

import (
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

func (s *Server) caseIndex(id string) int {
	return slices.IndexFunc(s.cases, func(c types.Case) bool { return c.ID == id })
}

// recount refreshes the task counters of a case. Caller holds mu.
func (s *Server) recount(caseID string) {
	completed, total, _ := views.TaskProgress(s.tasks[caseID])
	if i := s.caseIndex(caseID); i >= 0 {
		s.cases[i].TaskCount = total
		s.cases[i].CompletedTaskCount = completed
	}
	if d, ok := s.details[caseID]; ok {
		d.TaskCount = total
		d.CompletedTaskCount = completed
		s.details[caseID] = d
	}
}

func (s *Server) caseEmails(caseID string) []types.CaseEmail {
	out := []types.CaseEmail{}
	for _, e := range s.emails {
		if e.CaseID != nil && *e.CaseID == caseID {
			out = append(out, types.CaseEmail{
				ID:         e.ID,
				Subject:    e.Subject,
				FromEmail:  e.FromEmail,
				FromName:   e.FromName,
				ReceivedAt: e.ReceivedAt,
			})
		}
	}
	return out
}

func (s *Server) listCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	list := views.SearchCases(s.cases, q.Get("search"))
	s.mu.Unlock()
	if st := q.Get("status"); st != "" {
		list = views.FilterCasesByStatus(list, types.CaseStatus(st))
	}
	if sort := q.Get("sort"); sort != "" {
		list = views.SortCases(list, sort)
	}
	pageNo := intParam(r, "page", 1)
	perPage := intParam(r, "per_page", 20)
	data, pages := page(list, pageNo, perPage)
	writeJSON(w, http.StatusOK, types.CaseListResponse{
		Data: data,
		Pagination: types.Pagination{
			Page:       pageNo,
			PerPage:    perPage,
			Total:      len(list),
			TotalPages: pages,
		},
	})
}

func (s *Server) createCase(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCaseRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	status := req.Status
	if status == "" {
		status = types.CaseToConfirm
	}
	c := types.Case{
		ID:                 s.nextID("case"),
		Title:              req.Title,
		BrandName:          req.BrandName,
		CollaborationType:  req.CollaborationType,
		Status:             status,
		QuotedAmount:       req.QuotedAmount,
		Currency:           "TWD",
		DeadlineDate:       req.DeadlineDate,
		ContactName:        req.ContactName,
		ContactEmail:       req.ContactEmail,
		ContactPhone:       req.ContactPhone,
		CollaborationItems: req.CollaborationItems,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.cases = append([]types.Case{c}, s.cases...)
	s.details[c.ID] = types.CaseDetail{
		Case:         c,
		Description:  req.Description,
		Notes:        req.Notes,
		Tags:         req.Tags,
		CustomFields: req.CustomFields,
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[id]
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	d.Tasks = views.SortTasks(s.tasks[id])
	d.Phases = append([]types.CasePhase{}, s.phases[id]...)
	d.Emails = s.caseEmails(id)
	d.EmailCount = len(d.Emails)
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.UpdateCaseRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[id]
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	d = req.ApplyDetail(d, s.tick())
	s.details[id] = d
	if i := s.caseIndex(id); i >= 0 {
		s.cases[i] = d.Case
	}
	writeJSON(w, http.StatusOK, d.Case)
}

func (s *Server) deleteCase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.caseIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	s.cases = slices.Delete(s.cases, i, i+1)
	delete(s.details, id)
	delete(s.tasks, id)
	delete(s.phases, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCaseEmails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[id]; !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, types.DataResponse[types.CaseEmail]{Data: s.caseEmails(id)})
}

func (s *Server) linkCaseEmail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.LinkEmailRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[id]; !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	i := s.emailIndex(req.EmailID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "email not found")
		return
	}
	s.emails[i].CaseID = types.Ptr(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "linked"})
}

func (s *Server) unlinkCaseEmail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.emailIndex(vars["emailId"])
	if i < 0 || s.emails[i].CaseID == nil || *s.emails[i].CaseID != vars["id"] {
		writeError(w, http.StatusNotFound, "email not linked to case")
		return
	}
	s.emails[i].CaseID = nil
	w.WriteHeader(http.StatusNoContent)
}

// ---- tasks ----

func (s *Server) findTask(id string) (string, int) {
	for caseID, list := range s.tasks {
		if i := slices.IndexFunc(list, func(t types.Task) bool { return t.ID == id }); i >= 0 {
			return caseID, i
		}
	}
	return "", -1
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[id]; !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, types.DataResponse[types.Task]{Data: views.SortTasks(s.tasks[id])})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[id]; !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	now := s.tick()
	t := types.Task{
		ID:           s.nextID("task"),
		CaseID:       id,
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		DueTime:      req.DueTime,
		Status:       types.TaskPending,
		Order:        views.NextTaskOrder(s.tasks[id]),
		ReminderDays: req.ReminderDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.tasks[id] = append(s.tasks[id], t)
	s.recount(id)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) reorderTasks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.ReorderTasksRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.tasks[id]
	if !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	if len(req.TaskIDs) != len(list) {
		writeError(w, http.StatusBadRequest, "task_ids must list every task of the case")
		return
	}
	next := views.ResequenceTasks(list, req.TaskIDs)
	if len(next) != len(list) {
		writeError(w, http.StatusBadRequest, "unknown task id")
		return
	}
	s.tasks[id] = next
	writeJSON(w, http.StatusOK, map[string]string{"message": "reordered"})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	caseID, i := s.findTask(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	t := req.Apply(s.tasks[caseID][i], s.tick())
	s.tasks[caseID][i] = t
	s.recount(caseID)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	caseID, i := s.findTask(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	done := types.TaskCompleted
	t := types.UpdateTaskRequest{Status: &done}.Apply(s.tasks[caseID][i], s.tick())
	s.tasks[caseID][i] = t
	s.recount(caseID)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	caseID, i := s.findTask(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	s.tasks[caseID] = slices.Delete(s.tasks[caseID], i, i+1)
	s.recount(caseID)
	w.WriteHeader(http.StatusNoContent)
}

// ---- case phases ----

func (s *Server) listPhases(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[id]; !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, types.DataResponse[types.CasePhase]{Data: append([]types.CasePhase{}, s.phases[id]...)})
}

func (s *Server) createPhase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.CreateCasePhaseRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[id]; !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	order := len(s.phases[id])
	if req.Order != nil {
		order = *req.Order
	}
	now := s.tick()
	p := types.CasePhase{
		ID:              s.nextID("phase"),
		CaseID:          id,
		Name:            req.Name,
		StartDate:       req.StartDate,
		EndDate:         types.PhaseEnd(req.StartDate, req.DurationDays),
		DurationDays:    req.DurationDays,
		Order:           order,
		WorkflowPhaseID: req.WorkflowPhaseID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.phases[id] = append(s.phases[id], p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) phaseIndex(caseID, phaseID string) int {
	return slices.IndexFunc(s.phases[caseID], func(p types.CasePhase) bool { return p.ID == phaseID })
}

func (s *Server) updatePhase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req types.UpdateCasePhaseRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.phaseIndex(vars["id"], vars["pid"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "phase not found")
		return
	}
	p := req.Apply(s.phases[vars["id"]][i], s.tick())
	s.phases[vars["id"]][i] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePhase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.phaseIndex(vars["id"], vars["pid"])
	if i < 0 {
		writeError(w, http.StatusNotFound, "phase not found")
		return
	}
	s.phases[vars["id"]] = slices.Delete(s.phases[vars["id"]], i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) applyTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.ApplyTemplateRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.details[id]; !ok {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	wi := s.workflowIndex(req.WorkflowID)
	if wi < 0 {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	start := req.StartDate
	if start.IsZero() {
		start = types.DateOf(s.now)
	}
	phases := views.SchedulePhases(id, s.workflows[wi].Phases, start, s.tick(), func() string { return s.nextID("phase") })
	s.phases[id] = phases
	writeJSON(w, http.StatusOK, types.DataResponse[types.CasePhase]{Data: phases})
}
