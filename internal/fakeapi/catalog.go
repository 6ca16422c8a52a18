package fakeapi

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/designcomb/influenter/client/internal/tree"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

// ---- fields ----

func (s *Server) fieldIndex(id string) int {
	return slices.IndexFunc(s.fields, func(f types.CaseField) bool { return f.ID == id })
}

func (s *Server) listFields(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := types.FieldListResponse{SystemFields: []types.CaseField{}, CustomFields: []types.CaseField{}}
	for _, f := range views.SortFields(s.fields) {
		if f.IsSystem {
			resp.SystemFields = append(resp.SystemFields, f)
		} else {
			resp.CustomFields = append(resp.CustomFields, f)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createField(w http.ResponseWriter, r *http.Request) {
	var req types.CreateFieldRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.fields, func(f types.CaseField) bool { return f.Name == req.Name }) {
		writeError(w, http.StatusConflict, "field name already exists")
		return
	}
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	now := s.tick()
	f := types.CaseField{
		ID:           s.nextID("field"),
		Name:         req.Name,
		Label:        req.Label,
		Type:         req.Type,
		IsRequired:   req.IsRequired,
		IsVisible:    visible,
		Order:        views.NextCustomFieldOrder(s.fields),
		DefaultValue: req.DefaultValue,
		Options:      req.Options,
		Placeholder:  req.Placeholder,
		Description:  req.Description,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	s.fields = append(s.fields, f)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.UpdateFieldRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fieldIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "field not found")
		return
	}
	f := req.Apply(s.fields[i], s.tick())
	s.fields[i] = f
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) deleteField(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fieldIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "field not found")
		return
	}
	if s.fields[i].IsSystem {
		writeError(w, http.StatusBadRequest, "system fields cannot be deleted")
		return
	}
	s.fields = slices.Delete(s.fields, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderFields(w http.ResponseWriter, r *http.Request) {
	var req types.ReorderFieldsRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = views.ResequenceFields(s.fields, req.FieldIDs)
	writeJSON(w, http.StatusOK, map[string]string{"message": "reordered"})
}

// ---- collaboration items ----

func (s *Server) itemIndex(id string) int {
	return slices.IndexFunc(s.items, func(it types.CollaborationItem) bool { return it.ID == id })
}

func (s *Server) listItems(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, types.DataResponse[types.CollaborationItem]{Data: append([]types.CollaborationItem{}, s.items...)})
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCollaborationItemRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ParentID != nil && s.itemIndex(*req.ParentID) < 0 {
		writeError(w, http.StatusBadRequest, "parent item not found")
		return
	}
	now := s.tick()
	it := types.CollaborationItem{
		ID:          s.nextID("item"),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ParentID:    req.ParentID,
		WorkflowID:  req.WorkflowID,
		Order:       req.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items = append(s.items, it)
	writeJSON(w, http.StatusCreated, it)
}

// nullablePatch decodes body into v and reports which of keys were present,
// so an explicit null can be told apart from an omitted key.
func nullablePatch(w http.ResponseWriter, r *http.Request, v any, keys ...string) (map[string]*string, bool) {
	var raw map[string]json.RawMessage
	if !decode(w, r, &raw) {
		return nil, false
	}
	b, _ := json.Marshal(raw)
	if err := json.Unmarshal(b, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}
	present := map[string]*string{}
	for _, k := range keys {
		msg, ok := raw[k]
		if !ok {
			continue
		}
		var val *string
		if err := json.Unmarshal(msg, &val); err != nil {
			writeError(w, http.StatusBadRequest, k+" must be a string or null")
			return nil, false
		}
		present[k] = val
	}
	return present, true
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.UpdateCollaborationItemRequest
	present, ok := nullablePatch(w, r, &req, "parent_id", "workflow_id")
	if !ok {
		return
	}
	if v, ok := present["parent_id"]; ok {
		req.ParentID = &types.Nullable[string]{Value: v}
	}
	if v, ok := present["workflow_id"]; ok {
		req.WorkflowID = &types.Nullable[string]{Value: v}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if req.ParentID != nil && req.ParentID.Value != nil {
		p := *req.ParentID.Value
		if p == id || slices.Contains(tree.DescendantIDs(s.items, id), p) {
			writeError(w, http.StatusBadRequest, "item cannot be its own ancestor")
			return
		}
	}
	it := req.Apply(s.items[i], s.tick())
	s.items[i] = it
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.itemIndex(id) < 0 {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	s.items, _ = tree.RemoveSubtree(s.items, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderItems(w http.ResponseWriter, r *http.Request) {
	var req types.ReorderItemsRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range req.ItemIDs {
		if s.itemIndex(id) < 0 {
			writeError(w, http.StatusBadRequest, "unknown item id "+id)
			return
		}
	}
	s.items = tree.Reorder(s.items, req.ItemIDs, req.ParentID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "reordered"})
}

// ---- workflow templates ----

func (s *Server) workflowIndex(id string) int {
	return slices.IndexFunc(s.workflows, func(t types.WorkflowTemplate) bool { return t.ID == id })
}

func (s *Server) listWorkflows(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, types.DataResponse[types.WorkflowTemplate]{Data: append([]types.WorkflowTemplate{}, s.workflows...)})
}

func (s *Server) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var req types.CreateWorkflowTemplateRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order := 0
	for _, t := range s.workflows {
		order = max(order, t.Order+1)
	}
	now := s.tick()
	t := types.WorkflowTemplate{
		ID:          s.nextID("wf"),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Order:       order,
		Phases:      []types.WorkflowPhase{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.workflows = append(s.workflows, t)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.UpdateWorkflowTemplateRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.workflowIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	t := req.Apply(s.workflows[i], s.tick())
	s.workflows[i] = t
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.workflowIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	s.workflows = slices.Delete(s.workflows, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) workflowPhaseIndex(wi int, pid string) int {
	return slices.IndexFunc(s.workflows[wi].Phases, func(p types.WorkflowPhase) bool { return p.ID == pid })
}

func (s *Server) createWorkflowPhase(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.CreateWorkflowPhaseRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	wi := s.workflowIndex(id)
	if wi < 0 {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	order := len(s.workflows[wi].Phases)
	if req.Order != nil {
		order = *req.Order
	}
	now := s.tick()
	p := types.WorkflowPhase{
		ID:                 s.nextID("wfp"),
		WorkflowTemplateID: id,
		Name:               req.Name,
		DurationDays:       req.DurationDays,
		Order:              order,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.workflows[wi].Phases = append(s.workflows[wi].Phases, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateWorkflowPhase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req types.UpdateWorkflowPhaseRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	wi := s.workflowIndex(vars["id"])
	if wi < 0 {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	pi := s.workflowPhaseIndex(wi, vars["pid"])
	if pi < 0 {
		writeError(w, http.StatusNotFound, "phase not found")
		return
	}
	p := req.Apply(s.workflows[wi].Phases[pi], s.tick())
	s.workflows[wi].Phases[pi] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteWorkflowPhase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	wi := s.workflowIndex(vars["id"])
	if wi < 0 {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	pi := s.workflowPhaseIndex(wi, vars["pid"])
	if pi < 0 {
		writeError(w, http.StatusNotFound, "phase not found")
		return
	}
	s.workflows[wi].Phases = slices.Delete(s.workflows[wi].Phases, pi, pi+1)
	w.WriteHeader(http.StatusNoContent)
}
