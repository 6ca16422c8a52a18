package fakeapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// routes mirrors the backend's /api/v1 surface. Static segments such as
// /cases/fields and the reorder endpoints are registered before their {id}
// siblings so they win the match.
func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	// Fields
	api.HandleFunc("/cases/fields", s.listFields).Methods("GET")
	api.HandleFunc("/cases/fields", s.createField).Methods("POST")
	api.HandleFunc("/cases/fields/reorder", s.reorderFields).Methods("PATCH")
	api.HandleFunc("/cases/fields/{id}", s.updateField).Methods("PATCH")
	api.HandleFunc("/cases/fields/{id}", s.deleteField).Methods("DELETE")

	// Cases
	api.HandleFunc("/cases", s.listCases).Methods("GET")
	api.HandleFunc("/cases", s.createCase).Methods("POST")
	api.HandleFunc("/cases/{id}", s.getCase).Methods("GET")
	api.HandleFunc("/cases/{id}", s.updateCase).Methods("PATCH")
	api.HandleFunc("/cases/{id}", s.deleteCase).Methods("DELETE")
	api.HandleFunc("/cases/{id}/emails", s.listCaseEmails).Methods("GET")
	api.HandleFunc("/cases/{id}/emails", s.linkCaseEmail).Methods("POST")
	api.HandleFunc("/cases/{id}/emails/{emailId}", s.unlinkCaseEmail).Methods("DELETE")

	// Tasks
	api.HandleFunc("/cases/{id}/tasks", s.listTasks).Methods("GET")
	api.HandleFunc("/cases/{id}/tasks", s.createTask).Methods("POST")
	api.HandleFunc("/cases/{id}/tasks/reorder", s.reorderTasks).Methods("PATCH")
	api.HandleFunc("/tasks/{id}", s.updateTask).Methods("PATCH")
	api.HandleFunc("/tasks/{id}", s.deleteTask).Methods("DELETE")
	api.HandleFunc("/tasks/{id}/complete", s.completeTask).Methods("POST")

	// Case phases
	api.HandleFunc("/cases/{id}/phases", s.listPhases).Methods("GET")
	api.HandleFunc("/cases/{id}/phases", s.createPhase).Methods("POST")
	api.HandleFunc("/cases/{id}/phases/{pid}", s.updatePhase).Methods("PATCH")
	api.HandleFunc("/cases/{id}/phases/{pid}", s.deletePhase).Methods("DELETE")
	api.HandleFunc("/cases/{id}/apply-template", s.applyTemplate).Methods("POST")

	// Collaboration items
	api.HandleFunc("/collaboration-items", s.listItems).Methods("GET")
	api.HandleFunc("/collaboration-items", s.createItem).Methods("POST")
	api.HandleFunc("/collaboration-items/reorder", s.reorderItems).Methods("PATCH")
	api.HandleFunc("/collaboration-items/{id}", s.updateItem).Methods("PATCH")
	api.HandleFunc("/collaboration-items/{id}", s.deleteItem).Methods("DELETE")

	// Workflow templates
	api.HandleFunc("/workflow-templates", s.listWorkflows).Methods("GET")
	api.HandleFunc("/workflow-templates", s.createWorkflow).Methods("POST")
	api.HandleFunc("/workflow-templates/{id}", s.updateWorkflow).Methods("PATCH")
	api.HandleFunc("/workflow-templates/{id}", s.deleteWorkflow).Methods("DELETE")
	api.HandleFunc("/workflow-templates/{id}/phases", s.createWorkflowPhase).Methods("POST")
	api.HandleFunc("/workflow-templates/{id}/phases/{pid}", s.updateWorkflowPhase).Methods("PATCH")
	api.HandleFunc("/workflow-templates/{id}/phases/{pid}", s.deleteWorkflowPhase).Methods("DELETE")

	// Emails
	api.HandleFunc("/emails", s.listEmails).Methods("GET")
	api.HandleFunc("/emails/{id}", s.getEmail).Methods("GET")
	api.HandleFunc("/emails/{id}", s.updateEmail).Methods("PATCH")
	api.HandleFunc("/gmail/status", s.gmailStatus).Methods("GET")
	api.HandleFunc("/gmail/sync", s.gmailSync).Methods("POST")
	api.HandleFunc("/gmail/disconnect", s.gmailDisconnect).Methods("DELETE")

	// Auth
	api.HandleFunc("/auth/google", s.googleLogin).Methods("POST")
	api.HandleFunc("/auth/me", s.me).Methods("GET")
	api.HandleFunc("/auth/logout", s.logout).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
	return router
}

func intParam(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// page slices list for a 1-based page and reports the total page count.
func page[T any](list []T, pageNo, size int) ([]T, int) {
	total := (len(list) + size - 1) / size
	start := (pageNo - 1) * size
	if start >= len(list) {
		return []T{}, total
	}
	end := min(start+size, len(list))
	return append([]T(nil), list[start:end]...), total
}
