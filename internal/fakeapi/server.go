// Package fakeapi is an in-memory implementation of the backend REST API
// used by store and session tests. Failure modes can be switched globally or
// per route to drive every fallback path of the client.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime/debug"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/designcomb/influenter/client/defaults"
	"github.com/designcomb/influenter/client/internal/types"
)

// Mode selects how the server answers.
type Mode int

const (
	// OK serves requests from the in-memory state.
	OK Mode = iota
	// Offline drops the connection without a response.
	Offline
	// NotFound answers 404 for every route.
	NotFound
	// ServerError answers 500 for every route.
	ServerError
	// Hang holds the request until the client gives up or the server closes.
	Hang
)

type override struct {
	method string
	path   string
	mode   Mode
}

// Request is one recorded call.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	router *mux.Router
	done   chan struct{}
	once   sync.Once

	mu        sync.Mutex
	mode      Mode
	overrides []override
	requests  []Request
	seq       int
	now       time.Time

	cases     []types.Case
	details   map[string]types.CaseDetail
	tasks     map[string][]types.Task
	phases    map[string][]types.CasePhase
	fields    []types.CaseField
	items     []types.CollaborationItem
	workflows []types.WorkflowTemplate
	emails    []types.EmailDetail
	gmail     types.GmailStatus
	sessions  map[string]types.User
}

// New returns a server seeded with the embedded system fields.
func New() *Server {
	sys, err := defaults.SystemFields()
	if err != nil {
		panic(err)
	}
	s := &Server{
		done:     make(chan struct{}),
		now:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		details:  map[string]types.CaseDetail{},
		tasks:    map[string][]types.Task{},
		phases:   map[string][]types.CasePhase{},
		fields:   sys,
		sessions: map[string]types.User{},
	}
	s.router = s.routes()
	return s
}

// NewTest starts s behind an httptest server and returns its base URL. Both
// are closed when the test ends.
func NewTest(t testing.TB) (*Server, string) {
	t.Helper()
	s := New()
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts.URL
}

// Close releases every hanging request.
func (s *Server) Close() {
	s.once.Do(func() { close(s.done) })
}

// SetMode switches the global failure mode.
func (s *Server) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// Override makes requests matching method and path (relative to /api/v1,
// e.g. "/cases/c1/tasks/reorder") answer with m. An empty method matches
// every method. Overrides win over the global mode.
func (s *Server) Override(method, path string, m Mode) {
	s.mu.Lock()
	s.overrides = append(s.overrides, override{method: method, path: path, mode: m})
	s.mu.Unlock()
}

// ClearOverrides removes every per-route override.
func (s *Server) ClearOverrides() {
	s.mu.Lock()
	s.overrides = nil
	s.mu.Unlock()
}

// Requests returns the recorded calls.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Calls counts recorded calls with method and path.
func (s *Server) Calls(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) modeFor(method, path string) Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.overrides) - 1; i >= 0; i-- {
		o := s.overrides[i]
		if (o.method == "" || o.method == method) && o.path == path {
			return o.mode
		}
	}
	return s.mode
}

// ServeHTTP records the call, applies the failure mode and routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
	})
	s.mu.Unlock()

	switch s.modeFor(r.Method, path) {
	case Offline:
		hj, ok := w.(http.Hijacker)
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "offline")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	case NotFound:
		writeError(w, http.StatusNotFound, "route not found")
		return
	case ServerError:
		writeError(w, http.StatusInternalServerError, "backend exploded")
		return
	case Hang:
		select {
		case <-r.Context().Done():
		case <-s.done:
		}
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("method", r.Method).Str("url", r.URL.String()).
				Bytes("stack", debug.Stack()).Msg("fakeapi: panic recovered")
			writeError(w, http.StatusInternalServerError, "panic")
		}
	}()
	s.router.ServeHTTP(w, r)
}

// ---- seeding and inspection ----

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_%d", prefix, s.seq)
}

func (s *Server) tick() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

// SeedCase stores d as is, at the head of the list.
func (s *Server) SeedCase(d types.CaseDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Tasks != nil {
		s.tasks[d.ID] = append([]types.Task(nil), d.Tasks...)
		d.Tasks = nil
	}
	if d.Phases != nil {
		s.phases[d.ID] = append([]types.CasePhase(nil), d.Phases...)
		d.Phases = nil
	}
	s.cases = append([]types.Case{d.Case}, s.cases...)
	s.details[d.ID] = d
}

// SeedTasks replaces the tasks of a case.
func (s *Server) SeedTasks(caseID string, tasks ...types.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[caseID] = append([]types.Task(nil), tasks...)
	s.recount(caseID)
}

// SeedItems replaces the catalog.
func (s *Server) SeedItems(items ...types.CollaborationItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]types.CollaborationItem(nil), items...)
}

// SeedWorkflows replaces the workflow templates.
func (s *Server) SeedWorkflows(w ...types.WorkflowTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = append([]types.WorkflowTemplate(nil), w...)
}

// SeedEmails replaces the inbox.
func (s *Server) SeedEmails(e ...types.EmailDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append([]types.EmailDetail(nil), e...)
}

// SetGmail sets the mailbox connection state.
func (s *Server) SetGmail(st types.GmailStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gmail = st
}

// AddSession makes token resolve to user on /auth/me.
func (s *Server) AddSession(token string, user types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = user
}

// Cases returns the stored case list.
func (s *Server) Cases() []types.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Case(nil), s.cases...)
}

// Tasks returns the stored tasks of a case.
func (s *Server) Tasks(caseID string) []types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Task(nil), s.tasks[caseID]...)
}

// Phases returns the stored phases of a case.
func (s *Server) Phases(caseID string) []types.CasePhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CasePhase(nil), s.phases[caseID]...)
}

// Items returns the stored catalog.
func (s *Server) Items() []types.CollaborationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CollaborationItem(nil), s.items...)
}

// Fields returns the stored field definitions.
func (s *Server) Fields() []types.CaseField {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.CaseField(nil), s.fields...)
}

// Workflows returns the stored templates.
func (s *Server) Workflows() []types.WorkflowTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.WorkflowTemplate(nil), s.workflows...)
}

// ---- responses ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("fakeapi: encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.ErrorResponse{
		Error:   strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		Message: message,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
