package fakeapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/designcomb/influenter/client/internal/types"
)

// ---- emails ----

func (s *Server) emailIndex(id string) int {
	return slices.IndexFunc(s.emails, func(e types.EmailDetail) bool { return e.ID == id })
}

func (s *Server) listEmails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	list := make([]types.Email, 0, len(s.emails))
	for _, e := range s.emails {
		if v := q.Get("is_read"); v != "" {
			if read, err := strconv.ParseBool(v); err == nil && e.IsRead != read {
				continue
			}
		}
		if v := q.Get("case_id"); v != "" && (e.CaseID == nil || *e.CaseID != v) {
			continue
		}
		if v := q.Get("from_email"); v != "" && !strings.EqualFold(e.FromEmail, v) {
			continue
		}
		list = append(list, e.Email)
	}
	s.mu.Unlock()

	pageNo := intParam(r, "page", 1)
	size := intParam(r, "page_size", 20)
	data, pages := page(list, pageNo, size)
	writeJSON(w, http.StatusOK, types.EmailListResponse{
		Emails: data,
		Pagination: types.EmailPagination{
			Page:       pageNo,
			PageSize:   size,
			Total:      len(list),
			TotalPages: pages,
		},
	})
}

func (s *Server) getEmail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.emailIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "email not found")
		return
	}
	writeJSON(w, http.StatusOK, s.emails[i])
}

func (s *Server) updateEmail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req types.UpdateEmailRequest
	present, ok := nullablePatch(w, r, &req, "case_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.emailIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "email not found")
		return
	}
	if req.IsRead != nil {
		s.emails[i].IsRead = *req.IsRead
	}
	if v, ok := present["case_id"]; ok {
		if v != nil {
			if _, known := s.details[*v]; !known {
				writeError(w, http.StatusNotFound, "case not found")
				return
			}
		}
		s.emails[i].CaseID = v
	}
	s.emails[i].UpdatedAt = s.tick()
	writeJSON(w, http.StatusOK, s.emails[i].Email)
}

func (s *Server) gmailStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.gmail)
}

func (s *Server) gmailSync(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gmail.Connected {
		writeError(w, http.StatusBadRequest, "gmail not connected")
		return
	}
	now := s.tick()
	s.gmail.LastSyncAt = &now
	s.gmail.SyncStatus = "completed"
	writeJSON(w, http.StatusOK, types.SyncResponse{Message: "sync started", Status: "syncing"})
}

func (s *Server) gmailDisconnect(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gmail = types.GmailStatus{}
	w.WriteHeader(http.StatusNoContent)
}

// ---- auth ----

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.GoogleLoginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Credential == "" || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "credential and clientId are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user := types.User{
		ID:    s.nextID("user"),
		Email: req.Credential + "@example.com",
		Name:  req.Credential,
	}
	token := s.nextID("token")
	s.sessions[token] = user
	writeJSON(w, http.StatusOK, types.LoginResponse{User: user, Token: token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[bearer(r)]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, bearer(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
