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

// Emails mirrors the synced inbox and the Gmail connection state. Emails are
// not cached locally; a failed fetch keeps what is in memory.
type Emails struct {
	base

	mu         sync.RWMutex
	emails     []types.Email
	current    *types.EmailDetail
	pagination types.EmailPagination
	filters    map[string]string
	gmail      *types.GmailStatus
}

// NewEmails returns an empty Emails store.
func NewEmails(d Deps) *Emails {
	s := &Emails{}
	s.init("emails", d)
	s.reset()
	return s
}

func (s *Emails) reset() {
	s.emails = []types.Email{}
	s.current = nil
	s.pagination = types.EmailPagination{Page: 1, PageSize: s.deps.PerPage}
	s.filters = types.DefaultEmailFilters()
	s.filters["page_size"] = strconv.Itoa(s.deps.PerPage)
	s.gmail = nil
}

// Reset drops the inbox and the connection state.
func (s *Emails) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	s.setError("")
}

// Emails returns the current page of emails.
func (s *Emails) Emails() []types.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.emails)
}

// Current returns the open email.
func (s *Emails) Current() (types.EmailDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return types.EmailDetail{}, false
	}
	return *s.current, true
}

// Pagination returns the last page snapshot.
func (s *Emails) Pagination() types.EmailPagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// Filters returns the retained list filters.
func (s *Emails) Filters() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.filters)
}

// UnreadCount counts the unread emails of the current page.
func (s *Emails) UnreadCount() int { return views.UnreadCount(s.Emails()) }

// Gmail returns the last known connection state.
func (s *Emails) Gmail() (types.GmailStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.gmail == nil {
		return types.GmailStatus{}, false
	}
	return *s.gmail, true
}

// IsConnected reports whether a mailbox is connected.
func (s *Emails) IsConnected() bool {
	g, ok := s.Gmail()
	return ok && g.Connected
}

// CanSync reports whether a sync may be triggered now.
func (s *Emails) CanSync() bool {
	g, ok := s.Gmail()
	return ok && g.Connected && !g.TokenExpired && g.SyncStatus != "syncing"
}

// Fetch loads one page of emails. The query is merged onto the retained
// filters, which are kept for the next call.
func (s *Emails) Fetch(ctx context.Context, q types.EmailQuery) (Result[[]types.Email], error) {
	s.mu.Lock()
	s.filters = q.Merge(s.filters)
	params := maps.Clone(s.filters)
	s.mu.Unlock()

	end, ok := s.begin("fetch", "emails")
	if !ok {
		return Result[[]types.Email]{Value: s.Emails(), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	resp, err := api.ListEmails(ctx, s.deps.HTTP, s.deps.BaseURL, params)
	if err == nil {
		s.mu.Lock()
		s.emails = cloneSlice(resp.Emails)
		s.pagination = resp.Pagination
		s.mu.Unlock()
		s.succeeded("fetch")
		return Result[[]types.Email]{Value: s.Emails(), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.Email]{}, err
	}
	s.failed("fetch", true, err, "Failed to load emails")
	return Result[[]types.Email]{Value: s.Emails(), Origin: Cached, RemoteErr: err}, nil
}

// Get opens one email with its body.
func (s *Emails) Get(ctx context.Context, id string) (types.EmailDetail, error) {
	if err := types.ValidateID("email", id); err != nil {
		return types.EmailDetail{}, err
	}
	end, _ := s.begin("get", "")
	defer end()

	d, err := api.GetEmail(ctx, s.deps.HTTP, s.deps.BaseURL, id)
	if err != nil {
		if !canceled(ctx, err) {
			s.failed("get", false, err, "Failed to load email")
		}
		return types.EmailDetail{}, err
	}
	s.mu.Lock()
	s.current = d
	s.emails, _ = replaceByID(s.emails, id, idOfEmail, d.Email)
	s.mu.Unlock()
	s.succeeded("get")
	return *d, nil
}

// MarkRead sets the read flag of an email. It only succeeds remotely.
func (s *Emails) MarkRead(ctx context.Context, id string, read bool) (types.Email, error) {
	return s.patch(ctx, "mark_read", id, types.UpdateEmailRequest{IsRead: &read}, "Failed to update email")
}

// LinkToCase associates an email with a case. It only succeeds remotely.
func (s *Emails) LinkToCase(ctx context.Context, emailID, caseID string) (types.Email, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return types.Email{}, err
	}
	req := types.UpdateEmailRequest{CaseID: types.Some(caseID)}
	return s.patch(ctx, "link_case", emailID, req, "Failed to link email to case")
}

// UnlinkFromCase clears the case of an email. It only succeeds remotely.
func (s *Emails) UnlinkFromCase(ctx context.Context, emailID string) (types.Email, error) {
	req := types.UpdateEmailRequest{CaseID: types.Null[string]()}
	return s.patch(ctx, "unlink_case", emailID, req, "Failed to unlink email")
}

func (s *Emails) patch(ctx context.Context, op, id string, req types.UpdateEmailRequest, msg string) (types.Email, error) {
	if err := types.ValidateID("email", id); err != nil {
		return types.Email{}, err
	}
	end, _ := s.begin(op, "")
	defer end()

	e, err := api.UpdateEmail(ctx, s.deps.HTTP, s.deps.BaseURL, id, req)
	if err != nil {
		if !canceled(ctx, err) {
			s.failed(op, false, err, msg)
		}
		return types.Email{}, err
	}
	s.mu.Lock()
	s.emails, _ = replaceByID(s.emails, id, idOfEmail, *e)
	if s.current != nil && s.current.ID == id {
		d := *s.current
		d.Email = *e
		s.current = &d
	}
	s.mu.Unlock()
	s.succeeded(op)
	return *e, nil
}

// GmailStatus loads the connection state. On failure the last known state
// is returned.
func (s *Emails) GmailStatus(ctx context.Context) (Result[types.GmailStatus], error) {
	end, ok := s.begin("gmail_status", "gmail_status")
	if !ok {
		g, _ := s.Gmail()
		return Result[types.GmailStatus]{Value: g, Origin: Cached, Skipped: true}, nil
	}
	defer end()

	st, err := api.GetGmailStatus(ctx, s.deps.HTTP, s.deps.BaseURL)
	if err == nil {
		s.mu.Lock()
		s.gmail = st
		s.mu.Unlock()
		s.succeeded("gmail_status")
		return Result[types.GmailStatus]{Value: *st, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.GmailStatus]{}, err
	}
	s.failed("gmail_status", true, err, "Failed to load Gmail status")
	g, _ := s.Gmail()
	return Result[types.GmailStatus]{Value: g, Origin: Cached, RemoteErr: err}, nil
}

// TriggerSync starts a mailbox sync, waits for it to settle and refreshes
// the connection state.
func (s *Emails) TriggerSync(ctx context.Context) (types.GmailStatus, error) {
	end, _ := s.begin("sync", "")
	resp, err := api.TriggerGmailSync(ctx, s.deps.HTTP, s.deps.BaseURL)
	if err != nil {
		if !canceled(ctx, err) {
			s.failed("sync", false, err, "Failed to start sync")
		}
		end()
		return types.GmailStatus{}, err
	}
	s.succeeded("sync")
	s.log.Info().Str("status", resp.Status).Msg("sync started")
	end()

	t := time.NewTimer(s.deps.SyncSettle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return types.GmailStatus{}, ctx.Err()
	case <-t.C:
	}
	res, err := s.GmailStatus(ctx)
	if err != nil {
		return types.GmailStatus{}, err
	}
	return res.Value, nil
}

// DisconnectGmail revokes the mailbox connection and drops the synced
// emails from memory.
func (s *Emails) DisconnectGmail(ctx context.Context) error {
	end, _ := s.begin("disconnect", "")
	defer end()

	if err := api.DisconnectGmail(ctx, s.deps.HTTP, s.deps.BaseURL); err != nil {
		if !canceled(ctx, err) {
			s.failed("disconnect", false, err, "Failed to disconnect Gmail")
		}
		return fmt.Errorf("disconnect gmail: %w", err)
	}
	s.mu.Lock()
	s.reset()
	s.gmail = &types.GmailStatus{Connected: false}
	s.mu.Unlock()
	s.succeeded("disconnect")
	return nil
}
