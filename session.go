package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/job"
	"github.com/designcomb/influenter/client/internal/stores"
)

// Session groups the resource stores of one signed-in user. All stores share
// the client's transport and one local cache.
type Session struct {
	Cases     *stores.Cases
	Fields    *stores.Fields
	Items     *stores.Items
	Workflows *stores.Workflows
	Emails    *stores.Emails
	Auth      *stores.Auth

	client *Client
	cache  *Cache
}

// Replay families accepted by Session.ResolvedID and reported by Reconcile.
var (
	FamilyCases     = stores.ReplayCases
	FamilyFields    = stores.ReplayFields
	FamilyItems     = stores.ReplayItems
	FamilyWorkflows = stores.ReplayWorkflows
)

// NewSession builds the stores over cache, or over a MemoryCache when cache
// is nil. Unless WithTokenSource was given, requests carry the token of the
// session's Auth store.
func (c *Client) NewSession(cache *Cache) *Session {
	if cache == nil {
		cache = MemoryCache()
	}
	d := c.storeDeps(cache)
	s := &Session{
		Cases:     stores.NewCases(d),
		Fields:    stores.NewFields(d),
		Items:     stores.NewItems(d),
		Workflows: stores.NewWorkflows(d),
		Emails:    stores.NewEmails(d),
		Auth:      stores.NewAuth(d),
		client:    c,
		cache:     cache,
	}
	s.Cases.UseFieldValidator(s.Fields.ValidateValues)
	if !c.fixedTokens {
		c.setTokenSource(s.Auth.Token)
	}
	return s
}

// Cache returns the local cache behind the session.
func (s *Session) Cache() *Cache { return s.cache }

// Reset drops the in-memory state of every data store. The local cache and
// the auth state are kept.
func (s *Session) Reset() {
	s.Cases.Reset()
	s.Fields.Reset()
	s.Items.Reset()
	s.Workflows.Reset()
	s.Emails.Reset()
}

// Wipe signs out, drops the in-memory state and deletes every cached
// snapshot, provisional records included.
func (s *Session) Wipe(ctx context.Context) error {
	s.Auth.Logout(ctx)
	s.Reset()
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("wipe local cache: %w", err)
	}
	s.client.logger.Info().Msg("local cache wiped")
	return nil
}

// ResolvedID returns the server id a provisional record of family was
// replaced with, or id itself while it is still provisional.
func (s *Session) ResolvedID(family, id string) (string, error) {
	switch family {
	case FamilyCases:
		return s.Cases.ResolvedID(id), nil
	case FamilyFields:
		return s.Fields.ResolvedID(id), nil
	case FamilyItems:
		return s.Items.ResolvedID(id), nil
	case FamilyWorkflows:
		return s.Workflows.ResolvedID(id), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, family)
	}
}

// ReconcileReport summarises one Reconcile run.
type ReconcileReport struct {
	Reconciled int
	// Failed maps "family/tempID" to the last error of each record that is
	// still provisional.
	Failed map[string]error
}

// errNotRun marks a replay the executor never got to.
var errNotRun = errors.New("replay did not run")

// unreachable marks a transport failure as final for this run, so the
// remaining replays of the family are not attempted against a backend that
// cannot be reached.
func unreachable(err error) error {
	return &clienterrors.ClassifiedError{
		Kind:       clienterrors.Transport,
		Category:   clienterrors.Irrecoverable,
		Underlying: fmt.Errorf("backend unreachable: %w", err),
	}
}

// Reconcile replays every provisional record against the backend. Replays
// run on the executor keyed by family, parents before children, and
// Reconcile waits for all of them. Records that fail stay provisional and
// are listed in the report. Once a replay cannot reach the backend the rest
// of its family is skipped. When ctx ends first, the report covers what ran
// and the error is returned alongside it.
func (s *Session) Reconcile(ctx context.Context) (ReconcileReport, error) {
	pending := [][]job.Replay{
		s.Cases.PendingReplays(ctx),
		s.Fields.PendingReplays(ctx),
		s.Items.PendingReplays(ctx),
		s.Workflows.PendingReplays(ctx),
	}

	var (
		mu       sync.Mutex
		outcomes = map[string]error{}
		halted   = map[string]error{}
		order    []job.Replay
		families []string
	)
	finish := func() ReconcileReport {
		report := ReconcileReport{Failed: map[string]error{}}
		mu.Lock()
		defer mu.Unlock()
		for _, r := range order {
			key := r.Family + "/" + r.TempID
			if err := outcomes[key]; err != nil {
				report.Failed[key] = err
				s.client.recorder.Reconciled(r.Family, "failed")
				continue
			}
			report.Reconciled++
			s.client.recorder.Reconciled(r.Family, "ok")
		}
		return report
	}

	for _, replays := range pending {
		if len(replays) == 0 {
			continue
		}
		families = append(families, replays[0].Family)
		for _, r := range replays {
			key := r.Family + "/" + r.TempID
			family := r.Family
			outcomes[key] = errNotRun
			order = append(order, r)
			run := r.Fn
			r.Fn = func(ctx context.Context) error {
				mu.Lock()
				cause := halted[family]
				mu.Unlock()
				err := cause
				if cause == nil {
					err = run(ctx)
				}
				mu.Lock()
				defer mu.Unlock()
				if cause == nil && clienterrors.IsTransport(err) && !clienterrors.IsIrrecoverable(err) {
					err = unreachable(err)
					halted[family] = err
				}
				outcomes[key] = err
				return err
			}
			if err := s.client.exec.Submit(ctx, r.Family, r); err != nil {
				return finish(), fmt.Errorf("submit %s: %w", key, err)
			}
		}
	}
	for _, family := range families {
		if err := s.client.exec.Barrier(ctx, family); err != nil {
			return finish(), fmt.Errorf("await %s: %w", family, err)
		}
	}

	report := finish()
	s.client.logger.Info().
		Int("reconciled", report.Reconciled).
		Int("failed", len(report.Failed)).
		Msg("reconcile finished")
	return report, nil
}
