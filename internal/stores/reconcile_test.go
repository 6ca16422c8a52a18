package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/fakeapi"
	"github.com/designcomb/influenter/client/internal/job"
	"github.com/designcomb/influenter/client/internal/localcache"
	"github.com/designcomb/influenter/client/internal/types"
)

func replayIDs(rs []job.Replay) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Family + "/" + r.TempID
	}
	return out
}

func requireParentPending(t *testing.T, err error) {
	t.Helper()
	require.ErrorIs(t, err, ErrParentPending)
	assert.True(t, clienterrors.IsIrrecoverable(err))
}

func TestReconcile_CaseThenTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.srv.SetMode(fakeapi.Offline)
	s := NewCases(f.deps)
	ctx := context.Background()

	c, err := s.Create(ctx, types.CreateCaseRequest{Title: "Nike Deal", BrandName: "Nike"})
	require.NoError(t, err)
	require.Equal(t, "temp_1", c.TempID)
	_, err = s.CreateTask(ctx, "temp_1", types.CreateTaskRequest{Title: "Brief"})
	require.NoError(t, err)

	replays := s.PendingReplays(ctx)
	require.Equal(t, []string{ReplayCases + "/temp_1", ReplayCases + "/temp_2"}, replayIDs(replays))

	f.srv.SetMode(fakeapi.OK)
	requireParentPending(t, replays[1].Fn(ctx))
	assert.Empty(t, f.srv.Cases(), "nothing replayed out of order")

	require.NoError(t, replays[0].Fn(ctx))
	require.Len(t, f.srv.Cases(), 1)
	caseID := f.srv.Cases()[0].ID
	assert.Equal(t, caseID, s.ResolvedID("temp_1"))
	assert.Equal(t, "Nike Deal", f.srv.Cases()[0].Title)

	require.NoError(t, replays[1].Fn(ctx))
	serverTasks := f.srv.Tasks(caseID)
	require.Len(t, serverTasks, 1)
	assert.Equal(t, "Brief", serverTasks[0].Title)

	tasks := s.Tasks(caseID)
	require.Len(t, tasks, 1)
	assert.Equal(t, serverTasks[0].ID, tasks[0].ID)
	assert.Equal(t, caseID, tasks[0].CaseID)
	assert.Empty(t, s.Tasks("temp_1"))

	cached, ok := f.cache.Cases(ctx)
	require.True(t, ok)
	for _, c := range cached {
		assert.False(t, localcache.IsTempID(c.ID), "cached case %s", c.ID)
	}
	_, ok = f.cache.Tasks(ctx, "temp_1")
	assert.False(t, ok)
	cachedTasks, ok := f.cache.Tasks(ctx, caseID)
	require.True(t, ok)
	assert.Equal(t, []string{serverTasks[0].ID}, taskIDs(cachedTasks))

	assert.Empty(t, s.PendingReplays(ctx))
}

func TestReconcile_CompletedTaskIsCompletedRemotely(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seedCase(f.srv, "c1", "Nike", types.CaseInProgress)
	s := NewCases(f.deps)
	ctx := context.Background()
	_, err := s.Fetch(ctx, types.CaseQuery{})
	require.NoError(t, err)
	f.srv.SetMode(fakeapi.Offline)

	task, err := s.CreateTask(ctx, "c1", types.CreateTaskRequest{Title: "Invoice"})
	require.NoError(t, err)
	_, err = s.CompleteTask(ctx, "c1", task.Value.ID)
	require.NoError(t, err)

	replays := s.PendingReplays(ctx)
	require.Len(t, replays, 1)
	f.srv.SetMode(fakeapi.OK)
	require.NoError(t, replays[0].Fn(ctx))

	serverTasks := f.srv.Tasks("c1")
	require.Len(t, serverTasks, 1)
	assert.Equal(t, types.TaskCompleted, serverTasks[0].Status)
}

func TestReconcile_PhaseOfConfirmedCase(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seedCase(f.srv, "c1", "Nike", types.CaseInProgress)
	s := NewCases(f.deps)
	ctx := context.Background()
	_, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	f.srv.SetMode(fakeapi.Offline)

	res, err := s.CreatePhase(ctx, "c1", types.CreateCasePhaseRequest{
		Name: "Shoot", StartDate: types.NewDate(2025, 3, 1), DurationDays: 3,
	})
	require.NoError(t, err)
	require.Equal(t, Provisional, res.Origin)

	replays := s.PendingReplays(ctx)
	require.Equal(t, []string{ReplayCases + "/" + res.TempID}, replayIDs(replays))
	f.srv.SetMode(fakeapi.OK)
	require.NoError(t, replays[0].Fn(ctx))

	remote := f.srv.Phases("c1")
	require.Len(t, remote, 1)
	assert.Equal(t, "Shoot", remote[0].Name)
	assert.Equal(t, types.NewDate(2025, 3, 3), remote[0].EndDate)
	assert.Equal(t, remote[0].ID, s.ResolvedID(res.TempID))

	local := s.Phases("c1")
	require.Len(t, local, 1)
	assert.Equal(t, remote[0].ID, local[0].ID)
	cur, ok := s.Current()
	require.True(t, ok)
	require.Len(t, cur.Phases, 1)
	assert.Equal(t, remote[0].ID, cur.Phases[0].ID)
	cached, ok := f.cache.Phases(ctx, "c1")
	require.True(t, ok)
	require.Len(t, cached, 1)
	assert.Equal(t, remote[0].ID, cached[0].ID)
	assert.Empty(t, s.PendingReplays(ctx))
}

func TestReconcile_PhaseWaitsForItsCase(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.srv.SetMode(fakeapi.Offline)
	s := NewCases(f.deps)
	ctx := context.Background()

	_, err := s.Create(ctx, types.CreateCaseRequest{Title: "Adidas Haul", BrandName: "Adidas"})
	require.NoError(t, err)
	_, err = s.CreatePhase(ctx, "temp_1", types.CreateCasePhaseRequest{
		Name: "Brief", StartDate: types.NewDate(2025, 5, 1), DurationDays: 2,
	})
	require.NoError(t, err)

	replays := s.PendingReplays(ctx)
	require.Equal(t, []string{ReplayCases + "/temp_1", ReplayCases + "/temp_2"}, replayIDs(replays))

	f.srv.SetMode(fakeapi.OK)
	requireParentPending(t, replays[1].Fn(ctx))
	require.NoError(t, replays[0].Fn(ctx))
	require.NoError(t, replays[1].Fn(ctx))

	caseID := s.ResolvedID("temp_1")
	remote := f.srv.Phases(caseID)
	require.Len(t, remote, 1)
	local := s.Phases(caseID)
	require.Len(t, local, 1)
	assert.Equal(t, remote[0].ID, local[0].ID)
	assert.Equal(t, caseID, local[0].CaseID)
	assert.Empty(t, s.PendingReplays(ctx))
}

func TestReconcile_FieldSwapsID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.srv.SetMode(fakeapi.Offline)
	s := NewFields(f.deps)
	ctx := context.Background()
	_, err := s.Create(ctx, platformField)
	require.NoError(t, err)

	replays := s.PendingReplays(ctx)
	require.Equal(t, []string{ReplayFields + "/temp_1"}, replayIDs(replays))
	f.srv.SetMode(fakeapi.OK)
	require.NoError(t, replays[0].Fn(ctx))

	custom := s.Custom()
	require.Len(t, custom, 1)
	assert.False(t, localcache.IsTempID(custom[0].ID))
	assert.Len(t, f.srv.Fields(), 6)
	cached, _ := f.cache.Fields(ctx)
	for _, fd := range cached {
		assert.False(t, localcache.IsTempID(fd.ID))
	}
	assert.Empty(t, s.PendingReplays(ctx))
}

func TestReconcile_ItemsParentFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.srv.SetMode(fakeapi.Offline)
	s := NewItems(f.deps)
	ctx := context.Background()

	parent, err := s.Create(ctx, types.CreateCollaborationItemRequest{Title: "Video"})
	require.NoError(t, err)
	_, err = s.Create(ctx, types.CreateCollaborationItemRequest{Title: "Reel", ParentID: types.Ptr(parent.Value.ID)})
	require.NoError(t, err)

	replays := s.PendingReplays(ctx)
	require.Equal(t, []string{ReplayItems + "/temp_1", ReplayItems + "/temp_2"}, replayIDs(replays))

	f.srv.SetMode(fakeapi.OK)
	requireParentPending(t, replays[1].Fn(ctx))
	require.NoError(t, replays[0].Fn(ctx))
	require.NoError(t, replays[1].Fn(ctx))

	items := f.srv.Items()
	require.Len(t, items, 2)
	require.NotNil(t, items[1].ParentID)
	assert.Equal(t, items[0].ID, *items[1].ParentID)

	forest := s.Tree()
	require.Len(t, forest, 1)
	assert.Equal(t, items[0].ID, forest[0].ID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, items[1].ID, forest[0].Children[0].ID)
	assert.Empty(t, s.PendingReplays(ctx))
}

func TestReconcile_WorkflowThenPhase(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.srv.SetMode(fakeapi.Offline)
	s := NewWorkflows(f.deps)
	ctx := context.Background()

	_, err := s.Create(ctx, types.CreateWorkflowTemplateRequest{Name: "Launch", Color: types.ColorSuccess})
	require.NoError(t, err)
	_, err = s.CreatePhase(ctx, "temp_1", types.CreateWorkflowPhaseRequest{Name: "Brief", DurationDays: 2})
	require.NoError(t, err)

	replays := s.PendingReplays(ctx)
	require.Equal(t, []string{ReplayWorkflows + "/temp_1", ReplayWorkflows + "/temp_2"}, replayIDs(replays))

	f.srv.SetMode(fakeapi.OK)
	requireParentPending(t, replays[1].Fn(ctx))
	require.NoError(t, replays[0].Fn(ctx))
	require.NoError(t, replays[1].Fn(ctx))

	remote := f.srv.Workflows()
	require.Len(t, remote, 1)
	require.Len(t, remote[0].Phases, 1)
	assert.Equal(t, "Brief", remote[0].Phases[0].Name)

	local, ok := s.Find(remote[0].ID)
	require.True(t, ok)
	require.Len(t, local.Phases, 1)
	assert.Equal(t, remote[0].Phases[0].ID, local.Phases[0].ID)
	assert.Equal(t, remote[0].ID, local.Phases[0].WorkflowTemplateID)
	assert.Empty(t, s.PendingReplays(ctx))
}
