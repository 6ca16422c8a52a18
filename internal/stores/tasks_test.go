package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designcomb/influenter/client/internal/fakeapi"
	"github.com/designcomb/influenter/client/internal/types"
)

func taskIDs(tasks []types.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func taskOrders(tasks []types.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.Order
	}
	return out
}

// threeTasks seeds case c1 with t1, t2, t3 and loads them into s.
func threeTasks(t *testing.T, f *fixture, s *Cases) {
	t.Helper()
	f.srv.SeedCase(types.CaseDetail{Case: types.Case{ID: "c1", Title: "Nike Deal", BrandName: "Nike", Status: types.CaseInProgress}})
	f.srv.SeedTasks("c1",
		types.Task{ID: "t1", CaseID: "c1", Title: "Brief", Status: types.TaskPending, Order: 0},
		types.Task{ID: "t2", CaseID: "c1", Title: "Draft", Status: types.TaskPending, Order: 1},
		types.Task{ID: "t3", CaseID: "c1", Title: "Publish", Status: types.TaskPending, Order: 2},
	)
	ctx := context.Background()
	_, err := s.Fetch(ctx, types.CaseQuery{})
	require.NoError(t, err)
	res, err := s.FetchTasks(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t2", "t3"}, taskIDs(res.Value))
}

func TestReorderTasks_Success(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewCases(f.deps)
	threeTasks(t, f, s)

	res, err := s.ReorderTasks(context.Background(), "c1", []string{"t3", "t2", "t1"})
	require.NoError(t, err)
	assert.Equal(t, Confirmed, res.Origin)
	assert.Equal(t, []string{"t3", "t2", "t1"}, taskIDs(res.Value))
	assert.Equal(t, []int{0, 1, 2}, taskOrders(res.Value))

	assert.Equal(t, []string{"t3", "t2", "t1"}, taskIDs(f.srv.Tasks("c1")))
	// the authoritative order is fetched again
	assert.Equal(t, 2, f.srv.Calls("GET", "/cases/c1/tasks"))
}

func TestReorderTasks_FailureKeepsLocalOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewCases(f.deps)
	threeTasks(t, f, s)
	f.srv.Override("PATCH", "/cases/c1/tasks/reorder", fakeapi.ServerError)
	ctx := context.Background()

	res, err := s.ReorderTasks(ctx, "c1", []string{"t3", "t2", "t1"})
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	require.Error(t, res.RemoteErr)
	assert.Equal(t, []string{"t3", "t2", "t1"}, taskIDs(s.Tasks("c1")))
	assert.Equal(t, []int{0, 1, 2}, taskOrders(s.Tasks("c1")))

	cached, ok := f.cache.Tasks(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, []string{"t3", "t2", "t1"}, taskIDs(cached))
	assert.Equal(t, []string{"t1", "t2", "t3"}, taskIDs(f.srv.Tasks("c1")), "backend untouched")
	assert.Contains(t, s.Status().Error, "Failed to reorder tasks")
}

func TestReorderTasks_DropsUnlistedAndUnknown(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewCases(f.deps)
	threeTasks(t, f, s)
	f.srv.SetMode(fakeapi.Offline)

	res, err := s.ReorderTasks(context.Background(), "c1", []string{"t2", "nope", "t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t1"}, taskIDs(res.Value))
	assert.Equal(t, []int{0, 1}, taskOrders(res.Value))
}

func TestCreateTask_OfflineAppendsAndCounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewCases(f.deps)
	threeTasks(t, f, s)
	f.srv.SetMode(fakeapi.Offline)
	ctx := context.Background()

	res, err := s.CreateTask(ctx, "c1", types.CreateTaskRequest{Title: "Invoice"})
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	assert.Equal(t, "temp_1", res.Value.ID)
	assert.Equal(t, types.TaskPending, res.Value.Status)
	assert.Equal(t, 3, res.Value.Order)

	assert.Len(t, s.Tasks("c1"), 4)
	require.Len(t, s.Cases(), 1)
	assert.Equal(t, 4, s.Cases()[0].TaskCount)
	cached, _ := f.cache.Tasks(ctx, "c1")
	assert.Len(t, cached, 4)
}

func TestCreateTask_OnUnfetchedCaseSeedsFromCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.SetTasks(ctx, "c9", []types.Task{{ID: "t1", CaseID: "c9", Order: 0}}))
	f.srv.SetMode(fakeapi.Offline)
	s := NewCases(f.deps)

	_, err := s.CreateTask(ctx, "c9", types.CreateTaskRequest{Title: "New"})
	require.NoError(t, err)
	cached, _ := f.cache.Tasks(ctx, "c9")
	assert.Equal(t, []string{"t1", "temp_1"}, taskIDs(cached), "the cached task survives")
}

func TestCompleteTask(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewCases(f.deps)
	threeTasks(t, f, s)
	ctx := context.Background()

	res, err := s.CompleteTask(ctx, "c1", "t1")
	require.NoError(t, err)
	assert.Equal(t, Confirmed, res.Origin)
	assert.Equal(t, types.TaskCompleted, res.Value.Status)
	assert.Equal(t, 1, s.Cases()[0].CompletedTaskCount)

	f.srv.SetMode(fakeapi.Offline)
	res, err = s.CompleteTask(ctx, "c1", "t2")
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	require.NotNil(t, res.Value.CompletedAt)
	assert.Equal(t, testNow, *res.Value.CompletedAt)
	assert.Equal(t, 2, s.Cases()[0].CompletedTaskCount)
}

func TestUpdateTask_UnknownOfflineIsNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewCases(f.deps)
	threeTasks(t, f, s)
	f.srv.SetMode(fakeapi.ServerError)

	_, err := s.UpdateTask(context.Background(), "c1", "ghost", types.UpdateTaskRequest{Title: types.Ptr("x")})
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteTask_OfflineRemovesAndCounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewCases(f.deps)
	threeTasks(t, f, s)
	f.srv.SetMode(fakeapi.Offline)

	res, err := s.DeleteTask(context.Background(), "c1", "t2")
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	assert.Equal(t, []string{"t1", "t3"}, taskIDs(s.Tasks("c1")))
	assert.Equal(t, 2, s.Cases()[0].TaskCount)
}

func TestPhases_CreateOfflineComputesEnd(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seedCase(f.srv, "c1", "Nike", types.CaseInProgress)
	f.srv.SetMode(fakeapi.Offline)
	s := NewCases(f.deps)

	start := types.NewDate(2025, 3, 1)
	res, err := s.CreatePhase(context.Background(), "c1", types.CreateCasePhaseRequest{
		Name: "Shoot", StartDate: start, DurationDays: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	assert.Equal(t, types.NewDate(2025, 3, 3), res.Value.EndDate)
	assert.Len(t, s.Phases("c1"), 1)
}

func TestPhases_ApplyTemplate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seedCase(f.srv, "c1", "Nike", types.CaseInProgress)
	tmpl := types.WorkflowTemplate{ID: "wf1", Name: "Standard", Phases: []types.WorkflowPhase{
		{ID: "p1", Name: "Brief", DurationDays: 2, Order: 0},
		{ID: "p2", Name: "Shoot", DurationDays: 3, Order: 1},
	}}
	f.srv.SeedWorkflows(tmpl)
	s := NewCases(f.deps)
	ctx := context.Background()

	res, err := s.ApplyTemplate(ctx, "c1", tmpl, types.NewDate(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, Confirmed, res.Origin)
	require.Len(t, res.Value, 2)
	assert.Equal(t, types.NewDate(2025, 3, 2), res.Value[0].EndDate)
	assert.Equal(t, types.NewDate(2025, 3, 3), res.Value[1].StartDate)
	assert.Equal(t, types.NewDate(2025, 3, 5), res.Value[1].EndDate)

	f.srv.SetMode(fakeapi.Offline)
	res, err = s.ApplyTemplate(ctx, "c1", tmpl, types.NewDate(2025, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	require.Len(t, res.Value, 2)
	assert.Equal(t, types.NewDate(2025, 4, 1), res.Value[0].StartDate)
	assert.Len(t, s.Phases("c1"), 2, "applying replaces the timeline")
}
