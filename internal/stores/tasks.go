package stores

import (
	"context"
	"fmt"

	"github.com/designcomb/influenter/client/internal/api"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

// Tasks returns the tasks of a case sorted by order.
func (s *Cases) Tasks(caseID string) []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tasks[caseID]; ok {
		return views.SortTasks(t)
	}
	if s.current != nil && s.current.ID == caseID {
		return views.SortTasks(s.current.Tasks)
	}
	return []types.Task{}
}

// setTasks stores the tasks of a case and mirrors them into the open
// detail. The caller holds s.mu.
func (s *Cases) setTasks(caseID string, tasks []types.Task) {
	s.tasks[caseID] = tasks
	if s.current != nil && s.current.ID == caseID {
		d := *s.current
		d.Tasks = tasks
		s.current = &d
	}
}

// ensureTasks seeds the tasks of a case that was never fetched from the
// open detail or the cache.
func (s *Cases) ensureTasks(ctx context.Context, caseID string) {
	s.mu.RLock()
	_, ok := s.tasks[caseID]
	s.mu.RUnlock()
	if ok {
		return
	}
	cached, _ := s.cache().Tasks(ctx, caseID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[caseID]; ok {
		return
	}
	seed := cached
	if s.current != nil && s.current.ID == caseID && s.current.Tasks != nil {
		seed = s.current.Tasks
	}
	s.tasks[caseID] = cloneSlice(seed)
}

// FetchTasks loads the tasks of a case, falling back to the cached ones.
func (s *Cases) FetchTasks(ctx context.Context, caseID string) (Result[[]types.Task], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[[]types.Task]{}, err
	}
	end, ok := s.begin("fetch_tasks", "tasks:"+caseID)
	if !ok {
		return Result[[]types.Task]{Value: s.Tasks(caseID), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	tasks, err := api.ListTasks(ctx, s.deps.HTTP, s.deps.BaseURL, caseID)
	if err == nil {
		tasks = views.SortTasks(tasks)
		s.mu.Lock()
		s.setTasks(caseID, tasks)
		s.mu.Unlock()
		s.persist("fetch_tasks", s.cache().SetTasks(ctx, caseID, tasks))
		s.succeeded("fetch_tasks")
		return Result[[]types.Task]{Value: cloneSlice(tasks), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.Task]{}, err
	}

	s.failed("fetch_tasks", true, err, "Failed to load tasks")
	if cached, ok := s.cache().Tasks(ctx, caseID); ok {
		s.mu.Lock()
		s.setTasks(caseID, cached)
		s.mu.Unlock()
		s.fellBack("fetch_tasks")
		return Result[[]types.Task]{Value: views.SortTasks(cached), Origin: Cached, RemoteErr: err}, nil
	}
	return Result[[]types.Task]{Value: s.Tasks(caseID), Origin: Cached, RemoteErr: err}, nil
}

// CreateTask appends a task to a case. When the backend fails the task is
// created locally as pending, after every existing task.
func (s *Cases) CreateTask(ctx context.Context, caseID string, req types.CreateTaskRequest) (Result[types.Task], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[types.Task]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.Task]{}, err
	}
	s.ensureTasks(ctx, caseID)
	end, _ := s.begin("create_task", "")
	defer end()

	created, err := api.CreateTask(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, req)
	if err == nil {
		s.addTask(ctx, *created)
		s.succeeded("create_task")
		return Result[types.Task]{Value: *created, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.Task]{}, err
	}

	s.failed("create_task", false, err, "Failed to create task (saved locally)")
	now := s.now()
	s.mu.RLock()
	next := views.NextTaskOrder(s.tasks[caseID])
	s.mu.RUnlock()
	t := types.Task{
		ID:           s.deps.NewTempID(),
		CaseID:       caseID,
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		DueTime:      req.DueTime,
		ReminderDays: req.ReminderDays,
		Status:       types.TaskPending,
		Order:        next,
		Source:       "manual",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.addTask(ctx, t)
	s.provisional("create_task", t.ID)
	return Result[types.Task]{Value: t, Origin: Provisional, TempID: t.ID, RemoteErr: err}, nil
}

func (s *Cases) addTask(ctx context.Context, t types.Task) {
	s.mu.Lock()
	rest, _ := removeByID(s.tasks[t.CaseID], t.ID, idOfTask)
	s.setTasks(t.CaseID, append(rest, t))
	c, bumped := s.bumpCounts(t.CaseID, 1, completedDelta(types.Task{}, t))
	s.mu.Unlock()
	s.persist("create_task", s.cache().AddTask(ctx, t))
	if bumped {
		s.persist("create_task", s.cache().UpdateCase(ctx, c))
	}
}

// replaceTask swaps in t and keeps the completed counter of its case in
// step. It reports whether the task was known.
func (s *Cases) replaceTask(ctx context.Context, op string, t types.Task) bool {
	s.mu.Lock()
	prev, found := findByID(s.tasks[t.CaseID], t.ID, idOfTask)
	var next []types.Task
	if found {
		next, _ = replaceByID(s.tasks[t.CaseID], t.ID, idOfTask, t)
	} else {
		next = append(cloneSlice(s.tasks[t.CaseID]), t)
	}
	s.setTasks(t.CaseID, next)
	var c types.Case
	bumped := false
	if found {
		c, bumped = s.bumpCounts(t.CaseID, 0, completedDelta(prev, t))
	}
	s.mu.Unlock()

	if found {
		s.persist(op, s.cache().UpdateTask(ctx, t))
	} else {
		s.persist(op, s.cache().AddTask(ctx, t))
	}
	if bumped {
		s.persist(op, s.cache().UpdateCase(ctx, c))
	}
	return found
}

// UpdateTask patches a task. When the backend fails the patch is merged
// locally.
func (s *Cases) UpdateTask(ctx context.Context, caseID, taskID string, req types.UpdateTaskRequest) (Result[types.Task], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[types.Task]{}, err
	}
	if err := types.ValidateID("task", taskID); err != nil {
		return Result[types.Task]{}, err
	}
	if err := req.Validate(); err != nil {
		return Result[types.Task]{}, err
	}
	s.ensureTasks(ctx, caseID)
	end, _ := s.begin("update_task", "")
	defer end()

	updated, err := api.UpdateTask(ctx, s.deps.HTTP, s.deps.BaseURL, taskID, req)
	return s.settleTask(ctx, "update_task", caseID, taskID, updated, err, req,
		"Failed to update task (saved locally)")
}

// CompleteTask marks a task completed. When the backend fails the task is
// completed locally with completed_at set to now.
func (s *Cases) CompleteTask(ctx context.Context, caseID, taskID string) (Result[types.Task], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[types.Task]{}, err
	}
	if err := types.ValidateID("task", taskID); err != nil {
		return Result[types.Task]{}, err
	}
	s.ensureTasks(ctx, caseID)
	end, _ := s.begin("complete_task", "")
	defer end()

	done := types.TaskCompleted
	updated, err := api.CompleteTask(ctx, s.deps.HTTP, s.deps.BaseURL, taskID)
	return s.settleTask(ctx, "complete_task", caseID, taskID, updated, err,
		types.UpdateTaskRequest{Status: &done}, "Failed to complete task (saved locally)")
}

func (s *Cases) settleTask(ctx context.Context, op, caseID, taskID string, updated *types.Task, err error,
	patch types.UpdateTaskRequest, msg string) (Result[types.Task], error) {
	if err == nil {
		t := *updated
		if t.CaseID == "" {
			t.CaseID = caseID
		}
		s.replaceTask(ctx, op, t)
		s.succeeded(op)
		return Result[types.Task]{Value: t, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.Task]{}, err
	}

	s.failed(op, false, err, msg)
	s.mu.RLock()
	prev, ok := findByID(s.tasks[caseID], taskID, idOfTask)
	s.mu.RUnlock()
	if !ok {
		return Result[types.Task]{RemoteErr: err}, fmt.Errorf("task %s: %w", taskID, types.ErrNotFound)
	}
	merged := patch.Apply(prev, s.now())
	s.replaceTask(ctx, op, merged)
	s.fellBack(op)
	return Result[types.Task]{Value: merged, Origin: Provisional, RemoteErr: err}, nil
}

// DeleteTask removes a task locally whatever the backend answers.
func (s *Cases) DeleteTask(ctx context.Context, caseID, taskID string) (Result[string], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[string]{}, err
	}
	if err := types.ValidateID("task", taskID); err != nil {
		return Result[string]{}, err
	}
	s.ensureTasks(ctx, caseID)
	end, _ := s.begin("delete_task", "")
	defer end()

	res := Result[string]{Value: taskID, Origin: Confirmed}
	err := api.DeleteTask(ctx, s.deps.HTTP, s.deps.BaseURL, taskID)
	switch {
	case err == nil:
		s.succeeded("delete_task")
	case canceled(ctx, err):
		return Result[string]{}, err
	default:
		s.failed("delete_task", false, err, "Failed to delete task (removed locally)")
		s.fellBack("delete_task")
		res.Origin, res.RemoteErr = Provisional, err
	}

	s.mu.Lock()
	prev, found := findByID(s.tasks[caseID], taskID, idOfTask)
	next, _ := removeByID(s.tasks[caseID], taskID, idOfTask)
	s.setTasks(caseID, next)
	var c types.Case
	bumped := false
	if found {
		c, bumped = s.bumpCounts(caseID, -1, -completedDelta(types.Task{}, prev))
	}
	s.mu.Unlock()
	s.persist("delete_task", s.cache().DeleteTask(ctx, caseID, taskID))
	if bumped {
		s.persist("delete_task", s.cache().UpdateCase(ctx, c))
	}
	return res, nil
}

// ReorderTasks puts the tasks of a case in the order of ids, rewriting
// order to the index. Tasks not listed are dropped from the local list and
// unknown ids are ignored. After a successful call the tasks are fetched
// again for the authoritative order.
func (s *Cases) ReorderTasks(ctx context.Context, caseID string, ids []string) (Result[[]types.Task], error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return Result[[]types.Task]{}, err
	}
	s.ensureTasks(ctx, caseID)
	end, _ := s.begin("reorder_tasks", "")
	defer end()

	err := api.ReorderTasks(ctx, s.deps.HTTP, s.deps.BaseURL, caseID, ids)
	if err != nil && canceled(ctx, err) {
		return Result[[]types.Task]{}, err
	}

	// applied in both outcomes so a failed refetch cannot bring back the old order
	s.mu.Lock()
	next := views.ResequenceTasks(s.tasks[caseID], ids)
	s.setTasks(caseID, next)
	s.mu.Unlock()
	if _, ok := s.cache().Tasks(ctx, caseID); ok {
		s.persist("reorder_tasks", s.cache().ReorderTasks(ctx, caseID, ids))
	} else {
		s.persist("reorder_tasks", s.cache().SetTasks(ctx, caseID, next))
	}

	if err == nil {
		s.succeeded("reorder_tasks")
		res, ferr := s.FetchTasks(ctx, caseID)
		if ferr != nil {
			return Result[[]types.Task]{Value: s.Tasks(caseID), Origin: Confirmed}, nil
		}
		origin := Confirmed
		if res.RemoteErr != nil {
			origin = Cached
		}
		return Result[[]types.Task]{Value: s.Tasks(caseID), Origin: origin, RemoteErr: res.RemoteErr}, nil
	}

	s.failed("reorder_tasks", false, err, "Failed to reorder tasks (saved locally)")
	s.fellBack("reorder_tasks")
	return Result[[]types.Task]{Value: s.Tasks(caseID), Origin: Provisional, RemoteErr: err}, nil
}

// completedDelta is +1 when a task became completed, -1 when it stopped
// being completed and 0 otherwise.
func completedDelta(prev, next types.Task) int {
	was, is := prev.Status == types.TaskCompleted, next.Status == types.TaskCompleted
	switch {
	case !was && is:
		return 1
	case was && !is:
		return -1
	default:
		return 0
	}
}
