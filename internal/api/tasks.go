package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// ListTasks returns the tasks of a case.
func ListTasks(ctx context.Context, httpClient HTTPClient, baseURL, caseID string) ([]types.Task, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	var lr types.DataResponse[types.Task]
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "cases", caseID, "tasks"), "list tasks", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Data == nil {
		lr.Data = []types.Task{}
	}
	return lr.Data, nil
}

// CreateTask adds a task to a case.
func CreateTask(ctx context.Context, httpClient HTTPClient, baseURL, caseID string, req types.CreateTaskRequest) (*types.Task, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	var t types.Task
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "cases", caseID, "tasks"), "create task", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies a partial update to a task.
func UpdateTask(ctx context.Context, httpClient HTTPClient, baseURL, taskID string, req types.UpdateTaskRequest) (*types.Task, error) {
	if err := types.ValidateID("task", taskID); err != nil {
		return nil, err
	}
	var t types.Task
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "tasks", taskID), "update task", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CompleteTask marks a task completed.
func CompleteTask(ctx context.Context, httpClient HTTPClient, baseURL, taskID string) (*types.Task, error) {
	if err := types.ValidateID("task", taskID); err != nil {
		return nil, err
	}
	var t types.Task
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "tasks", taskID, "complete"), "complete task", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask deletes a task.
func DeleteTask(ctx context.Context, httpClient HTTPClient, baseURL, taskID string) error {
	if err := types.ValidateID("task", taskID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "tasks", taskID), "delete task", nil, nil)
}

// ReorderTasks submits the new task order of a case.
func ReorderTasks(ctx context.Context, httpClient HTTPClient, baseURL, caseID string, taskIDs []string) error {
	if err := types.ValidateID("case", caseID); err != nil {
		return err
	}
	req := types.ReorderTasksRequest{TaskIDs: taskIDs}
	return doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "cases", caseID, "tasks", "reorder"), "reorder tasks", req, nil)
}
