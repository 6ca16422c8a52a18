package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// ListWorkflowTemplates returns every template with its phases.
func ListWorkflowTemplates(ctx context.Context, httpClient HTTPClient, baseURL string) ([]types.WorkflowTemplate, error) {
	var lr types.DataResponse[types.WorkflowTemplate]
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "workflow-templates"), "list workflow templates", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Data == nil {
		lr.Data = []types.WorkflowTemplate{}
	}
	return lr.Data, nil
}

// CreateWorkflowTemplate creates an empty template.
func CreateWorkflowTemplate(ctx context.Context, httpClient HTTPClient, baseURL string, req types.CreateWorkflowTemplateRequest) (*types.WorkflowTemplate, error) {
	var w types.WorkflowTemplate
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "workflow-templates"), "create workflow template", req, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateWorkflowTemplate applies a partial update to a template.
func UpdateWorkflowTemplate(ctx context.Context, httpClient HTTPClient, baseURL, templateID string, req types.UpdateWorkflowTemplateRequest) (*types.WorkflowTemplate, error) {
	if err := types.ValidateID("workflow", templateID); err != nil {
		return nil, err
	}
	var w types.WorkflowTemplate
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "workflow-templates", templateID), "update workflow template", req, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// DeleteWorkflowTemplate deletes a template and its phases.
func DeleteWorkflowTemplate(ctx context.Context, httpClient HTTPClient, baseURL, templateID string) error {
	if err := types.ValidateID("workflow", templateID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "workflow-templates", templateID), "delete workflow template", nil, nil)
}

// CreateWorkflowPhase appends a phase to a template.
func CreateWorkflowPhase(ctx context.Context, httpClient HTTPClient, baseURL, templateID string, req types.CreateWorkflowPhaseRequest) (*types.WorkflowPhase, error) {
	if err := types.ValidateID("workflow", templateID); err != nil {
		return nil, err
	}
	var p types.WorkflowPhase
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "workflow-templates", templateID, "phases"), "create workflow phase", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateWorkflowPhase applies a partial update to a template phase.
func UpdateWorkflowPhase(ctx context.Context, httpClient HTTPClient, baseURL, templateID, phaseID string, req types.UpdateWorkflowPhaseRequest) (*types.WorkflowPhase, error) {
	if err := types.ValidateID("workflow", templateID); err != nil {
		return nil, err
	}
	if err := types.ValidateID("phase", phaseID); err != nil {
		return nil, err
	}
	var p types.WorkflowPhase
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "workflow-templates", templateID, "phases", phaseID), "update workflow phase", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteWorkflowPhase removes a phase from a template.
func DeleteWorkflowPhase(ctx context.Context, httpClient HTTPClient, baseURL, templateID, phaseID string) error {
	if err := types.ValidateID("workflow", templateID); err != nil {
		return err
	}
	if err := types.ValidateID("phase", phaseID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "workflow-templates", templateID, "phases", phaseID), "delete workflow phase", nil, nil)
}
