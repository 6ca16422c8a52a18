package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// ListCasePhases returns the scheduled phases of a case.
func ListCasePhases(ctx context.Context, httpClient HTTPClient, baseURL, caseID string) ([]types.CasePhase, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	var lr types.DataResponse[types.CasePhase]
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "cases", caseID, "phases"), "list case phases", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Data == nil {
		lr.Data = []types.CasePhase{}
	}
	return lr.Data, nil
}

// CreateCasePhase schedules a phase onto a case.
func CreateCasePhase(ctx context.Context, httpClient HTTPClient, baseURL, caseID string, req types.CreateCasePhaseRequest) (*types.CasePhase, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	var p types.CasePhase
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "cases", caseID, "phases"), "create case phase", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyWorkflowTemplate replaces the phases of a case with a template's schedule.
func ApplyWorkflowTemplate(ctx context.Context, httpClient HTTPClient, baseURL, caseID string, req types.ApplyTemplateRequest) ([]types.CasePhase, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	if err := types.ValidateID("workflow", req.WorkflowID); err != nil {
		return nil, err
	}
	var lr types.DataResponse[types.CasePhase]
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "cases", caseID, "apply-template"), "apply workflow template", req, &lr); err != nil {
		return nil, err
	}
	if lr.Data == nil {
		lr.Data = []types.CasePhase{}
	}
	return lr.Data, nil
}

// UpdateCasePhase applies a partial update to a case phase.
func UpdateCasePhase(ctx context.Context, httpClient HTTPClient, baseURL, caseID, phaseID string, req types.UpdateCasePhaseRequest) (*types.CasePhase, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	if err := types.ValidateID("phase", phaseID); err != nil {
		return nil, err
	}
	var p types.CasePhase
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "cases", caseID, "phases", phaseID), "update case phase", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteCasePhase removes a phase from a case.
func DeleteCasePhase(ctx context.Context, httpClient HTTPClient, baseURL, caseID, phaseID string) error {
	if err := types.ValidateID("case", caseID); err != nil {
		return err
	}
	if err := types.ValidateID("phase", phaseID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "cases", caseID, "phases", phaseID), "delete case phase", nil, nil)
}
