package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// ListCases returns one page of cases for the given filters.
func ListCases(ctx context.Context, httpClient HTTPClient, baseURL string, params map[string]string) (*types.CaseListResponse, error) {
	var lr types.CaseListResponse
	if err := doJSON(ctx, httpClient, http.MethodGet, withQuery(endpoint(baseURL, "cases"), params), "list cases", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Data == nil {
		lr.Data = []types.Case{}
	}
	return &lr, nil
}

// GetCase retrieves a case with its detail extension.
func GetCase(ctx context.Context, httpClient HTTPClient, baseURL, caseID string) (*types.CaseDetail, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	var d types.CaseDetail
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "cases", caseID), "get case", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateCase creates a case and returns the server copy.
func CreateCase(ctx context.Context, httpClient HTTPClient, baseURL string, req types.CreateCaseRequest) (*types.Case, error) {
	var c types.Case
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "cases"), "create case", req, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCase applies a partial update.
func UpdateCase(ctx context.Context, httpClient HTTPClient, baseURL, caseID string, req types.UpdateCaseRequest) (*types.Case, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	var c types.Case
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "cases", caseID), "update case", req, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCase deletes a case. Backend returns 204 No Content on success.
func DeleteCase(ctx context.Context, httpClient HTTPClient, baseURL, caseID string) error {
	if err := types.ValidateID("case", caseID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "cases", caseID), "delete case", nil, nil)
}

// ListCaseEmails returns the emails linked to a case.
func ListCaseEmails(ctx context.Context, httpClient HTTPClient, baseURL, caseID string) ([]types.CaseEmail, error) {
	if err := types.ValidateID("case", caseID); err != nil {
		return nil, err
	}
	var lr types.DataResponse[types.CaseEmail]
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "cases", caseID, "emails"), "list case emails", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Data == nil {
		lr.Data = []types.CaseEmail{}
	}
	return lr.Data, nil
}

// LinkCaseEmail associates an email with a case.
func LinkCaseEmail(ctx context.Context, httpClient HTTPClient, baseURL, caseID, emailID string) error {
	if err := types.ValidateID("case", caseID); err != nil {
		return err
	}
	if err := types.ValidateID("email", emailID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "cases", caseID, "emails"), "link case email", types.LinkEmailRequest{EmailID: emailID}, nil)
}

// UnlinkCaseEmail removes the association between an email and a case.
func UnlinkCaseEmail(ctx context.Context, httpClient HTTPClient, baseURL, caseID, emailID string) error {
	if err := types.ValidateID("case", caseID); err != nil {
		return err
	}
	if err := types.ValidateID("email", emailID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "cases", caseID, "emails", emailID), "unlink case email", nil, nil)
}
