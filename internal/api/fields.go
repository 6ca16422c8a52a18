package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// ListFields returns the system and custom field definitions.
func ListFields(ctx context.Context, httpClient HTTPClient, baseURL string) (*types.FieldListResponse, error) {
	var lr types.FieldListResponse
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "cases", "fields"), "list fields", nil, &lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

// CreateField defines a custom field.
func CreateField(ctx context.Context, httpClient HTTPClient, baseURL string, req types.CreateFieldRequest) (*types.CaseField, error) {
	var f types.CaseField
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "cases", "fields"), "create field", req, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateField applies a partial update to a field definition.
func UpdateField(ctx context.Context, httpClient HTTPClient, baseURL, fieldID string, req types.UpdateFieldRequest) (*types.CaseField, error) {
	if err := types.ValidateID("field", fieldID); err != nil {
		return nil, err
	}
	var f types.CaseField
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "cases", "fields", fieldID), "update field", req, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteField deletes a custom field.
func DeleteField(ctx context.Context, httpClient HTTPClient, baseURL, fieldID string) error {
	if err := types.ValidateID("field", fieldID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "cases", "fields", fieldID), "delete field", nil, nil)
}

// ReorderFields submits the new display order of all fields.
func ReorderFields(ctx context.Context, httpClient HTTPClient, baseURL string, fieldIDs []string) error {
	req := types.ReorderFieldsRequest{FieldIDs: fieldIDs}
	return doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "cases", "fields", "reorder"), "reorder fields", req, nil)
}
