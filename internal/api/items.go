package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// ListCollaborationItems returns the catalog as a flat list.
func ListCollaborationItems(ctx context.Context, httpClient HTTPClient, baseURL string) ([]types.CollaborationItem, error) {
	var lr types.DataResponse[types.CollaborationItem]
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "collaboration-items"), "list collaboration items", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Data == nil {
		lr.Data = []types.CollaborationItem{}
	}
	return lr.Data, nil
}

// CreateCollaborationItem adds an item to the catalog.
func CreateCollaborationItem(ctx context.Context, httpClient HTTPClient, baseURL string, req types.CreateCollaborationItemRequest) (*types.CollaborationItem, error) {
	var it types.CollaborationItem
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "collaboration-items"), "create collaboration item", req, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// UpdateCollaborationItem applies a partial update to an item.
func UpdateCollaborationItem(ctx context.Context, httpClient HTTPClient, baseURL, itemID string, req types.UpdateCollaborationItemRequest) (*types.CollaborationItem, error) {
	if err := types.ValidateID("collaboration item", itemID); err != nil {
		return nil, err
	}
	var it types.CollaborationItem
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "collaboration-items", itemID), "update collaboration item", req, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// DeleteCollaborationItem deletes an item; the backend removes its descendants.
func DeleteCollaborationItem(ctx context.Context, httpClient HTTPClient, baseURL, itemID string) error {
	if err := types.ValidateID("collaboration item", itemID); err != nil {
		return err
	}
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "collaboration-items", itemID), "delete collaboration item", nil, nil)
}

// ReorderCollaborationItems submits the new order of one sibling group.
func ReorderCollaborationItems(ctx context.Context, httpClient HTTPClient, baseURL string, itemIDs []string, parentID *string) error {
	req := types.ReorderItemsRequest{ItemIDs: itemIDs, ParentID: parentID}
	return doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "collaboration-items", "reorder"), "reorder collaboration items", req, nil)
}
