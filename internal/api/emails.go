package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// ListEmails returns one page of synced emails for the given filters.
func ListEmails(ctx context.Context, httpClient HTTPClient, baseURL string, params map[string]string) (*types.EmailListResponse, error) {
	var lr types.EmailListResponse
	if err := doJSON(ctx, httpClient, http.MethodGet, withQuery(endpoint(baseURL, "emails"), params), "list emails", nil, &lr); err != nil {
		return nil, err
	}
	if lr.Emails == nil {
		lr.Emails = []types.Email{}
	}
	return &lr, nil
}

// GetEmail retrieves one email with its body.
func GetEmail(ctx context.Context, httpClient HTTPClient, baseURL, emailID string) (*types.EmailDetail, error) {
	if err := types.ValidateID("email", emailID); err != nil {
		return nil, err
	}
	var e types.EmailDetail
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "emails", emailID), "get email", nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEmail patches read state or the case link of an email.
func UpdateEmail(ctx context.Context, httpClient HTTPClient, baseURL, emailID string, req types.UpdateEmailRequest) (*types.Email, error) {
	if err := types.ValidateID("email", emailID); err != nil {
		return nil, err
	}
	var e types.Email
	if err := doJSON(ctx, httpClient, http.MethodPatch, endpoint(baseURL, "emails", emailID), "update email", req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetGmailStatus returns the email-integration connection state.
func GetGmailStatus(ctx context.Context, httpClient HTTPClient, baseURL string) (*types.GmailStatus, error) {
	var st types.GmailStatus
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "gmail", "status"), "gmail status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// TriggerGmailSync asks the backend to start a mailbox sync.
func TriggerGmailSync(ctx context.Context, httpClient HTTPClient, baseURL string) (*types.SyncResponse, error) {
	var sr types.SyncResponse
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "gmail", "sync"), "gmail sync", nil, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

// DisconnectGmail revokes the mailbox connection.
func DisconnectGmail(ctx context.Context, httpClient HTTPClient, baseURL string) error {
	return doJSON(ctx, httpClient, http.MethodDelete, endpoint(baseURL, "gmail", "disconnect"), "gmail disconnect", nil, nil)
}
