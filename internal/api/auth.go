package api

import (
	"context"
	"net/http"

	"github.com/designcomb/influenter/client/internal/types"
)

// GoogleLogin exchanges a Google credential for a user and session token.
func GoogleLogin(ctx context.Context, httpClient HTTPClient, baseURL string, req types.GoogleLoginRequest) (*types.LoginResponse, error) {
	if err := types.ValidateID("credential", req.Credential); err != nil {
		return nil, err
	}
	var lr types.LoginResponse
	if err := doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "auth", "google"), "google login", req, &lr); err != nil {
		return nil, err
	}
	return &lr, nil
}

// GetCurrentUser returns the user the bearer token belongs to.
func GetCurrentUser(ctx context.Context, httpClient HTTPClient, baseURL string) (*types.User, error) {
	var u types.User
	if err := doJSON(ctx, httpClient, http.MethodGet, endpoint(baseURL, "auth", "me"), "current user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout invalidates the session server side.
func Logout(ctx context.Context, httpClient HTTPClient, baseURL string) error {
	return doJSON(ctx, httpClient, http.MethodPost, endpoint(baseURL, "auth", "logout"), "logout", nil, nil)
}
