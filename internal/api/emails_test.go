package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/designcomb/influenter/client/internal/types"
)

func TestListEmails_Decode(t *testing.T) {
	t.Parallel()
	var last *http.Request
	srv := jsonServer(t, http.StatusOK, types.EmailListResponse{
		Emails:     []types.Email{{ID: "e1", FromEmail: "pr@nike.com"}},
		Pagination: types.EmailPagination{Page: 1, PageSize: 20, Total: 1, TotalPages: 1},
	}, &last)

	got, err := ListEmails(context.Background(), srv.Client(), srv.URL, map[string]string{"is_read": "false", "page_size": "20"})
	if err != nil || len(got.Emails) != 1 || got.Pagination.PageSize != 20 {
		t.Fatalf("ListEmails unexpected: got=%+v err=%v", got, err)
	}
	if last.URL.Query().Get("is_read") != "false" {
		t.Fatalf("query=%v", last.URL.RawQuery)
	}
}

func TestGmailStatusAndSync(t *testing.T) {
	t.Parallel()
	srv := jsonServer(t, http.StatusOK, types.GmailStatus{Connected: true, Email: "me@x.com"}, nil)
	st, err := GetGmailStatus(context.Background(), srv.Client(), srv.URL)
	if err != nil || !st.Connected {
		t.Fatalf("status unexpected: %+v %v", st, err)
	}
	if _, err := TriggerGmailSync(context.Background(), srv.Client(), srv.URL); err != nil {
		t.Fatalf("sync: %v", err)
	}
}

func TestAuth_LoginRequiresCredential(t *testing.T) {
	t.Parallel()
	offline := &http.Client{Transport: &errRT{}}
	if _, err := GoogleLogin(context.Background(), offline, "http://invalid", types.GoogleLoginRequest{}); err == nil {
		t.Fatal("expected error for empty credential")
	}
}
