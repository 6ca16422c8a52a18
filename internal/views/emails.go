package views

import "github.com/designcomb/influenter/client/internal/types"

// UnreadCount counts unread emails.
func UnreadCount(emails []types.Email) int {
	n := 0
	for _, e := range emails {
		if !e.IsRead {
			n++
		}
	}
	return n
}

// EmailsForCase returns the emails linked to caseID.
func EmailsForCase(emails []types.Email, caseID string) []types.Email {
	out := []types.Email{}
	for _, e := range emails {
		if e.CaseID != nil && *e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out
}
