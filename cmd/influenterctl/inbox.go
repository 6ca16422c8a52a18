package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/designcomb/influenter/client"
)

func newEmailsCmd(e *env) *cobra.Command {
	emailsCmd := &cobra.Command{
		Use:   "emails",
		Short: "Synced mailbox",
	}

	var unread bool
	var from, caseID string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List synced emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := client.EmailQuery{}
			if unread {
				q.IsRead = client.Set(false)
			}
			if from != "" {
				q.FromEmail = client.Set(from)
			}
			if caseID != "" {
				q.CaseID = client.Set(caseID)
			}
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Emails.Fetch(ctx, q)
				if err != nil {
					return err
				}
				emails := res.Value
				if caseID != "" {
					emails = client.EmailsForCase(emails, caseID)
				}
				out := cmd.OutOrStdout()
				tw := newTable(out)
				_, _ = fmt.Fprintln(tw, "ID\tRECEIVED\tFROM\tSUBJECT\tREAD")
				for _, m := range emails {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n",
						m.ID, m.ReceivedAt.Format("2006-01-02 15:04"), m.FromEmail, m.Subject, m.IsRead)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%d unread\n", s.Emails.UnreadCount())
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&unread, "unread", false, "Only unread emails")
	listCmd.Flags().StringVar(&from, "from", "", "Only emails from this address")
	listCmd.Flags().StringVar(&caseID, "case", "", "Only emails linked to this case")
	emailsCmd.AddCommand(listCmd)

	return emailsCmd
}

func newSyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay records created while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				report, err := s.Reconcile(ctx)
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Reconciled %d record(s), %d failed\n", report.Reconciled, len(report.Failed))
				keys := make([]string, 0, len(report.Failed))
				for k := range report.Failed {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					_, _ = fmt.Fprintf(out, "  %s: %v\n", k, report.Failed[k])
				}
				return err
			})
		},
	}
}

func newLogoutCmd(e *env) *cobra.Command {
	var wipe bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				out := cmd.OutOrStdout()
				if wipe {
					if err := s.Wipe(ctx); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(out, "Signed out, local cache wiped")
					return nil
				}
				s.Auth.Logout(ctx)
				_, _ = fmt.Fprintln(out, "Signed out")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&wipe, "wipe", false, "Also delete every cached record, including ones not yet synced")
	return cmd
}
