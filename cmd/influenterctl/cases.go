package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/designcomb/influenter/client"
)

func newCasesCmd(e *env) *cobra.Command {
	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "Case operations",
	}

	var status, search, sortKey string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := client.CaseQuery{}
			if status != "" {
				st := client.CaseStatus(status)
				if !st.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
				q.Status = client.Set(st)
			}
			if search != "" {
				q.Search = client.Set(search)
			}
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Cases.Fetch(ctx, q)
				if err != nil {
					return err
				}
				cases := res.Value
				// the cached list is not filtered by the backend
				if res.Origin == client.Cached {
					if status != "" {
						cases = client.FilterCasesByStatus(cases, client.CaseStatus(status))
					}
					cases = client.SearchCases(cases, search)
				}
				if sortKey != "" {
					cases = client.SortCases(cases, sortKey)
				}

				out := cmd.OutOrStdout()
				tw := newTable(out)
				_, _ = fmt.Fprintln(tw, "ID\tTITLE\tBRAND\tSTATUS\tTASKS\tDEADLINE")
				for _, c := range cases {
					deadline := "-"
					if c.DeadlineDate != nil && !c.DeadlineDate.IsZero() {
						deadline = c.DeadlineDate.String()
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
						c.ID, c.Title, c.BrandName, client.StatusLabel(c.Status),
						c.CompletedTaskCount, c.TaskCount, deadline)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				p := s.Cases.Pagination()
				_, _ = fmt.Fprintf(out, "page %d of %d, %d cases\n", p.Page, max(p.TotalPages, 1), p.Total)
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Only cases with this status (to_confirm, in_progress, completed, cancelled, other)")
	listCmd.Flags().StringVar(&search, "search", "", "Match title, brand or contact")
	listCmd.Flags().StringVar(&sortKey, "sort", "", "Sort locally, e.g. deadline_asc or title_asc")
	casesCmd.AddCommand(listCmd)

	var title, brand, newStatus string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.CreateCaseRequest{
				Title:     title,
				BrandName: brand,
				Status:    client.CaseStatus(newStatus),
			}
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Cases.Create(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Case created: %s - %s\n", res.Value.ID, res.Value.Title)
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&title, "title", "", "Case title (required)")
	createCmd.Flags().StringVar(&brand, "brand", "", "Brand name (required)")
	createCmd.Flags().StringVar(&newStatus, "status", "", "Initial status (default to_confirm)")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("brand")
	casesCmd.AddCommand(createCmd)

	statusCmd := &cobra.Command{
		Use:   "status CASE_ID STATUS",
		Short: "Move a case to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := client.CaseStatus(args[1])
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				if _, err := s.Cases.Fetch(ctx, client.CaseQuery{}); err != nil {
					return err
				}
				res, err := s.Cases.UpdateStatus(ctx, args[0], st)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Case %s is now %s\n", res.Value.ID, client.StatusLabel(res.Value.Status))
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	casesCmd.AddCommand(statusCmd)

	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "List case deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Cases.Fetch(ctx, client.CaseQuery{})
				if err != nil {
					return err
				}
				events := client.CalendarEvents(client.SortCases(res.Value, "deadline_asc"))
				tw := newTable(cmd.OutOrStdout())
				_, _ = fmt.Fprintln(tw, "DATE\tCASE\tSTATUS")
				for _, ev := range events {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", ev.Date.String(), ev.Title, client.StatusLabel(ev.Status))
				}
				return tw.Flush()
			})
		},
	}
	casesCmd.AddCommand(calendarCmd)

	return casesCmd
}

func newTasksCmd(e *env) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task operations",
	}

	var pendingOnly bool
	listCmd := &cobra.Command{
		Use:   "list CASE_ID",
		Short: "List the tasks of a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Cases.FetchTasks(ctx, args[0])
				if err != nil {
					return err
				}
				tasks := res.Value
				if pendingOnly {
					tasks = client.PendingTasks(tasks)
				}
				out := cmd.OutOrStdout()
				tw := newTable(out)
				_, _ = fmt.Fprintln(tw, "#\tID\tTITLE\tSTATUS")
				for _, t := range tasks {
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.Order, t.ID, t.Title, t.Status)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				done, total, pct := client.TaskProgress(res.Value)
				_, _ = fmt.Fprintf(out, "%d/%d done (%d%%)\n", done, total, pct)
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&pendingOnly, "pending", false, "Hide completed and cancelled tasks")
	tasksCmd.AddCommand(listCmd)

	var title string
	addCmd := &cobra.Command{
		Use:   "add CASE_ID",
		Short: "Add a task to a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				if _, err := s.Cases.FetchTasks(ctx, args[0]); err != nil {
					return err
				}
				res, err := s.Cases.CreateTask(ctx, args[0], client.CreateTaskRequest{Title: title})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Task created: %s - %s\n", res.Value.ID, res.Value.Title)
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "Task title (required)")
	_ = addCmd.MarkFlagRequired("title")
	tasksCmd.AddCommand(addCmd)

	doneCmd := &cobra.Command{
		Use:   "done CASE_ID TASK_ID",
		Short: "Complete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				if _, err := s.Cases.FetchTasks(ctx, args[0]); err != nil {
					return err
				}
				res, err := s.Cases.CompleteTask(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Task %s completed\n", res.Value.ID)
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	tasksCmd.AddCommand(doneCmd)

	reorderCmd := &cobra.Command{
		Use:   "reorder CASE_ID TASK_ID...",
		Short: "Set the task order of a case",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				if _, err := s.Cases.FetchTasks(ctx, args[0]); err != nil {
					return err
				}
				res, err := s.Cases.ReorderTasks(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, t := range res.Value {
					_, _ = fmt.Fprintf(out, "%d. %s\n", t.Order+1, t.Title)
				}
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	tasksCmd.AddCommand(reorderCmd)

	return tasksCmd
}
