package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/designcomb/influenter/client"
)

func newItemsCmd(e *env) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Collaboration item catalog",
	}

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the catalog as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Items.Fetch(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printForest(out, res.Value)
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	itemsCmd.AddCommand(treeCmd)

	var title, parent string
	var price float64
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog item",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.CreateCollaborationItemRequest{Title: title, Price: price}
			if parent != "" {
				req.ParentID = client.Ptr(parent)
			}
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				if _, err := s.Items.Fetch(ctx); err != nil {
					return err
				}
				res, err := s.Items.Create(ctx, req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Item created: %s - %s\n", res.Value.ID, res.Value.Title)
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "Item title (required)")
	addCmd.Flags().StringVar(&parent, "parent", "", "Parent item ID")
	addCmd.Flags().Float64Var(&price, "price", 0, "Price")
	_ = addCmd.MarkFlagRequired("title")
	itemsCmd.AddCommand(addCmd)

	rmCmd := &cobra.Command{
		Use:   "rm ITEM_ID",
		Short: "Delete an item and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				if _, err := s.Items.Fetch(ctx); err != nil {
					return err
				}
				res, err := s.Items.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Removed %d item(s): %s\n", len(res.Value), strings.Join(res.Value, ", "))
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	itemsCmd.AddCommand(rmCmd)

	return itemsCmd
}

// printForest writes one line per node, indented by depth.
func printForest(w io.Writer, forest []*client.ItemNode) {
	type frame struct {
		node  *client.ItemNode
		depth int
	}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{forest[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		_, _ = fmt.Fprintf(w, "%s- %s (%s) %.2f\n", strings.Repeat("  ", f.depth), f.node.Title, f.node.ID, f.node.Price)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

func newFieldsCmd(e *env) *cobra.Command {
	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "Case field definitions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List system and custom fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Fields.Fetch(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tw := newTable(out)
				_, _ = fmt.Fprintln(tw, "#\tNAME\tLABEL\tTYPE\tKIND\tREQUIRED\tVISIBLE")
				for _, f := range s.Fields.All() {
					kind := "custom"
					if f.IsSystem {
						kind = "system"
					}
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\t%t\n",
						f.Order, f.Name, f.Label, f.Type, kind, f.IsRequired, f.IsVisible)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	fieldsCmd.AddCommand(listCmd)

	return fieldsCmd
}

func newWorkflowsCmd(e *env) *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:   "workflows",
		Short: "Workflow templates",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List workflow templates and their phases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.run(cmd, func(ctx context.Context, s *client.Session) error {
				res, err := s.Workflows.Fetch(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tw := newTable(out)
				_, _ = fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tPHASES\tDAYS")
				for _, w := range res.Value {
					names := make([]string, len(w.Phases))
					days := 0
					for i, p := range w.Phases {
						names[i] = p.Name
						days += p.DurationDays
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", w.ID, w.Name, w.Color, strings.Join(names, " > "), days)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				note(out, res.Origin, res.RemoteErr)
				return nil
			})
		},
	}
	workflowsCmd.AddCommand(listCmd)

	return workflowsCmd
}
