package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ganot/epistles/internal/app"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/spf13/cobra"
)

func (c *cli) ideaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "idea",
		Aliases: []string{"ideas", "i"},
		Short:   "Manage ideas",
	}
	cmd.AddCommand(
		c.ideaAddCmd(),
		c.ideaListCmd(),
		c.ideaEditCmd(),
		c.ideaHideCmd("hide", true),
		c.ideaHideCmd("unhide", false),
		c.ideaDeleteCmd(),
	)
	return cmd
}

func (c *cli) ideaAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add an idea, optionally linked to projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetStringSlice("project")
			ids, err := parseProjectIDs(raw)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				idea, err := a.Journal.AddIdea(ctx, text, ids)
				if err != nil {
					return err
				}
				return c.emitIdeas(out, idea, []journal.Idea{idea})
			})
		},
	}
	cmd.Flags().StringSliceP("project", "p", nil, "Linked project ID (repeatable)")
	return cmd
}

func (c *cli) ideaListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search ideas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, _ := cmd.Flags().GetString("query")
			rawFilter, _ := cmd.Flags().GetString("filter")
			hidden, _ := cmd.Flags().GetBool("hidden")
			filter, err := journal.ParseIdeaFilter(rawFilter)
			if err != nil {
				return err
			}
			return c.with(cmd, func(_ context.Context, a *app.App, out io.Writer) error {
				ideas := a.Journal.SearchIdeas(journal.IdeaQuery{Text: query, Filter: filter, HiddenOnly: hidden})
				return c.emitIdeas(out, ideas, ideas)
			})
		},
	}
	cmd.Flags().StringP("query", "q", "", "Case-insensitive text to match")
	cmd.Flags().StringP("filter", "f", "all", "all, global, or a project ID")
	cmd.Flags().Bool("hidden", false, "List hidden ideas instead of visible ones")
	return cmd
}

func (c *cli) ideaEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id> [text]",
		Short: "Change an idea's text or project links",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch journal.IdeaPatch
			if len(args) > 1 {
				text := strings.Join(args[1:], " ")
				patch.Text = &text
			}
			if cmd.Flags().Changed("project") {
				raw, _ := cmd.Flags().GetStringSlice("project")
				ids, err := parseProjectIDs(raw)
				if err != nil {
					return err
				}
				patch.ProjectIDs = &ids
			}
			if patch.Text == nil && patch.ProjectIDs == nil {
				return fmt.Errorf("nothing to change: pass new text or --project")
			}
			return c.patchIdea(cmd, args[0], patch)
		},
	}
	cmd.Flags().StringSliceP("project", "p", nil, "Replacement project links; pass --project= to make the idea global")
	return cmd
}

func (c *cli) ideaHideCmd(use string, hidden bool) *cobra.Command {
	short := "Hide an idea"
	if !hidden {
		short = "Show a hidden idea again"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.patchIdea(cmd, args[0], journal.IdeaPatch{Hidden: &hidden})
		},
	}
}

func (c *cli) patchIdea(cmd *cobra.Command, id string, patch journal.IdeaPatch) error {
	return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
		idea, found, err := a.Journal.UpdateIdea(ctx, id, patch)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("idea %s not found", id)
		}
		return c.emitIdeas(out, idea, []journal.Idea{idea})
	})
}

func (c *cli) ideaDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if !a.Journal.DeleteIdea(ctx, args[0]) {
					return fmt.Errorf("idea %s not found", args[0])
				}
				fmt.Fprintf(out, "deleted idea %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *cli) emitIdeas(out io.Writer, v any, ideas []journal.Idea) error {
	return c.emit(out, v, func(w io.Writer) {
		for _, idea := range ideas {
			links := "global"
			if !idea.IsGlobal() {
				parts := make([]string, len(idea.ProjectIDs))
				for i, id := range idea.ProjectIDs {
					parts[i] = fmt.Sprint(id)
				}
				links = strings.Join(parts, ",")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", idea.ID, links, idea.Text)
		}
	})
}
