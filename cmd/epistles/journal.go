package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ganot/epistles/internal/app"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/spf13/cobra"
)

func (c *cli) noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Write matrix notes",
	}

	set := &cobra.Command{
		Use:   "set <day> <project-id> [text]",
		Short: "Set the note for a day and project; omit text to clear it",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid day %q", args[0])
			}
			projectID, err := parseProjectID(args[1])
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 3 {
				text = args[2]
			}
			month, _ := cmd.Flags().GetString("month")
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				key, err := a.Journal.UpdateMatrixCellIn(ctx, month, day, projectID, text)
				if err != nil {
					return err
				}
				return c.emit(out, map[string]string{"key": key, "text": text}, func(w io.Writer) {
					fmt.Fprintf(w, "%s\t%s\n", key, text)
				})
			})
		},
	}
	set.Flags().StringP("month", "m", "", "Month as YYYY-MM (defaults to the current month)")

	cmd.AddCommand(set)
	return cmd
}

func (c *cli) monthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Browse months",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List months with notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(_ context.Context, a *app.App, out io.Writer) error {
				months := a.Journal.Months()
				return c.emit(out, months, func(w io.Writer) {
					for _, m := range months {
						fmt.Fprintln(w, m)
					}
				})
			})
		},
	}

	show := &cobra.Command{
		Use:   "show [YYYY-MM]",
		Short: "Show the day grid for a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := ""
			if len(args) == 1 {
				month = args[0]
			}
			return c.with(cmd, func(_ context.Context, a *app.App, out io.Writer) error {
				view, err := a.Journal.Month(month)
				if err != nil {
					return err
				}
				return c.emit(out, view, func(w io.Writer) { writeMonth(w, view) })
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func writeMonth(w io.Writer, view journal.MonthView) {
	header := []string{"DAY"}
	for _, p := range view.Projects {
		header = append(header, strings.ToUpper(p.Name))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range view.Days {
		cols := []string{row.Date}
		for _, p := range view.Projects {
			cols = append(cols, row.Cells[p.ID])
		}
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show project cards with start dates and milestones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(_ context.Context, a *app.App, out io.Writer) error {
				dash := a.Journal.Dashboard()
				return c.emit(out, dash, func(w io.Writer) {
					fmt.Fprintln(w, "PROJECT\tSTATUS\tSTARTED\tMILESTONES\tIDEAS")
					writeCards(w, dash.Active, "active")
					writeCards(w, dash.Archived, "archived")
				})
			})
		},
	}
}

func writeCards(w io.Writer, cards []journal.ProjectCard, status string) {
	for _, card := range cards {
		start := card.StartDate
		if start == "" {
			start = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", card.Project.Name, status, start, len(card.Milestones), len(card.RelatedIdeas))
	}
}

func (c *cli) milestonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestones <project-id>",
		Short: "List a project's notes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return c.with(cmd, func(_ context.Context, a *app.App, out io.Writer) error {
				milestones := journal.Milestones(a.Journal.Snapshot().Matrix, id)
				return c.emit(out, milestones, func(w io.Writer) {
					for _, m := range milestones {
						fmt.Fprintf(w, "%s\t%s\n", m.Date, m.Text)
					}
				})
			})
		},
	}
}
