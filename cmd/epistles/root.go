package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ganot/epistles/internal/app"
	"github.com/spf13/cobra"
)

// opener builds the application for one command invocation.
type opener func(ctx context.Context) (*app.App, error)

type cli struct {
	open   opener
	asJSON bool
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "epistles",
		Short:         "Timeless Epistles - a month-by-day journal of projects and ideas",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "Output as JSON")

	root.AddCommand(c.projectCmd())
	root.AddCommand(c.noteCmd())
	root.AddCommand(c.monthCmd())
	root.AddCommand(c.ideaCmd())
	root.AddCommand(c.dashboardCmd())
	root.AddCommand(c.milestonesCmd())
	root.AddCommand(c.exportCmd())
	root.AddCommand(c.importCmd())
	root.AddCommand(c.backupCmd())
	return root
}

// with opens the app, runs fn and closes the app.
func (c *cli) with(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a, cmd.OutOrStdout())
}

// emit writes v as JSON under --json, otherwise calls text with a tab writer.
func (c *cli) emit(out io.Writer, v any, text func(w io.Writer)) error {
	if c.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func parseProjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}

func parseProjectIDs(in []string) ([]int64, error) {
	ids := make([]int64, 0, len(in))
	for _, s := range in {
		id, err := parseProjectID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
