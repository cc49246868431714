package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ganot/epistles/internal/app"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/spf13/cobra"
)

func (c *cli) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		c.projectListCmd(),
		c.projectAddCmd(),
		c.projectRenameCmd(),
		c.projectColorCmd(),
		c.projectArchiveCmd("archive", true),
		c.projectArchiveCmd("unarchive", false),
		c.projectDeleteCmd(),
		c.projectMoveCmd(),
	)
	return cmd
}

func (c *cli) projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active and archived projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(_ context.Context, a *app.App, out io.Writer) error {
				active, archived := journal.PartitionProjects(a.Journal.Snapshot().Projects)
				view := map[string][]journal.Project{"active": active, "archived": archived}
				return c.emit(out, view, func(w io.Writer) {
					fmt.Fprintf(w, "ID\tNAME\tCOLOR\tSTATUS\n")
					for _, p := range active {
						fmt.Fprintf(w, "%d\t%s\t%s\tactive\n", p.ID, p.Name, p.Color)
					}
					for _, p := range archived {
						fmt.Fprintf(w, "%d\t%s\t%s\tarchived\n", p.ID, p.Name, p.Color)
					}
					fmt.Fprintf(w, "\n%d/%d active\n", len(active), journal.MaxActiveProjects)
				})
			})
		},
	}
}

func (c *cli) projectAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				p, err := a.Journal.AddProject(ctx)
				if err != nil {
					return err
				}
				if name != "" {
					p, _, err = a.Journal.UpdateProject(ctx, p.ID, journal.ProjectPatch{Name: &name})
					if err != nil {
						return err
					}
				}
				return c.emitProject(out, p)
			})
		},
	}
	cmd.Flags().StringP("name", "n", "", "Project name (defaults to \"Project N\")")
	return cmd
}

func (c *cli) projectRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[1]
			return c.patchProject(cmd, args[0], journal.ProjectPatch{Name: &name})
		},
	}
}

func (c *cli) projectColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "color <id> <color>",
		Short: "Change a project's colour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			color := args[1]
			return c.patchProject(cmd, args[0], journal.ProjectPatch{Color: &color})
		},
	}
}

func (c *cli) projectArchiveCmd(use string, archived bool) *cobra.Command {
	short := "Archive a project"
	if !archived {
		short = "Restore an archived project"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.patchProject(cmd, args[0], journal.ProjectPatch{Archived: &archived})
		},
	}
}

func (c *cli) patchProject(cmd *cobra.Command, rawID string, patch journal.ProjectPatch) error {
	id, err := parseProjectID(rawID)
	if err != nil {
		return err
	}
	return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
		p, found, err := a.Journal.UpdateProject(ctx, id, patch)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("project %d not found", id)
		}
		return c.emitProject(out, p)
	})
}

func (c *cli) projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project; its notes and idea links are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if !a.Journal.DeleteProject(ctx, id) {
					return fmt.Errorf("project %d not found", id)
				}
				fmt.Fprintf(out, "deleted project %d\n", id)
				return nil
			})
		},
	}
}

func (c *cli) projectMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <target-id>",
		Short: "Move a project to another project's position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseProjectIDs(args)
			if err != nil {
				return err
			}
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if !a.Journal.ReorderProjects(ctx, ids[0], ids[1]) {
					return fmt.Errorf("cannot move project %d to %d", ids[0], ids[1])
				}
				fmt.Fprintf(out, "moved project %d\n", ids[0])
				return nil
			})
		},
	}
}

func (c *cli) emitProject(out io.Writer, p journal.Project) error {
	return c.emit(out, p, func(w io.Writer) {
		status := "active"
		if p.Archived {
			status = "archived"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Color, status)
	})
}
