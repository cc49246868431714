package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ganot/epistles/internal/app"
	"github.com/ganot/epistles/internal/domain/journal"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole journal as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("out")
			return c.with(cmd, func(_ context.Context, a *app.App, out io.Writer) error {
				doc, err := a.Journal.Export()
				if err != nil {
					return err
				}
				if path == "" || path == "-" {
					_, err = fmt.Fprintln(out, doc)
					return err
				}
				if err := atomic.WriteFile(path, strings.NewReader(doc)); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the whole journal with an exported document; - reads stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				report, err := a.Journal.Import(ctx, string(data))
				if err != nil {
					return err
				}
				return c.emitImport(out, a, report)
			})
		},
	}
}

func (c *cli) backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage stored backups",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Write an export to the backup target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				info, err := a.Backups.Export(ctx)
				if err != nil {
					return err
				}
				return c.emit(out, info, func(w io.Writer) {
					fmt.Fprintf(w, "%s\t%s\n", info.Key, humanize.Bytes(uint64(info.Size)))
				})
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				infos, err := a.Backups.List(ctx)
				if err != nil {
					return err
				}
				return c.emit(out, infos, func(w io.Writer) {
					fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
					for _, info := range infos {
						fmt.Fprintf(w, "%s\t%s\t%s\n", info.Key, humanize.Bytes(uint64(info.Size)), humanize.Time(info.LastModified))
					}
				})
			})
		},
	}

	restore := &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the journal with a stored backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				report, err := a.Backups.Restore(ctx, args[0])
				if err != nil {
					return err
				}
				return c.emitImport(out, a, report)
			})
		},
	}

	cmd.AddCommand(create, list, restore)
	return cmd
}

func (c *cli) emitImport(out io.Writer, a *app.App, report journal.UpgradeReport) error {
	st := a.Journal.Snapshot()
	summary := map[string]any{
		"projects": len(st.Projects),
		"notes":    len(st.Matrix),
		"ideas":    len(st.Ideas),
		"legacy":   report,
	}
	return c.emit(out, summary, func(w io.Writer) {
		fmt.Fprintf(w, "imported %d projects, %d notes, %d ideas\n", len(st.Projects), len(st.Matrix), len(st.Ideas))
		if report.Legacy() {
			fmt.Fprintf(w, "legacy shapes: %d matrix keys, %d ideas\n", report.MatrixKeys, report.Ideas)
		}
	})
}
