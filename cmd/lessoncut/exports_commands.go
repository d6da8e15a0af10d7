package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lessoncut/internal/exportstore"
)

func newExportsCommand(ctx *commandContext) *cobra.Command {
	exportsCmd := &cobra.Command{
		Use:   "exports",
		Short: "Inspect and remove past exports",
	}
	exportsCmd.AddCommand(newExportsListCommand(ctx))
	exportsCmd.AddCommand(newExportsShowCommand(ctx))
	exportsCmd.AddCommand(newExportsRemoveCommand(ctx))
	return exportsCmd
}

func newExportsListCommand(ctx *commandContext) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List exports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *exportstore.Store) error {
				var (
					records []exportstore.Record
					err     error
				)
				if id := strings.TrimSpace(projectID); id != "" {
					records, err = store.ListByProject(cmd.Context(), id)
				} else {
					records, err = store.List(cmd.Context())
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No exports recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						rec.ID,
						rec.ProjectID,
						rec.Filename,
						humanBytes(rec.Size),
						rec.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Project", "File", "Size", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "Only list exports of this project id")
	return cmd
}

func newExportsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one export record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *exportstore.Store) error {
				rec, err := store.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:       %s\n", rec.ID)
				fmt.Fprintf(out, "Project:  %s\n", rec.ProjectID)
				fmt.Fprintf(out, "File:     %s\n", rec.Filename)
				fmt.Fprintf(out, "Path:     %s\n", rec.Path)
				fmt.Fprintf(out, "Size:     %s\n", humanBytes(rec.Size))
				fmt.Fprintf(out, "Created:  %s\n", rec.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Metadata: %s\n", exportstore.SidecarPath(rec.Path))
				return nil
			})
		},
	}
}

func newExportsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Delete export records and their files",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *exportstore.Store) error {
				out := cmd.OutOrStdout()
				for _, id := range args {
					deletion, err := store.Delete(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %s (%s)\n", deletion.Record.ID, deletion.Record.Path)
					if deletion.FileErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", deletion.FileErr)
					}
				}
				return nil
			})
		},
	}
}
