package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/loadimport/internal/config"
	"github.com/JonMunkholm/loadimport/internal/core"
	"github.com/JonMunkholm/loadimport/internal/database"
)

type commitOptions struct {
	sheetOptions
	Owner   string
	Migrate bool
}

func newCommitCmd(root *rootOptions) *cobra.Command {
	opts := commitOptions{sheetOptions: sheetOptions{MaxSize: defaultMaxSize}}

	cmd := &cobra.Command{
		Use:   "commit FILE --owner ID [--map \"Column=field_key\"]...",
		Short: "Import a spreadsheet into DATABASE_URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.Owner) == "" {
				return errors.New("--owner is required")
			}
			tmpl, err := core.ParseTemplate(opts.Template)
			if err != nil {
				return err
			}
			assignments, err := parseAssignments(opts.Mapping)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := database.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			if opts.Migrate {
				if err := database.Migrate(ctx, pool); err != nil {
					return err
				}
			}

			core.MaxHeaderScanRows = cfg.Import.HeaderScanRows
			svc := core.NewService(database.NewStore(pool), core.ServiceConfig{
				MaxFileSize:          opts.MaxSize,
				CommitTimeout:        cfg.Import.CommitTimeout,
				MaxConcurrentCommits: 1,
				Orchestrator: core.OrchestratorConfig{
					Seed: cfg.Import.SequenceSeed,
				},
			})

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sess, err := svc.StartImport(ctx, opts.Owner, filepath.Base(args[0]), f, tmpl)
			if err != nil {
				return err
			}
			if len(assignments) > 0 {
				if sess, _, err = svc.UpdateMapping(opts.Owner, sess.ID, assignments); err != nil {
					return err
				}
			}
			if _, err := svc.Preview(opts.Owner, sess.ID); err != nil {
				return err
			}
			sess, err = svc.Commit(ctx, opts.Owner, sess.ID)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}

			out := cmd.OutOrStdout()
			if root.JSON {
				return printJSON(out, struct {
					Batch   core.ImportBatch   `json:"batch"`
					Outcome core.ImportOutcome `json:"outcome"`
				}{*sess.Batch, *sess.Outcome})
			}
			fmt.Fprintf(out, "batch:      %s\nimported:   %d\nfailed:     %d\nsuperseded: %d\n",
				sess.Batch.BatchID, sess.Outcome.SuccessCount, sess.Outcome.FailedCount, sess.Outcome.Superseded)
			return printFailures(out, sess.Outcome.FailedRows)
		},
	}
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner id the loads belong to")
	cmd.Flags().StringVar(&opts.Template, "template", "auto", "auto, adelphia, aljex or standard")
	cmd.Flags().StringArrayVar(&opts.Mapping, "map", nil, "override a column: \"Column=field_key\" (empty key skips)")
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply the schema before importing")
	return cmd
}
