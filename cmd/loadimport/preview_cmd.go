package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/loadimport/internal/core"
)

// defaultMaxSize matches the server's upload limit.
const defaultMaxSize = 25 << 20

type previewResult struct {
	Source    core.Source        `json:"source"`
	Mapping   core.ColumnMapping `json:"mapping"`
	Displaced []string           `json:"displaced,omitempty"`
	Missing   []string           `json:"missingRequired,omitempty"`
	Accepted  int                `json:"accepted"`
	Rejected  int                `json:"rejected"`
	Errors    []core.FailedRow   `json:"errors,omitempty"`
}

func newPreviewCmd(root *rootOptions) *cobra.Command {
	opts := sheetOptions{MaxSize: defaultMaxSize}

	cmd := &cobra.Command{
		Use:   "preview FILE [--map \"Column=field_key\"]...",
		Short: "Show the proposed mapping and validate every row without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			sess, displaced, err := loadSession(args[0], opts, now)
			if err != nil {
				return err
			}

			res := previewResult{
				Source:    sess.Parsed.Source,
				Mapping:   sess.Mapping,
				Displaced: displaced,
				Missing:   sess.MissingRequired(core.Fields()),
			}
			if len(res.Missing) == 0 {
				previewed, err := sess.BuildPreview(core.Fields(), now)
				if err != nil {
					return err
				}
				res.Accepted = previewed.Preview.Accepted
				res.Rejected = previewed.Preview.Rejected
				res.Errors = previewed.Preview.Errors
			}

			out := cmd.OutOrStdout()
			if root.JSON {
				return printJSON(out, res)
			}

			fmt.Fprintf(out, "format: %s\n\n", res.Source)
			if err := printMapping(out, sess); err != nil {
				return err
			}
			if len(res.Displaced) > 0 {
				fmt.Fprintf(out, "\nreassigned away from: %s\n", strings.Join(res.Displaced, ", "))
			}
			if len(res.Missing) > 0 {
				fmt.Fprintf(out, "\nrequired fields not mapped: %s\n", strings.Join(res.Missing, ", "))
				return errors.New("mapping incomplete")
			}
			fmt.Fprintf(out, "\naccepted: %d\nrejected: %d\n", res.Accepted, res.Rejected)
			return printFailures(out, res.Errors)
		},
	}
	cmd.Flags().StringVar(&opts.Template, "template", "auto", "auto, adelphia, aljex or standard")
	cmd.Flags().StringArrayVar(&opts.Mapping, "map", nil, "override a column: \"Column=field_key\" (empty key skips)")
	return cmd
}
