package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type detectResult struct {
	File      string `json:"file"`
	Source    string `json:"source"`
	HeaderRow int    `json:"headerRow"`
	Columns   int    `json:"columns"`
	Rows      int    `json:"rows"`
}

func newDetectCmd(root *rootOptions) *cobra.Command {
	opts := sheetOptions{MaxSize: defaultMaxSize}

	cmd := &cobra.Command{
		Use:   "detect FILE",
		Short: "Report which export format a spreadsheet is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession(args[0], opts, time.Now())
			if err != nil {
				return err
			}
			res := detectResult{
				File:      sess.FileName,
				Source:    string(sess.Parsed.Source),
				HeaderRow: sess.Parsed.HeaderRow,
				Columns:   len(sess.Parsed.Table.Columns),
				Rows:      len(sess.Parsed.Table.Rows),
			}
			if root.JSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "format:     %s\nheader row: %d\ncolumns:    %d\nrows:       %d\n",
				res.Source, res.HeaderRow, res.Columns, res.Rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Template, "template", "auto", "auto, adelphia, aljex or standard")
	return cmd
}
