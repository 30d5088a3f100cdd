package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/loadimport/internal/core"
)

// sheetOptions are the flags shared by every subcommand that reads a file.
type sheetOptions struct {
	Template string
	Mapping  []string
	MaxSize  int64
}

// loadSession reads path and runs it through upload -> map, applying any
// --map overrides.
func loadSession(path string, opts sheetOptions, now time.Time) (core.Session, []string, error) {
	tmpl, err := core.ParseTemplate(opts.Template)
	if err != nil {
		return core.Session{}, nil, err
	}
	assignments, err := parseAssignments(opts.Mapping)
	if err != nil {
		return core.Session{}, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return core.Session{}, nil, err
	}
	defer f.Close()

	sheet, err := core.ReadSheet(filepath.Base(path), f, opts.MaxSize)
	if err != nil {
		return core.Session{}, nil, err
	}
	sess, err := core.NewSession("cli", "cli", now).Load(filepath.Base(path), sheet, tmpl, now)
	if err != nil {
		return core.Session{}, nil, err
	}
	if len(assignments) == 0 {
		return sess, nil, nil
	}
	return sess.Remap(assignments, now)
}

// parseAssignments turns "Column=field_key" flags into assignments.
// "Column=" skips the column.
func parseAssignments(flags []string) (map[string]string, error) {
	out := make(map[string]string, len(flags))
	for _, f := range flags {
		col, key, ok := strings.Cut(f, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --map %q: want \"Column=field_key\"", f)
		}
		out[col] = strings.TrimSpace(key)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMapping(w io.Writer, sess core.Session) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tFIELD\tSAMPLE")
	for _, col := range sess.Parsed.Table.Columns {
		field := sess.Mapping[col]
		if field == "" {
			field = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", col, field, sess.Parsed.Table.Sample(col))
	}
	return tw.Flush()
}

func printFailures(w io.Writer, rows []core.FailedRow) error {
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LineNumber < rows[j].LineNumber })
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCODE\tREASON")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.LineNumber, r.Code, r.Reason)
	}
	return tw.Flush()
}
