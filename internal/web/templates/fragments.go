// Package templates renders the HTML fragments HTMX requests swap in.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissible error box.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<span class="alert-code">%s</span></div>`, templ.EscapeString(code))
		return err
	})
}

// FieldOption is one entry of the target field dropdown.
type FieldOption struct {
	Key      string
	Label    string
	Required bool
}

// MappingRow is one source column in the mapping table.
type MappingRow struct {
	Column      string
	Sample      string
	Key         string   // Current target, "" when skipped
	Suggestions []string // Candidate keys, best first
}

// MappingTable renders the column mapping editor. Each row posts
// assignments[<column>] with the selected key.
func MappingTable(sessionID string, rows []MappingRow, fields []FieldOption, missing []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}

		ew.printf(`<form id="mapping" hx-put="/api/imports/%s/mapping" hx-target="#mapping" hx-swap="outerHTML">`,
			templ.EscapeString(sessionID))
		if len(missing) > 0 {
			ew.printf(`<div class="alert alert-warning">Required fields not mapped:`)
			for _, m := range missing {
				ew.printf(` <span class="badge">%s</span>`, templ.EscapeString(m))
			}
			ew.printf(`</div>`)
		}
		ew.printf(`<table class="mapping"><thead><tr><th>Column</th><th>Sample</th><th>Field</th></tr></thead><tbody>`)
		for _, row := range rows {
			ew.printf(`<tr><td>%s</td><td class="sample">%s</td><td>`,
				templ.EscapeString(row.Column), templ.EscapeString(row.Sample))
			ew.printf(`<select name="assignments[%s]">`, templ.EscapeString(row.Column))
			writeOption(ew, "", "Skip", row.Key == "")
			suggested := make(map[string]bool, len(row.Suggestions))
			for _, s := range row.Suggestions {
				suggested[s] = true
			}
			for _, f := range fields {
				label := f.Label
				if f.Required {
					label += " *"
				}
				if suggested[f.Key] {
					label += " (suggested)"
				}
				writeOption(ew, f.Key, label, row.Key == f.Key)
			}
			ew.printf(`</select></td></tr>`)
		}
		ew.printf(`</tbody></table><button type="submit">Save mapping</button></form>`)
		return ew.err
	})
}

func writeOption(ew *errWriter, value, label string, selected bool) {
	sel := ""
	if selected {
		sel = " selected"
	}
	ew.printf(`<option value="%s"%s>%s</option>`, templ.EscapeString(value), sel, templ.EscapeString(label))
}

// errWriter keeps the first write error so rendering code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
