package core

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the third-party system an import came from.
// The value is persisted on every record as import_source.
type Source string

const (
	SourceGeneric Source = "generic"
	SourceBrokerA Source = "brokerA"
	SourceTMS     Source = "tms"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceGeneric, SourceBrokerA, SourceTMS:
		return true
	}
	return false
}

// Template is the operator-facing format selector value.
type Template string

const (
	TemplateAuto     Template = "auto"
	TemplateAdelphia Template = "adelphia"
	TemplateAljex    Template = "aljex"
	TemplateStandard Template = "standard"
)

// Templates lists the selector values in display order.
var Templates = []Template{TemplateAuto, TemplateAdelphia, TemplateAljex, TemplateStandard}

// ParseTemplate accepts a selector value or a canonical source name.
// An empty string means auto-detect.
func ParseTemplate(s string) (Template, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return TemplateAuto, nil
	case "adelphia", "brokera":
		return TemplateAdelphia, nil
	case "aljex", "tms":
		return TemplateAljex, nil
	case "standard", "generic":
		return TemplateStandard, nil
	}
	return "", fmt.Errorf("unknown template: %q", s)
}

// Source returns the source pinned by the template.
// ok is false for TemplateAuto.
func (t Template) Source() (src Source, ok bool) {
	switch t {
	case TemplateAdelphia:
		return SourceBrokerA, true
	case TemplateAljex:
		return SourceTMS, true
	case TemplateStandard:
		return SourceGeneric, true
	}
	return "", false
}

// RawSheet is a sheet as read from CSV or the first workbook tab.
// Rows may be ragged. Never mutated after ReadSheet returns.
type RawSheet [][]string

// Cell returns the cell at row/col, or "" when out of range.
func (s RawSheet) Cell(row, col int) string {
	if row < 0 || row >= len(s) || col < 0 || col >= len(s[row]) {
		return ""
	}
	return s[row][col]
}

// FieldType represents the semantic type of a canonical field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldNumeric
	FieldBool
)

func (t FieldType) String() string {
	switch t {
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "number"
	case FieldBool:
		return "boolean"
	default:
		return "text"
	}
}

// FieldSpec describes one slot of the canonical load schema.
type FieldSpec struct {
	Key      string    // Canonical key, also the database column
	Label    string    // Display name
	Type     FieldType // Drives coercion in the normalizer
	Required bool      // Must be mapped before preview
	Aliases  []string  // Header hints for the column mapper, most specific first
}

// TableRow is one intermediate record keyed by column name.
type TableRow struct {
	Line   int // 1-based line in the source sheet
	Values map[string]string
}

// Table is the intermediate output of a format parser.
type Table struct {
	Columns []string
	Rows    []TableRow
}

// Sample returns the first non-empty value for column, or "".
func (t *Table) Sample(column string) string {
	for _, row := range t.Rows {
		if v := strings.TrimSpace(row.Values[column]); v != "" {
			return v
		}
	}
	return ""
}

// ParseResult is what a format parser hands to the mapping stage.
type ParseResult struct {
	Source    Source
	HeaderRow int // Row the parser treated as the header
	Table     *Table
	Mapping   ColumnMapping
}

// NormalizedRecord maps FieldSpec keys to string, float64, bool or nil.
type NormalizedRecord map[string]any

// String returns the value for key as a string, or "" when absent or not a string.
func (r NormalizedRecord) String(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// RowResult is the per-row outcome of normalization. Exactly one of
// Record and Err is set.
type RowResult struct {
	Line   int
	Record NormalizedRecord
	Err    *RowError
}

// OK reports whether the row was accepted.
func (r RowResult) OK() bool { return r.Err == nil }

// ImportBatch groups all records written by one commit.
type ImportBatch struct {
	BatchID    string    `json:"batchId"`
	Source     Source    `json:"source"`
	ImportedAt time.Time `json:"importedAt"`
	OwnerID    string    `json:"ownerId"`
}

// NewImportBatch stamps a batch id of the form "<source>-<unix millis>".
func NewImportBatch(source Source, ownerID string, now time.Time) ImportBatch {
	return ImportBatch{
		BatchID:    fmt.Sprintf("%s-%d", source, now.UnixMilli()),
		Source:     source,
		ImportedAt: now,
		OwnerID:    ownerID,
	}
}

// ImportOutcome holds the commit counts. Not mutated after Commit returns.
type ImportOutcome struct {
	SuccessCount int         `json:"successCount"`
	FailedCount  int         `json:"failedCount"`
	Superseded   int64       `json:"superseded"`
	FailedRows   []FailedRow `json:"failedRows,omitempty"`
}

// FailedRow contains information about a row that was not committed.
type FailedRow struct {
	LineNumber int    `json:"line"`
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

// LoadRecord is one row as handed to the store.
type LoadRecord struct {
	Batch  ImportBatch
	Fields NormalizedRecord
}

// BatchSummary describes one committed batch for history views.
type BatchSummary struct {
	BatchID       string    `json:"batchId"`
	Source        Source    `json:"source"`
	ImportedAt    time.Time `json:"importedAt"`
	ActiveCount   int64     `json:"activeCount"`
	InactiveCount int64     `json:"inactiveCount"`
}
