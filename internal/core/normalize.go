package core

// normalize.go turns intermediate rows into canonical records.
//
// Validation happens at two levels:
//  1. Mapping validation: every required FieldSpec must be mapped, or the
//     whole batch is rejected before any row is looked at.
//  2. Row validation: a row with neither an origin nor a destination city
//     is rejected on its own and counted as failed.

import (
	"regexp"
	"strings"
	"time"
)

var isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Layouts tried for free-form dates once ISO and serial checks fail.
// Two-digit years go through ParseFlexibleDate instead.
var dateLayouts = []string{
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	"2006/01/02", "2006.01.02", "2006-1-2",
	"Jan 2, 2006", "Jan 2 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006", "2-Jan-06",
	"Mon, Jan 2, 2006", "Monday, January 2, 2006",
	time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "1/2/2006 15:04",
	"20060102",
}

// ValidateMapping checks that every required field is mapped.
// Returns a *ValidationError listing missing labels in schema order.
func ValidateMapping(mapping ColumnMapping, specs []FieldSpec) error {
	mapped := mapping.MappedKeys()

	var missing []string
	for _, spec := range specs {
		if spec.Required && !mapped[spec.Key] {
			missing = append(missing, spec.Label)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Normalize validates the mapping and coerces every row. The returned
// slice has one result per table row, in order.
func Normalize(table *Table, mapping ColumnMapping, specs []FieldSpec) ([]RowResult, error) {
	if err := ValidateMapping(mapping, specs); err != nil {
		return nil, err
	}

	byKey := make(map[string]FieldSpec, len(specs))
	for _, s := range specs {
		byKey[s.Key] = s
	}

	// Walk columns in table order so output does not depend on map iteration.
	type pair struct {
		column string
		spec   FieldSpec
	}
	var pairs []pair
	for _, col := range table.Columns {
		key := mapping[col]
		if key == "" {
			continue
		}
		spec, ok := byKey[key]
		if !ok {
			continue
		}
		pairs = append(pairs, pair{col, spec})
	}

	results := make([]RowResult, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := make(NormalizedRecord, len(pairs))
		for _, p := range pairs {
			rec[p.spec.Key] = CoerceValue(p.spec.Type, row.Values[p.column])
		}

		if rec[KeyOriginCity] == nil && rec[KeyDestinationCity] == nil {
			results = append(results, RowResult{
				Line: row.Line,
				Err: &RowError{
					Line:   row.Line,
					Code:   CodeRowMissingCity,
					Reason: "origin and destination city are both empty",
				},
			})
			continue
		}
		results = append(results, RowResult{Line: row.Line, Record: rec})
	}
	return results, nil
}

// CoerceValue converts a raw cell to the Go value stored for a field type:
// float64 or nil for numbers, bool for flags, "YYYY-MM-DD" or nil for
// dates, trimmed string or nil for text.
func CoerceValue(ft FieldType, raw string) any {
	switch ft {
	case FieldNumeric:
		if f := ParseNumber(raw); f != nil {
			return *f
		}
		return nil
	case FieldBool:
		return ParseBoolean(raw)
	case FieldDate:
		if d, ok := NormalizeDate(raw); ok {
			return d
		}
		return nil
	default:
		if s := strings.TrimSpace(raw); s != "" {
			return s
		}
		return nil
	}
}

// NormalizeDate returns raw as YYYY-MM-DD. ISO input passes through when it
// is a real calendar date; Excel serials and common layouts are converted.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if isoDateRegex.MatchString(s) {
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return "", false
		}
		return s, true
	}
	if d, ok := ParseExcelSerialDate(s); ok {
		return d, true
	}
	if flexibleDateRegex.MatchString(s) {
		d := ParseFlexibleDate(s)
		if _, err := time.Parse(time.DateOnly, d); err == nil {
			return d, true
		}
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}
