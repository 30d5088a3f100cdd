package core

import (
	"fmt"
	"strings"
)

// ParseGeneric treats row 0 as headers and every later non-empty row as
// one record. Missing cells become "". The mapping is proposed by the
// default column mapper.
func ParseGeneric(sheet RawSheet) (*ParseResult, error) {
	if len(sheet) == 0 {
		return nil, &FormatError{Code: CodeNoDataRows, Source: SourceGeneric, Reason: "sheet is empty"}
	}

	columns := uniqueHeaders(sheet[0])
	table := &Table{Columns: columns}

	for i := 1; i < len(sheet); i++ {
		row := sheet[i]
		if isEmptyRow(row) {
			continue
		}
		values := make(map[string]string, len(columns))
		for j, col := range columns {
			values[col] = CleanCell(sheet.Cell(i, j))
		}
		table.Rows = append(table.Rows, TableRow{Line: i + 1, Values: values})
	}

	return &ParseResult{
		Source:    SourceGeneric,
		HeaderRow: 0,
		Table:     table,
		Mapping:   DefaultColumnMapper().Propose(columns),
	}, nil
}

// uniqueHeaders names blank headers "Column N" and suffixes repeats with
// " (2)", " (3)" so every column has a distinct key.
func uniqueHeaders(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.Join(strings.Fields(CleanCell(h)), " ")
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		key := strings.ToLower(name)
		seen[key]++
		if n := seen[key]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}
		out[i] = name
	}
	return out
}
