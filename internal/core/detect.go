package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultHeaderScanRows is how many leading rows detection looks at.
const DefaultHeaderScanRows = 15

// MaxHeaderScanRows caps every format's ScanRows. Set from configuration.
var MaxHeaderScanRows = DefaultHeaderScanRows

// minReverseMatchLen keeps short cells like "A" or "ST" from matching
// every token that happens to contain them.
const minReverseMatchLen = 3

// Detection is the detector's verdict for a sheet.
type Detection struct {
	Source    Source
	HeaderRow int // -1 when the format matched but the header was not isolated
}

// HeaderToken normalizes a header cell for signature matching:
// cleaned, uppercased, inner whitespace collapsed, trailing colon dropped.
func HeaderToken(cell string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(CleanCell(cell)), " "))
	return strings.TrimSpace(strings.TrimSuffix(s, ":"))
}

// TokenMatches reports whether a normalized cell and signature token
// overlap as substrings in either direction.
func TokenMatches(cell, token string) bool {
	if cell == "" || token == "" {
		return false
	}
	if strings.Contains(cell, token) {
		return true
	}
	return len(cell) >= minReverseMatchLen && strings.Contains(token, cell)
}

// SignatureScore counts how many distinct tokens appear in row.
func SignatureScore(row []string, tokens []string) int {
	cells := make([]string, 0, len(row))
	for _, c := range row {
		if t := HeaderToken(c); t != "" {
			cells = append(cells, t)
		}
	}

	score := 0
	for _, tok := range tokens {
		for _, c := range cells {
			if TokenMatches(c, tok) {
				score++
				break
			}
		}
	}
	return score
}

// scanLimit returns how many rows def may examine in sheet.
func (def FormatDefinition) scanLimit(sheet RawSheet) int {
	n := def.ScanRows
	if n <= 0 || n > MaxHeaderScanRows {
		n = MaxHeaderScanRows
	}
	if n > len(sheet) {
		n = len(sheet)
	}
	return n
}

// LocateHeader returns the first row within the scan window whose
// signature score meets the threshold, or -1.
func (def FormatDefinition) LocateHeader(sheet RawSheet) int {
	for i := 0; i < def.scanLimit(sheet); i++ {
		if SignatureScore(sheet[i], def.Signature) >= def.Threshold {
			return i
		}
	}
	return -1
}

// Detect picks the format for sheet. An explicit template wins. Otherwise
// registered formats are tried in priority order and the first match is
// used. Detect never fails: the worst case is generic with row 0 as header.
func Detect(sheet RawSheet, tmpl Template) Detection {
	if src, ok := tmpl.Source(); ok {
		if src == SourceGeneric {
			return Detection{Source: SourceGeneric, HeaderRow: 0}
		}
		if def, ok := GetFormat(src); ok {
			return Detection{Source: src, HeaderRow: def.LocateHeader(sheet)}
		}
		return Detection{Source: SourceGeneric, HeaderRow: 0}
	}

	for _, def := range Formats() {
		if row := def.LocateHeader(sheet); row >= 0 {
			return Detection{Source: def.Source, HeaderRow: row}
		}
	}
	return Detection{Source: SourceGeneric, HeaderRow: 0}
}

// ParseSheet runs detection and the selected parser. The result always
// has at least one data row. Under TemplateAuto a detected format that
// yields no rows, or rejects the layout, falls back to generic parsing.
func ParseSheet(sheet RawSheet, tmpl Template, now time.Time) (*ParseResult, error) {
	if len(sheet) == 0 {
		return nil, &FormatError{Code: CodeNoDataRows, Reason: "sheet is empty"}
	}

	det := Detect(sheet, tmpl)
	res, err := parseDetected(sheet, det, now)

	if det.Source != SourceGeneric && tmpl == TemplateAuto && (isFormatError(err) || (err == nil && !hasRows(res))) {
		det = Detection{Source: SourceGeneric, HeaderRow: 0}
		res, err = parseDetected(sheet, det, now)
	}
	if err != nil {
		return nil, err
	}

	res.Source = det.Source
	if !hasRows(res) {
		return nil, &FormatError{Code: CodeNoDataRows, Source: det.Source, Reason: "no data rows found"}
	}
	getMetrics().detectedTotal.WithLabelValues(string(det.Source)).Inc()
	return res, nil
}

func parseDetected(sheet RawSheet, det Detection, now time.Time) (*ParseResult, error) {
	if det.Source == SourceGeneric {
		return ParseGeneric(sheet)
	}
	def, _ := GetFormat(det.Source)
	return def.Parse(sheet, ParseOptions{HeaderRow: det.HeaderRow, Now: now})
}

func hasRows(res *ParseResult) bool {
	return res != nil && res.Table != nil && len(res.Table.Rows) > 0
}

func isFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
