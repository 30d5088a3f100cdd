package core

// convert.go provides the value parsers used by every format parser and by
// the record normalizer.
//
// These functions handle the messy reality of exported spreadsheet data:
//   - Excel serial dates, "12-Dec" short dates, MM/DD/YY ship dates
//   - Currency symbols and thousand separators in rates and weights
//   - Various boolean representations (yes/y/true/1)
//   - "CITY, ST" and "ST CITY" location strings
//
// All parsers are total: they never return an error. Unparseable input
// yields a nil/false/empty result, or the original string where noted.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericPrefixRegex matches the leading number of a cleaned string.
// Trailing units ("45000 lbs") are ignored.
var numericPrefixRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

var (
	shortDateRegex    = regexp.MustCompile(`^(\d{1,2})[-\s]([A-Za-z]{3})[A-Za-z]*\.?$`)
	flexibleDateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
)

// excelEpoch absorbs the 1900 leap-year bug for serials after Feb 1900.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Plausible serial window, exclusive, roughly 2009 through 2064.
const (
	minExcelSerial = 40000
	maxExcelSerial = 60000
)

var shortMonths = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// TwoDigitYearPivot: two-digit years above this are 19xx, others 20xx.
const TwoDigitYearPivot = 50

// ParseBoolean reports whether s is one of true/yes/1/y, case-insensitively.
func ParseBoolean(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "y":
		return true
	}
	return false
}

// ParseNumber strips "," and "$" and parses the leading number.
// Returns nil for empty or non-numeric input.
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.NewReplacer(",", "", "$", "").Replace(s))
	if s == "" {
		return nil
	}
	m := numericPrefixRegex.FindString(s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// ParseRateValue strips "$" and "," and leaves the rest for ParseNumber.
func ParseRateValue(s string) string {
	return strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
}

// ParseExcelSerialDate converts a spreadsheet day serial to YYYY-MM-DD.
// ok is false when s is not numeric or outside the plausible window.
func ParseExcelSerialDate(s string) (string, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return "", false
	}
	return ExcelSerialToDate(f)
}

// ExcelSerialToDate is ParseExcelSerialDate for an already numeric cell.
// Fractional (time of day) parts are dropped.
func ExcelSerialToDate(v float64) (string, bool) {
	if !(v > minExcelSerial && v < maxExcelSerial) {
		return "", false
	}
	return excelEpoch.AddDate(0, 0, int(math.Floor(v))).Format(time.DateOnly), true
}

// ParseShortDate resolves "D-Mon" strings like "12-Dec" against now.
// The year is now's year unless that date has already passed, in which
// case it rolls to next year. Excel serials are tried first. Anything
// else comes back unmodified.
func ParseShortDate(s string, now time.Time) string {
	trimmed := strings.TrimSpace(s)
	if d, ok := ParseExcelSerialDate(trimmed); ok {
		return d
	}

	m := shortDateRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return s
	}
	day, _ := strconv.Atoi(m[1])
	month := monthIndex(m[2])
	if month == 0 || day < 1 || day > 31 {
		return s
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	year := now.Year()
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// 31-Feb and friends
		return s
	}
	if t.Before(today) {
		year++
		t = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day {
			return s
		}
	}
	return t.Format(time.DateOnly)
}

func monthIndex(name string) int {
	name = strings.ToLower(name)
	for i, m := range shortMonths {
		if m == name {
			return i + 1
		}
	}
	return 0
}

// ParseFlexibleDate rewrites MM/DD/YY and MM/DD/YYYY as YYYY-MM-DD.
// Month and day are zero-padded without calendar validation. Two-digit
// years above TwoDigitYearPivot are 19xx, others 20xx. Excel serials are
// converted. Anything else is returned trimmed.
func ParseFlexibleDate(s string) string {
	s = strings.TrimSpace(s)
	m := flexibleDateRegex.FindStringSubmatch(s)
	if m == nil {
		if d, ok := ParseExcelSerialDate(s); ok {
			return d
		}
		return s
	}

	year := m[3]
	if len(year) == 2 {
		yy, _ := strconv.Atoi(year)
		if yy > TwoDigitYearPivot {
			year = "19" + year
		} else {
			year = "20" + year
		}
	} else if len(year) == 3 {
		year = "0" + year
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%s-%02d-%02d", year, month, day)
}

// SplitCityState splits "CITY, ST" on the last comma. Only the first
// "/"-delimited location is considered. With no comma the whole trimmed
// location is the city.
func SplitCityState(s string) (city, state string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	i := strings.LastIndex(s, ",")
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
}

// SplitStateFirstLocation splits "ST CITY NAME" into ("ST", "CITY NAME").
func SplitStateFirstLocation(s string) (state, city string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// CleanCell removes common spreadsheet export artifacts from a cell value:
// - Trims whitespace, including non-breaking spaces
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
