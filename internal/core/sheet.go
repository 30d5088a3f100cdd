package core

// sheet.go reads an uploaded file into a RawSheet.
//
// Workbooks are read from the first sheet only, with raw cell values so that
// date cells arrive as day serials rather than locale-formatted strings.
// CSV files are decoded as UTF-8 when valid, otherwise as Windows-1252,
// which is what Excel writes when "CSV (Comma delimited)" is chosen on
// US Windows installs.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("empty file")

// ErrFileTooLarge is returned when an upload exceeds the configured cap.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadSheet reads name's content from r. maxSize <= 0 disables the cap.
func ReadSheet(name string, r io.Reader, maxSize int64) (RawSheet, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %d byte limit", ErrFileTooLarge, maxSize)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var sheet RawSheet
	switch kind := sniffKind(name, data); kind {
	case "xlsx":
		sheet, err = readWorkbook(data)
	case "csv":
		sheet, err = readCSV(data)
	default:
		return nil, &FormatError{
			Code:   CodeUnreadableSheet,
			Reason: fmt.Sprintf("unsupported file type %s", kind),
		}
	}
	if err != nil {
		return nil, &FormatError{Code: CodeUnreadableSheet, Reason: "cannot read " + filepath.Base(name), Err: err}
	}
	return trimTrailingEmpty(sheet), nil
}

// sniffKind returns "xlsx", "csv" or the detected MIME type.
func sniffKind(name string, data []byte) string {
	mime := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(name))

	if mime.Is(xlsxMIME) {
		return "xlsx"
	}
	if mime.Is("application/zip") && ext == ".xlsx" {
		return "xlsx"
	}
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("text/csv") {
			return "csv"
		}
	}
	// Windows-1252 bytes can defeat the text detector.
	if ext == ".csv" || ext == ".txt" {
		return "csv"
	}
	return mime.String()
}

func readWorkbook(data []byte) (RawSheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return RawSheet(rows), nil
}

func readCSV(data []byte) (RawSheet, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("encoding error: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return RawSheet(records), nil
}

func trimTrailingEmpty(sheet RawSheet) RawSheet {
	end := len(sheet)
	for end > 0 && isEmptyRow(sheet[end-1]) {
		end--
	}
	return sheet[:end]
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
