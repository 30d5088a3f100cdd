package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadSheet_CSV(t *testing.T) {
	data := "\xEF\xBB\xBFOrigin City,Destination City,Notes\nMobile,Dallas,\"say \"\"hi\"\"\"\nReno,Boise\n\n,,\n"

	sheet, err := ReadSheet("loads.csv", strings.NewReader(data), 0)
	require.NoError(t, err)

	require.Len(t, sheet, 3, "trailing empty rows are dropped")
	assert.Equal(t, "Origin City", sheet[0][0], "BOM is stripped")
	assert.Equal(t, `say "hi"`, sheet[1][2])
	assert.Len(t, sheet[2], 2, "ragged rows are kept as-is")
}

func TestReadSheet_Windows1252(t *testing.T) {
	data := []byte("Origin City,Notes\nMontr\xe9al,caf\xe9\n")

	sheet, err := ReadSheet("loads.csv", bytes.NewReader(data), 0)
	require.NoError(t, err)
	assert.Equal(t, "Montréal", sheet[1][0])
	assert.Equal(t, "café", sheet[1][1])
}

func TestReadSheet_Workbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheetName, "A1", &[]any{"PICK UP AT", "READY", "WEIGHT"}))
	require.NoError(t, f.SetSheetRow(sheetName, "A2", &[]any{"Mobile, AL", 44712, 45000}))
	other, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "not read"))
	_ = other

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	sheet, err := ReadSheet("board.xlsx", buf, 0)
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	assert.Equal(t, []string{"PICK UP AT", "READY", "WEIGHT"}, sheet[0])
	assert.Equal(t, "44712", sheet[1][1], "date serials arrive raw")
}

func TestReadSheet_Errors(t *testing.T) {
	_, err := ReadSheet("empty.csv", strings.NewReader("  \n"), 0)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ReadSheet("big.csv", strings.NewReader(strings.Repeat("a,b\n", 100)), 16)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = ReadSheet("scan.pdf", strings.NewReader("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"), 0)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CodeUnreadableSheet, fe.Code)
}
