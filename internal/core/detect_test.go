package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerFixtureFormats installs two overlapping formats for one test.
func registerFixtureFormats(t *testing.T) {
	t.Helper()
	ClearFormats()
	t.Cleanup(ClearFormats)

	passthrough := func(src Source) ParseFunc {
		return func(sheet RawSheet, opts ParseOptions) (*ParseResult, error) {
			row := opts.HeaderRow
			if row < 0 {
				row = 0
			}
			table := &Table{Columns: []string{"A"}}
			for i := row + 1; i < len(sheet); i++ {
				table.Rows = append(table.Rows, TableRow{Line: i + 1, Values: map[string]string{"A": sheet.Cell(i, 0)}})
			}
			return &ParseResult{HeaderRow: row, Table: table, Mapping: ColumnMapping{"A": ""}}, nil
		}
	}

	RegisterFormat(FormatDefinition{
		Source:    SourceTMS,
		Template:  TemplateAljex,
		Signature: []string{"PRO", "SHIP DATE", "PICKUP", "CONSIGNEE", "WEIGHT"},
		Threshold: 3,
		ScanRows:  10,
		Priority:  20,
		Parse:     passthrough(SourceTMS),
	})
	RegisterFormat(FormatDefinition{
		Source:    SourceBrokerA,
		Template:  TemplateAdelphia,
		Signature: []string{"PICK UP AT", "DESTINATION", "RATE", "WEIGHT"},
		Threshold: 3,
		Priority:  10,
		Parse:     passthrough(SourceBrokerA),
	})
}

func TestHeaderToken(t *testing.T) {
	tests := []struct{ input, want string }{
		{"Pick up at:", "PICK UP AT"},
		{"  ship   date ", "SHIP DATE"},
		{"\u00a0Weight\u00a0", "WEIGHT"},
		{`="Pro #"`, "PRO #"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeaderToken(tt.input), "HeaderToken(%q)", tt.input)
	}
}

func TestTokenMatches(t *testing.T) {
	assert.True(t, TokenMatches("PICKUP CITY", "PICKUP"), "cell contains token")
	assert.True(t, TokenMatches("TARP", "TARPS"), "token contains cell")
	assert.False(t, TokenMatches("ST", "STATUS"), "short cells never match in reverse")
	assert.False(t, TokenMatches("", "PRO"))
	assert.False(t, TokenMatches("MILES", "WEIGHT"))
}

func TestSignatureScore(t *testing.T) {
	tokens := []string{"PRO", "SHIP DATE", "PICKUP", "WEIGHT"}
	assert.Equal(t, 4, SignatureScore([]string{"Pro #", "Ship Date", "Pickup City", "Weight"}, tokens))
	assert.Equal(t, 1, SignatureScore([]string{"Pickup City", "Pickup State"}, tokens), "a token counts once")
	assert.Equal(t, 0, SignatureScore(nil, tokens))
}

func TestDetect(t *testing.T) {
	registerFixtureFormats(t)

	tms := RawSheet{
		{"Loads report"},
		{"Pro", "Ship Date", "Pickup", "Consignee"},
		{"1", "1/1/25", "AL MOBILE", "TX DALLAS"},
	}
	both := RawSheet{
		{"PICK UP AT", "DESTINATION", "RATE", "WEIGHT", "PRO", "SHIP DATE", "PICKUP"},
		{"Mobile, AL", "Dallas, TX", "1000", "1", "2", "1/1/25", "x"},
	}
	plain := RawSheet{{"Origin", "Destination City"}, {"Mobile", "Dallas"}}

	tests := []struct {
		name    string
		sheet   RawSheet
		tmpl    Template
		want    Source
		wantRow int
	}{
		{"tms found below title", tms, TemplateAuto, SourceTMS, 1},
		{"broker first when both match", both, TemplateAuto, SourceBrokerA, 0},
		{"unrecognized is generic", plain, TemplateAuto, SourceGeneric, 0},
		{"explicit template wins", both, TemplateAljex, SourceTMS, 0},
		{"explicit standard", tms, TemplateStandard, SourceGeneric, 0},
		{"explicit format without header", plain, TemplateAdelphia, SourceBrokerA, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.sheet, tt.tmpl)
			assert.Equal(t, tt.want, got.Source)
			assert.Equal(t, tt.wantRow, got.HeaderRow)
		})
	}
}

func TestLocateHeader_RespectsScanWindow(t *testing.T) {
	def := FormatDefinition{Signature: []string{"PRO", "PICKUP"}, Threshold: 2, ScanRows: 3}
	sheet := RawSheet{{"a"}, {"b"}, {"c"}, {"PRO", "PICKUP"}}
	assert.Equal(t, -1, def.LocateHeader(sheet))

	def.ScanRows = 4
	assert.Equal(t, 3, def.LocateHeader(sheet))
}

func TestRegisterFormat_Panics(t *testing.T) {
	registerFixtureFormats(t)

	assert.Panics(t, func() { RegisterFormat(FormatDefinition{Source: SourceTMS}) })
	assert.Panics(t, func() { RegisterFormat(FormatDefinition{Source: SourceGeneric}) })
	assert.Equal(t, 2, FormatCount())

	order := Formats()
	assert.Equal(t, SourceBrokerA, order[0].Source)
	assert.Equal(t, DefaultHeaderScanRows, order[0].ScanRows, "zero ScanRows takes the default")
}

func TestParseSheet(t *testing.T) {
	registerFixtureFormats(t)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := ParseSheet(RawSheet{{"Pro", "Ship Date", "Pickup"}, {"1", "2", "3"}}, TemplateAuto, now)
	require.NoError(t, err)
	assert.Equal(t, SourceTMS, res.Source, "source is stamped from detection")

	_, err = ParseSheet(RawSheet{{"Origin City", "Destination City"}}, TemplateAuto, now)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CodeNoDataRows, fe.Code)

	_, err = ParseSheet(nil, TemplateAuto, now)
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CodeNoDataRows, fe.Code)
}

func TestParseSheet_AutoFallsBackToGeneric(t *testing.T) {
	ClearFormats()
	t.Cleanup(ClearFormats)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	RegisterFormat(FormatDefinition{
		Source:    SourceBrokerA,
		Template:  TemplateAdelphia,
		Signature: []string{"DESTINATION", "WEIGHT"},
		Threshold: 2,
		Priority:  10,
		Parse: func(sheet RawSheet, opts ParseOptions) (*ParseResult, error) {
			return &ParseResult{Table: &Table{}}, nil
		},
	})
	RegisterFormat(FormatDefinition{
		Source:    SourceTMS,
		Template:  TemplateAljex,
		Signature: []string{"ORIGIN", "MILES"},
		Threshold: 2,
		Priority:  20,
		Parse: func(sheet RawSheet, opts ParseOptions) (*ParseResult, error) {
			return nil, &FormatError{Code: CodeCityUnresolved, Source: SourceTMS, Reason: "no city columns"}
		},
	})

	tests := []struct {
		name   string
		sheet  RawSheet
		detect Source
	}{
		{"parser yields no rows", RawSheet{{"Origin City", "Destination City", "Weight"}, {"Mobile", "Dallas", "100"}}, SourceBrokerA},
		{"parser rejects layout", RawSheet{{"Origin City", "Miles"}, {"Mobile", "350"}}, SourceTMS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.detect, Detect(tt.sheet, TemplateAuto).Source)

			res, err := ParseSheet(tt.sheet, TemplateAuto, now)
			require.NoError(t, err)
			assert.Equal(t, SourceGeneric, res.Source)
			require.Len(t, res.Table.Rows, 1)
			assert.Equal(t, "Mobile", res.Table.Rows[0].Values["Origin City"])
		})
	}

	_, err := ParseSheet(RawSheet{{"Origin City", "Destination City", "Weight"}, {"Mobile", "Dallas", "100"}}, TemplateAdelphia, now)
	var fe *FormatError
	require.True(t, errors.As(err, &fe), "pinned template keeps its error")
	assert.Equal(t, SourceBrokerA, fe.Source)
}
