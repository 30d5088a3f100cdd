package formats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/loadimport/internal/core"
)

var testNow = time.Date(2025, time.November, 20, 9, 0, 0, 0, time.UTC)

func adelphiaSheet() core.RawSheet {
	return core.RawSheet{
		{"ADELPHIA METAL LOAD BOARD"},
		{"Updated 11/20"},
		{"PICK UP AT:", "DESTINATION", "READY", "WEIGHT", "LENGTH", "TARP", "RATE"},
		{"Jacksonville, FL", "Atlanta, GA", "12-Dec", "45,000 lbs", "40'", "6 ft", "$1,000"},
		{"ALL TRUCKS MUST HAVE 8FT TARPS"},
		{"Tampa, Florida", "Savannah, GA / Macon, GA", "3-Jan", "30000", "20", "", "750.50"},
		{"", "Orphan destination, AL"},
		{"Note: call ahead", "", "", "", "", "", ""},
	}
}

func TestParseAdelphia(t *testing.T) {
	def, ok := core.GetFormat(core.SourceBrokerA)
	require.True(t, ok, "adelphia must register on init")

	sheet := adelphiaSheet()
	res, err := def.Parse(sheet, core.ParseOptions{HeaderRow: def.LocateHeader(sheet), Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, 2, res.HeaderRow)
	assert.Equal(t, core.SourceBrokerA, res.Source)
	assert.Len(t, res.Table.Columns, 12)
	require.Len(t, res.Table.Rows, 2, "instruction and empty-pickup rows are skipped")

	first := res.Table.Rows[0].Values
	assert.Equal(t, 4, res.Table.Rows[0].Line)
	assert.Equal(t, "Jacksonville", first[colOriginCity])
	assert.Equal(t, "FL", first[colOriginState])
	assert.Equal(t, "Atlanta", first[colDestinationCity])
	assert.Equal(t, "GA", first[colDestinationState])
	assert.Equal(t, "2025-12-12", first[colPickupDate])
	assert.Equal(t, "45000", first[colWeight])
	assert.Equal(t, "40", first[colLength])
	assert.Equal(t, "6 ft", first[colTarp])
	assert.Equal(t, "1000", first[colCustomerRate])
	assert.Equal(t, "800.00", first[colTargetRate])
	assert.Equal(t, "REBAR", first[colCommodity])
	assert.Equal(t, "Flatbed", first[colEquipment])

	second := res.Table.Rows[1].Values
	assert.Equal(t, "FL", second[colOriginState], "full state names are abbreviated")
	assert.Equal(t, "Savannah", second[colDestinationCity], "only the first destination is kept")
	assert.Equal(t, "2026-01-03", second[colPickupDate], "past dates roll to next year")
	assert.Equal(t, "600.40", second[colTargetRate])
}

func TestParseAdelphia_Mapping(t *testing.T) {
	def, _ := core.GetFormat(core.SourceBrokerA)
	res, err := def.Parse(adelphiaSheet(), core.ParseOptions{HeaderRow: 2, Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, core.KeyFloorRate, res.Mapping[colCustomerRate])
	assert.Equal(t, core.KeyTargetRate, res.Mapping[colTargetRate])
	assert.Equal(t, core.KeyTarpSize, res.Mapping[colTarp])
	assert.NoError(t, core.ValidateMapping(res.Mapping, core.Fields()))

	res.Mapping[colCustomerRate] = ""
	again, _ := def.Parse(adelphiaSheet(), core.ParseOptions{HeaderRow: 2, Now: testNow})
	assert.Equal(t, core.KeyFloorRate, again.Mapping[colCustomerRate], "preset mapping must not be shared")
}

func TestParseAdelphia_UnparseableRate(t *testing.T) {
	def, _ := core.GetFormat(core.SourceBrokerA)
	sheet := core.RawSheet{
		{"PICK UP AT", "DESTINATION", "READY", "WEIGHT", "RATE"},
		{"Mobile, AL", "Dallas, TX", "ASAP", "", "CALL"},
	}
	res, err := def.Parse(sheet, core.ParseOptions{HeaderRow: 0, Now: testNow})
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 1)

	row := res.Table.Rows[0].Values
	assert.Equal(t, "", row[colTargetRate])
	assert.Equal(t, "ASAP", row[colPickupDate], "unknown dates pass through")
	assert.Equal(t, "", row[colTarp], "missing role columns yield empty cells")
}

func TestIsInstruction(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ALL TRUCKS NEED CHAINS", true},
		{"note: escort required", true},
		{"Appointment only", true},
		{"Birmingham, AL", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isInstruction(tt.in), tt.in)
	}
}

func TestDetect_BrokerAWinsOverTMS(t *testing.T) {
	sheet := core.RawSheet{
		{"PICK UP AT", "RATE", "DESTINATION", "READY", "WEIGHT", "LENGTH", "TARP", "PRO #", "TYPE", "STATUS", "SHIP DATE", "PICKUP"},
		{"Mobile, AL", "1000", "Dallas, TX", "1-Dec", "1", "1", "", "1", "F", "OPEN", "12/01/25", "AL MOBILE"},
	}
	tms, _ := core.GetFormat(core.SourceTMS)
	require.GreaterOrEqual(t, core.SignatureScore(sheet[0], tms.Signature), tms.Threshold)

	det := core.Detect(sheet, core.TemplateAuto)
	assert.Equal(t, core.SourceBrokerA, det.Source)
	assert.Equal(t, 0, det.HeaderRow)
}

func TestParseSheet_AutoFallsBackFromBrokerA(t *testing.T) {
	sheet := core.RawSheet{
		{"Load Number", "Origin City", "Origin State", "Destination City", "Destination State", "Weight", "Length", "Rate"},
		{"L-1", "Mobile", "AL", "Dallas", "TX", "42000", "48", "1500"},
	}
	require.Equal(t, core.SourceBrokerA, core.Detect(sheet, core.TemplateAuto).Source,
		"header hits enough broker tokens to be detected")

	res, err := core.ParseSheet(sheet, core.TemplateAuto, testNow)
	require.NoError(t, err)
	assert.Equal(t, core.SourceGeneric, res.Source)
	require.Len(t, res.Table.Rows, 1)
	assert.Equal(t, "Mobile", res.Table.Rows[0].Values["Origin City"])
	assert.Equal(t, core.KeyOriginCity, res.Mapping["Origin City"])

	_, err = core.ParseSheet(sheet, core.TemplateAdelphia, testNow)
	var fe *core.FormatError
	require.ErrorAs(t, err, &fe, "a pinned template does not fall back")
	assert.Equal(t, core.SourceBrokerA, fe.Source)
}
