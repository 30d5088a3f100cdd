package formats

import (
	"strings"

	"github.com/JonMunkholm/loadimport/internal/core"
)

func init() {
	registerAdelphia()
}

// Adelphia exports are rebar-on-flatbed load boards with one row per load
// and free-text instructions mixed in between the rows.
var adelphiaSignature = []string{"PICK UP AT", "RATE", "DESTINATION", "READY", "WEIGHT", "LENGTH", "TARP"}

// Pickup cells containing any of these are instructions, not loads.
var adelphiaDenylist = []string{"ALL TRUCKS", "NOTE", "ESCORT", "APPOINTMENT"}

const (
	adelphiaCommodity = "REBAR"
	adelphiaEquipment = "Flatbed"
)

// Intermediate columns, in output order.
const (
	colOriginCity       = "Origin City"
	colOriginState      = "Origin State"
	colOriginZip        = "Origin Zip"
	colDestinationCity  = "Destination City"
	colDestinationState = "Destination State"
	colDestinationZip   = "Destination Zip"
	colPickupDate       = "Pickup Date"
	colWeight           = "Weight"
	colLength           = "Length"
	colTarp             = "Tarp"
	colCustomerRate     = "Customer Rate"
	colTargetRate       = "Target Rate"
	colCommodity        = "Commodity"
	colEquipment        = "Equipment"
)

var adelphiaColumns = []string{
	colOriginCity, colOriginState, colDestinationCity, colDestinationState,
	colPickupDate, colWeight, colLength, colTarp,
	colCustomerRate, colTargetRate, colCommodity, colEquipment,
}

var adelphiaMapping = core.ColumnMapping{
	colOriginCity:       core.KeyOriginCity,
	colOriginState:      core.KeyOriginState,
	colDestinationCity:  core.KeyDestinationCity,
	colDestinationState: core.KeyDestinationState,
	colPickupDate:       core.KeyPickupDate,
	colWeight:           core.KeyWeightLbs,
	colLength:           core.KeyLengthFt,
	colTarp:             core.KeyTarpSize,
	colCustomerRate:     core.KeyFloorRate,
	colTargetRate:       core.KeyTargetRate,
	colCommodity:        core.KeyCommodity,
	colEquipment:        core.KeyEquipmentType,
}

func registerAdelphia() {
	core.RegisterFormat(core.FormatDefinition{
		Source:    core.SourceBrokerA,
		Template:  core.TemplateAdelphia,
		Label:     "Adelphia load board",
		Signature: adelphiaSignature,
		Threshold: 4,
		ScanRows:  15,
		Priority:  10,
		Parse:     parseAdelphia,
	})
}

// adelphiaRoles finds each signature token's column in the header row.
// Exact matches win over substring matches.
func adelphiaRoles(header []string) map[string]int {
	tokens := make([]string, len(header))
	for i, c := range header {
		tokens[i] = core.HeaderToken(c)
	}

	roles := make(map[string]int, len(adelphiaSignature))
	for _, sig := range adelphiaSignature {
		for i, t := range tokens {
			if t == sig {
				roles[sig] = i
				break
			}
		}
	}
	for _, sig := range adelphiaSignature {
		if _, ok := roles[sig]; ok {
			continue
		}
		for i, t := range tokens {
			if t != "" && strings.Contains(t, sig) && !claimed(roles, i) {
				roles[sig] = i
				break
			}
		}
	}
	return roles
}

func claimed(roles map[string]int, col int) bool {
	for _, c := range roles {
		if c == col {
			return true
		}
	}
	return false
}

func isInstruction(pickup string) bool {
	upper := strings.ToUpper(pickup)
	for _, phrase := range adelphiaDenylist {
		if strings.Contains(upper, phrase) {
			return true
		}
	}
	return false
}

func parseAdelphia(sheet core.RawSheet, opts core.ParseOptions) (*core.ParseResult, error) {
	headerRow := opts.HeaderRow
	if headerRow < 0 || headerRow >= len(sheet) {
		headerRow = 0
	}
	roles := adelphiaRoles(sheet[headerRow])

	cell := func(row int, sig string) string {
		col, ok := roles[sig]
		if !ok {
			return ""
		}
		return core.CleanCell(sheet.Cell(row, col))
	}

	table := &core.Table{Columns: adelphiaColumns}
	for i := headerRow + 1; i < len(sheet); i++ {
		pickup := cell(i, "PICK UP AT")
		if pickup == "" || isInstruction(pickup) {
			continue
		}

		originCity, originState := core.SplitCityState(pickup)
		destCity, destState := core.SplitCityState(cell(i, "DESTINATION"))

		rate := core.ParseRateValue(cell(i, "RATE"))
		target := ""
		if d, ok := commission(rate, shareStandard); ok {
			target = d.StringFixed(2)
		}

		table.Rows = append(table.Rows, core.TableRow{
			Line: i + 1,
			Values: map[string]string{
				colOriginCity:       originCity,
				colOriginState:      NormalizeUsState(originState),
				colDestinationCity:  destCity,
				colDestinationState: NormalizeUsState(destState),
				colPickupDate:       core.ParseShortDate(cell(i, "READY"), opts.Now),
				colWeight:           stripToNumber(cell(i, "WEIGHT")),
				colLength:           stripToNumber(cell(i, "LENGTH")),
				colTarp:             cell(i, "TARP"),
				colCustomerRate:     rate,
				colTargetRate:       target,
				colCommodity:        adelphiaCommodity,
				colEquipment:        adelphiaEquipment,
			},
		})
	}

	return &core.ParseResult{
		Source:    core.SourceBrokerA,
		HeaderRow: headerRow,
		Table:     table,
		Mapping:   adelphiaMapping.Clone(),
	}, nil
}
