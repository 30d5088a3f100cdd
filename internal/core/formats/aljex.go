package formats

// aljex.go parses the Aljex TMS "available loads" export.
//
// Column names drift between Aljex versions and customer configurations, so
// each semantic role carries a list of aliases. Every (role, column) pair is
// scored the same way the column mapper scores headers, and roles are then
// assigned greedily from the highest score down. A column serves one role.

import (
	"sort"
	"strings"

	"github.com/JonMunkholm/loadimport/internal/core"
)

func init() {
	registerAljex()
}

var aljexSignature = []string{"PRO", "TYPE", "STATUS", "SHIP DATE", "PICKUP", "CONSIGNEE", "WEIGHT", "MILES", "TARPS"}

// aljexHeaderMinScore is the lowest signature score accepted when the
// parser has to find the header row itself.
const aljexHeaderMinScore = 2

const aljexScanRows = 10

type aljexRole int

const (
	roleLoadNumber aljexRole = iota
	roleType
	roleStatus
	roleShipDate
	rolePickupCity
	rolePickupState
	rolePickupZip
	rolePickupLocation
	roleConsigneeCity
	roleConsigneeState
	roleConsigneeZip
	roleConsigneeLocation
	roleCommodity
	roleWeight
	roleFootage
	roleMiles
	roleRevenue
	roleHazmat
	roleTarps
	roleTarpSize
)

// aljexAliases is indexed by role. Declaration order breaks score ties.
var aljexAliases = [...][]string{
	roleLoadNumber:        {"pro #", "pro number", "pro", "load #", "load number"},
	roleType:              {"type", "load type"},
	roleStatus:            {"status"},
	roleShipDate:          {"ship date", "pickup date", "pu date", "ship"},
	rolePickupCity:        {"pickup city", "shipper city", "origin city", "pu city"},
	rolePickupState:       {"pickup state", "shipper state", "origin state", "pickup st", "pu st"},
	rolePickupZip:         {"pickup zip", "shipper zip", "origin zip", "pu zip"},
	rolePickupLocation:    {"pickup", "shipper", "origin"},
	roleConsigneeCity:     {"consignee city", "dest city", "destination city", "cons city"},
	roleConsigneeState:    {"consignee state", "dest state", "destination state", "consignee st", "cons st"},
	roleConsigneeZip:      {"consignee zip", "dest zip", "destination zip", "cons zip"},
	roleConsigneeLocation: {"consignee", "destination", "dest"},
	roleCommodity:         {"commodity", "description"},
	roleWeight:            {"weight", "wt"},
	roleFootage:           {"footage", "feet", "length"},
	roleMiles:             {"miles", "mileage"},
	roleRevenue:           {"customer rate", "revenue", "charges", "rate"},
	roleHazmat:            {"hazmat", "haz"},
	roleTarps:             {"tarps", "tarp"},
	roleTarpSize:          {"tarp size"},
}

// Intermediate columns beyond the ones shared with adelphia.go.
const (
	colLoadNumber = "Load #"
	colType       = "Type"
	colStatus     = "Status"
	colShipDate   = "Ship Date"
	colFootage    = "Footage"
	colMiles      = "Miles"
	colTargetPay  = "Target Pay"
	colMaxPay     = "Max Pay"
	colHazmat     = "Hazmat"
	colTarps      = "Tarps"
	colTarpSize   = "Tarp Size"
)

var aljexColumns = []string{
	colLoadNumber, colType, colStatus, colShipDate,
	colOriginCity, colOriginState, colOriginZip,
	colDestinationCity, colDestinationState, colDestinationZip,
	colCommodity, colWeight, colFootage, colMiles,
	colCustomerRate, colTargetPay, colMaxPay,
	colHazmat, colTarps, colTarpSize,
}

var aljexMapping = core.ColumnMapping{
	colLoadNumber:       core.KeyLoadNumber,
	colType:             core.KeyLoadType,
	colStatus:           core.KeySourceStatus,
	colShipDate:         core.KeyPickupDate,
	colOriginCity:       core.KeyOriginCity,
	colOriginState:      core.KeyOriginState,
	colOriginZip:        core.KeyOriginZip,
	colDestinationCity:  core.KeyDestinationCity,
	colDestinationState: core.KeyDestinationState,
	colDestinationZip:   core.KeyDestinationZip,
	colCommodity:        core.KeyCommodity,
	colWeight:           core.KeyWeightLbs,
	colFootage:          core.KeyLengthFt,
	colMiles:            core.KeyMiles,
	colCustomerRate:     core.KeyFloorRate,
	colTargetPay:        core.KeyTargetRate,
	colMaxPay:           core.KeyMaxRate,
	colHazmat:           core.KeyHazmat,
	colTarps:            core.KeyTarpRequired,
	colTarpSize:         core.KeyTarpSize,
}

func registerAljex() {
	core.RegisterFormat(core.FormatDefinition{
		Source:    core.SourceTMS,
		Template:  core.TemplateAljex,
		Label:     "Aljex TMS export",
		Signature: aljexSignature,
		Threshold: 5,
		ScanRows:  aljexScanRows,
		Priority:  20,
		Parse:     parseAljex,
	})
}

// aljexHeaderRow returns the best scoring row in the scan window, or 0
// when no row reaches aljexHeaderMinScore.
func aljexHeaderRow(sheet core.RawSheet) int {
	best, bestScore := 0, aljexHeaderMinScore-1
	for i := 0; i < len(sheet) && i < aljexScanRows; i++ {
		if s := core.SignatureScore(sheet[i], aljexSignature); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// resolveAljexRoles assigns header columns to roles. Unresolved roles are
// absent from the result.
func resolveAljexRoles(header []string) map[aljexRole]int {
	type match struct {
		role  aljexRole
		col   int
		score int
	}

	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = core.FoldHeader(h)
	}

	var matches []match
	for r, aliases := range aljexAliases {
		for col, h := range folded {
			if h == "" {
				continue
			}
			best := -1
			for _, a := range aliases {
				if s := aliasScore(h, a); s > best {
					best = s
				}
			}
			if best >= core.ScoreReverse {
				matches = append(matches, match{aljexRole(r), col, best})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].role != matches[j].role {
			return matches[i].role < matches[j].role
		}
		return matches[i].col < matches[j].col
	})

	roles := make(map[aljexRole]int)
	used := make(map[int]bool)
	for _, m := range matches {
		if _, done := roles[m.role]; done || used[m.col] {
			continue
		}
		roles[m.role] = m.col
		used[m.col] = true
	}
	return roles
}

// aliasScore mirrors the column mapper tiers over folded strings.
func aliasScore(header, alias string) int {
	switch {
	case header == alias:
		return core.ScoreExact
	case strings.Contains(header, alias):
		return core.ScoreContains
	case len(header) >= 3 && strings.Contains(alias, header):
		return core.ScoreReverse
	}
	return -1
}

func parseAljex(sheet core.RawSheet, opts core.ParseOptions) (*core.ParseResult, error) {
	headerRow := opts.HeaderRow
	if headerRow < 0 || headerRow >= len(sheet) {
		headerRow = aljexHeaderRow(sheet)
	}
	roles := resolveAljexRoles(sheet[headerRow])

	_, hasPickupCity := roles[rolePickupCity]
	_, hasPickupLoc := roles[rolePickupLocation]
	_, hasConsCity := roles[roleConsigneeCity]
	_, hasConsLoc := roles[roleConsigneeLocation]
	if !hasPickupCity && !hasPickupLoc && !hasConsCity && !hasConsLoc {
		return nil, &core.FormatError{
			Code:   core.CodeCityUnresolved,
			Source: core.SourceTMS,
			Reason: "no pickup or consignee city column found",
		}
	}

	cell := func(row int, r aljexRole) string {
		col, ok := roles[r]
		if !ok {
			return ""
		}
		return core.CleanCell(sheet.Cell(row, col))
	}

	table := &core.Table{Columns: aljexColumns}
	for i := headerRow + 1; i < len(sheet); i++ {
		if emptyRoles(sheet, i, roles) {
			continue
		}

		originCity, originState := resolveLocation(cell(i, rolePickupCity), cell(i, rolePickupState), cell(i, rolePickupLocation))
		destCity, destState := resolveLocation(cell(i, roleConsigneeCity), cell(i, roleConsigneeState), cell(i, roleConsigneeLocation))

		revenue := core.ParseRateValue(cell(i, roleRevenue))
		targetPay, maxPay := "", ""
		if d, ok := commission(revenue, shareStandard); ok {
			targetPay = d.Round(0).String()
		}
		if d, ok := commission(revenue, shareCeiling); ok {
			maxPay = d.Round(0).String()
		}

		table.Rows = append(table.Rows, core.TableRow{
			Line: i + 1,
			Values: map[string]string{
				colLoadNumber:       cell(i, roleLoadNumber),
				colType:             cell(i, roleType),
				colStatus:           cell(i, roleStatus),
				colShipDate:         core.ParseFlexibleDate(cell(i, roleShipDate)),
				colOriginCity:       originCity,
				colOriginState:      originState,
				colOriginZip:        cell(i, rolePickupZip),
				colDestinationCity:  destCity,
				colDestinationState: destState,
				colDestinationZip:   cell(i, roleConsigneeZip),
				colCommodity:        cell(i, roleCommodity),
				colWeight:           stripThousands(cell(i, roleWeight)),
				colFootage:          stripThousands(cell(i, roleFootage)),
				colMiles:            stripThousands(cell(i, roleMiles)),
				colCustomerRate:     revenue,
				colTargetPay:        targetPay,
				colMaxPay:           maxPay,
				colHazmat:           yesNo(cell(i, roleHazmat)),
				colTarps:            yesNo(cell(i, roleTarps)),
				colTarpSize:         cell(i, roleTarpSize),
			},
		})
	}

	return &core.ParseResult{
		Source:    core.SourceTMS,
		HeaderRow: headerRow,
		Table:     table,
		Mapping:   aljexMapping.Clone(),
	}, nil
}

// resolveLocation fills city and state from a combined location cell when
// the dedicated columns are missing or blank. Aljex writes "ST CITY" unless
// the customer configured "CITY, ST".
func resolveLocation(city, state, location string) (string, string) {
	if (city == "" || state == "") && location != "" {
		var c, s string
		if strings.Contains(location, ",") {
			c, s = core.SplitCityState(location)
		} else {
			s, c = core.SplitStateFirstLocation(location)
		}
		if city == "" {
			city = c
		}
		if state == "" {
			state = s
		}
	}
	return city, NormalizeUsState(state)
}

func emptyRoles(sheet core.RawSheet, row int, roles map[aljexRole]int) bool {
	for _, col := range roles {
		if core.CleanCell(sheet.Cell(row, col)) != "" {
			return false
		}
	}
	return true
}
