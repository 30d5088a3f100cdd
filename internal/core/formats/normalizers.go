package formats

import (
	"strings"

	"github.com/JonMunkholm/loadimport/internal/core"
	"github.com/shopspring/decimal"
)

// UsStates maps US state full names to their abbreviations.
var UsStates = map[string]string{
	"alabama":        "AL",
	"alaska":         "AK",
	"arizona":        "AZ",
	"arkansas":       "AR",
	"california":     "CA",
	"colorado":       "CO",
	"connecticut":    "CT",
	"delaware":       "DE",
	"florida":        "FL",
	"georgia":        "GA",
	"hawaii":         "HI",
	"idaho":          "ID",
	"illinois":       "IL",
	"indiana":        "IN",
	"iowa":           "IA",
	"kansas":         "KS",
	"kentucky":       "KY",
	"louisiana":      "LA",
	"maine":          "ME",
	"maryland":       "MD",
	"massachusetts":  "MA",
	"michigan":       "MI",
	"minnesota":      "MN",
	"mississippi":    "MS",
	"missouri":       "MO",
	"montana":        "MT",
	"nebraska":       "NE",
	"nevada":         "NV",
	"new hampshire":  "NH",
	"new jersey":     "NJ",
	"new mexico":     "NM",
	"new york":       "NY",
	"north carolina": "NC",
	"north dakota":   "ND",
	"ohio":           "OH",
	"oklahoma":       "OK",
	"oregon":         "OR",
	"pennsylvania":   "PA",
	"rhode island":   "RI",
	"south carolina": "SC",
	"south dakota":   "SD",
	"tennessee":      "TN",
	"texas":          "TX",
	"utah":           "UT",
	"vermont":        "VT",
	"virginia":       "VA",
	"washington":     "WA",
	"west virginia":  "WV",
	"wisconsin":      "WI",
	"wyoming":        "WY",
}

// NormalizeUsState converts US state names to their 2-letter abbreviations.
// Unrecognized values are returned trimmed.
func NormalizeUsState(s string) string {
	s = strings.TrimSpace(s)
	if code, ok := UsStates[strings.ToLower(s)]; ok {
		return code
	}
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	return s
}

// stripToNumber keeps digits and the decimal point: "45,000 lbs" -> "45000".
func stripToNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
}

// stripThousands removes thousands separators only.
func stripThousands(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

// Carrier share of the customer invoice, after the broker's commission.
var (
	shareStandard = decimal.RequireFromString("0.80")
	shareCeiling  = decimal.RequireFromString("0.85")
)

// commission returns invoice * share, or ok=false when invoice is not a number.
func commission(invoice string, share decimal.Decimal) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(ParseAmount(invoice))
	if err != nil {
		return decimal.Zero, false
	}
	return d.Mul(share), true
}

// ParseAmount cleans an invoice cell down to its numeric text.
func ParseAmount(s string) string {
	return stripToNumber(core.ParseRateValue(s))
}

// yesNo renders a y/yes style flag as "Yes" or "No".
func yesNo(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "x":
		return "Yes"
	}
	return "No"
}
