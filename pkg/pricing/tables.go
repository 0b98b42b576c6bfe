package pricing

import "github.com/shopspring/decimal"

var (
	// LowThreshold is the cost below which the low flat margin applies.
	LowThreshold = decimal.NewFromInt(300)
	// MidThreshold is the cost below which the mid flat margin applies.
	MidThreshold = decimal.NewFromInt(500)
	// DefaultPercent is the margin rate at or above MidThreshold.
	DefaultPercent = decimal.RequireFromString("0.20")
)

// Band holds the margin constants of one language group.
type Band struct {
	Low     decimal.Decimal
	Mid     decimal.Decimal
	Percent decimal.Decimal
}

// Group is a set of language codes sharing one Band.
type Group struct {
	Name  string
	Codes []string
	Band  Band
}

// DefaultGroups returns the standard language groups.
func DefaultGroups() []Group {
	return []Group{
		{
			Name:  "group1",
			Codes: []string{"IT", "PT", "RU"},
			Band:  Band{Low: decimal.NewFromInt(87), Mid: decimal.NewFromInt(107), Percent: DefaultPercent},
		},
		{
			Name:  "group2",
			Codes: []string{"EN", "FR", "DE", "PL", "ES", "LT"},
			Band:  Band{Low: decimal.NewFromInt(97), Mid: decimal.NewFromInt(117), Percent: DefaultPercent},
		},
		{
			Name:  "group3",
			Codes: []string{"NL", "FI", "SE", "CZ", "SK", "HU", "GR"},
			Band:  Band{Low: decimal.NewFromInt(107), Mid: decimal.NewFromInt(127), Percent: DefaultPercent},
		},
	}
}

// DefaultCopyRates returns the per-word copywriting rates.
func DefaultCopyRates() map[string]decimal.Decimal {
	r := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return map[string]decimal.Decimal{
		"IT": r("0.04"),
		"EN": r("0.04"),
		"FR": r("0.04"),
		"DE": r("0.08"),
		"PT": r("0.04"),
		"PL": r("0.04"),
		"ES": r("0.04"),
		"LT": r("0.02"),
		"NL": r("0.08"),
		"FI": r("0.08"),
		"SE": r("0.08"),
		"CZ": r("0.06"),
		"SK": r("0.06"),
		"HU": r("0.06"),
		"GR": r("0.08"),
		"RU": r("0.04"),
	}
}
