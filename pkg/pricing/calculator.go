package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Calculator applies margin bands and copy rates. It is immutable once built
// and safe for concurrent use.
type Calculator struct {
	bands map[string]Band
	rates map[string]decimal.Decimal
}

// NewCalculator builds a Calculator from language groups and copy rates.
// A code may belong to at most one group.
func NewCalculator(groups []Group, rates map[string]decimal.Decimal) (*Calculator, error) {
	c := &Calculator{
		bands: make(map[string]Band),
		rates: make(map[string]decimal.Decimal, len(rates)),
	}
	owner := make(map[string]string)
	for _, g := range groups {
		for _, code := range g.Codes {
			code = normalize(code)
			if prev, dup := owner[code]; dup {
				return nil, fmt.Errorf("language code %s is in both %s and %s", code, prev, g.Name)
			}
			owner[code] = g.Name
			c.bands[code] = g.Band
		}
	}
	for code, rate := range rates {
		if rate.IsNegative() {
			return nil, fmt.Errorf("copy rate for %s is negative: %s", code, rate)
		}
		c.rates[normalize(code)] = rate
	}
	return c, nil
}

// Default returns a Calculator with the standard tables.
func Default() *Calculator {
	c, err := NewCalculator(DefaultGroups(), DefaultCopyRates())
	if err != nil {
		panic(err)
	}
	return c
}

// MarginFor returns the markup for a publisher cost. Unknown codes get zero.
func (c *Calculator) MarginFor(code string, cost decimal.Decimal) decimal.Decimal {
	band, ok := c.bands[normalize(code)]
	if !ok {
		return decimal.Zero
	}
	switch {
	case cost.LessThan(LowThreshold):
		return band.Low
	case cost.LessThan(MidThreshold):
		return band.Mid
	default:
		return cost.Mul(band.Percent)
	}
}

// CopyRateFor returns the per-word copywriting rate. Unknown codes get zero.
func (c *Calculator) CopyRateFor(code string) decimal.Decimal {
	rate, ok := c.rates[normalize(code)]
	if !ok {
		return decimal.Zero
	}
	return rate
}

// ComputeFinalPrice returns the rounded quote. Callers validate that cost and
// wordCount are not negative.
func (c *Calculator) ComputeFinalPrice(cost decimal.Decimal, code string, wordCount int) decimal.Decimal {
	domainPrice := cost.Add(c.MarginFor(code, cost))

	copyPrice := decimal.Zero
	if wordCount > 0 {
		copyPrice = c.CopyRateFor(code).Mul(decimal.NewFromInt(int64(wordCount)))
	}

	return RoundPrice(domainPrice.Add(copyPrice))
}

// Codes returns every language code with a margin band.
func (c *Calculator) Codes() []string {
	codes := make([]string, 0, len(c.bands))
	for code := range c.bands {
		codes = append(codes, code)
	}
	return codes
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
