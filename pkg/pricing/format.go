package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidCost is returned when a listed cost is not a number.
var ErrInvalidCost = errors.New("invalid publisher cost")

// RoundPrice rounds to cents, ties away from zero (half-up for prices).
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatPrice renders a price with at least one decimal place ("467.0", "525.5", "12.34").
func FormatPrice(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(1)
	}
	return d.String()
}

// FormatCost renders a publisher cost the way it was listed ("350", "120.5").
func FormatCost(d decimal.Decimal) string {
	return d.String()
}

// ParseCost reads the leading decimal number of a cost cell ("350", "120.5 €",
// "1e3"). An empty cell is a cost of zero.
func ParseCost(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero, nil
	}

	end := 0
	if text[0] == '+' || text[0] == '-' {
		end++
	}
	digits, dot := 0, false
	for ; end < len(text); end++ {
		ch := text[end]
		if ch >= '0' && ch <= '9' {
			digits++
			continue
		}
		if ch == '.' && !dot {
			dot = true
			continue
		}
		break
	}
	if digits == 0 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCost, text)
	}
	number := strings.TrimSuffix(text[:end], ".")

	// An exponent ("1e3", "2.5E-1") counts only when digits follow the marker.
	if end < len(text) && (text[end] == 'e' || text[end] == 'E') {
		exp := end + 1
		if exp < len(text) && (text[exp] == '+' || text[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(text) && text[exp] >= '0' && text[exp] <= '9' {
			exp++
		}
		if exp > start {
			number += text[end:exp]
		}
	}

	cost, err := decimal.NewFromString(number)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCost, text)
	}
	return cost, nil
}
