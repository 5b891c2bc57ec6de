// Package money holds prices as integer cents.
package money

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// Cents is an amount of money in the store currency's minor unit
type Cents int64

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// ParsePrice leniently converts a display price such as "$12.99" to cents.
// Everything except digits and dots is stripped first; anything that still
// does not parse counts as zero.
func ParsePrice(value string) Cents {
	cleaned := nonPriceChars.ReplaceAllString(value, "")
	if cleaned == "" {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	return Cents(d.Shift(2).Round(0).IntPart())
}

// Mul multiplies by a quantity
func (c Cents) Mul(qty int) Cents {
	return c * Cents(qty)
}

// Decimal returns the amount in major units
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount as "$12.99"
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// Max returns the larger of a and b
func Max(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}
