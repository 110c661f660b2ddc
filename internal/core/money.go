// Package core holds the expense sharing domain: money arithmetic, the split
// calculator, and the pairwise balance netting rules.
//
// All amounts are fixed-point minor currency units (cents in an int64).
// Floats appear only at the display boundary.
package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Money is a currency amount in minor units. The currency itself is a
// descriptive tag on the owning record; no conversion happens here.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Float64 returns the major-unit value for display purposes only.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as a plain two-decimal value, e.g. "12.34".
func (m Money) String() string {
	return FormatCents(m.Cents)
}

// FormatCents renders minor units as a two-decimal string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The
// result is always positive cents. Returns an ArithmeticError for invalid
// formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracCents++
				}
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// CentsFromFloat converts a JSON number into cents. The value must be a
// finite non-negative amount with at most two decimal places of precision;
// anything else is an ArithmeticError.
func CentsFromFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, arithmeticf("amount is not a finite number")
	}
	if f < 0 {
		return 0, arithmeticf("amount must not be negative")
	}
	d := decimal.NewFromFloat(f)
	if !d.Equal(d.Round(2)) {
		return 0, arithmeticf("amount %s has more than two decimal places", d.String())
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

// roundToCents converts a decimal major-unit amount to cents with half-up
// rounding (decimal.Round rounds half away from zero; amounts here are never
// negative, so the two coincide).
func roundToCents(d decimal.Decimal) int64 {
	return d.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// DistributeRemainder reconciles rounded shares against an exact total.
//
// After proportional shares are individually rounded their sum may differ
// from total by a few cents. The discrepancy is added or subtracted one cent
// at a time in a deterministic order: largest share first, insertion order on
// ties. The result always sums to total and never contains a negative share.
func DistributeRemainder(shares []int64, total int64) ([]int64, error) {
	if total < 0 {
		return nil, arithmeticf("total must not be negative")
	}
	out := make([]int64, len(shares))
	var sum int64
	for i, s := range shares {
		if s < 0 {
			return nil, arithmeticf("share %d is negative", i)
		}
		out[i] = s
		sum += s
	}
	diff := total - sum
	if diff == 0 {
		return out, nil
	}
	if len(out) == 0 {
		return nil, arithmeticf("cannot distribute %s over zero shares", FormatCents(diff))
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return out[order[a]] > out[order[b]]
	})

	step := int64(1)
	if diff < 0 {
		step = -1
	}
	for diff != 0 {
		progressed := false
		for _, i := range order {
			if diff == 0 {
				break
			}
			if step < 0 && out[i] == 0 {
				continue
			}
			out[i] += step
			diff -= step
			progressed = true
		}
		if !progressed {
			return nil, arithmeticf("cannot distribute remainder without a negative share")
		}
	}
	return out, nil
}
