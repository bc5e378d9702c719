package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Amount is a monetary value held as an integer count of 1/10000 currency
// units (four decimal places). All arithmetic stays integral so values
// round-trip exactly through persistence and re-display; binary floating
// point never reaches storage.
type Amount int64

// AmountScale is the number of decimal places an Amount carries.
const AmountScale = 4

const amountUnit = 10000

var errAmountSyntax = errors.New("invalid decimal syntax")

// ParseAmount parses a decimal string such as "100.00", "-42.5" or "99.995".
// Currency symbols and thousands separators are tolerated. More than four
// fractional digits is an error.
func ParseAmount(s string) (Amount, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '$', '\u20ac', '\u00a3', '\u20b9':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("parsing amount %q: %w", s, errAmountSyntax)
	}

	neg := false
	switch cleaned[0] {
	case '-':
		neg = true
		cleaned = cleaned[1:]
	case '+':
		cleaned = cleaned[1:]
	}

	intPart := cleaned
	fracPart := ""
	if i := strings.IndexByte(cleaned, '.'); i >= 0 {
		intPart, fracPart = cleaned[:i], cleaned[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("parsing amount %q: %w", s, errAmountSyntax)
	}
	if len(fracPart) > AmountScale {
		return 0, fmt.Errorf("parsing amount %q: more than %d decimal places", s, AmountScale)
	}

	var units int64
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("parsing amount %q: %w", s, errAmountSyntax)
		}
		units = units*10 + int64(c-'0')
	}
	units *= amountUnit

	scale := int64(amountUnit / 10)
	for _, c := range fracPart {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("parsing amount %q: %w", s, errAmountSyntax)
		}
		units += int64(c-'0') * scale
		scale /= 10
	}

	if neg {
		units = -units
	}
	return Amount(units), nil
}

// AmountFromFloat converts a float to the nearest representable Amount.
// Only used at the extraction boundary, where some sources report numbers.
func AmountFromFloat(f float64) Amount {
	return Amount(math.Round(f * amountUnit))
}

// String renders the amount with at least two and at most four decimal
// places, trailing zeros beyond two trimmed: 1000000 -> "100.00",
// 999950 -> "99.995".
func (a Amount) String() string {
	units := int64(a)
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	whole := units / amountUnit
	frac := units % amountUnit

	digits := fmt.Sprintf("%04d", frac)
	for len(digits) > 2 && digits[len(digits)-1] == '0' {
		digits = digits[:len(digits)-1]
	}
	return fmt.Sprintf("%s%d.%s", sign, whole, digits)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return a - b }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return a + b }

// Float64 returns a lossy float representation for scoring only; it must
// never be persisted.
func (a Amount) Float64() float64 {
	return float64(a) / amountUnit
}
