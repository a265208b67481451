package formatting

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidDecimal is returned when a value cannot be parsed as a decimal number.
var ErrInvalidDecimal = fmt.Errorf("invalid decimal value")

// ParseDecimal parses a laboratory measurement value. Both "," and "." are
// accepted as the decimal separator ("12,5" and "12.5" parse identically);
// thousands separators are not supported. Comparison-safe: the result carries
// exact decimal precision, never binary floating point.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty string", ErrInvalidDecimal)
	}

	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}

	return d, nil
}

// FormatDecimal renders d with exactly the given number of fractional digits,
// matching the property's declared precision. Negative precision renders the
// value at its natural scale.
func FormatDecimal(d decimal.Decimal, precision int) string {
	if precision < 0 {
		return d.String()
	}
	return d.StringFixed(int32(precision))
}
