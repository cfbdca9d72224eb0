// Package numeric parses amounts that arrive as loosely formatted JSON scalars.
package numeric

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is returned when a scalar contains no digits at all.
var ErrNotNumeric = errors.New("not numeric")

// Digits keeps only the ASCII digits of s. Quotes, signs, separators and
// whitespace are dropped, so "\"123\"" becomes "123" and "null" becomes "".
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Parse reads a non-negative integer amount out of a possibly quoted or
// formatted scalar such as `"250657"`, `1000000` or ` "9 896 440" `.
func Parse(s string) (decimal.Decimal, error) {
	d := Digits(s)
	if d == "" {
		return decimal.Zero, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	v, err := decimal.NewFromString(d)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	return v, nil
}

// ParseRaw is Parse for an undecoded JSON value.
func ParseRaw(raw json.RawMessage) (decimal.Decimal, error) {
	return Parse(string(raw))
}

// ParseUint is Parse narrowed to uint64, used for block heights.
func ParseUint(s string) (uint64, error) {
	d := Digits(s)
	if d == "" {
		return 0, fmt.Errorf("%q: %w", s, ErrNotNumeric)
	}
	v, err := strconv.ParseUint(d, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q out of range: %w", s, ErrNotNumeric)
	}
	return v, nil
}
