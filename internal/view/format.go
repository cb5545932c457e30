// Package view turns backend records and query states into display-ready
// values. Nothing here performs I/O.
package view

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Placeholder is shown for a missing percentage.
const Placeholder = "-"

// FormatPercent renders v with one decimal and a percent sign, or the
// placeholder dash when v is absent. Values are already in percent.
func FormatPercent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return Percent(*v)
}

// Percent renders a present percentage.
func Percent(v float64) string {
	return fixed(v, 1) + "%"
}

// FormatCurrency renders v as dollars with two decimals.
func FormatCurrency(v float64) string {
	return "$" + fixed(v, 2)
}

// exactDigits is how many decimals of the binary value are inspected before
// rounding. It is far past the point where a float64 can sit on a half-way
// decimal without being one.
const exactDigits = 30

// fixed rounds half away from zero to places decimals, working from the exact
// binary value so 1.15 (stored as 1.1499...) gives "1.1". A negative input
// that rounds to zero keeps its sign ("-0.0"), a literal zero never does.
func fixed(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	neg := v < 0
	s := new(big.Float).SetFloat64(math.Abs(v)).Text('f', places+exactDigits)
	dot := strings.IndexByte(s, '.')
	digits := []byte(s[:dot] + s[dot+1:dot+1+places])
	if s[dot+1+places] >= '5' {
		digits = increment(digits)
	}
	intLen := len(digits) - places
	out := string(digits[:intLen])
	if places > 0 {
		out += "." + string(digits[intLen:])
	}
	if neg {
		out = "-" + out
	}
	return out
}

// increment adds one to a string of decimal digits, growing it on carry.
func increment(d []byte) []byte {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i] < '9' {
			d[i]++
			return d
		}
		d[i] = '0'
	}
	return append([]byte{'1'}, d...)
}
