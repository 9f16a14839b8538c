package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/devtoys/pkg/errors"
)

// ParseNumberLiteral validates text against the JSON number grammar
//
//	-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
//
// and returns its float64 value. Leading zeros, a leading '+', bare dots and
// literals that overflow float64 are rejected. The returned error carries
// the byte offset of the offending character inside text.
func ParseNumberLiteral(text string) (float64, error) {
	if off, ok := scanNumber(text); !ok {
		return 0, errors.Syntax(errors.Position{Offset: int64(off)}, "invalid number literal %q", text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.Syntax(errors.Position{Offset: 0}, "number %s out of range", text)
	}
	return f, nil
}

// scanNumber walks the grammar and reports the offset of the first byte that
// does not fit.
func scanNumber(s string) (int, bool) {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	switch {
	case i >= len(s):
		return i, false
	case s[i] == '0':
		i++
		if i < len(s) && isDigit(s[i]) {
			return i, false
		}
	case isDigit(s[i]):
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return i, false
	}

	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return i, false
		}
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return i, false
		}
	}
	return i, i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// IsNumberLiteral reports whether text is a valid JSON number that fits in a
// float64.
func IsNumberLiteral(text string) bool {
	_, err := ParseNumberLiteral(text)
	return err == nil
}

// FormatNumber renders f the way JavaScript's Number#toString does: plain
// decimal notation for magnitudes in [1e-6, 1e21), exponent notation outside
// it, shortest round-trip digits in both cases. Negative zero prints "0".
// NaN and infinities have no JSON form and print "null".
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return "null"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads the exponent to two digits ("1e-07"); JavaScript does not.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		exp = strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + exp
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
