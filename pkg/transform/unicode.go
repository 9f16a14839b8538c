package transform

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/matzehuels/devtoys/pkg/errors"
)

// UnicodeEncode replaces every UTF-16 code unit at or above U+007F with a
// lowercase \uXXXX escape. Characters outside the Basic Multilingual Plane
// become a surrogate pair of escapes. ASCII below U+007F is unchanged.
func UnicodeEncode(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r < 0x7f {
			sb.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&sb, `\u%04x`, u)
		}
	}
	return sb.String()
}

// UnicodeDecode expands \uXXXX and %uXXXX escapes into the code units they
// name, and %XX escapes into the Latin-1 character U+00XX. Adjacent
// surrogate escapes combine into one character; an unpaired surrogate
// becomes U+FFFD. A \u or %u that is not followed by four hex digits is a
// SYNTAX_ERROR at the offset of the escape. A '%' that starts no valid
// escape is kept as is.
func UnicodeDecode(text string) (string, error) {
	units := make([]uint16, 0, len(text))
	for i := 0; i < len(text); {
		c := text[i]
		if (c == '\\' || c == '%') && i+1 < len(text) && text[i+1] == 'u' {
			u, ok := hexUnit(text, i+2, 4)
			if !ok {
				return "", errors.Syntax(errors.Position{Offset: int64(i)}, "malformed unicode escape %q", excerpt(text, i, 6))
			}
			units = append(units, u)
			i += 6
			continue
		}
		if c == '%' {
			if u, ok := hexUnit(text, i+1, 2); ok {
				units = append(units, u)
				i += 3
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		units = utf16.AppendRune(units, r)
		i += size
	}
	return string(utf16.Decode(units)), nil
}

func hexUnit(s string, start, n int) (uint16, bool) {
	if start+n > len(s) {
		return 0, false
	}
	digits := s[start : start+n]
	for i := 0; i < n; i++ {
		if !isHex(digits[i]) {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func excerpt(s string, start, n int) string {
	end := min(start+n, len(s))
	return s[start:end]
}
