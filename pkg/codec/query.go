package codec

import (
	"net/url"
	"strings"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

// QueryString is the URL query string codec. It only represents flat objects
// of scalars. Parsing yields an Object of Strings with the last value winning
// for repeated keys; serializing percent-encodes spaces as %20.
type QueryString struct{}

// Format implements Codec.
func (QueryString) Format() Format { return FormatQueryString }

// Parse implements Codec. A leading '?' is ignored, '+' decodes to a space
// and a pair without '=' has an empty value.
func (QueryString) Parse(text string) (value.Value, error) {
	b := value.NewObjectBuilder()

	offset := 0
	if strings.HasPrefix(text, "?") {
		offset = 1
	}
	for offset <= len(text) {
		end := strings.IndexByte(text[offset:], '&')
		if end < 0 {
			end = len(text) - offset
		}
		pair := text[offset : offset+end]
		if pair != "" {
			rawKey, rawVal, _ := strings.Cut(pair, "=")
			key, err := url.QueryUnescape(rawKey)
			if err != nil {
				return value.Null(), errors.Syntax(positionAt(text, int64(offset)), "malformed escape in key %q", rawKey)
			}
			val, err := url.QueryUnescape(rawVal)
			if err != nil {
				return value.Null(), errors.Syntax(positionAt(text, int64(offset+len(rawKey)+1)), "malformed escape in value of %q", key)
			}
			b.Set(key, value.String(val))
		}
		offset += end + 1
	}
	return b.Build(), nil
}

// Serialize implements Codec. Strings, Numbers and Bools are written as
// text; anything else is a STRUCTURAL_ERROR.
func (QueryString) Serialize(v value.Value, _ Options) (string, error) {
	if v.Kind() != value.KindObject {
		return "", errors.Structural("query strings need a flat object, got %s", describe(v))
	}
	pairs := make([]string, 0, v.Len())
	for _, m := range v.Members() {
		switch m.Value.Kind() {
		case value.KindString, value.KindNumber, value.KindBool:
		default:
			return "", errors.Structural("query parameter %q must be a string, number or bool, got %s", m.Key, describe(m.Value))
		}
		pairs = append(pairs, queryEscape(m.Key)+"="+queryEscape(scalarText(m.Value)))
	}
	return strings.Join(pairs, "&"), nil
}

// queryEscape is url.QueryEscape with %20 for spaces. A literal '+' is
// already escaped to %2B, so the replacement cannot collide.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
