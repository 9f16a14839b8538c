package transform

import (
	"strings"

	"github.com/matzehuels/devtoys/pkg/codec"
)

// Escape returns the interior of the JSON string literal for text, without
// the surrounding quotes. The result can be pasted between quotes in any
// JSON document.
func Escape(text string) string {
	q := codec.QuoteJSON(text)
	return q[1 : len(q)-1]
}

// Unescape reverses Escape. The input is first decoded strictly as a JSON
// string interior; when the decoded text is itself a JSON object or array it
// is pretty-printed with two spaces. If strict decoding fails the input is
// cleaned up leniently (\" becomes " and then \\ becomes \). Unescape never
// fails.
func Unescape(text string) string {
	s, err := codec.UnquoteJSON(`"` + text + `"`)
	if err != nil {
		return strings.ReplaceAll(strings.ReplaceAll(text, `\"`, `"`), `\\`, `\`)
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		if v, err := (codec.JSON{}).Parse(s); err == nil {
			out, _ := codec.JSON{}.Serialize(v, codec.Options{Indent: codec.DefaultIndent})
			return out
		}
	}
	return s
}
