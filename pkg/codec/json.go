package codec

import (
	"bytes"
	stderrors "errors"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

// JSON is the JSON codec. Parsing is strict (no comments, no trailing commas,
// no trailing data) and keeps object member order; duplicate keys resolve
// last-wins at the first key's position.
type JSON struct{}

// Format implements Codec.
func (JSON) Format() Format { return FormatJSON }

// Parse implements Codec.
func (JSON) Parse(text string) (value.Value, error) {
	data := []byte(text)
	if !gojson.Valid(data) {
		return value.Null(), jsonSyntaxError(text)
	}
	if err := checkJSONLexemes(text); err != nil {
		return value.Null(), err
	}

	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &jsonParser{dec: dec, text: text}
	tok, err := p.next()
	if err != nil {
		return value.Null(), err
	}
	return p.value(tok)
}

// jsonSyntaxError re-runs the input through the decoder to recover the offset
// go-json reports for the first invalid byte.
func jsonSyntaxError(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.Syntax(positionAt(text, int64(len(text))), "unexpected end of JSON input")
	}
	var sink any
	err := gojson.Unmarshal([]byte(text), &sink)
	var se *gojson.SyntaxError
	if stderrors.As(err, &se) {
		return errors.Syntax(positionAt(text, se.Offset), "%s", strings.TrimPrefix(se.Error(), "json: "))
	}
	if err != nil {
		return errors.Syntax(errors.UnknownPosition, "%s", strings.TrimPrefix(err.Error(), "json: "))
	}
	return errors.Syntax(errors.UnknownPosition, "invalid JSON")
}

// checkJSONLexemes rejects what gojson.Valid lets through: truncated or
// extended bare words ("tru", "nullx") and raw control characters inside
// strings.
func checkJSONLexemes(text string) error {
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			end, err := checkJSONString(text, i)
			if err != nil {
				return err
			}
			i = end
		case isJSONWordByte(c):
			start := i
			for i < len(text) && isJSONWordByte(text[i]) {
				i++
			}
			word := text[start:i]
			i--
			if !isJSONLetter(word[0]) {
				continue
			}
			switch word {
			case "true", "false", "null":
			default:
				return errors.Syntax(positionAt(text, int64(start)), "invalid literal %q", word)
			}
		}
	}
	return nil
}

// checkJSONString scans the string literal opening at start and returns the
// offset of its closing quote.
func checkJSONString(text string, start int) (int, error) {
	for i := start + 1; i < len(text); i++ {
		switch c := text[i]; {
		case c == '\\':
			i++
		case c == '"':
			return i, nil
		case c < 0x20:
			return 0, errors.Syntax(positionAt(text, int64(i)), "invalid control character %U in string", rune(c))
		}
	}
	return 0, errors.Syntax(positionAt(text, int64(len(text))), "unterminated string")
}

func isJSONLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isJSONWordByte(c byte) bool {
	return isJSONLetter(c) || c >= '0' && c <= '9' || c == '.' || c == '+' || c == '-'
}

type jsonParser struct {
	dec  *gojson.Decoder
	text string
}

func (p *jsonParser) next() (gojson.Token, error) {
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, errors.Syntax(positionAt(p.text, int64(len(p.text))), "unexpected end of JSON input")
	}
	if err != nil {
		return nil, errors.Syntax(positionAt(p.text, p.dec.InputOffset()), "%s", strings.TrimPrefix(err.Error(), "json: "))
	}
	return tok, nil
}

func (p *jsonParser) value(tok gojson.Token) (value.Value, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			return p.object()
		case '[':
			return p.array()
		}
		return value.Null(), errors.Syntax(positionAt(p.text, p.dec.InputOffset()), "unexpected %q", rune(t))
	case string:
		return value.String(t), nil
	case bool:
		return value.Bool(t), nil
	case gojson.Number:
		f, err := value.ParseNumberLiteral(string(t))
		if err != nil {
			end := p.dec.InputOffset()
			return value.Null(), errors.Syntax(positionAt(p.text, end-int64(len(t))), "%s", errors.UserMessage(err))
		}
		return value.Number(f), nil
	case float64:
		return value.Number(t), nil
	case nil:
		return value.Null(), nil
	}
	return value.Null(), errors.New(errors.ErrCodeInternal, "unexpected JSON token %T", tok)
}

func (p *jsonParser) object() (value.Value, error) {
	b := value.NewObjectBuilder()
	for {
		tok, err := p.next()
		if err != nil {
			return value.Null(), err
		}
		if d, ok := tok.(gojson.Delim); ok && d == '}' {
			return b.Build(), nil
		}
		key, ok := tok.(string)
		if !ok {
			return value.Null(), errors.Syntax(positionAt(p.text, p.dec.InputOffset()), "object key must be a string")
		}
		tok, err = p.next()
		if err != nil {
			return value.Null(), err
		}
		v, err := p.value(tok)
		if err != nil {
			return value.Null(), err
		}
		b.Set(key, v)
	}
}

func (p *jsonParser) array() (value.Value, error) {
	var items []value.Value
	for {
		tok, err := p.next()
		if err != nil {
			return value.Null(), err
		}
		if d, ok := tok.(gojson.Delim); ok && d == ']' {
			return value.Array(items...), nil
		}
		v, err := p.value(tok)
		if err != nil {
			return value.Null(), err
		}
		items = append(items, v)
	}
}

// Serialize implements Codec. Output follows JSON.stringify conventions:
// `": "` between key and value when indented, no trailing newline.
func (JSON) Serialize(v value.Value, opts Options) (string, error) {
	w := &jsonWriter{unit: opts.Indent.Unit()}
	w.write(v, 0)
	return w.sb.String(), nil
}

type jsonWriter struct {
	sb   strings.Builder
	unit string
}

func (w *jsonWriter) newline(depth int) {
	if w.unit == "" {
		return
	}
	w.sb.WriteByte('\n')
	for range depth {
		w.sb.WriteString(w.unit)
	}
}

func (w *jsonWriter) write(v value.Value, depth int) {
	switch v.Kind() {
	case value.KindNull:
		w.sb.WriteString("null")
	case value.KindBool:
		if v.Bool() {
			w.sb.WriteString("true")
		} else {
			w.sb.WriteString("false")
		}
	case value.KindNumber:
		w.sb.WriteString(value.FormatNumber(v.Number()))
	case value.KindString:
		w.sb.WriteString(QuoteJSON(v.Str()))
	case value.KindArray:
		if v.Len() == 0 {
			w.sb.WriteString("[]")
			return
		}
		w.sb.WriteByte('[')
		for i, item := range v.Elements() {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.newline(depth + 1)
			w.write(item, depth+1)
		}
		w.newline(depth)
		w.sb.WriteByte(']')
	case value.KindObject:
		if v.Len() == 0 {
			w.sb.WriteString("{}")
			return
		}
		w.sb.WriteByte('{')
		for i, m := range v.Members() {
			if i > 0 {
				w.sb.WriteByte(',')
			}
			w.newline(depth + 1)
			w.sb.WriteString(QuoteJSON(m.Key))
			w.sb.WriteByte(':')
			if w.unit != "" {
				w.sb.WriteByte(' ')
			}
			w.write(m.Value, depth+1)
		}
		w.newline(depth)
		w.sb.WriteByte('}')
	}
}

// QuoteJSON returns s as a JSON string literal, quotes included. HTML
// characters and the U+2028/U+2029 separators are left unescaped, as
// JSON.stringify does.
func QuoteJSON(s string) string {
	b, err := gojson.MarshalWithOption(s, gojson.DisableHTMLEscape())
	if err != nil {
		// Marshal of a plain string cannot fail.
		panic(err)
	}
	return unescapeSeparators(string(b))
}

// unescapeSeparators turns \u2028 and \u2029 escapes in a JSON string
// literal back into the raw characters.
func unescapeSeparators(q string) string {
	if !strings.Contains(q, `\u202`) {
		return q
	}
	var sb strings.Builder
	sb.Grow(len(q))
	for i := 0; i < len(q); i++ {
		if q[i] != '\\' || i+1 >= len(q) {
			sb.WriteByte(q[i])
			continue
		}
		switch rest := q[i:]; {
		case strings.HasPrefix(rest, `\u2028`):
			sb.WriteRune('\u2028')
			i += 5
		case strings.HasPrefix(rest, `\u2029`):
			sb.WriteRune('\u2029')
			i += 5
		default:
			sb.WriteString(q[i : i+2])
			i++
		}
	}
	return sb.String()
}

// UnquoteJSON decodes a JSON string literal, quotes included.
func UnquoteJSON(literal string) (string, error) {
	if err := checkJSONLexemes(literal); err != nil {
		return "", err
	}
	var s string
	if err := gojson.Unmarshal([]byte(literal), &s); err != nil {
		return "", jsonSyntaxError(literal)
	}
	return s, nil
}
