// Package codec converts between text documents and the [value.Value] tree.
//
// Four formats are supported, each implemented by a stateless [Codec]:
//
//   - JSON: strict parsing via goccy/go-json, order-preserving output
//   - XML: attribute/text/element mapping described on [XML]
//   - YAML: block style via gopkg.in/yaml.v3 nodes
//   - QueryString: flat objects of strings, percent-encoded
//
// # Errors
//
// Parse failures are SYNTAX_ERROR values from pkg/errors and carry a byte
// offset (and line where the underlying parser reports one). Serialize
// failures for values the target format cannot represent are
// STRUCTURAL_ERROR values. Codecs never panic on bad input.
//
// # Usage
//
//	c, err := codec.For(codec.FormatYAML)
//	v, err := codec.JSON{}.Parse(`{"a":[1,2]}`)
//	out, err := c.Serialize(v, codec.Options{})
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

// Format names a textual document format.
type Format string

const (
	FormatJSON        Format = "json"
	FormatXML         Format = "xml"
	FormatYAML        Format = "yaml"
	FormatQueryString Format = "querystring"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatXML, FormatYAML, FormatQueryString}

// ParseFormat resolves a user supplied format name. It is case-insensitive and
// accepts the common aliases yml, query, qs, url and get.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "querystring", "query", "qs", "url", "get":
		return FormatQueryString, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", s)
}

// Indent is the indentation unit for serialized output: a number of spaces,
// 0 for single-line output, or [IndentTab].
type Indent int

const (
	// IndentTab indents with one tab character per level.
	IndentTab Indent = -1
	// IndentNone produces single-line (minified) output.
	IndentNone Indent = 0
	// DefaultIndent is two spaces.
	DefaultIndent Indent = 2
)

// ParseIndent accepts a space count ("0".."10") or a tab ("tab", a literal
// tab, or the two characters `\t`).
func ParseIndent(s string) (Indent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tab", `\t`:
		return IndentTab, nil
	}
	if s == "\t" {
		return IndentTab, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "indent must be a number or \"tab\", got %q", s)
	}
	if err := errors.ValidateIndent(n); err != nil {
		return 0, err
	}
	return Indent(n), nil
}

// Unit returns the text emitted per nesting level; empty when minified.
func (i Indent) Unit() string {
	if i == IndentTab {
		return "\t"
	}
	if i <= 0 {
		return ""
	}
	return strings.Repeat(" ", int(i))
}

// Minified reports whether output is single-line.
func (i Indent) Minified() bool { return i == IndentNone }

// String renders the indent the way ParseIndent accepts it.
func (i Indent) String() string {
	if i == IndentTab {
		return "tab"
	}
	return strconv.Itoa(int(i))
}

// Options controls serialization.
type Options struct {
	// Indent applies to JSON output. XML and YAML always indent two spaces and
	// query strings are single-line.
	Indent Indent

	// CoerceXMLText makes Convert parse XML leaf text that reads as a
	// boolean or a JSON number into a Bool or Number.
	CoerceXMLText bool
}

// Codec parses text into a Value and serializes a Value back to text.
type Codec interface {
	Format() Format
	Parse(text string) (value.Value, error)
	Serialize(v value.Value, opts Options) (string, error)
}

// For returns the codec for f.
func For(f Format) (Codec, error) {
	switch f {
	case FormatJSON:
		return JSON{}, nil
	case FormatXML:
		return XML{}, nil
	case FormatYAML:
		return YAML{}, nil
	case FormatQueryString:
		return QueryString{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", string(f))
}

// Convert parses text as from and serializes the result as to.
func Convert(text string, from, to Format, opts Options) (string, error) {
	src, err := For(from)
	if err != nil {
		return "", err
	}
	if x, ok := src.(XML); ok {
		x.CoerceText = opts.CoerceXMLText
		src = x
	}
	dst, err := For(to)
	if err != nil {
		return "", err
	}
	v, err := src.Parse(text)
	if err != nil {
		return "", err
	}
	return dst.Serialize(v, opts)
}

// positionAt converts a byte offset into a Position with a 1-based line.
func positionAt(text string, offset int64) errors.Position {
	if offset < 0 {
		return errors.UnknownPosition
	}
	if offset > int64(len(text)) {
		offset = int64(len(text))
	}
	return errors.Position{Offset: offset, Line: 1 + strings.Count(text[:offset], "\n")}
}

// scalarText renders a scalar for formats whose leaves are plain text.
func scalarText(v value.Value) string {
	switch v.Kind() {
	case value.KindBool:
		return strconv.FormatBool(v.Bool())
	case value.KindNumber:
		return value.FormatNumber(v.Number())
	case value.KindString:
		return v.Str()
	}
	return ""
}

func describe(v value.Value) string {
	return fmt.Sprintf("%s value", v.Kind())
}
