package pipeline

import (
	"fmt"
	"strings"

	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/transform"
)

// Operation is the transform the controller applies to its input. The set of
// operations is closed: only the types in this file implement it.
type Operation interface {
	// Name is the stable identifier used on the command line and in logs.
	Name() string
	operation()
}

// Format pretty-prints JSON. A zero Indent keeps the controller's current
// indent; any other value also becomes the current indent.
type Format struct{ Indent codec.Indent }

// Minify prints JSON on a single line.
type Minify struct{}

// Escape turns text into the interior of a JSON string literal.
type Escape struct{}

// Unescape reverses Escape, pretty-printing embedded JSON.
type Unescape struct{}

// UnicodeEncode replaces non-ASCII characters with \uXXXX escapes.
type UnicodeEncode struct{}

// UnicodeDecode expands \uXXXX and percent escapes.
type UnicodeDecode struct{}

// Sort orders JSON object keys recursively.
type Sort struct{ Direction transform.Direction }

// Convert parses the input as From and serializes it as To. CoerceXMLText
// turns XML leaf text such as "42" or "true" into a Number or Bool.
type Convert struct {
	From, To      codec.Format
	CoerceXMLText bool
}

func (Format) Name() string        { return "format" }
func (Minify) Name() string        { return "minify" }
func (Escape) Name() string        { return "escape" }
func (Unescape) Name() string      { return "unescape" }
func (UnicodeEncode) Name() string { return "unicode-encode" }
func (UnicodeDecode) Name() string { return "unicode-decode" }
func (s Sort) Name() string        { return "sort-" + s.Direction.String() }
func (c Convert) Name() string     { return fmt.Sprintf("convert:%s-%s", c.From, c.To) }

func (Format) operation()        {}
func (Minify) operation()        {}
func (Escape) operation()        {}
func (Unescape) operation()      {}
func (UnicodeEncode) operation() {}
func (UnicodeDecode) operation() {}
func (Sort) operation()          {}
func (Convert) operation()       {}

// OperationNames lists the names ParseOperation accepts.
var OperationNames = []string{
	"format", "minify", "escape", "unescape",
	"unicode-encode", "unicode-decode", "sort-asc", "sort-desc",
	"convert:<from>-<to>",
}

// ParseOperation maps a name from OperationNames to an Operation. Convert is
// written "convert:json-yaml"; format aliases such as yml and qs are
// accepted on both sides.
func ParseOperation(name string) (Operation, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "format", "pretty":
		return Format{}, nil
	case "minify":
		return Minify{}, nil
	case "escape":
		return Escape{}, nil
	case "unescape":
		return Unescape{}, nil
	case "unicode-encode":
		return UnicodeEncode{}, nil
	case "unicode-decode":
		return UnicodeDecode{}, nil
	case "sort", "sort-asc":
		return Sort{Direction: transform.Ascending}, nil
	case "sort-desc":
		return Sort{Direction: transform.Descending}, nil
	}

	if pair, ok := strings.CutPrefix(n, "convert:"); ok {
		from, to, ok := strings.Cut(pair, "-")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "convert needs <from>-<to>, got %q", pair)
		}
		return NewConvert(from, to)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown operation %q (valid: %s)", name, strings.Join(OperationNames, ", "))
}

// NewConvert builds a Convert from two format names.
func NewConvert(from, to string) (Convert, error) {
	f, err := codec.ParseFormat(from)
	if err != nil {
		return Convert{}, err
	}
	t, err := codec.ParseFormat(to)
	if err != nil {
		return Convert{}, err
	}
	return Convert{From: f, To: t}, nil
}

// run applies op to input. indent is the controller's current indent and
// is used by every operation that emits JSON, except Unescape which always
// uses two spaces.
func run(op Operation, input string, indent codec.Indent) (string, error) {
	jsonOut := codec.Options{Indent: indent}

	switch o := op.(type) {
	case Format:
		return reformat(input, jsonOut)
	case Minify:
		return reformat(input, codec.Options{Indent: codec.IndentNone})
	case Escape:
		return transform.Escape(input), nil
	case Unescape:
		return transform.Unescape(input), nil
	case UnicodeEncode:
		return transform.UnicodeEncode(input), nil
	case UnicodeDecode:
		return transform.UnicodeDecode(input)
	case Sort:
		v, err := codec.JSON{}.Parse(input)
		if err != nil {
			return "", err
		}
		return codec.JSON{}.Serialize(transform.SortKeys(v, o.Direction), jsonOut)
	case Convert:
		jsonOut.CoerceXMLText = o.CoerceXMLText
		return codec.Convert(input, o.From, o.To, jsonOut)
	}
	return "", errors.New(errors.ErrCodeInternal, "unhandled operation %T", op)
}

func reformat(input string, opts codec.Options) (string, error) {
	v, err := codec.JSON{}.Parse(input)
	if err != nil {
		return "", err
	}
	return codec.JSON{}.Serialize(v, opts)
}
