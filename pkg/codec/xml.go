package codec

import (
	"bytes"
	"encoding/xml"
	stderrors "errors"
	"io"
	"strings"
	"unicode"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

// Reserved keys of the XML mapping.
const (
	XMLAttrPrefix = "@"
	XMLTextKey    = "#text"
)

// XML is the XML codec. It maps documents onto Values as follows:
//
//   - the document becomes an Object keyed by root element name
//   - an element with attributes or children becomes an Object
//   - each attribute becomes a String member named "@" + attribute name
//   - non-blank text content becomes a "#text" member
//   - a child tag that repeats becomes an Array
//   - an element with neither attributes nor children becomes its text
//
// Leaf text is trimmed and stays a String. With CoerceText set, "true" and
// "false" become Bools and JSON number literals become Numbers. Comments,
// processing instructions and directives are dropped and namespace prefixes
// are reduced to local names.
//
// The mapping is not invertible in general. Serialize reverses it and
// returns a STRUCTURAL_ERROR for values it cannot represent.
type XML struct {
	CoerceText bool
}

// Format implements Codec.
func (XML) Format() Format { return FormatXML }

type xmlChild struct {
	name  string
	items []value.Value
}

type xmlElement struct {
	name     string
	attrs    []xml.Attr
	text     strings.Builder
	children []xmlChild
	index    map[string]int
}

func newXMLElement(name string, attrs []xml.Attr) *xmlElement {
	return &xmlElement{name: name, attrs: attrs, index: make(map[string]int)}
}

func (e *xmlElement) add(name string, v value.Value) {
	if i, ok := e.index[name]; ok {
		e.children[i].items = append(e.children[i].items, v)
		return
	}
	e.index[name] = len(e.children)
	e.children = append(e.children, xmlChild{name: name, items: []value.Value{v}})
}

func (e *xmlElement) value(coerce bool) value.Value {
	text := strings.TrimSpace(e.text.String())
	leaf := value.String(text)
	if coerce {
		leaf = coerceXMLText(text)
	}
	if len(e.attrs) == 0 && len(e.children) == 0 {
		return leaf
	}

	b := value.NewObjectBuilder()
	for _, a := range e.attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		b.Set(XMLAttrPrefix+a.Name.Local, value.String(a.Value))
	}
	if text != "" {
		b.Set(XMLTextKey, leaf)
	}
	e.addChildren(b)
	return b.Build()
}

func (e *xmlElement) addChildren(b *value.ObjectBuilder) {
	for _, c := range e.children {
		if len(c.items) == 1 {
			b.Set(c.name, c.items[0])
		} else {
			b.Set(c.name, value.Array(c.items...))
		}
	}
}

func coerceXMLText(text string) value.Value {
	switch text {
	case "true":
		return value.Bool(true)
	case "false":
		return value.Bool(false)
	}
	if f, err := value.ParseNumberLiteral(text); err == nil {
		return value.Number(f)
	}
	return value.String(text)
}

// Parse implements Codec.
func (x XML) Parse(text string) (value.Value, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.Strict = true

	doc := newXMLElement("", nil)
	var stack []*xmlElement

	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return value.Null(), xmlSyntaxError(text, dec, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, newXMLElement(t.Name.Local, t.Attr))
		case xml.EndElement:
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := doc
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			parent.add(el.name, el.value(x.CoerceText))
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return value.Null(), errors.Syntax(positionAt(text, offset), "text outside the root element")
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if len(stack) > 0 {
		return value.Null(), errors.Syntax(positionAt(text, int64(len(text))), "unexpected EOF: element <%s> is not closed", stack[len(stack)-1].name)
	}
	if len(doc.children) == 0 {
		return value.Null(), errors.Syntax(positionAt(text, int64(len(text))), "document has no root element")
	}

	b := value.NewObjectBuilder()
	doc.addChildren(b)
	return b.Build(), nil
}

func xmlSyntaxError(text string, dec *xml.Decoder, err error) error {
	pos := positionAt(text, dec.InputOffset())
	var se *xml.SyntaxError
	if stderrors.As(err, &se) {
		pos.Line = se.Line
		return errors.Syntax(pos, "%s", se.Msg)
	}
	return errors.Syntax(pos, "%v", err)
}

// Serialize implements Codec. The top-level value must be an Object whose
// keys are valid element names; each member becomes a root element. Output is
// indented by two spaces and has no XML declaration.
func (XML) Serialize(v value.Value, _ Options) (string, error) {
	if v.Kind() != value.KindObject {
		return "", errors.Structural("XML needs an object at the top level, got %s", describe(v))
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	for _, m := range v.Members() {
		if m.Key == XMLTextKey || strings.HasPrefix(m.Key, XMLAttrPrefix) {
			return "", errors.Structural("key %q cannot appear at the top level of an XML document", m.Key)
		}
		if err := writeXMLMember(enc, m.Key, m.Value); err != nil {
			return "", err
		}
	}
	if err := enc.Flush(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "flush XML encoder")
	}
	return buf.String(), nil
}

func writeXMLMember(enc *xml.Encoder, name string, v value.Value) error {
	if !isXMLName(name) {
		return errors.Structural("%q is not a valid XML element name", name)
	}
	if v.Kind() != value.KindArray {
		return writeXMLElement(enc, name, v)
	}
	for _, item := range v.Elements() {
		if item.Kind() == value.KindArray {
			return errors.Structural("nested array under %q has no XML representation", name)
		}
		if err := writeXMLElement(enc, name, item); err != nil {
			return err
		}
	}
	return nil
}

func writeXMLElement(enc *xml.Encoder, name string, v value.Value) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	if v.Kind() != value.KindObject {
		if err := enc.EncodeToken(start); err != nil {
			return xmlEncodeError(err)
		}
		if s := scalarText(v); s != "" {
			if err := enc.EncodeToken(xml.CharData(s)); err != nil {
				return xmlEncodeError(err)
			}
		}
		return xmlEncodeError(enc.EncodeToken(start.End()))
	}

	var text *value.Value
	var children []value.Member
	for _, m := range v.Members() {
		switch {
		case strings.HasPrefix(m.Key, XMLAttrPrefix):
			attr := strings.TrimPrefix(m.Key, XMLAttrPrefix)
			if !isXMLName(attr) {
				return errors.Structural("%q is not a valid XML attribute name", attr)
			}
			if !m.Value.IsScalar() {
				return errors.Structural("attribute %q of <%s> must be a scalar, got %s", attr, name, describe(m.Value))
			}
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attr}, Value: scalarText(m.Value)})
		case m.Key == XMLTextKey:
			if !m.Value.IsScalar() {
				return errors.Structural("text of <%s> must be a scalar, got %s", name, describe(m.Value))
			}
			t := m.Value
			text = &t
		default:
			children = append(children, m)
		}
	}

	if err := enc.EncodeToken(start); err != nil {
		return xmlEncodeError(err)
	}
	if text != nil {
		if err := enc.EncodeToken(xml.CharData(scalarText(*text))); err != nil {
			return xmlEncodeError(err)
		}
	}
	for _, c := range children {
		if err := writeXMLMember(enc, c.Key, c.Value); err != nil {
			return err
		}
	}
	return xmlEncodeError(enc.EncodeToken(start.End()))
}

func xmlEncodeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrCodeStructural, err, "cannot encode XML")
}

// isXMLName checks the XML 1.0 Name production, minus the colon: namespaces
// are not supported.
func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}
