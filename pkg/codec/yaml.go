package codec

import (
	"bytes"
	stderrors "errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

// YAML is the YAML codec. Only the first document of a stream is accepted.
// Mapping order is preserved in both directions; output is block style with a
// two-space indent.
type YAML struct{}

// Format implements Codec.
func (YAML) Format() Format { return FormatYAML }

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// Parse implements Codec. Empty input parses to Null.
func (YAML) Parse(text string) (value.Value, error) {
	dec := yaml.NewDecoder(strings.NewReader(text))

	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if stderrors.Is(err, io.EOF) {
			return value.Null(), nil
		}
		return value.Null(), yamlSyntaxError(text, err)
	}

	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case err == nil:
		line := extra.Line
		if len(extra.Content) > 0 {
			line = extra.Content[0].Line
		}
		return value.Null(), errors.Syntax(lineStart(text, line), "multiple YAML documents are not supported")
	case !stderrors.Is(err, io.EOF):
		return value.Null(), yamlSyntaxError(text, err)
	}

	c := &yamlConverter{active: make(map[*yaml.Node]bool)}
	return c.convert(&doc)
}

func yamlSyntaxError(text string, err error) error {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	if m := yamlLineRe.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return errors.Syntax(lineStart(text, line), "%s", msg)
	}
	return errors.Syntax(errors.UnknownPosition, "%s", msg)
}

// lineStart returns the position of the first byte of a 1-based line.
func lineStart(text string, line int) errors.Position {
	if line <= 0 {
		return errors.UnknownPosition
	}
	offset := 0
	for l := 1; l < line; l++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return errors.Position{Offset: -1, Line: line}
		}
		offset += i + 1
	}
	return errors.Position{Offset: int64(offset), Line: line}
}

// yamlConverter walks a node tree. active holds the anchors currently being
// expanded so a self-referencing alias is reported instead of recursing
// forever.
type yamlConverter struct {
	active map[*yaml.Node]bool
}

func (c *yamlConverter) convert(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return value.Null(), errors.Syntax(errors.Position{Offset: -1, Line: n.Line}, "unknown anchor %q", n.Value)
		}
		if c.active[n.Alias] {
			return value.Null(), errors.Syntax(errors.Position{Offset: -1, Line: n.Line}, "recursive alias *%s", n.Value)
		}
		c.active[n.Alias] = true
		defer delete(c.active, n.Alias)
		return c.convert(n.Alias)
	case yaml.MappingNode:
		b := value.NewObjectBuilder()
		if err := c.mapping(n, b); err != nil {
			return value.Null(), err
		}
		return b.Build(), nil
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := c.convert(child)
			if err != nil {
				return value.Null(), err
			}
			items = append(items, v)
		}
		return value.Array(items...), nil
	case yaml.ScalarNode:
		return c.scalar(n)
	}
	return value.Null(), errors.New(errors.ErrCodeInternal, "unexpected YAML node kind %d", n.Kind)
}

// mapping adds the pairs of n to b. Explicit keys always win over merged
// ones, whichever comes first.
func (c *yamlConverter) mapping(n *yaml.Node, b *value.ObjectBuilder) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			if err := c.merge(v, b); err != nil {
				return err
			}
			continue
		}
		key, err := c.key(k)
		if err != nil {
			return err
		}
		val, err := c.convert(v)
		if err != nil {
			return err
		}
		b.Set(key, val)
	}
	return nil
}

func (c *yamlConverter) merge(src *yaml.Node, b *value.ObjectBuilder) error {
	resolved := src
	for resolved.Kind == yaml.AliasNode && resolved.Alias != nil {
		resolved = resolved.Alias
	}
	var sources []*yaml.Node
	switch resolved.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{src}
	case yaml.SequenceNode:
		sources = resolved.Content
	default:
		return errors.Syntax(errors.Position{Offset: -1, Line: src.Line}, "merge key needs a mapping or a list of mappings")
	}

	for _, s := range sources {
		v, err := c.convert(s)
		if err != nil {
			return err
		}
		if v.Kind() != value.KindObject {
			return errors.Syntax(errors.Position{Offset: -1, Line: s.Line}, "merge key needs a mapping or a list of mappings")
		}
		for _, m := range v.Members() {
			if b.Has(m.Key) {
				continue
			}
			b.Set(m.Key, m.Value)
		}
	}
	return nil
}

func (c *yamlConverter) key(k *yaml.Node) (string, error) {
	v, err := c.convert(k)
	if err != nil {
		return "", err
	}
	if !v.IsScalar() {
		return "", errors.Structural("line %d: complex mapping keys are not supported", k.Line)
	}
	if v.IsNull() {
		return "null", nil
	}
	return scalarText(v), nil
}

func (c *yamlConverter) scalar(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.String(n.Value), nil
		}
		return value.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			// Decode rejects integers outside the 64-bit range.
			pf, perr := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64)
			if perr != nil {
				return value.String(n.Value), nil
			}
			f = pf
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return value.Null(), errors.Structural("line %d: %s has no JSON-compatible number form", n.Line, n.Value)
		}
		return value.Number(f), nil
	}
	return value.String(n.Value), nil
}

// Serialize implements Codec.
func (YAML) Serialize(v value.Value, _ Options) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode YAML")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode YAML")
	}
	return buf.String(), nil
}

// yamlNode builds a tagged node tree. Explicit tags make the encoder quote
// strings such as "true" or "1" that would otherwise resolve to other types.
func yamlNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case value.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool())}
	case value.KindNumber:
		f := v.Number()
		s := value.FormatNumber(f)
		tag := "!!int"
		if strings.ContainsAny(s, ".e") || f < math.MinInt64 || f >= math.MaxInt64 {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}
	case value.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str()}
	case value.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Elements() {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	default:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, m := range v.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				yamlNode(m.Value),
			)
		}
		return n
	}
}
