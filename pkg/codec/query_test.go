package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

func TestQueryStringParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want value.Value
	}{
		{"empty", "", obj()},
		{"simple", "a=1&b=2", obj("a", str("1"), "b", str("2"))},
		{"leading question mark", "?q=go", obj("q", str("go"))},
		{"plus and percent", "q=hello+world&e=%C3%A9%20x", obj("q", str("hello world"), "e", str("é x"))},
		{"last value wins", "x=1&y=0&x=2", obj("x", str("2"), "y", str("0"))},
		{"missing value", "flag&k=", obj("flag", str(""), "k", str(""))},
		{"empty pairs skipped", "&&a=1&", obj("a", str("1"))},
		{"equals in value", "expr=a=b", obj("expr", str("a=b"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryString{}.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQueryStringParseMalformed(t *testing.T) {
	_, err := QueryString{}.Parse("ok=1&a=%zz")
	if !errors.Is(err, errors.ErrCodeSyntax) {
		t.Fatalf("Parse() error = %v, want SYNTAX_ERROR", err)
	}
	pos, ok := errors.GetPosition(err)
	if !ok || pos.Offset != 7 {
		t.Errorf("GetPosition() = %+v, %v, want offset 7", pos, ok)
	}
}

func TestQueryStringSerialize(t *testing.T) {
	v := obj("q", str("a b"), "n", num(1.5), "t", value.Bool(true), "plus", str("1+1"), "ü", str("&="))
	want := "q=a%20b&n=1.5&t=true&plus=1%2B1&%C3%BC=%26%3D"

	got, err := QueryString{}.Serialize(v, Options{})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestQueryStringSerializeStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"array value", obj("a", arr(num(1), num(2)))},
		{"nested object", obj("a", obj("b", str("c")))},
		{"null value", obj("a", value.Null())},
		{"top-level array", arr(str("a"))},
		{"top-level string", str("a=1")},
		{"top-level number", num(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QueryString{}.Serialize(tt.v, Options{})
			if !errors.Is(err, errors.ErrCodeStructural) {
				t.Fatalf("Serialize() error = %v, want STRUCTURAL_ERROR", err)
			}
		})
	}
}

func TestQueryStringRoundTrip(t *testing.T) {
	v := obj("name", str("Jane Doe"), "city", str("Zürich"), "math", str("1+1=2"), "empty", str(""))
	text, err := QueryString{}.Serialize(v, Options{})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	got, err := QueryString{}.Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
