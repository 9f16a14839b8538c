package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

func TestJSONParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want value.Value
	}{
		{"null", "null", value.Null()},
		{"bool", " true ", value.Bool(true)},
		{"number", "-1.5e2", num(-150)},
		{"string", `"hé\n"`, str("hé\n")},
		{"empty object", "{}", obj()},
		{"empty array", "[]", arr()},
		{
			"ordered members",
			`{"b":1,"a":[true,null,"x"],"c":{"d":{}}}`,
			obj("b", num(1), "a", arr(value.Bool(true), value.Null(), str("x")), "c", obj("d", obj())),
		},
		{
			"duplicate key keeps first position",
			`{"a":1,"b":2,"a":3}`,
			obj("a", num(3), "b", num(2)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON{}.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"unterminated string", `{"a":"b`},
		{"trailing comma", `{"a":1,}`},
		{"trailing comma in array", `[1,2,]`},
		{"invalid escape", `"\q"`},
		{"leading zero", `[01]`},
		{"bare word", `{"a":nope}`},
		{"trailing data", `{} {}`},
		{"single quotes", `{'a':1}`},
		{"truncated true", `tru`},
		{"truncated null", `nul`},
		{"truncated false", `fals`},
		{"truncated literal in array", `[1,tru]`},
		{"literal with suffix", `nullx`},
		{"raw tab in string", "\"a\tb\""},
		{"raw control byte in string", "\"\x01\""},
		{"raw newline in member", "{\"k\":\"line\nbreak\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSON{}.Parse(tt.in)
			if !errors.Is(err, errors.ErrCodeSyntax) {
				t.Fatalf("Parse(%q) error = %v, want SYNTAX_ERROR", tt.in, err)
			}
		})
	}
}

func TestJSONParseErrorPosition(t *testing.T) {
	_, err := JSON{}.Parse("{\n  \"a\": 01\n}")
	pos, ok := errors.GetPosition(err)
	if !ok {
		t.Fatalf("GetPosition() ok = false, err = %v", err)
	}
	if pos.Line != 2 {
		t.Errorf("Line = %d, want 2", pos.Line)
	}
}

func TestJSONSerialize(t *testing.T) {
	v := obj("x", num(1))
	tests := []struct {
		name   string
		v      value.Value
		indent Indent
		want   string
	}{
		{"four spaces", v, 4, "{\n    \"x\": 1\n}"},
		{"two spaces", v, 2, "{\n  \"x\": 1\n}"},
		{"tab", v, IndentTab, "{\n\t\"x\": 1\n}"},
		{"minified", obj("a", arr(num(1), num(2)), "b", obj()), IndentNone, `{"a":[1,2],"b":{}}`},
		{
			"nested",
			obj("a", arr(num(1), value.Null()), "e", arr()),
			2,
			"{\n  \"a\": [\n    1,\n    null\n  ],\n  \"e\": []\n}",
		},
		{"html not escaped", str("<a&b>"), IndentNone, `"<a&b>"`},
		{"control characters", str("tab\there\n"), IndentNone, `"tab\there\n"`},
		{"scalar", value.Bool(false), 2, "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON{}.Serialize(tt.v, Options{Indent: tt.indent})
			if err != nil {
				t.Fatalf("Serialize() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONFormatIdempotent(t *testing.T) {
	in := `{"z":[1,{"y":"two"}],"a":{"b":null,"c":1e-7}}`
	once := mustRoundTrip(t, in)
	twice := mustRoundTrip(t, once)
	if once != twice {
		t.Errorf("format(format(s)) != format(s):\n%s\n---\n%s", once, twice)
	}
}

func mustRoundTrip(t *testing.T, in string) string {
	t.Helper()
	v, err := JSON{}.Parse(in)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := JSON{}.Serialize(v, Options{Indent: DefaultIndent})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return out
}

func TestQuoteJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`a"b`, `"a\"b"`},
		{`back\slash`, `"back\\slash"`},
		{"line\nbreak", `"line\nbreak"`},
		{"héllo", `"héllo"`},
		{"line\u2028sep\u2029para", "\"line\u2028sep\u2029para\""},
		{`literal \u2028`, `"literal \\u2028"`},
		{"<tag>&", `"<tag>&"`},
	}
	for _, tt := range tests {
		if got := QuoteJSON(tt.in); got != tt.want {
			t.Errorf("QuoteJSON(%q) = %s, want %s", tt.in, got, tt.want)
		}
		back, err := UnquoteJSON(QuoteJSON(tt.in))
		if err != nil || back != tt.in {
			t.Errorf("UnquoteJSON(QuoteJSON(%q)) = %q, %v", tt.in, back, err)
		}
	}
}
