package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/pipeline"
	"github.com/matzehuels/devtoys/pkg/transform"
)

func TestTransformCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name:  "format is the default",
			stdin: `{"b":1,"a":[true,null]}`,
			args:  []string{"transform"},
			want:  "{\n  \"b\": 1,\n  \"a\": [\n    true,\n    null\n  ]\n}\n",
		},
		{
			name:  "indent 4",
			stdin: `{"x":1}`,
			args:  []string{"transform", "--indent", "4"},
			want:  "{\n    \"x\": 1\n}\n",
		},
		{
			name:  "indent 0 minifies",
			stdin: "{\n  \"x\": [1, 2]\n}",
			args:  []string{"transform", "--indent", "0"},
			want:  "{\"x\":[1,2]}\n",
		},
		{
			name:  "minify",
			stdin: "{ \"x\" : 1 }",
			args:  []string{"transform", "--op", "minify"},
			want:  "{\"x\":1}\n",
		},
		{
			name:  "sort desc",
			stdin: `{"a":1,"c":{"y":1,"z":2},"b":2}`,
			args:  []string{"transform", "--op", "sort-desc"},
			want:  "{\n  \"c\": {\n    \"z\": 2,\n    \"y\": 1\n  },\n  \"b\": 2,\n  \"a\": 1\n}\n",
		},
		{
			name:  "convert by from and to",
			stdin: `{"name":"x","tags":["a"]}`,
			args:  []string{"transform", "--from", "json", "--to", "yaml"},
			want:  "name: x\ntags:\n  - a\n",
		},
		{
			name:  "convert op name",
			stdin: "a=1&b=two",
			args:  []string{"transform", "--op", "convert:qs-json", "--indent", "tab"},
			want:  "{\n\t\"a\": \"1\",\n\t\"b\": \"two\"\n}\n",
		},
		{
			name:  "xml leaves stay strings",
			stdin: "<r><n>42</n><ok>true</ok></r>",
			args:  []string{"transform", "--from", "xml", "--to", "json"},
			want:  "{\n  \"r\": {\n    \"n\": \"42\",\n    \"ok\": \"true\"\n  }\n}\n",
		},
		{
			name:  "xml types",
			stdin: "<r><n>42</n><ok>true</ok></r>",
			args:  []string{"transform", "--from", "xml", "--to", "json", "--xml-types"},
			want:  "{\n  \"r\": {\n    \"n\": 42,\n    \"ok\": true\n  }\n}\n",
		},
		{
			name:  "indent 0 ignored by non-json convert",
			stdin: `{"a":1}`,
			args:  []string{"transform", "--from", "json", "--to", "yaml", "--indent", "0"},
			want:  "a: 1\n",
		},
		{
			name:  "stdin dash",
			stdin: `["x"]`,
			args:  []string{"transform", "-", "--op", "minify"},
			want:  "[\"x\"]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runCLI(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("transform: %v", err)
			}
			if got != tt.want {
				t.Errorf("output:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestTransformFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	if err := os.WriteFile(in, []byte(`{"k":"v"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, err := runCLI(t, "", "transform", in, "-o", out)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty with -o, got %q", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\n  \"k\": \"v\"\n}\n" {
		t.Errorf("output file = %q", data)
	}
}

func TestTransformConfigIndent(t *testing.T) {
	cfg := writeConfig(t, "[json]\nindent = \"tab\"\n")
	got, err := runCLI(t, `{"x":1}`, "--config", cfg, "transform")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{\n\t\"x\": 1\n}\n" {
		t.Errorf("output = %q", got)
	}

	// The flag wins over the file.
	got, err = runCLI(t, `{"x":1}`, "--config", cfg, "transform", "--indent", "2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{\n  \"x\": 1\n}\n" {
		t.Errorf("output with --indent = %q", got)
	}
}

func TestTransformExampleAndDiff(t *testing.T) {
	got, err := runCLI(t, "", "transform", "--example")
	if err != nil {
		t.Fatal(err)
	}
	if got != pipeline.ExampleDocument+"\n" {
		t.Errorf("example should format to itself, got %q", got)
	}

	got, err = runCLI(t, "", "transform", "--example", "--op", "minify", "--diff")
	if err != nil {
		t.Fatal(err)
	}
	// Deleted whitespace is rendered too, so the diff holds every
	// character of both sides.
	for _, want := range []string{`"project"`, `"DevToys"`, `"#22C55E"`} {
		if !strings.Contains(got, want) {
			t.Errorf("diff missing %s", want)
		}
	}
}

func TestTransformErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  errors.Code
	}{
		{"syntax error", `{"a":}`, []string{"transform"}, errors.ErrCodeSyntax},
		{"empty input", "  \n", []string{"transform"}, errors.ErrCodeInvalidInput},
		{"unknown op", `{}`, []string{"transform", "--op", "beautify"}, errors.ErrCodeInvalidInput},
		{"bad indent", `{}`, []string{"transform", "--indent", "11"}, errors.ErrCodeInvalidInput},
		{"convert without to", `{}`, []string{"transform", "--op", "convert", "--from", "json"}, errors.ErrCodeInvalidInput},
		{"from with other op", `{}`, []string{"transform", "--op", "minify", "--from", "json"}, errors.ErrCodeInvalidInput},
		{"unknown format", `{}`, []string{"transform", "--from", "json", "--to", "toml"}, errors.ErrCodeInvalidFormat},
		{"query string cannot nest", `{"a":{"b":1}}`, []string{"transform", "--from", "json", "--to", "qs"}, errors.ErrCodeStructural},
		{"example with file", "", []string{"transform", "--example", "x.json"}, errors.ErrCodeInvalidInput},
		{"indent 0 with sort", `{"b":1,"a":2}`, []string{"transform", "--op", "sort-asc", "--indent", "0"}, errors.ErrCodeInvalidInput},
		{"indent 0 with convert to json", "a: 1", []string{"transform", "--from", "yaml", "--to", "json", "--indent", "0"}, errors.ErrCodeInvalidInput},
		{"xml types without convert", `{}`, []string{"transform", "--op", "minify", "--xml-types"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.stdin, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestResolveOperation(t *testing.T) {
	tests := []struct {
		opts transformOpts
		want pipeline.Operation
	}{
		{transformOpts{}, pipeline.Format{}},
		{transformOpts{op: "Sort-Asc"}, pipeline.Sort{Direction: transform.Ascending}},
		{transformOpts{from: "yml", to: "xml"}, pipeline.Convert{From: "yaml", To: "xml"}},
		{transformOpts{op: "convert", from: "qs", to: "json"}, pipeline.Convert{From: "querystring", To: "json"}},
		{transformOpts{from: "xml", to: "json", xmlTypes: true}, pipeline.Convert{From: "xml", To: "json", CoerceXMLText: true}},
		{transformOpts{op: "convert:xml-yaml", xmlTypes: true}, pipeline.Convert{From: "xml", To: "yaml", CoerceXMLText: true}},
	}
	for _, tt := range tests {
		t.Run(tt.want.Name(), func(t *testing.T) {
			got, err := resolveOperation(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("resolveOperation(%+v) = %#v, want %#v", tt.opts, got, tt.want)
			}
		})
	}
}
