package pipeline

import (
	"testing"

	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/transform"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		name string
		want Operation
	}{
		{"format", Format{}},
		{"Pretty", Format{}},
		{"minify", Minify{}},
		{"escape", Escape{}},
		{"unescape", Unescape{}},
		{"unicode-encode", UnicodeEncode{}},
		{"unicode-decode", UnicodeDecode{}},
		{"sort", Sort{Direction: transform.Ascending}},
		{"sort-asc", Sort{Direction: transform.Ascending}},
		{" sort-desc ", Sort{Direction: transform.Descending}},
		{"convert:json-yaml", Convert{From: codec.FormatJSON, To: codec.FormatYAML}},
		{"convert:qs-json", Convert{From: codec.FormatQueryString, To: codec.FormatJSON}},
		{"convert:yml-xml", Convert{From: codec.FormatYAML, To: codec.FormatXML}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOperation(tt.name)
			if err != nil {
				t.Fatalf("ParseOperation(%q) error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseOperation(%q) = %#v, want %#v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseOperationErrors(t *testing.T) {
	tests := []struct {
		name string
		code errors.Code
	}{
		{"", errors.ErrCodeInvalidInput},
		{"beautify", errors.ErrCodeInvalidInput},
		{"convert:json", errors.ErrCodeInvalidInput},
		{"convert:json-toml", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOperation(tt.name)
			if !errors.Is(err, tt.code) {
				t.Errorf("ParseOperation(%q) error = %v, want %s", tt.name, err, tt.code)
			}
		})
	}
}

func TestOperationNames(t *testing.T) {
	ops := []Operation{
		Format{}, Minify{}, Escape{}, Unescape{}, UnicodeEncode{}, UnicodeDecode{},
		Sort{Direction: transform.Ascending}, Sort{Direction: transform.Descending},
		Convert{From: codec.FormatJSON, To: codec.FormatQueryString},
	}
	for _, op := range ops {
		back, err := ParseOperation(op.Name())
		if err != nil {
			t.Errorf("ParseOperation(%q) error = %v", op.Name(), err)
			continue
		}
		if back != op {
			t.Errorf("ParseOperation(%q) = %#v, want %#v", op.Name(), back, op)
		}
	}
}
