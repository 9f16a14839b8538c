package pipeline

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/devtoys/pkg/codec"
	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/transform"
)

func TestNewDefaults(t *testing.T) {
	c := New(Options{})
	s := c.Snapshot()
	if s.State != Empty {
		t.Errorf("State = %v, want empty", s.State)
	}
	if s.Indent != DefaultIndent {
		t.Errorf("Indent = %v, want %v", s.Indent, DefaultIndent)
	}
	if _, ok := s.Operation.(Format); !ok {
		t.Errorf("Operation = %T, want Format", s.Operation)
	}
	if s.Revision != 0 {
		t.Errorf("Revision = %d, want 0", s.Revision)
	}
}

func TestNewInvalidOptionsFallBack(t *testing.T) {
	c := New(Options{Indent: 42})
	if got := c.Snapshot().Indent; got != DefaultIndent {
		t.Errorf("Indent = %v, want default %v", got, DefaultIndent)
	}
}

func TestFormatScenario(t *testing.T) {
	c := New(Options{})
	c.SetIndent(4)
	s := c.SetInput(`{"x":1}`)

	if s.State != Valid {
		t.Fatalf("State = %v (err %v), want valid", s.State, s.Err)
	}
	if want := "{\n    \"x\": 1\n}"; s.Output != want {
		t.Errorf("Output = %q, want %q", s.Output, want)
	}
}

func TestFormatWithIndentSetsIndent(t *testing.T) {
	c := New(Options{})
	c.SetInput(`{"x":1}`)
	s := c.SetOperation(Format{Indent: codec.IndentTab})

	if s.Indent != codec.IndentTab {
		t.Errorf("Indent = %v, want tab", s.Indent)
	}
	if want := "{\n\t\"x\": 1\n}"; s.Output != want {
		t.Errorf("Output = %q, want %q", s.Output, want)
	}
	if _, ok := s.Operation.(Format); !ok {
		t.Errorf("Operation = %T, want Format", s.Operation)
	}
}

func TestSortScenario(t *testing.T) {
	c := New(Options{})
	c.SetInput(`{"b":1,"a":{"d":2,"c":3}}`)

	s := c.SetOperation(Sort{Direction: transform.Ascending})
	want := "{\n  \"a\": {\n    \"c\": 3,\n    \"d\": 2\n  },\n  \"b\": 1\n}"
	if s.Output != want {
		t.Errorf("sort asc = %q, want %q", s.Output, want)
	}

	s = c.SetOperation(Sort{Direction: transform.Descending})
	want = "{\n  \"b\": 1,\n  \"a\": {\n    \"d\": 2,\n    \"c\": 3\n  }\n}"
	if s.Output != want {
		t.Errorf("sort desc = %q, want %q", s.Output, want)
	}
}

func TestMinifyToggle(t *testing.T) {
	c := New(Options{})
	c.SetInput(`{ "a" : [1, 2] }`)

	s := c.SetOperation(Minify{})
	if !s.Minified || s.Output != `{"a":[1,2]}` {
		t.Fatalf("first minify: minified=%v output=%q", s.Minified, s.Output)
	}

	s = c.SetOperation(Minify{})
	if s.Minified {
		t.Error("second minify should toggle back to format")
	}
	if _, ok := s.Operation.(Format); !ok {
		t.Errorf("Operation = %T, want Format", s.Operation)
	}
	if want := "{\n  \"a\": [\n    1,\n    2\n  ]\n}"; s.Output != want {
		t.Errorf("Output = %q, want %q", s.Output, want)
	}
}

func TestMinifyKeepsIndentForToggleBack(t *testing.T) {
	c := New(Options{Indent: 4})
	c.SetInput(`{"x":1}`)
	c.SetOperation(Minify{})
	s := c.SetOperation(Minify{})
	if want := "{\n    \"x\": 1\n}"; s.Output != want {
		t.Errorf("Output = %q, want %q", s.Output, want)
	}
}

func TestInvalidInputKeepsOutput(t *testing.T) {
	c := New(Options{})
	good := c.SetInput(`{"x":1}`)

	bad := c.SetInput(`{"x":1,}`)
	if bad.State != Invalid {
		t.Fatalf("State = %v, want invalid", bad.State)
	}
	if bad.Output != good.Output {
		t.Errorf("Output = %q, want previous %q", bad.Output, good.Output)
	}
	if !errors.Is(bad.Err, errors.ErrCodeSyntax) {
		t.Errorf("Err = %v, want SYNTAX_ERROR", bad.Err)
	}
	if bad.ErrorMessage() == "" {
		t.Error("ErrorMessage() should not be empty")
	}

	fixed := c.SetInput(`{"x":2}`)
	if fixed.State != Valid || fixed.Err != nil {
		t.Errorf("after fix: state=%v err=%v", fixed.State, fixed.Err)
	}
}

func TestBlankInputClears(t *testing.T) {
	c := New(Options{})
	c.SetInput(`{"x":1}`)
	c.SetInput(`{`)

	s := c.SetInput(" \n\t ")
	if s.State != Empty {
		t.Errorf("State = %v, want empty", s.State)
	}
	if s.Output != "" || s.Err != nil {
		t.Errorf("output=%q err=%v, want both cleared", s.Output, s.Err)
	}
}

func TestInvalidIndent(t *testing.T) {
	c := New(Options{})
	good := c.SetInput(`{"x":1}`)

	for _, indent := range []codec.Indent{0, 11, -5} {
		s := c.SetIndent(indent)
		if s.State != Invalid {
			t.Errorf("SetIndent(%d) state = %v, want invalid", indent, s.State)
		}
		if !errors.Is(s.Err, errors.ErrCodeInvalidInput) {
			t.Errorf("SetIndent(%d) err = %v, want INVALID_INPUT", indent, s.Err)
		}
		if s.Indent != DefaultIndent {
			t.Errorf("SetIndent(%d) changed indent to %v", indent, s.Indent)
		}
		if s.Output != good.Output {
			t.Errorf("SetIndent(%d) dropped output", indent)
		}
	}
}

func TestFormatIdempotent(t *testing.T) {
	c := New(Options{})
	once := c.SetInput(`{"z":[true,null],"a":{"n":-0.5}}`).Output
	twice := c.SetInput(once).Output
	if once != twice {
		t.Errorf("format not idempotent:\n%s\n%s", once, twice)
	}
}

func TestConvertOperations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		op    Operation
		want  string
		code  errors.Code
	}{
		{
			name:  "querystring to json",
			input: "a=1&b=2",
			op:    Convert{From: codec.FormatQueryString, To: codec.FormatJSON},
			want:  "{\n  \"a\": \"1\",\n  \"b\": \"2\"\n}",
		},
		{
			name:  "json to yaml",
			input: `{"name":"x","tags":["a"]}`,
			op:    Convert{From: codec.FormatJSON, To: codec.FormatYAML},
			want:  "name: x\ntags:\n  - a\n",
		},
		{
			name:  "json array to querystring",
			input: `{"a":[1,2]}`,
			op:    Convert{From: codec.FormatJSON, To: codec.FormatQueryString},
			code:  errors.ErrCodeStructural,
		},
		{
			name:  "malformed source",
			input: `<a>`,
			op:    Convert{From: codec.FormatXML, To: codec.FormatJSON},
			code:  errors.ErrCodeSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Options{Operation: tt.op})
			s := c.SetInput(tt.input)
			if tt.code != "" {
				if !errors.Is(s.Err, tt.code) {
					t.Fatalf("Err = %v, want %s", s.Err, tt.code)
				}
				return
			}
			if s.Err != nil {
				t.Fatalf("Err = %v", s.Err)
			}
			if s.Output != tt.want {
				t.Errorf("Output = %q, want %q", s.Output, tt.want)
			}
		})
	}
}

func TestStringOperations(t *testing.T) {
	tests := []struct {
		op    Operation
		input string
		want  string
	}{
		{Escape{}, "say \"hi\"\n", `say \"hi\"\n`},
		{Unescape{}, `{\"a\":1}`, "{\n  \"a\": 1\n}"},
		{UnicodeEncode{}, "héllo", `héllo`},
		{UnicodeDecode{}, `héllo`, "héllo"},
	}
	for _, tt := range tests {
		t.Run(tt.op.Name(), func(t *testing.T) {
			c := New(Options{Operation: tt.op})
			s := c.SetInput(tt.input)
			if s.Err != nil {
				t.Fatalf("Err = %v", s.Err)
			}
			if s.Output != tt.want {
				t.Errorf("Output = %q, want %q", s.Output, tt.want)
			}
		})
	}
}

func TestUnescapeIgnoresIndent(t *testing.T) {
	c := New(Options{Indent: 4, Operation: Unescape{}})
	s := c.SetInput(`[1]`)
	if want := "[\n  1\n]"; s.Output != want {
		t.Errorf("Output = %q, want %q", s.Output, want)
	}
}

func TestSelectNilOperation(t *testing.T) {
	c := New(Options{})
	s := c.SetOperation(nil)
	if !errors.Is(s.Err, errors.ErrCodeInvalidInput) {
		t.Errorf("Err = %v, want INVALID_INPUT", s.Err)
	}
	if _, ok := s.Operation.(Format); !ok {
		t.Errorf("Operation = %T, want Format kept", s.Operation)
	}
}

func TestSubscribe(t *testing.T) {
	c := New(Options{})

	var got []uint64
	cancel := c.Subscribe(func(s Snapshot) { got = append(got, s.Revision) })

	c.SetInput(`{}`)
	c.SetOperation(Minify{})
	cancel()
	c.SetInput(`[]`)

	if diff := cmp.Diff([]uint64{1, 2}, got); diff != "" {
		t.Errorf("revisions mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribeConcurrentOrdering(t *testing.T) {
	c := New(Options{})

	var mu sync.Mutex
	var revs []uint64
	c.Subscribe(func(s Snapshot) {
		mu.Lock()
		revs = append(revs, s.Revision)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SetInput(`{"a":1}`)
		}()
	}
	wg.Wait()

	if len(revs) != 20 {
		t.Fatalf("got %d notifications, want 20", len(revs))
	}
	for i, r := range revs {
		if r != uint64(i+1) {
			t.Fatalf("notification %d has revision %d, want %d", i, r, i+1)
		}
	}
}

func TestReset(t *testing.T) {
	c := New(Options{Indent: 4})
	c.SetInput(`{"x":1}`)
	c.SetOperation(Sort{Direction: transform.Descending})

	s := c.Reset()
	if s.State != Empty || s.Output != "" || s.Err != nil {
		t.Errorf("after reset: state=%v output=%q err=%v", s.State, s.Output, s.Err)
	}
	if c.Input() != "" {
		t.Errorf("Input() = %q, want empty", c.Input())
	}
	if s.Indent != 4 {
		t.Errorf("Indent = %v, want 4 kept", s.Indent)
	}
	if _, ok := s.Operation.(Sort); !ok {
		t.Errorf("Operation = %T, want Sort kept", s.Operation)
	}
}

func TestExampleDocumentFormats(t *testing.T) {
	c := New(Options{})
	s := c.SetInput(ExampleDocument)
	if s.State != Valid {
		t.Fatalf("example document invalid: %v", s.Err)
	}
	if s.Output != ExampleDocument {
		t.Errorf("formatted example differs from source:\n%s", s.Output)
	}
}
