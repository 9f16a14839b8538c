package value

import (
	"math"
	"testing"

	"github.com/matzehuels/devtoys/pkg/errors"
)

func TestObjectBuilderDuplicateKeys(t *testing.T) {
	b := NewObjectBuilder()
	b.Set("a", Number(1))
	b.Set("b", Number(2))
	b.Set("a", Number(3))
	v := b.Build()

	keys := v.Object().Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("Keys() = %v, want [a b]", keys)
	}
	got, ok := v.Get("a")
	if !ok || got.Number() != 3 {
		t.Errorf("Get(a) = %v, %v, want 3, true", got, ok)
	}
}

func TestConstructorsCopy(t *testing.T) {
	items := []Value{Number(1), Number(2)}
	arr := Array(items...)
	items[0] = String("mutated")

	if arr.Index(0).Kind() != KindNumber {
		t.Error("Array() shares its backing slice with the caller")
	}

	elems := arr.Elements()
	elems[1] = Null()
	if arr.Index(1).Kind() != KindNumber {
		t.Error("Elements() exposes the backing slice")
	}

	obj := ObjectOf(Member{"k", Bool(true)})
	members := obj.Members()
	members[0].Value = Null()
	if got, _ := obj.Get("k"); !got.Bool() {
		t.Error("Members() exposes the backing slice")
	}
}

func TestAccessorsOnWrongKind(t *testing.T) {
	s := String("x")
	if s.Len() != 0 || s.Elements() != nil || s.Members() != nil || s.Object() != nil {
		t.Error("container accessors on a string should be empty")
	}
	if _, ok := s.Get("x"); ok {
		t.Error("Get on a string should report false")
	}
	if !Null().IsNull() || !Null().IsScalar() {
		t.Error("Null() should be a null scalar")
	}
	if Array().IsScalar() {
		t.Error("Array() should not be scalar")
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNull, "null"},
		{KindObject, "object"},
		{Kind(42), "Kind(42)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseNumberLiteral(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0", 0, false},
		{"-0", 0, false},
		{"42", 42, false},
		{"-3.25", -3.25, false},
		{"1e3", 1000, false},
		{"1E+2", 100, false},
		{"2.5e-3", 0.0025, false},

		{"", 0, true},
		{"-", 0, true},
		{"01", 0, true},
		{"-012", 0, true},
		{"+1", 0, true},
		{".5", 0, true},
		{"1.", 0, true},
		{"1e", 0, true},
		{"1e+", 0, true},
		{"0x10", 0, true},
		{"1 ", 0, true},
		{"NaN", 0, true},
		{"1e400", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumberLiteral(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNumberLiteral(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeSyntax) {
					t.Errorf("error code = %v, want SYNTAX_ERROR", errors.GetCode(err))
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseNumberLiteral(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNumberLiteralOffset(t *testing.T) {
	_, err := ParseNumberLiteral("-01")
	pos, ok := errors.GetPosition(err)
	if !ok || pos.Offset != 2 {
		t.Errorf("GetPosition() = %+v, %v, want offset 2", pos, ok)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-7, "-7"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{100, "100"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
		{-2.5e300, "-2.5e+300"},
		{math.NaN(), "null"},
		{math.Inf(1), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatNumber(tt.in); got != tt.want {
				t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	ab := ObjectOf(Member{"a", Number(1)}, Member{"b", Number(2)})
	ba := ObjectOf(Member{"b", Number(2)}, Member{"a", Number(1)})

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nulls", Null(), Null(), true},
		{"bool mismatch", Bool(true), Bool(false), false},
		{"kind mismatch", Number(1), String("1"), false},
		{"strings", String("x"), String("x"), true},
		{"arrays", Array(Number(1), Null()), Array(Number(1), Null()), true},
		{"array length", Array(Number(1)), Array(Number(1), Number(1)), false},
		{"same order", ab, ObjectOf(Member{"a", Number(1)}, Member{"b", Number(2)}), true},
		{"member order matters", ab, ba, false},
		{"nested", Array(ab), Array(ba), false},
		{"empty objects", ObjectOf(), FromObject(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("method Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGoString(t *testing.T) {
	v := ObjectOf(
		Member{"s", String("hi")},
		Member{"n", Number(1.5)},
		Member{"a", Array(Bool(true), Null())},
	)
	want := `{"s":"hi","n":1.5,"a":[true,null]}`
	if got := v.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
