package value

import (
	"fmt"
	"slices"
)

// Kind identifies which variant a [Value] holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Value is an immutable document node. The zero value is Null.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	items []Value
	obj   *Object
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, n: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array holding a copy of items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: slices.Clone(items)}
}

// ObjectOf returns an object built from members. Duplicate keys resolve
// last-wins at the position of the first occurrence.
func ObjectOf(members ...Member) Value {
	b := NewObjectBuilder()
	for _, m := range members {
		b.Set(m.Key, m.Value)
	}
	return b.Build()
}

// FromObject wraps an already built Object.
func FromObject(o *Object) Value {
	if o == nil {
		o = &Object{}
	}
	return Value{kind: KindObject, obj: o}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is neither an array nor an object.
func (v Value) IsScalar() bool { return v.kind != KindArray && v.kind != KindObject }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.b }

// Number returns the numeric payload; 0 for other kinds.
func (v Value) Number() float64 { return v.n }

// Str returns the string payload; "" for other kinds.
func (v Value) Str() string { return v.s }

// Len returns the number of array elements or object members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return v.obj.Len()
	}
	return 0
}

// Index returns the i-th array element. It panics if v is not an array or
// i is out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindArray {
		panic("value: Index on " + v.kind.String())
	}
	return v.items[i]
}

// Elements returns a copy of the array elements; nil for other kinds.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return slices.Clone(v.items)
}

// Object returns the object payload; nil for other kinds.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Members returns a copy of the object members in order; nil for other kinds.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.obj.Members()
}

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// GoString renders a compact debugging representation.
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindArray:
		s := "["
		for i, it := range v.items {
			if i > 0 {
				s += ","
			}
			s += it.GoString()
		}
		return s + "]"
	default:
		s := "{"
		for i, m := range v.obj.members {
			if i > 0 {
				s += ","
			}
			s += fmt.Sprintf("%q:%s", m.Key, m.Value.GoString())
		}
		return s + "}"
	}
}

// String implements fmt.Stringer with the same output as GoString.
func (v Value) String() string { return v.GoString() }
