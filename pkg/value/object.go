package value

import "slices"

// Member is one key/value pair of an [Object].
type Member struct {
	Key   string
	Value Value
}

// Object is an ordered mapping with unique string keys. It is immutable once
// built; use [ObjectBuilder] to assemble one.
type Object struct {
	members []Member
	index   map[string]int
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.members[i].Value, true
}

// Members returns a copy of the members in order.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	return slices.Clone(o.members)
}

// Keys returns the member keys in order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}
	return keys
}

// ObjectBuilder assembles an [Object]. Setting an existing key replaces its
// value in place, so the first occurrence fixes the member position.
//
// A builder must not be used after Build.
type ObjectBuilder struct {
	members []Member
	index   map[string]int
}

// NewObjectBuilder returns an empty builder.
func NewObjectBuilder() *ObjectBuilder {
	return &ObjectBuilder{index: make(map[string]int)}
}

// Set stores v under key.
func (b *ObjectBuilder) Set(key string, v Value) *ObjectBuilder {
	if i, ok := b.index[key]; ok {
		b.members[i].Value = v
		return b
	}
	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: v})
	return b
}

// Has reports whether key has been set.
func (b *ObjectBuilder) Has(key string) bool {
	_, ok := b.index[key]
	return ok
}

// Len returns the number of members set so far.
func (b *ObjectBuilder) Len() int { return len(b.members) }

// Build freezes the builder into an object Value.
func (b *ObjectBuilder) Build() Value {
	o := &Object{members: b.members, index: b.index}
	b.members, b.index = nil, nil
	return FromObject(o)
}
