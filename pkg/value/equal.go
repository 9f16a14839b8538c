package value

// Equal reports whether a and b are structurally identical. Object member
// order is significant: {"a":1,"b":2} and {"b":2,"a":1} are not equal.
// Numbers compare with ==, so NaN is never equal to itself.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		am, bm := a.obj.members, b.obj.members
		if len(am) != len(bm) {
			return false
		}
		for i := range am {
			if am[i].Key != bm[i].Key || !Equal(am[i].Value, bm[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal is the method form of [Equal]. It also lets go-cmp compare Values
// without reaching into unexported fields.
func (v Value) Equal(other Value) bool { return Equal(v, other) }
