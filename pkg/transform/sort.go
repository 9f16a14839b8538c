package transform

import (
	"slices"
	"strings"

	"github.com/matzehuels/devtoys/pkg/errors"
	"github.com/matzehuels/devtoys/pkg/value"
)

// Direction is the key order produced by SortKeys.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// ParseDirection accepts "asc"/"ascending" and "desc"/"descending".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, errors.New(errors.ErrCodeInvalidInput, "sort direction must be asc or desc, got %q", s)
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortKeys returns a copy of v in which every object's members are ordered
// by key. Keys compare byte-wise, so uppercase sorts before lowercase.
// Array element order is kept but each element is sorted recursively.
// SortKeys is idempotent.
func SortKeys(v value.Value, dir Direction) value.Value {
	switch v.Kind() {
	case value.KindArray:
		items := v.Elements()
		for i, item := range items {
			items[i] = SortKeys(item, dir)
		}
		return value.Array(items...)
	case value.KindObject:
		members := v.Members()
		slices.SortStableFunc(members, func(a, b value.Member) int {
			return strings.Compare(a.Key, b.Key)
		})
		if dir == Descending {
			slices.Reverse(members)
		}
		b := value.NewObjectBuilder()
		for _, m := range members {
			b.Set(m.Key, SortKeys(m.Value, dir))
		}
		return b.Build()
	}
	return v
}
