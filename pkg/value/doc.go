// Package value provides the format-neutral document tree that every codec
// parses into and serializes from.
//
// # Overview
//
// A [Value] is an immutable tagged union of six kinds: [KindNull],
// [KindBool], [KindNumber], [KindString], [KindArray] and [KindObject].
// JSON, XML, YAML and query strings all map onto this one model, which is
// what lets the pipeline convert between any two formats with a single
// parse → transform → serialize pass.
//
// # Objects
//
// Objects are ordered: member order is the order in which keys were first
// seen, and it is significant until a sort transform is applied. Keys are
// unique. When source text repeats a key, the last value wins but the member
// keeps the position of its first occurrence:
//
//	b := value.NewObjectBuilder()
//	b.Set("a", value.Number(1))
//	b.Set("b", value.Number(2))
//	b.Set("a", value.Number(3))
//	obj := b.Build() // {"a":3,"b":2}
//
// # Numbers
//
// Numbers are float64, matching the native number type of the JSON codec.
// Integers larger than 2^53 lose precision. [ParseNumberLiteral] validates
// the JSON number grammar and [FormatNumber] renders numbers the same way in
// every output format.
//
// # Immutability
//
// Values are only ever built bottom-up by parsers and transforms, so a tree
// can never contain a cycle. Constructors copy their arguments and accessors
// return copies, so a Value can be shared freely across conversions.
package value
