// Package transform implements the text-level and structural transforms that
// sit between parsing and serialization.
//
// Text transforms work on raw strings and never touch the value tree:
//
//   - [Escape] / [Unescape]: embed a document inside a JSON string and back
//   - [UnicodeEncode] / [UnicodeDecode]: \uXXXX escapes for non-ASCII text
//
// The structural transform [SortKeys] reorders object members recursively.
//
// Only UnicodeDecode can fail; Escape, Unescape and UnicodeEncode accept
// any input.
package transform
