// Package literal decodes structured JavaScript/TypeScript literals embedded in
// source files without evaluating them.
//
// A literal is located with [Span], which finds the balanced extent of an
// object or array starting at a known offset, and decoded with a [Decoder],
// which parses the text with the tree-sitter TypeScript grammar and accepts
// only a restricted set of node kinds: objects, arrays, strings, template
// strings without substitutions, numbers, booleans, null and undefined.
// Anything else (identifiers, calls, spreads, computed keys, functions) is
// rejected with a [*SyntaxError].
//
// Decoded values use these Go types:
//
//	object            *Object (ordered keys)
//	array             []Value
//	string, template  string
//	number            float64
//	true, false       bool
//	null, undefined   nil
package literal

import (
	"fmt"
	"strings"
)

// Value is a decoded literal value. See the package documentation for the
// concrete types it may hold.
type Value = any

// Object is an ordered string-keyed map. Key order is the order of first
// appearance in the source; a repeated key replaces the earlier value but
// keeps its position.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set assigns v to key.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in source order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of distinct keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// SyntaxError reports text that is not a well-formed restricted literal.
// Line and Column are 1-based and relative to the decoded text.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return "literal: " + e.Msg
	}
	return fmt.Sprintf("literal: %d:%d: %s", e.Line, e.Column, e.Msg)
}

// syntaxErrorAt builds a SyntaxError for a byte offset in src.
func syntaxErrorAt(src string, offset int, format string, args ...any) *SyntaxError {
	offset = max(0, min(offset, len(src)))
	before := src[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}
