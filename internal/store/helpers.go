package store

import "encoding/json"

// matchesBinding is the join condition between a spec path s.path and a
// binding b.path: equal, or a match of a binding containing '*' as a glob.
const matchesBinding = `(s.path = b.path OR (instr(b.path, '*') > 0 AND s.path GLOB b.path))`

// marshalMethods converts []string to JSON text for storage.
func marshalMethods(methods []string) string {
	if len(methods) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(methods)
	return string(b)
}

// unmarshalMethods converts JSON text back to []string.
func unmarshalMethods(s string) []string {
	methods := []string{}
	if s == "" || s == "null" {
		return methods
	}
	_ = json.Unmarshal([]byte(s), &methods)
	return methods
}
