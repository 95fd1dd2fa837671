package store

// Binding is a route path bound to a handler.
type Binding struct {
	Path    string
	Handler string
}

// PathMatch is a spec path and the binding chosen to serve it. Route and
// Handler are empty when no binding matches.
type PathMatch struct {
	Path    string
	Methods []string
	Route   string
	Handler string
}

// Bound reports whether a binding serves the path.
func (m PathMatch) Bound() bool {
	return m.Route != ""
}

// HandlerTests lists the test files mentioning a handler.
type HandlerTests struct {
	Handler string
	Tests   []string
}
