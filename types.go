package apiscan

import (
	"github.com/jward/apiscan/internal/config"
	"github.com/jward/apiscan/internal/literal"
	"github.com/jward/apiscan/internal/runtime"
)

// Public type aliases for internal types used in the Analyzer API.

type Config = config.Config
type RouterConfig = config.RouterConfig
type DocsConfig = config.DocsConfig
type TestsConfig = config.TestsConfig
type LiteralObject = literal.Object
type Finding = runtime.Finding

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a JSONC, JSON, TOML or YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// FindConfig returns the configuration file at the repository root, if any.
func FindConfig(root string) (string, bool) {
	return config.Find(root)
}

// RouteBinding associates a route path with the handler bound to it.
type RouteBinding struct {
	Path    string `json:"path" yaml:"path"`
	Handler string `json:"handler" yaml:"handler"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// SpecPathEntry is one documented path and its operation keys in source order.
type SpecPathEntry struct {
	Path    string   `json:"path" yaml:"path"`
	Methods []string `json:"methods" yaml:"methods"`
}

// Warning kinds.
const (
	WarnDuplicateRoute = "duplicate-route"
)

// Warning is a non-fatal finding made while building a Report.
type Warning struct {
	Kind     string   `json:"kind" yaml:"kind"`
	Path     string   `json:"path" yaml:"path"`
	Handlers []string `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// Report is the result of one analysis run. Routes and Handlers are maps, so
// every output format lists their keys sorted rather than in source order.
type Report struct {
	// Routes maps documented paths to their operation keys.
	Routes map[string][]string `json:"routes" yaml:"routes"`
	// Handlers maps bound route paths to handler names.
	Handlers map[string]string `json:"handlers" yaml:"handlers"`
	// Tests lists test files relative to the repository root.
	Tests    []string  `json:"tests" yaml:"tests"`
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Coverage cross-references bindings, documented paths and tests.
type Coverage struct {
	// Documented lists spec paths served by a binding, in spec order.
	Documented []DocumentedPath `json:"documented" yaml:"documented"`
	// Undocumented lists bindings that match no spec path.
	Undocumented []RouteBinding `json:"undocumented" yaml:"undocumented"`
	// Unbound lists spec paths no binding serves.
	Unbound []SpecPathEntry `json:"unbound" yaml:"unbound"`
	// Handlers lists every bound handler with the test files mentioning it.
	Handlers []HandlerCoverage `json:"handlers" yaml:"handlers"`
}

// DocumentedPath is a spec path together with the binding that serves it.
type DocumentedPath struct {
	Path    string   `json:"path" yaml:"path"`
	Methods []string `json:"methods" yaml:"methods"`
	Route   string   `json:"route" yaml:"route"`
	Handler string   `json:"handler" yaml:"handler"`
}

// HandlerCoverage lists the test files whose text mentions a handler.
type HandlerCoverage struct {
	Handler string   `json:"handler" yaml:"handler"`
	Tests   []string `json:"tests" yaml:"tests"`
}
