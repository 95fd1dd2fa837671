package apiscan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/jward/apiscan/internal/logging"
	"github.com/jward/apiscan/policies"
)

// Analyzer runs the apiscan pipeline over one repository: route bindings,
// documented spec paths and the test inventory.
type Analyzer struct {
	root     string
	cfg      Config
	decoder  LiteralDecoder
	logger   *slog.Logger
	policyFS fs.FS
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(a *Analyzer) {
		a.cfg = cfg
	}
}

// WithDecoder sets the decoder used for the embedded OpenAPI literal.
func WithDecoder(d LiteralDecoder) Option {
	return func(a *Analyzer) {
		a.decoder = d
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithPolicyFS sets the filesystem Check loads policy scripts from when none
// are named. The default is the embedded policy set.
func WithPolicyFS(fsys fs.FS) Option {
	return func(a *Analyzer) {
		a.policyFS = fsys
	}
}

// New creates an Analyzer rooted at root.
func New(root string, opts ...Option) (*Analyzer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("apiscan: resolve root: %w", err)
	}
	a := &Analyzer{
		root:     abs,
		cfg:      DefaultConfig(),
		policyFS: policies.FS,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.decoder == nil {
		a.decoder = NewLiteralDecoder()
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("apiscan: config: %w", err)
	}
	return a, nil
}

// Root returns the absolute repository root.
func (a *Analyzer) Root() string {
	return a.root
}

// Config returns the configuration in effect.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Bindings extracts the router's bindings in source order.
func (a *Analyzer) Bindings() ([]RouteBinding, error) {
	pattern, err := a.cfg.RoutePattern()
	if err != nil {
		return nil, fmt.Errorf("apiscan: %w", err)
	}
	path := a.path(a.cfg.Router.File)
	bindings, err := LoadRouteBindings(path, pattern)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("route bindings", "file", path, "count", len(bindings))
	return bindings, nil
}

// SpecPaths extracts the documented paths in source order.
func (a *Analyzer) SpecPaths(ctx context.Context) ([]SpecPathEntry, error) {
	x := SpecPathExtractor{
		Declaration: a.cfg.Docs.Declaration,
		Field:       a.cfg.Docs.Field,
		Decoder:     a.decoder,
	}
	path := a.path(a.cfg.Docs.File)
	entries, err := x.ExtractFile(ctx, path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("spec paths", "file", path, "count", len(entries))
	return entries, nil
}

// Tests lists the test files, sorted.
func (a *Analyzer) Tests() ([]string, error) {
	tests, err := ScanTests(a.root, TestScanOptions{
		Roots:    a.cfg.Tests.Roots,
		Patterns: a.cfg.Tests.Patterns,
		Exclude:  a.cfg.Tests.Exclude,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debug("test inventory", "roots", a.cfg.Tests.Roots, "count", len(tests))
	return tests, nil
}

// Analyze runs the three extractors and merges their results. A missing
// router or docs file contributes nothing; a docs file without the
// declaration, or with a literal that cannot be decoded, fails the run with
// a *SpecNotFoundError or *SpecEvaluationError.
func (a *Analyzer) Analyze(ctx context.Context) (*Report, error) {
	ex, err := a.extract(ctx)
	if err != nil {
		return nil, err
	}
	return a.report(ex), nil
}

// extraction holds one read of the router, the docs file and the test roots.
type extraction struct {
	bindings []RouteBinding
	entries  []SpecPathEntry
	tests    []string
}

func (a *Analyzer) extract(ctx context.Context) (*extraction, error) {
	bindings, err := a.Bindings()
	if err != nil {
		return nil, err
	}
	entries, err := a.SpecPaths(ctx)
	if err != nil {
		return nil, err
	}
	tests, err := a.Tests()
	if err != nil {
		return nil, err
	}
	return &extraction{bindings: bindings, entries: entries, tests: tests}, nil
}

func (a *Analyzer) report(ex *extraction) *Report {
	handlers, warnings := BindingMap(ex.bindings)
	for _, w := range warnings {
		a.logger.Warn(w.Message, "kind", w.Kind, "path", w.Path, "handlers", w.Handlers)
	}

	return &Report{
		Routes:   routeMap(ex.entries),
		Handlers: handlers,
		Tests:    ex.tests,
		Warnings: warnings,
	}
}

func (a *Analyzer) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(a.root, filepath.FromSlash(rel))
}

// routeMap keys entries by path. A path listed twice keeps its last methods.
func routeMap(entries []SpecPathEntry) map[string][]string {
	routes := make(map[string][]string, len(entries))
	for _, e := range entries {
		routes[e.Path] = e.Methods
	}
	return routes
}
