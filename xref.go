package apiscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jward/apiscan/internal/store"
)

// CrossReference correlates bindings, documented paths and tests. A binding
// whose path contains '*' serves every spec path it matches as a glob; an
// exact binding takes precedence, then the longest glob.
func (a *Analyzer) CrossReference(ctx context.Context) (*Coverage, error) {
	ex, err := a.extract(ctx)
	if err != nil {
		return nil, err
	}
	return a.crossReference(ex)
}

func (a *Analyzer) crossReference(ex *extraction) (*Coverage, error) {
	mentions, err := a.mentions(ex.bindings, ex.tests)
	if err != nil {
		return nil, err
	}

	s, err := store.Open()
	if err != nil {
		return nil, fmt.Errorf("apiscan: cross-reference: %w", err)
	}
	defer s.Close()

	batch := &store.Batch{Mentions: mentions}
	for _, b := range ex.bindings {
		batch.Bindings = append(batch.Bindings, store.Binding{Path: b.Path, Handler: b.Handler})
	}
	for _, e := range ex.entries {
		batch.SpecPaths = append(batch.SpecPaths, store.SpecPath{Path: e.Path, Methods: e.Methods})
	}
	if err := s.CommitBatch(batch); err != nil {
		return nil, fmt.Errorf("apiscan: cross-reference: %w", err)
	}

	cov, err := coverageFrom(s, ex.bindings)
	if err != nil {
		return nil, fmt.Errorf("apiscan: cross-reference: %w", err)
	}
	a.logger.Debug("cross-reference",
		"documented", len(cov.Documented),
		"undocumented", len(cov.Undocumented),
		"unbound", len(cov.Unbound))
	return cov, nil
}

func coverageFrom(s *store.Store, bindings []RouteBinding) (*Coverage, error) {
	cov := &Coverage{
		Documented:   []DocumentedPath{},
		Undocumented: []RouteBinding{},
		Unbound:      []SpecPathEntry{},
		Handlers:     []HandlerCoverage{},
	}

	matches, err := s.PathMatches()
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if !m.Bound() {
			cov.Unbound = append(cov.Unbound, SpecPathEntry{Path: m.Path, Methods: m.Methods})
			continue
		}
		cov.Documented = append(cov.Documented, DocumentedPath{
			Path:    m.Path,
			Methods: m.Methods,
			Route:   m.Route,
			Handler: m.Handler,
		})
	}

	// Report the line of the effective (last) binding of each path.
	lines := make(map[string]int, len(bindings))
	for _, b := range bindings {
		lines[b.Path] = b.Line
	}
	undocumented, err := s.Undocumented()
	if err != nil {
		return nil, err
	}
	for _, b := range undocumented {
		cov.Undocumented = append(cov.Undocumented, RouteBinding{
			Path:    b.Path,
			Handler: b.Handler,
			Line:    lines[b.Path],
		})
	}

	handlers, err := s.HandlerTests()
	if err != nil {
		return nil, err
	}
	for _, h := range handlers {
		cov.Handlers = append(cov.Handlers, HandlerCoverage{Handler: h.Handler, Tests: h.Tests})
	}
	return cov, nil
}

// mentions reads every test file and records which effective handlers its
// text names as a whole identifier.
func (a *Analyzer) mentions(bindings []RouteBinding, tests []string) ([]store.Mention, error) {
	handlers, _ := BindingMap(bindings)
	patterns := make(map[string]*regexp.Regexp)
	for _, h := range handlers {
		if _, ok := patterns[h]; !ok {
			patterns[h] = identifierPattern(h)
		}
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	var out []store.Mention
	for _, test := range tests {
		data, err := os.ReadFile(filepath.Join(a.root, filepath.FromSlash(test)))
		if err != nil {
			return nil, fmt.Errorf("apiscan: read test %s: %w", test, err)
		}
		for h, re := range patterns {
			if re.Match(data) {
				out = append(out, store.Mention{Test: test, Handler: h})
			}
		}
	}
	return out, nil
}

// identifierPattern matches name where it is not part of a longer
// JavaScript identifier.
func identifierPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\w$])` + regexp.QuoteMeta(name) + `(?:[^\w$]|$)`)
}
