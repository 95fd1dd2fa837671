package apiscan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// ExtractRouteBindings returns every non-overlapping match of pattern in src,
// in order of appearance. The pattern must define the named groups "path"
// and "handler"; matching quotes around the captured path are removed.
func ExtractRouteBindings(src string, pattern *regexp.Regexp) []RouteBinding {
	pathIdx := pattern.SubexpIndex("path")
	handlerIdx := pattern.SubexpIndex("handler")
	if pathIdx < 0 || handlerIdx < 0 {
		return nil
	}

	var (
		bindings []RouteBinding
		line     = 1
		counted  = 0
	)
	for _, m := range pattern.FindAllStringSubmatchIndex(src, -1) {
		ps, pe := m[2*pathIdx], m[2*pathIdx+1]
		hs, he := m[2*handlerIdx], m[2*handlerIdx+1]
		if ps < 0 || hs < 0 {
			continue
		}
		line += strings.Count(src[counted:m[0]], "\n")
		counted = m[0]
		bindings = append(bindings, RouteBinding{
			Path:    unquote(src[ps:pe]),
			Handler: src[hs:he],
			Line:    line,
		})
	}
	return bindings
}

// LoadRouteBindings reads the router source at path and extracts its
// bindings. A missing file yields no bindings and no error.
func LoadRouteBindings(path string, pattern *regexp.Regexp) ([]RouteBinding, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apiscan: read router: %w", err)
	}
	return ExtractRouteBindings(string(data), pattern), nil
}

// BindingMap folds bindings into a path → handler map. When a path is bound
// more than once the last binding wins, and a duplicate-route warning lists
// every handler bound to it in source order.
func BindingMap(bindings []RouteBinding) (map[string]string, []Warning) {
	handlers := make(map[string]string, len(bindings))
	bound := make(map[string][]string, len(bindings))
	var order []string
	for _, b := range bindings {
		if _, ok := bound[b.Path]; !ok {
			order = append(order, b.Path)
		}
		bound[b.Path] = append(bound[b.Path], b.Handler)
		handlers[b.Path] = b.Handler
	}

	var warnings []Warning
	for _, path := range order {
		names := bound[path]
		if len(names) < 2 {
			continue
		}
		warnings = append(warnings, Warning{
			Kind:     WarnDuplicateRoute,
			Path:     path,
			Handlers: names,
			Message:  fmt.Sprintf("route %s is bound %d times; %s takes effect", path, len(names), names[len(names)-1]),
		})
	}
	return handlers, warnings
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == s[len(s)-1] && strings.IndexByte("'\"`", s[0]) >= 0 {
		return s[1 : len(s)-1]
	}
	return s
}
