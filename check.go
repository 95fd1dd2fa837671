package apiscan

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jward/apiscan/internal/runtime"
)

// Check runs policy scripts against the report and its cross-reference and
// returns their findings in script order. With no scripts it runs every
// policy in the Analyzer's policy filesystem.
//
// Scripts see the globals report, coverage and bindings as plain maps and
// lists, the host functions fail(msg), warn(msg) and documented(path), and
// a log object. The repository is read once and every script sees the same
// results.
func (a *Analyzer) Check(ctx context.Context, scripts ...string) ([]Finding, error) {
	ex, err := a.extract(ctx)
	if err != nil {
		return nil, err
	}
	cov, err := a.crossReference(ex)
	if err != nil {
		return nil, err
	}

	globals := checkGlobals(a.report(ex), cov, ex.bindings)

	type job struct {
		rt     *runtime.Runtime
		script string
	}
	var jobs []job
	if len(scripts) == 0 {
		rt := runtime.NewRuntime("", runtime.WithRuntimeFS(a.policyFS), runtime.WithLogger(a.logger))
		names, err := rt.Policies()
		if err != nil {
			return nil, fmt.Errorf("apiscan: %w", err)
		}
		for _, name := range names {
			jobs = append(jobs, job{rt: rt, script: name})
		}
	}
	for _, script := range scripts {
		abs, err := filepath.Abs(script)
		if err != nil {
			return nil, fmt.Errorf("apiscan: resolve script: %w", err)
		}
		// Imports resolve next to the script.
		rt := runtime.NewRuntime(filepath.Dir(abs), runtime.WithLogger(a.logger))
		jobs = append(jobs, job{rt: rt, script: filepath.Base(abs)})
	}

	findings := []Finding{}
	for _, j := range jobs {
		got, err := j.rt.RunScript(ctx, j.script, globals)
		if err != nil {
			return nil, fmt.Errorf("apiscan: %w", err)
		}
		findings = append(findings, got...)
	}
	return findings, nil
}

// Failed reports whether any finding has fail severity.
func Failed(findings []Finding) bool {
	return runtime.Failed(findings)
}

func checkGlobals(report *Report, cov *Coverage, bindings []RouteBinding) map[string]any {
	routes := make(map[string]any, len(report.Routes))
	for path, methods := range report.Routes {
		routes[path] = methods
	}
	handlers := make(map[string]any, len(report.Handlers))
	for path, h := range report.Handlers {
		handlers[path] = h
	}
	warnings := make([]any, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		warnings = append(warnings, map[string]any{
			"kind":     w.Kind,
			"path":     w.Path,
			"handlers": w.Handlers,
			"message":  w.Message,
		})
	}

	documented := make(map[string]bool)
	var docList, undocList, unboundList, handlerList []any
	for _, d := range cov.Documented {
		documented[d.Route] = true
		docList = append(docList, map[string]any{
			"path":    d.Path,
			"methods": d.Methods,
			"route":   d.Route,
			"handler": d.Handler,
		})
	}
	for _, b := range cov.Undocumented {
		undocList = append(undocList, bindingObject(b))
	}
	for _, u := range cov.Unbound {
		unboundList = append(unboundList, map[string]any{
			"path":    u.Path,
			"methods": u.Methods,
		})
	}
	for _, h := range cov.Handlers {
		handlerList = append(handlerList, map[string]any{
			"handler": h.Handler,
			"tests":   h.Tests,
		})
	}

	bindingList := make([]any, 0, len(bindings))
	for _, b := range bindings {
		bindingList = append(bindingList, bindingObject(b))
	}

	return map[string]any{
		"report": map[string]any{
			"routes":   routes,
			"handlers": handlers,
			"tests":    report.Tests,
			"warnings": warnings,
		},
		"coverage": map[string]any{
			"documented":   orEmpty(docList),
			"undocumented": orEmpty(undocList),
			"unbound":      orEmpty(unboundList),
			"handlers":     orEmpty(handlerList),
		},
		"bindings": bindingList,
		"documented": runtime.StringPredicate("documented", func(route string) bool {
			return documented[route]
		}),
	}
}

func bindingObject(b RouteBinding) map[string]any {
	return map[string]any{
		"path":    b.Path,
		"handler": b.Handler,
		"line":    b.Line,
	}
}

func orEmpty(list []any) []any {
	if list == nil {
		return []any{}
	}
	return list
}
