package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
)

// Runtime embeds a Risor VM and runs policy scripts against host-provided
// globals, collecting the findings they report.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Import statements then resolve within fsys.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger sets the logger behind the scripts' log global.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime loading scripts relative to scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{scriptsDir: scriptsDir}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// RunScript loads and executes a policy script with the standard globals
// plus the caller's globals, and returns the findings it reported.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, globals map[string]any) ([]Finding, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, globals)
}

// RunSource executes Risor source code directly. Findings are attributed to
// the policy "inline".
func (r *Runtime) RunSource(ctx context.Context, source string, globals map[string]any) ([]Finding, error) {
	return r.eval(ctx, source, "<inline>", globals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extra map[string]any) ([]Finding, error) {
	policy := PolicyName(label)
	c := &collector{policy: policy}
	globals, err := r.buildGlobals(c, policy, extra)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	r.logger.Debug("running policy", "script", label)
	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return c.findings, nil
}

// buildImporter returns a Risor importer for the Runtime's script source,
// or nil if neither an fs.FS nor a scripts directory is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on it.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(p string) (string, error) {
	if r.fsys != nil {
		// "/tested.risor" -> "tested.risor"
		fsPath := strings.TrimPrefix(filepath.ToSlash(p), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := p
	if !filepath.IsAbs(p) {
		fullPath = filepath.Join(r.scriptsDir, p)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// Policies lists the .risor scripts at the top level of the Runtime's
// script source, sorted by name.
func (r *Runtime) Policies() ([]string, error) {
	var (
		entries []fs.DirEntry
		err     error
	)
	if r.fsys != nil {
		entries, err = fs.ReadDir(r.fsys, ".")
	} else {
		entries, err = os.ReadDir(r.scriptsDir)
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: list policies: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".risor" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// PolicyName derives a policy name from a script path:
// "policies/tested.risor" -> "tested".
func PolicyName(script string) string {
	if script == "<inline>" {
		return "inline"
	}
	base := path.Base(filepath.ToSlash(script))
	return strings.TrimSuffix(base, path.Ext(base))
}

// buildGlobals constructs the full set of globals exposed to a script.
func (r *Runtime) buildGlobals(c *collector, policy string, extra map[string]any) (map[string]any, error) {
	globals := map[string]any{
		"fail": c.builtin("fail", SeverityFail),
		"warn": c.builtin("warn", SeverityWarn),
		"log":  mustProxy(&logObject{logger: r.logger.With("policy", policy)}),
	}
	for k, v := range extra {
		obj, err := ToObject(v)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", k, err)
		}
		globals[k] = obj
	}
	return globals, nil
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
