package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Findings ---

func TestRunSource_CollectsFindings(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	findings, err := rt.RunSource(context.Background(), `
fail("route /a is not documented")
warn("handler b has no tests")
`, nil)
	require.NoError(t, err)
	assert.Equal(t, []Finding{
		{Policy: "inline", Severity: SeverityFail, Message: "route /a is not documented"},
		{Policy: "inline", Severity: SeverityWarn, Message: "handler b has no tests"},
	}, findings)
	assert.True(t, Failed(findings))
}

func TestRunSource_NoFindings(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	findings, err := rt.RunSource(context.Background(), `
x := 1 + 2
assert(x == 3, 'expected 3')
`, nil)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.False(t, Failed(findings))
}

func TestRunSource_FailRequiresString(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `fail(42)`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message must be a string")
}

func TestRunSource_ScriptErrorNamesLabel(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `assert(false, "boom")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime: script <inline>")
}

// --- Globals ---

func TestRunSource_ConvertsGlobals(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	globals := map[string]any{
		"report": map[string]any{
			"routes":   map[string][]string{"/api/devices": {"get", "post"}},
			"handlers": map[string]string{"/api/devices": "devicesHandler"},
			"tests":    []string{"src/a.test.ts"},
		},
		"bindings": []map[string]any{
			{"path": "/api/devices", "handler": "devicesHandler", "line": 3},
		},
	}

	script := `
routes := report["routes"]
methods := routes["/api/devices"]
assert(len(methods) == 2, 'expected 2 methods, got {len(methods)}')
assert(methods[1] == "post", 'expected post, got {methods[1]}')

handlers := report["handlers"]
assert(handlers["/api/devices"] == "devicesHandler", "handler mismatch")

tests := report["tests"]
assert(tests[0] == "src/a.test.ts", "tests mismatch")

b := bindings[0]
line := b["line"]
assert(line == 3, 'expected line 3, got {line}')
`
	_, err := rt.RunSource(context.Background(), script, globals)
	require.NoError(t, err)
}

func TestRunSource_StringPredicate(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	known := map[string]bool{"/api/devices": true}
	globals := map[string]any{
		"documented": StringPredicate("documented", func(p string) bool { return known[p] }),
	}

	findings, err := rt.RunSource(context.Background(), `
if !documented("/api/users") {
    fail("/api/users is not documented")
}
assert(documented("/api/devices"), "expected /api/devices to be documented")
`, globals)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "/api/users is not documented", findings[0].Message)
}

func TestToObject(t *testing.T) {
	t.Parallel()

	obj, err := ToObject(map[string]any{
		"n":    nil,
		"b":    true,
		"f":    1.5,
		"list": []any{"x", 2},
	})
	require.NoError(t, err)
	m, ok := obj.(*object.Map)
	require.True(t, ok)
	v := m.Value()
	assert.Equal(t, object.Nil, v["n"])
	assert.Equal(t, object.NewBool(true), v["b"])
	assert.Equal(t, object.NewFloat(1.5), v["f"])
	list, ok := v["list"].(*object.List)
	require.True(t, ok)
	assert.Len(t, list.Value(), 2)

	_, err = ToObject(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestRunSource_UnsupportedGlobal(t *testing.T) {
	t.Parallel()
	rt := NewRuntime("")

	_, err := rt.RunSource(context.Background(), `x := 1`, map[string]any{"bad": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global bad")
}

func TestRunSource_LogGlobal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rt := NewRuntime("", WithLogger(logger))

	_, err := rt.RunSource(context.Background(), `log.Info("checking routes")`, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "checking routes")
	assert.Contains(t, buf.String(), "policy=inline")
}

// --- Script loading ---

func TestPolicyName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "tested", PolicyName("policies/tested.risor"))
	assert.Equal(t, "duplicates", PolicyName("duplicates.risor"))
	assert.Equal(t, "inline", PolicyName("<inline>"))
}

func TestRunScript_LoadsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "strict.risor"), []byte(`fail("always")`), 0o644))

	rt := NewRuntime(dir)
	findings, err := rt.RunScript(context.Background(), "strict.risor", nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "strict", findings[0].Policy)
}

func TestRunScript_MissingFile(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(t.TempDir())
	_, err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestLoadScript_FromFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"tested.risor": &fstest.MapFile{Data: []byte(content)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("tested.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Absolute-style path resolves within the FS.
	got, err = rt.LoadScript("/tested.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime("", WithRuntimeFS(fstest.MapFS{}))
	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestPolicies(t *testing.T) {
	t.Parallel()

	mapFS := fstest.MapFS{
		"tested.risor":      &fstest.MapFile{Data: []byte(``)},
		"duplicates.risor":  &fstest.MapFile{Data: []byte(``)},
		"README.md":         &fstest.MapFile{Data: []byte(``)},
		"lib/helpers.risor": &fstest.MapFile{Data: []byte(``)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	names, err := rt.Policies()
	require.NoError(t, err)
	assert.Equal(t, []string{"duplicates.risor", "tested.risor"}, names)
}

func TestPolicies_FromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.risor"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.risor"), nil, 0o644))

	names, err := NewRuntime(dir).Policies()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.risor", "b.risor"}, names)
}

// --- Importer wiring ---

func TestImport_FSImporter(t *testing.T) {
	// FSImporter resolves "paths" by trying name + ".risor" at the FS root.
	mapFS := fstest.MapFS{
		"paths.risor": &fstest.MapFile{Data: []byte(`
func is_api(p) {
	return p[0:5] == "/api/"
}
`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	_, err := rt.RunSource(context.Background(), `
import paths

assert(paths.is_api("/api/devices"), "expected api path")
assert(!paths.is_api("/docs"), "expected non-api path")
`, nil)
	require.NoError(t, err)
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0o644))

	rt := NewRuntime(dir)
	_, err := rt.RunSource(context.Background(), `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`, nil)
	require.NoError(t, err)
}

func TestImport_HostGlobalsAvailableInModules(t *testing.T) {
	// Imported modules compile against the host global names.
	mapFS := fstest.MapFS{
		"report_helpers.risor": &fstest.MapFile{Data: []byte(`
func reject(msg) {
	fail(msg)
}
`)},
	}
	rt := NewRuntime("", WithRuntimeFS(mapFS))

	findings, err := rt.RunSource(context.Background(), `
import report_helpers
report_helpers.reject("from module")
`, nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "from module", findings[0].Message)
}
