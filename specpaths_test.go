package apiscan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/apiscan/internal/literal"
)

const docsSource = `import { corsHeaders } from "../cors.ts";

// The OpenAPI document served at /api/docs.
export const openApiSpec = {
  openapi: "3.0.0",
  info: { title: "IoT Platform API", version: "1.0.0" },
  paths: {
    "/api/devices": {
      get: { summary: "List devices", responses: { "200": { description: "OK" } } },
      post: { summary: "Create device" },
    },
    "/api/devices/{id}": {
      delete: { summary: "Remove device { braces } in text" },
    },
    '/api/docs': {
      get: { description: ` + "`Served as {json}`" + ` },
    },
  },
};

export function docsHandler(req: Request) {
  return new Response(JSON.stringify(openApiSpec), { headers: corsHeaders });
}
`

func TestSpecPathExtractor_RealisticDocs(t *testing.T) {
	t.Parallel()

	entries, err := specExtractor().Extract(context.Background(), docsSource)
	require.NoError(t, err)
	assert.Equal(t, []SpecPathEntry{
		{Path: "/api/devices", Methods: []string{"get", "post"}},
		{Path: "/api/devices/{id}", Methods: []string{"delete"}},
		{Path: "/api/docs", Methods: []string{"get"}},
	}, entries)
}

func specExtractor() SpecPathExtractor {
	return SpecPathExtractor{Declaration: "openApiSpec", Field: "paths"}
}

func TestSpecPathExtractor_Minimal(t *testing.T) {
	t.Parallel()

	src := `const openApiSpec = {"paths": {"/foo": {"get": {}, "post": {}}}};`
	entries, err := specExtractor().Extract(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []SpecPathEntry{{Path: "/foo", Methods: []string{"get", "post"}}}, entries)
}

func TestSpecPathExtractor_KeepsSourceOrder(t *testing.T) {
	t.Parallel()

	src := `export const openApiSpec: Record<string, unknown> = {
  paths: {
    "/z": { put: {}, get: {} },
    "/a": { patch: {} },
    "/m": {},
  },
};`
	entries, err := specExtractor().Extract(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []SpecPathEntry{
		{Path: "/z", Methods: []string{"put", "get"}},
		{Path: "/a", Methods: []string{"patch"}},
		{Path: "/m", Methods: []string{}},
	}, entries)
}

func TestSpecPathExtractor_NotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"no declaration", `export function docsHandler() { return null; }`},
		{"different name", `const otherSpec = {paths: {}};`},
		{"longer name", `const openApiSpecV2 = {paths: {}};`},
		{"member assignment", `this.openApiSpec = {paths: {}};`},
		{"not an object", `const openApiSpec = buildSpec();`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := specExtractor().Extract(context.Background(), tt.src)
			require.Error(t, err)
			var nf *SpecNotFoundError
			assert.True(t, errors.As(err, &nf), "want *SpecNotFoundError, got %T: %v", err, err)
		})
	}
}

func TestSpecPathExtractor_EvaluationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"unbalanced", "const x = 1;\nconst openApiSpec = {paths: {\"/a\": {get: {}}};\n"},
		{"syntax error", "const x = 1;\nconst openApiSpec = {paths: {\"/a\": {get: }}};\n"},
		{"identifier value", "const x = 1;\nconst openApiSpec = {paths: {\"/a\": handlers}};\n"},
		{"missing paths", "const x = 1;\nconst openApiSpec = {openapi: \"3.0.0\"};\n"},
		{"paths not an object", "const x = 1;\nconst openApiSpec = {paths: []};\n"},
		{"path not an object", "const x = 1;\nconst openApiSpec = {paths: {\"/a\": true}};\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := specExtractor().Extract(context.Background(), tt.src)
			require.Error(t, err)
			var evalErr *SpecEvaluationError
			require.True(t, errors.As(err, &evalErr), "want *SpecEvaluationError, got %T: %v", err, err)
			assert.Equal(t, 2, evalErr.Line)
			assert.Equal(t, "openApiSpec", evalErr.Declaration)
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}

func TestSpecPathExtractor_SyntaxErrorIsUnwrappable(t *testing.T) {
	t.Parallel()

	_, err := specExtractor().Extract(context.Background(), `const openApiSpec = {paths: {"/a": {get: }}};`)
	var synErr *literal.SyntaxError
	assert.True(t, errors.As(err, &synErr))
}

func TestSpecPathExtractor_ExtractFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "docs.ts")

	entries, err := specExtractor().ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, os.WriteFile(path, []byte(`export function docsHandler() {}`), 0o644))
	_, err = specExtractor().ExtractFile(context.Background(), path)
	var nf *SpecNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, path, nf.File)
	assert.Contains(t, err.Error(), path)
}

func TestSpecPathExtractor_DefaultField(t *testing.T) {
	t.Parallel()

	x := SpecPathExtractor{Declaration: "spec"}
	entries, err := x.Extract(context.Background(), `let spec = {paths: {"/p": {get: {}}}}`)
	require.NoError(t, err)
	assert.Equal(t, []SpecPathEntry{{Path: "/p", Methods: []string{"get"}}}, entries)
}

type stubDecoder struct {
	got string
	val any
	err error
}

func (d *stubDecoder) Decode(_ context.Context, text string) (any, error) {
	d.got = text
	return d.val, d.err
}

func TestSpecPathExtractor_CustomDecoder(t *testing.T) {
	t.Parallel()

	root := literal.NewObject()
	paths := literal.NewObject()
	ops := literal.NewObject()
	ops.Set("get", literal.NewObject())
	paths.Set("/stub", ops)
	root.Set("paths", paths)

	dec := &stubDecoder{val: root}
	x := SpecPathExtractor{Declaration: "openApiSpec", Decoder: dec}
	entries, err := x.Extract(context.Background(), "const openApiSpec = {anything: goes};\n")
	require.NoError(t, err)
	assert.Equal(t, "{anything: goes}", dec.got)
	assert.Equal(t, []SpecPathEntry{{Path: "/stub", Methods: []string{"get"}}}, entries)

	dec = &stubDecoder{err: errors.New("refused")}
	x.Decoder = dec
	_, err = x.Extract(context.Background(), "const openApiSpec = {};")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}
