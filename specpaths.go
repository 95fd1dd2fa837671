package apiscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/jward/apiscan/internal/literal"
)

// LiteralDecoder decodes the source text of a structured literal. Objects
// must decode to *LiteralObject so key order survives.
type LiteralDecoder interface {
	Decode(ctx context.Context, text string) (any, error)
}

// NewLiteralDecoder returns the default decoder, which accepts only object,
// array, string, number, boolean and null literals.
func NewLiteralDecoder() LiteralDecoder {
	return literal.NewDecoder()
}

// SpecPathExtractor pulls the documented path map out of an OpenAPI object
// literal embedded in a source file.
type SpecPathExtractor struct {
	// Declaration is the constant the literal is assigned to.
	Declaration string
	// Field is the top-level key holding the path map.
	Field string
	// Decoder decodes the literal text. Nil means NewLiteralDecoder().
	Decoder LiteralDecoder
}

// Extract decodes the declared literal in src and returns its paths in
// source order, each with its operation keys in source order.
func (x SpecPathExtractor) Extract(ctx context.Context, src string) ([]SpecPathEntry, error) {
	return x.extract(ctx, "", src)
}

// ExtractFile is Extract over the file at path. A missing file yields no
// entries and no error.
func (x SpecPathExtractor) ExtractFile(ctx context.Context, path string) ([]SpecPathEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apiscan: read docs: %w", err)
	}
	return x.extract(ctx, path, string(data))
}

func (x SpecPathExtractor) extract(ctx context.Context, file, src string) ([]SpecPathEntry, error) {
	start, ok := x.locate(src)
	if !ok {
		return nil, &SpecNotFoundError{File: file, Declaration: x.Declaration}
	}
	evalErr := func(err error) error {
		return &SpecEvaluationError{
			File:        file,
			Declaration: x.Declaration,
			Line:        strings.Count(src[:start], "\n") + 1,
			Err:         err,
		}
	}

	end, err := literal.Span(src, start)
	if err != nil {
		return nil, evalErr(err)
	}

	dec := x.Decoder
	if dec == nil {
		dec = literal.NewDecoder()
	}
	value, err := dec.Decode(ctx, src[start:end])
	if err != nil {
		return nil, evalErr(err)
	}

	entries, err := pathEntries(value, x.field())
	if err != nil {
		return nil, evalErr(err)
	}
	return entries, nil
}

// locate returns the offset of the opening brace of the first declaration
// of x.Declaration assigned to an object literal.
func (x SpecPathExtractor) locate(src string) (int, bool) {
	if x.Declaration == "" {
		return 0, false
	}
	re := declarationPattern(x.Declaration)
	for _, m := range re.FindAllStringIndex(src, -1) {
		if m[1] < len(src) && src[m[1]] == '{' {
			return m[1], true
		}
	}
	return 0, false
}

func (x SpecPathExtractor) field() string {
	if x.Field == "" {
		return "paths"
	}
	return x.Field
}

// declarationPattern matches "[export] const|let|var <name>[: Type] =" up to
// the first character of the initializer.
func declarationPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\w$.])(?:export\s+)?(?:const|let|var)\s+` +
		regexp.QuoteMeta(name) + `\s*(?::[^=;]*)?=\s*`)
}

func pathEntries(v any, field string) ([]SpecPathEntry, error) {
	root, ok := v.(*literal.Object)
	if !ok {
		return nil, fmt.Errorf("literal is %s, not an object", kindOf(v))
	}
	raw, ok := root.Get(field)
	if !ok {
		return nil, fmt.Errorf("literal has no %q field", field)
	}
	paths, ok := raw.(*literal.Object)
	if !ok {
		return nil, fmt.Errorf("%q is %s, not an object", field, kindOf(raw))
	}

	entries := make([]SpecPathEntry, 0, paths.Len())
	for _, path := range paths.Keys() {
		item, _ := paths.Get(path)
		ops, ok := item.(*literal.Object)
		if !ok {
			return nil, fmt.Errorf("path %q is %s, not an object", path, kindOf(item))
		}
		entries = append(entries, SpecPathEntry{Path: path, Methods: ops.Keys()})
	}
	return entries, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *literal.Object:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}
