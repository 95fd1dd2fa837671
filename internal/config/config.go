// Package config loads apiscan's optional per-repository configuration.
//
// A configuration file may be written in JSONC, JSON, TOML or YAML. Every
// format is normalised to JSON, validated against the embedded schema and
// decoded over [Default], so a file only needs the fields it overrides.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	jsonc "github.com/muhammadmuzzammil1998/jsonc"
	"github.com/pelletier/go-toml/v2"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// DefaultRoutePattern matches router registrations of the form
// routes.set('/api/path', handlerName).
const DefaultRoutePattern = `routes\.set\(\s*(?P<path>'[^'\n]*'|"[^"\n]*"|` + "`[^`]*`" + `)\s*,\s*(?P<handler>[A-Za-z_$][\w$]*)\s*\)`

// FileNames lists the configuration files looked up at the repository root,
// in priority order.
var FileNames = []string{
	".apiscan.jsonc",
	".apiscan.json",
	".apiscan.toml",
	".apiscan.yaml",
	".apiscan.yml",
}

// Config describes where apiscan finds its inputs.
type Config struct {
	Router RouterConfig `json:"router"`
	Docs   DocsConfig   `json:"docs"`
	Tests  TestsConfig  `json:"tests"`
}

type RouterConfig struct {
	// File is the router source, relative to the repository root.
	File string `json:"file"`
	// Pattern is a regular expression with named groups "path" and "handler".
	Pattern string `json:"pattern"`
}

type DocsConfig struct {
	// File is the source file holding the embedded OpenAPI literal.
	File string `json:"file"`
	// Declaration is the name of the constant the literal is assigned to.
	Declaration string `json:"declaration"`
	// Field is the top-level key holding the path map.
	Field string `json:"field"`
}

type TestsConfig struct {
	Roots    []string `json:"roots"`
	Patterns []string `json:"patterns"`
	Exclude  []string `json:"exclude"`
}

// Default returns the built-in configuration. It excludes nothing from the
// test inventory; exclusion is opt-in through Tests.Exclude.
func Default() Config {
	return Config{
		Router: RouterConfig{
			File:    "supabase/functions/api-gateway/router.ts",
			Pattern: DefaultRoutePattern,
		},
		Docs: DocsConfig{
			File:        "supabase/functions/api-gateway/handlers/docs.ts",
			Declaration: "openApiSpec",
			Field:       "paths",
		},
		Tests: TestsConfig{
			Roots:    []string{"src", "tests"},
			Patterns: []string{"*.test.ts", "*.test.tsx"},
		},
	}
}

// Find returns the first configuration file present in root.
func Find(root string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Load reads the configuration file at path and applies it over Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes data, choosing the format from the extension of name.
func Parse(name string, data []byte) (Config, error) {
	raw, err := toJSON(name, data)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", name, err)
	}

	if err := validate(raw); err != nil {
		return Config{}, fmt.Errorf("config: %s invalid: %w", name, err)
	}

	cfg := Default()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", name, err)
	}
	return cfg, nil
}

// Validate checks values the schema cannot express.
func (c Config) Validate() error {
	if _, err := c.RoutePattern(); err != nil {
		return err
	}
	for _, groups := range [][]string{c.Tests.Patterns, c.Tests.Exclude} {
		for _, p := range groups {
			if !doublestar.ValidatePattern(p) {
				return fmt.Errorf("invalid glob %q", p)
			}
		}
	}
	return nil
}

// RoutePattern compiles the router pattern, falling back to
// DefaultRoutePattern when none is set.
func (c Config) RoutePattern() (*regexp.Regexp, error) {
	pattern := c.Router.Pattern
	if pattern == "" {
		pattern = DefaultRoutePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("router pattern: %w", err)
	}
	for _, group := range []string{"path", "handler"} {
		if re.SubexpIndex(group) < 0 {
			return nil, fmt.Errorf("router pattern: missing named group %q", group)
		}
	}
	return re, nil
}

// toJSON normalises a JSONC, TOML or YAML document to JSON.
func toJSON(name string, data []byte) ([]byte, error) {
	var doc any
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json", ".jsonc":
		clean := jsonc.ToJSON(data)
		if len(bytes.TrimSpace(clean)) == 0 {
			return []byte("{}"), nil
		}
		if err := json.Unmarshal(clean, &doc); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "mem://schemas/apiscan.schema.json"

var (
	compileOnce sync.Once
	schema      *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("decode schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register schema: %w", err)
			return
		}
		schema, compileErr = c.Compile(schemaURL)
	})
	return schema, compileErr
}

func validate(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return s.Validate(instance)
}
