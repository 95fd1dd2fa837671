package apiscan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// TestScanOptions selects test files. Patterns and Exclude are doublestar
// globs: a glob without '/' matches the file name, any other glob matches
// the slash-separated path relative to the repository root.
type TestScanOptions struct {
	Roots    []string
	Patterns []string
	Exclude  []string
}

// ScanTests walks each root (relative to repoRoot unless absolute) and
// returns the matching files relative to repoRoot, sorted and without
// duplicates. Roots that do not exist are skipped.
func ScanTests(repoRoot string, opts TestScanOptions) ([]string, error) {
	seen := make(map[string]bool)
	tests := []string{}

	for _, root := range opts.Roots {
		dir := root
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(repoRoot, filepath.FromSlash(root))
		}
		info, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("apiscan: test root %s: %w", root, err)
		}
		if !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(repoRoot, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != dir && matchAny(opts.Exclude, rel, d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if matchAny(opts.Exclude, rel, d.Name()) || !matchAny(opts.Patterns, rel, d.Name()) {
				return nil
			}
			if !seen[rel] {
				seen[rel] = true
				tests = append(tests, rel)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("apiscan: scan tests in %s: %w", root, err)
		}
	}

	sort.Strings(tests)
	return tests, nil
}

func matchAny(globs []string, rel, name string) bool {
	for _, g := range globs {
		target := name
		if strings.Contains(g, "/") {
			target = rel
		}
		if ok, err := doublestar.Match(g, target); err == nil && ok {
			return true
		}
	}
	return false
}
