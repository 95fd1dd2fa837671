package apiscan

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden test format: the expected report and cross-reference for the
// repository under testdata/{case}/repo, analysed with the repository's own
// config file when it has one.
type goldenFile struct {
	Report   json.RawMessage `json:"report"`
	Coverage json.RawMessage `json:"coverage"`
}

// TestGolden runs every testdata/{case} directory holding a repo/ and a
// golden.json.
func TestGolden(t *testing.T) {
	cases, err := os.ReadDir("testdata")
	if err != nil {
		t.Skip("no testdata directory found")
	}

	for _, c := range cases {
		if !c.IsDir() {
			continue
		}
		dir := filepath.Join("testdata", c.Name())
		goldenPath := filepath.Join(dir, "golden.json")
		repo := filepath.Join(dir, "repo")
		if _, err := os.Stat(goldenPath); err != nil {
			continue
		}
		if _, err := os.Stat(repo); err != nil {
			continue
		}

		t.Run(c.Name(), func(t *testing.T) {
			t.Parallel()
			runGoldenTest(t, repo, goldenPath)
		})
	}
}

func runGoldenTest(t *testing.T, repo, goldenPath string) {
	t.Helper()

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	var golden goldenFile
	require.NoError(t, json.Unmarshal(data, &golden))

	var opts []Option
	if path, ok := FindConfig(repo); ok {
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		opts = append(opts, WithConfig(cfg))
	}
	a, err := New(repo, opts...)
	require.NoError(t, err)
	ctx := context.Background()

	if len(golden.Report) > 0 {
		t.Run("report", func(t *testing.T) {
			report, err := a.Analyze(ctx)
			require.NoError(t, err)
			got, err := json.Marshal(report)
			require.NoError(t, err)
			assert.JSONEq(t, string(golden.Report), string(got))
		})
	}

	if len(golden.Coverage) > 0 {
		t.Run("coverage", func(t *testing.T) {
			cov, err := a.CrossReference(ctx)
			require.NoError(t, err)
			got, err := json.Marshal(cov)
			require.NoError(t, err)
			assert.JSONEq(t, string(golden.Coverage), string(got))
		})
	}
}
