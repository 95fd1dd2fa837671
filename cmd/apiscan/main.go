package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/apiscan"
	"github.com/jward/apiscan/internal/logging"
)

var (
	flagRoot     string
	flagConfig   string
	flagFormat   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "apiscan",
	Short: "Correlate API routes, handlers, OpenAPI paths and tests",
	Long: "apiscan reads a repository's router, the OpenAPI document embedded in its docs handler, " +
		"and its test files, and reports how they line up. Nothing in the repository is modified.",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	RunE: runReport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "repository root (default: the git repository containing the working directory, not the binary's location)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .apiscan.{jsonc,json,toml,yaml,yml} at the repository root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|yaml|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level: debug|info|warn|error")

	rootCmd.AddCommand(xrefCmd)
	rootCmd.AddCommand(checkCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	report, err := a.Analyze(context.Background())
	if err != nil {
		return err
	}
	return output(cmd, report)
}

// newAnalyzer builds an Analyzer from the global flags.
func newAnalyzer(cmd *cobra.Command) (*apiscan.Analyzer, error) {
	level, err := logging.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	logger.Debug("analyzing", "root", root)

	return apiscan.New(root,
		apiscan.WithConfig(cfg),
		apiscan.WithLogger(logger),
	)
}

// resolveRoot returns the --root flag as an absolute directory, or the
// repository containing the working directory.
func resolveRoot() (string, error) {
	if flagRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		return findRepoRoot(wd), nil
	}
	abs, err := filepath.Abs(flagRoot)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", flagRoot, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// loadConfig reads --config, else the repository's config file, else
// returns the defaults.
func loadConfig(root string) (apiscan.Config, error) {
	path := flagConfig
	if path == "" {
		found, ok := apiscan.FindConfig(root)
		if !ok {
			return apiscan.DefaultConfig(), nil
		}
		path = found
	}
	return apiscan.LoadConfig(path)
}

// findRepoRoot walks up from startDir looking for a .git entry.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		// A .git file marks a worktree or submodule.
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
