package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jward/apiscan"
)

var errPolicyFailed = errors.New("policy check failed")

var checkCmd = &cobra.Command{
	Use:   "check [script.risor ...]",
	Short: "Run policy scripts against the report",
	Long: "Runs Risor policy scripts against the report and its cross-reference. Without arguments " +
		"the built-in policies run: duplicates, documented and tested. Exits non-zero if any policy fails.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	findings, err := a.Check(context.Background(), args...)
	if err != nil {
		return err
	}
	if err := output(cmd, findings); err != nil {
		return err
	}
	if apiscan.Failed(findings) {
		return errPolicyFailed
	}
	return nil
}
