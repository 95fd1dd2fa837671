package main

import (
	"context"

	"github.com/spf13/cobra"
)

var xrefCmd = &cobra.Command{
	Use:   "xref",
	Short: "Cross-reference route bindings, documented paths and tests",
	Long: "Lists documented paths with the binding serving each one, bindings missing from the " +
		"OpenAPI document, documented paths nothing is bound to, and the tests mentioning each handler.",
	Args: cobra.NoArgs,
	RunE: runXref,
}

func runXref(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	cov, err := a.CrossReference(context.Background())
	if err != nil {
		return err
	}
	return output(cmd, cov)
}
