package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jward/apiscan"
)

var validFormats = []string{"json", "yaml", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, ", "))
}

// output writes v to the command's stdout in the selected format.
func output(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	switch flagFormat {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		return outputText(w, v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputText(w io.Writer, v any) error {
	switch v := v.(type) {
	case *apiscan.Report:
		formatReportText(w, v)
	case *apiscan.Coverage:
		formatCoverageText(w, v)
	case []apiscan.Finding:
		formatFindingsText(w, v)
	default:
		return fmt.Errorf("text output not supported for %T", v)
	}
	return nil
}

// formatReportText prints routes, handlers and tests as aligned sections.
func formatReportText(w io.Writer, r *apiscan.Report) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tMETHODS")
	for _, path := range sortedKeys(r.Routes) {
		fmt.Fprintf(tw, "%s\t%s\n", path, strings.Join(r.Routes[path], ","))
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUTE\tHANDLER")
	for _, path := range sortedKeys(r.Handlers) {
		fmt.Fprintf(tw, "%s\t%s\n", path, r.Handlers[path])
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Tests (%d):\n", len(r.Tests))
	for _, t := range r.Tests {
		fmt.Fprintf(w, "  %s\n", t)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s: %s\n", warn.Kind, warn.Message)
		}
	}
}

// formatCoverageText prints each cross-reference list as aligned columns.
func formatCoverageText(w io.Writer, c *apiscan.Coverage) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tMETHODS\tROUTE\tHANDLER")
	for _, d := range c.Documented {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Path, strings.Join(d.Methods, ","), d.Route, d.Handler)
	}
	for _, u := range c.Unbound {
		fmt.Fprintf(tw, "%s\t%s\t-\t-\n", u.Path, strings.Join(u.Methods, ","))
	}
	tw.Flush()

	if len(c.Undocumented) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "UNDOCUMENTED\tHANDLER\tLINE")
		for _, b := range c.Undocumented {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", b.Path, b.Handler, b.Line)
		}
		tw.Flush()
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLER\tTESTS")
	for _, h := range c.Handlers {
		tests := strings.Join(h.Tests, ",")
		if tests == "" {
			tests = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", h.Handler, tests)
	}
	tw.Flush()
}

// formatFindingsText prints one finding per line.
func formatFindingsText(w io.Writer, findings []apiscan.Finding) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tPOLICY\tMESSAGE")
	for _, f := range findings {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Severity, f.Policy, f.Message)
	}
	tw.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
