package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flyberryhq/auditpipe/internal/spec"
)

type validateOptions struct {
	specPath   string
	jsonOutput bool
}

func newValidateSpecCmd(app *AppContext, root *rootFlags) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate-spec",
		Short: "Validate spec structure and references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateSpec(cmd, app, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.specPath, "spec", "", "Spec YAML path (supports glob patterns)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output JSON for machine parsing")
	cmd.MarkFlagRequired("spec") //nolint:errcheck

	return cmd
}

func runValidateSpec(cmd *cobra.Command, app *AppContext, root *rootFlags, opts validateOptions) error {
	projectDir, err := projectRoot(root)
	if err != nil {
		return err
	}

	validator := spec.NewValidator(app.Registry, projectDir, loggerFor(app, root).With("component", "validator"))
	summary, err := validator.ValidateGlob(cmd.Context(), opts.specPath)
	if err != nil {
		if opts.jsonOutput {
			payload := map[string]interface{}{"valid": false, "error": err.Error()}
			_ = json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
		}
		return fmt.Errorf("Validate: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printValidationReports(cmd, summary)
	}

	if !summary.Valid {
		return fmt.Errorf("Validate: %d spec(s) failed validation", summary.InvalidSpecs)
	}
	return nil
}

func printValidationReports(cmd *cobra.Command, summary *spec.Summary) {
	out := cmd.OutOrStdout()
	marks := glyphsFor(out)
	rule := strings.Repeat("=", 60)

	for _, report := range summary.Specs {
		fmt.Fprintf(out, "\n%s\n", rule)
		fmt.Fprintf(out, "Validating: %s\n", report.Path)
		fmt.Fprintf(out, "%s\n", rule)

		if report.Suite != "" {
			fmt.Fprintf(out, "%s Suite: %s\n", marks.ok, report.Suite)
		}
		for i, blockName := range report.Blocks {
			if !hasImportError(report.Errors, i) {
				fmt.Fprintf(out, "%s Step[%d] block '%s' resolved\n", marks.ok, i, blockName)
			}
		}
		if len(report.Profiles) > 0 && !hasProfileError(report.Errors) {
			fmt.Fprintf(out, "%s Output profiles valid: %s\n", marks.ok, strings.Join(report.Profiles, ", "))
		}
		if report.Gates > 0 && !hasGateError(report.Errors) {
			fmt.Fprintf(out, "%s Gates are valid (%d gates)\n", marks.ok, report.Gates)
		}

		if len(report.Errors) > 0 {
			fmt.Fprintf(out, "\n%s Spec INVALID (%d errors):\n", marks.bad, len(report.Errors))
			for _, e := range report.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
		} else {
			fmt.Fprintf(out, "\n%s Spec OK\n", marks.ok)
		}
	}

	fmt.Fprintf(out, "\n%s\n", rule)
	if summary.Valid {
		fmt.Fprintf(out, "%s All specs valid (%d spec(s))\n", marks.ok, summary.TotalSpecs)
	} else {
		fmt.Fprintf(out, "%s %d spec(s) failed validation\n", marks.bad, summary.InvalidSpecs)
	}
	fmt.Fprintf(out, "%s\n", rule)
}

func hasImportError(errors []string, stepIndex int) bool {
	prefix := fmt.Sprintf("step[%d]:", stepIndex)
	for _, e := range errors {
		if strings.HasPrefix(e, prefix) && strings.Contains(e, "cannot import") {
			return true
		}
	}
	return false
}

func hasProfileError(errors []string) bool {
	for _, e := range errors {
		if strings.Contains(e, "unknown profile") {
			return true
		}
	}
	return false
}

func hasGateError(errors []string) bool {
	for _, e := range errors {
		if strings.HasPrefix(e, "gates[") {
			return true
		}
	}
	return false
}
