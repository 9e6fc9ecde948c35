package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flyberryhq/auditpipe/internal/planner"
)

type planOptions struct {
	specPath   string
	jsonOutput bool
}

func newPlanCmd(app *AppContext, root *rootFlags) *cobra.Command {
	opts := planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the execution for a spec (dry-run)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, app, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.specPath, "spec", "", "Spec YAML path")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output JSON for machine parsing")
	cmd.MarkFlagRequired("spec") //nolint:errcheck

	return cmd
}

func runPlan(cmd *cobra.Command, app *AppContext, root *rootFlags, opts planOptions) error {
	projectDir, err := projectRoot(root)
	if err != nil {
		return err
	}

	p := planner.NewPlanner(app.Registry, projectDir, loggerFor(app, root).With("component", "planner"))
	plan := p.Generate(cmd.Context(), opts.specPath)

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			return err
		}
	} else {
		printPlan(cmd, plan)
	}

	if !plan.Executable {
		return fmt.Errorf("Plan: plan has issues; fix errors before running")
	}
	return nil
}

func printPlan(cmd *cobra.Command, plan *planner.Plan) {
	out := cmd.OutOrStdout()
	marks := glyphsFor(out)
	rule := strings.Repeat("=", 60)
	thinRule := strings.Repeat("-", 60)

	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "EXECUTION PLAN: %s\n", plan.Suite)
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Description: %s\n", plan.Description)
	fmt.Fprintf(out, "Spec: %s\n\n", plan.SpecPath)

	if plan.Error != "" {
		fmt.Fprintf(out, "%s Error: %s\n", marks.bad, plan.Error)
		return
	}

	if len(plan.Steps) == 0 {
		fmt.Fprintf(out, "%s Warning: Empty pipeline. Nothing to execute.\n", marks.warn)
		return
	}

	fmt.Fprintf(out, "Pipeline Steps: %d\n", plan.Summary.TotalSteps)
	fmt.Fprintln(out, thinRule)

	for _, step := range plan.Steps {
		fmt.Fprintf(out, "\n[%d] %s\n", step.Index, step.Name)
		fmt.Fprintf(out, "    Block: %s\n", step.Block)
		if step.Description != "" {
			fmt.Fprintf(out, "    Description: %s\n", step.Description)
		}

		if step.ModuleStatus == planner.ModuleOK {
			fmt.Fprintf(out, "    Module status: %s OK\n", marks.ok)
		} else {
			fmt.Fprintf(out, "    Module status: %s MISSING (%s)\n", marks.bad, step.ModuleError)
		}

		if len(step.Inputs) > 0 {
			fmt.Fprintf(out, "    Inputs (%d):\n", len(step.Inputs))
			for _, input := range step.Inputs {
				switch input.Status {
				case planner.InputExists:
					fmt.Fprintf(out, "      - %s %s\n", input.Path, marks.ok)
				case planner.InputGlobPattern:
					fmt.Fprintf(out, "      - %s (glob pattern)\n", input.Path)
				default:
					fmt.Fprintf(out, "      - %s %s missing\n", input.Path, marks.bad)
				}
			}
		}

		if len(step.Outputs) > 0 {
			fmt.Fprintf(out, "    Outputs (%d):\n", len(step.Outputs))
			for _, output := range step.Outputs {
				fmt.Fprintf(out, "      - %s\n", output)
			}
		}
	}

	if len(plan.Gates) > 0 {
		fmt.Fprintf(out, "\n%s\n", thinRule)
		fmt.Fprintf(out, "Gates (%d):\n", len(plan.Gates))
		for _, gate := range plan.Gates {
			if gate.CheckID != "" {
				fmt.Fprintf(out, "  [%d] %s: %s.%s %s %d\n", gate.Index, gate.Type, gate.CheckID, gate.Metric, gate.Op, gate.Value)
			} else {
				fmt.Fprintf(out, "  [%d] %s: %s %s %d\n", gate.Index, gate.Type, gate.Metric, gate.Op, gate.Value)
			}
		}
	}

	summary := plan.Summary
	fmt.Fprintf(out, "\n%s\n", thinRule)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  Steps: %d\n", summary.TotalSteps)
	fmt.Fprintf(out, "  Inputs: %d\n", summary.TotalInputs)
	fmt.Fprintf(out, "  Outputs: %d\n", summary.TotalOutputs)
	fmt.Fprintf(out, "  Blocks resolved: %d\n", len(summary.BlocksResolved))
	if len(summary.BlocksMissing) > 0 {
		fmt.Fprintf(out, "  Blocks missing: %d (%s)\n", len(summary.BlocksMissing), strings.Join(summary.BlocksMissing, ", "))
	}
	fmt.Fprintf(out, "  Gates: %d\n", summary.Gates)

	if len(summary.Profiles) > 0 {
		fmt.Fprintf(out, "  Output profiles: %s\n", strings.Join(summary.Profiles, ", "))
		if len(summary.UnknownProfiles) > 0 {
			fmt.Fprintf(out, "    %s Unknown profiles: %s\n", marks.warn, strings.Join(summary.UnknownProfiles, ", "))
		}
	} else {
		fmt.Fprintln(out, "  Output profiles: none")
	}

	fmt.Fprintln(out, rule)
	if plan.Executable {
		fmt.Fprintf(out, "%s Plan is executable. All dependencies resolved.\n", marks.ok)
	} else {
		fmt.Fprintf(out, "%s Plan has issues. Fix errors before running.\n", marks.bad)
	}
}
