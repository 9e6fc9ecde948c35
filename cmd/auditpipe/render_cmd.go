package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flyberryhq/auditpipe/internal/engine"
	"github.com/flyberryhq/auditpipe/internal/render"
)

type renderOptions struct {
	runPath string
	profile string
	outPath string
}

func newRenderCmd(app *AppContext, root *rootFlags) *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a projection from a canonical run JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.runPath, "run", "", "Path to canonical run.json")
	cmd.Flags().StringVar(&opts.profile, "profile", "", fmt.Sprintf("Projection profile (%s)", strings.Join(render.Profiles, ", ")))
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Optional output file path (default: sibling file named after the profile)")
	cmd.MarkFlagRequired("run")     //nolint:errcheck
	cmd.MarkFlagRequired("profile") //nolint:errcheck

	return cmd
}

func runRender(cmd *cobra.Command, root *rootFlags, opts renderOptions) error {
	if !render.KnownProfile(opts.profile) {
		return fmt.Errorf("Render: unknown profile '%s' (known: %s)", opts.profile, strings.Join(render.Profiles, ", "))
	}

	projectDir, err := projectRoot(root)
	if err != nil {
		return err
	}

	runPath := opts.runPath
	if !filepath.IsAbs(runPath) {
		runPath = filepath.Join(projectDir, runPath)
	}

	record, err := engine.LoadRun(runPath)
	if err != nil {
		return fmt.Errorf("Render: %w", err)
	}

	outPath := opts.outPath
	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(runPath), render.DefaultFileName(opts.profile))
	} else if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(projectDir, outPath)
	}

	if err := render.WriteFile(record, opts.profile, outPath); err != nil {
		return fmt.Errorf("Render: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s -> %s\n", opts.profile, outPath)
	return nil
}
