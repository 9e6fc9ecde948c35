package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/flyberryhq/auditpipe/internal/engine"
	"github.com/flyberryhq/auditpipe/internal/schema"
)

type runOptions struct {
	specPath       string
	fromRun        string
	noValidate     bool
	strictValidate bool
	watch          bool
	interval       float64
}

func newRunCmd(app *AppContext, root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an audit pipeline spec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, app, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.specPath, "spec", "", "Path to the pipeline spec YAML file")
	cmd.Flags().StringVar(&opts.fromRun, "from-run", "", "Path to a prior canonical run.json (artifact pinning)")
	cmd.Flags().BoolVar(&opts.noValidate, "no-validate", false, "Skip JSON schema validation of run output")
	cmd.Flags().BoolVar(&opts.strictValidate, "strict-validate", false, "Enable strict schema validation (fail on violation)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Watch spec and inputs for changes and re-run")
	cmd.Flags().Float64Var(&opts.interval, "interval", 0, "Watch polling interval in seconds (0 uses filesystem notifications)")
	cmd.MarkFlagRequired("spec") //nolint:errcheck

	return cmd
}

func runRun(cmd *cobra.Command, app *AppContext, root *rootFlags, opts runOptions) error {
	if opts.noValidate && opts.strictValidate {
		return fmt.Errorf("--no-validate and --strict-validate are mutually exclusive")
	}

	projectDir, err := projectRoot(root)
	if err != nil {
		return err
	}

	mode := schema.ModeSoft
	switch {
	case opts.noValidate:
		mode = schema.ModeOff
	case opts.strictValidate:
		mode = schema.ModeStrict
	}

	appLog := loggerFor(app, root)
	log := appLog.With("component", "runner")
	validator := schema.NewValidator(projectDir, mode, appLog.With("component", "schema"))
	runner := engine.NewRunner(app.Registry, projectDir, validator, log)

	execOpts := engine.Options{
		FromRun: opts.fromRun,
		Out:     cmd.OutOrStdout(),
	}

	if opts.watch {
		interval := time.Duration(opts.interval * float64(time.Second))
		watcher := engine.NewWatcher(runner, projectDir, opts.specPath, execOpts, interval, appLog.With("component", "watcher"))
		fmt.Fprintln(cmd.OutOrStdout(), "Watch mode enabled. Press Ctrl+C to stop.")
		if err := watcher.Watch(cmd.Context()); err != nil && !isCancellation(err) {
			return fmt.Errorf("Run: %w", err)
		}
		return nil
	}

	outcome, err := runner.Execute(cmd.Context(), opts.specPath, execOpts)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	if outcome.Gates != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Overall gate status: %s\n", strings.ToUpper(outcome.Gates.Overall))
	}
	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
