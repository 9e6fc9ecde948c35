package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/flyberryhq/auditpipe/internal/block"
	"github.com/flyberryhq/auditpipe/internal/gate"
	"github.com/flyberryhq/auditpipe/internal/logging"
	"github.com/flyberryhq/auditpipe/internal/model"
	"github.com/flyberryhq/auditpipe/internal/render"
	"github.com/flyberryhq/auditpipe/internal/schema"
	"github.com/flyberryhq/auditpipe/internal/spec"
	apperrors "github.com/flyberryhq/auditpipe/pkg/errors"
)

// DefaultSuite is used when a spec omits its suite name at run time;
// validation still flags the omission.
const DefaultSuite = "default-suite"

// Options configures a single pipeline execution.
type Options struct {
	// FromRun pins the execution to a previously persisted canonical run:
	// blocks do not execute and the referenced record is adopted as-is.
	FromRun string
	// Out receives user-facing progress lines. Defaults to os.Stdout.
	Out io.Writer
}

// Outcome reports what a pipeline execution produced.
type Outcome struct {
	Run       *model.CanonicalRun
	Gates     *gate.Outcome
	RunPath   string
	Rendered  []string
	Persisted bool
}

// Runner executes pipelines sequentially and owns the canonical run while it
// is being built. Steps run one at a time in declared order; insertion order
// in the record's ordered sets is the execution order.
type Runner struct {
	registry  *block.Registry
	root      string
	validator *schema.Validator
	gates     *gate.Evaluator
	log       logging.Logger
}

// NewRunner builds a Runner rooted at the project directory.
func NewRunner(registry *block.Registry, projectRoot string, validator *schema.Validator, log logging.Logger) *Runner {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Runner{
		registry:  registry,
		root:      projectRoot,
		validator: validator,
		gates:     gate.NewEvaluator(log.With("component", "gates")),
		log:       log,
	}
}

// Execute loads the spec, runs (or adopts) the pipeline, validates and gates
// the canonical record, persists run.json, and renders requested profiles.
// Block failures are non-fatal; after the steps have run, only a strict
// schema violation or a failure to write run.json is returned as an error.
func (r *Runner) Execute(ctx context.Context, specPath string, opts Options) (*Outcome, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	absSpec := specPath
	if !filepath.IsAbs(absSpec) {
		absSpec = filepath.Join(r.root, specPath)
	}

	s, err := spec.Load(absSpec)
	if err != nil {
		return nil, err
	}

	suite := s.Suite
	if suite == "" {
		suite = DefaultSuite
	}

	fmt.Fprintf(out, "Loaded suite: '%s'\n", suite)
	if s.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", s.Description)
	}

	runsDir := filepath.Join(r.root, "product", "runs", suite)
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return nil, err
	}

	outcome := &Outcome{}

	if opts.FromRun != "" {
		record, err := LoadRun(r.resolvePath(opts.FromRun))
		if err != nil {
			return nil, err
		}
		outcome.Run = record
		r.log.Info(ctx, "adopted pinned run", "from_run", opts.FromRun, "results", len(record.Results))
	} else {
		if len(s.Pipeline) == 0 {
			fmt.Fprintln(out, "Warning: Spec file contains an empty pipeline. Nothing to run.")
			outcome.Run = model.NewCanonicalRun(suite, time.Now())
			return outcome, nil
		}
		outcome.Run = r.runPipeline(ctx, s, suite, out)
	}

	record := outcome.Run
	if len(record.Results) == 0 {
		// No structured results: nothing to validate, gate, or persist.
		return outcome, nil
	}

	if err := r.validator.Validate(ctx, record); err != nil {
		return nil, err
	}

	outcome.Gates = r.gates.Evaluate(ctx, record, s.Gates)
	if len(outcome.Gates.Results) > 0 {
		fmt.Fprintln(out, "\nReadiness Gates:")
		for _, res := range outcome.Gates.Results {
			fmt.Fprintf(out, "  - %s\n", res.Line)
		}
	}
	record.Meta["overall_gate_status"] = outcome.Gates.Overall

	runPath := filepath.Join(runsDir, "run.json")
	if err := writeRunJSON(runPath, record); err != nil {
		return nil, err
	}
	outcome.RunPath = runPath
	outcome.Persisted = true
	fmt.Fprintf(out, "\nCanonical run JSON written: %s\n", runPath)

	for _, profile := range s.Output.Profiles {
		outPath := filepath.Join(runsDir, render.DefaultFileName(profile))
		if err := render.WriteFile(record, profile, outPath); err != nil {
			r.log.Warn(ctx, "failed to render profile", "profile", profile, "error", err)
			continue
		}
		outcome.Rendered = append(outcome.Rendered, outPath)
		fmt.Fprintf(out, "  Rendered: %s\n", outPath)
	}

	return outcome, nil
}

// runPipeline iterates the steps one at a time. A step whose block cannot be
// resolved, or whose execution fails, contributes nothing and the pipeline
// continues. Declared outputs of a silent block are not verified.
func (r *Runner) runPipeline(ctx context.Context, s *spec.Spec, suite string, out io.Writer) *model.CanonicalRun {
	record := model.NewCanonicalRun(suite, time.Now())
	total := len(s.Pipeline)

	for i, step := range s.Pipeline {
		stepName := step.EffectiveName(i)
		fmt.Fprintf(out, "\n[%d/%d] Running Block: '%s' (Step: '%s')\n", i+1, total, step.Block, stepName)
		if step.Description != "" {
			fmt.Fprintf(out, "  Description: %s\n", step.Description)
		}

		if step.Block == "" {
			fmt.Fprintln(out, "  Error: 'block' not defined for this step. Skipping.")
			continue
		}

		impl, err := r.registry.Resolve(step.Block)
		if err != nil {
			fmt.Fprintf(out, "  Error: %v\n", err)
			r.log.Error(ctx, "block resolution failed", "block", step.Block, "error", err)
			continue
		}

		result, err := r.invoke(ctx, impl, r.resolvePaths(step.Inputs), r.resolvePaths(step.Outputs))
		if err != nil {
			fmt.Fprintf(out, "  Error: An exception occurred while running block '%s': %v\n", step.Block, err)
			r.log.Error(ctx, "block execution failed", "block", step.Block, "error", err)
			continue
		}

		fmt.Fprintf(out, "  Block '%s' executed successfully.\n", step.Block)
		for _, output := range step.Outputs {
			fmt.Fprintf(out, "  -> Created output: %s\n", output)
		}

		record.Absorb(result)
	}

	return record
}

// invoke shields the pipeline from a panicking block.
func (r *Runner) invoke(ctx context.Context, impl block.Block, inputs, outputs []string) (result *model.BlockResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = apperrors.NewBlockError(impl.ID(), fmt.Errorf("panic: %v", rec))
		}
	}()

	result, err = impl.Run(ctx, inputs, outputs)
	if err != nil {
		return nil, apperrors.NewBlockError(impl.ID(), err)
	}
	return result, nil
}

// resolvePaths anchors declared paths at the project root. Glob patterns are
// joined but never expanded; the block resolves them.
func (r *Runner) resolvePaths(paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		resolved[i] = r.resolvePath(p)
	}
	return resolved
}

func (r *Runner) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.root, p)
}

// LoadRun reads a persisted canonical run record.
func LoadRun(path string) (*model.CanonicalRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(path, err)
		}
		return nil, err
	}

	var record model.CanonicalRun
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, apperrors.NewParseError(path, 0, err)
	}
	if record.Meta == nil {
		record.Meta = map[string]interface{}{}
	}
	return &record, nil
}

func writeRunJSON(path string, record *model.CanonicalRun) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
