package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flyberryhq/auditpipe/internal/block"
	"github.com/flyberryhq/auditpipe/internal/logging"
	"github.com/flyberryhq/auditpipe/internal/spec"
)

// InputStatus classifies a declared input path without touching block logic.
const (
	InputExists      = "exists"
	InputGlobPattern = "glob_pattern"
	InputMissing     = "missing"

	ModuleOK      = "ok"
	ModuleMissing = "missing"
)

// InputPlan reports one declared input and its existence classification.
type InputPlan struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// StepPlan is the dry-run report for a single pipeline step.
type StepPlan struct {
	Index        int         `json:"index"`
	Name         string      `json:"name"`
	Block        string      `json:"block"`
	Description  string      `json:"description"`
	ModuleStatus string      `json:"module_status"`
	ModuleError  string      `json:"module_error,omitempty"`
	Inputs       []InputPlan `json:"inputs"`
	Outputs      []string    `json:"outputs"`
}

// GateInfo echoes a declared gate for plan output.
type GateInfo struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	CheckID string `json:"check_id,omitempty"`
	Metric  string `json:"metric,omitempty"`
	Op      string `json:"op,omitempty"`
	Value   int    `json:"value"`
}

// Summary aggregates counts across the whole plan.
type Summary struct {
	TotalSteps      int      `json:"total_steps"`
	TotalInputs     int      `json:"total_inputs"`
	TotalOutputs    int      `json:"total_outputs"`
	BlocksResolved  []string `json:"blocks_resolved"`
	BlocksMissing   []string `json:"blocks_missing"`
	Gates           int      `json:"gates"`
	Profiles        []string `json:"profiles"`
	UnknownProfiles []string `json:"unknown_profiles"`
}

// Plan is the full dry-run analysis of a spec. It is executable iff no
// missing blocks, no missing non-glob inputs, and no unknown profiles exist.
type Plan struct {
	Executable  bool       `json:"executable"`
	Error       string     `json:"error,omitempty"`
	SpecPath    string     `json:"spec_path"`
	Suite       string     `json:"suite,omitempty"`
	Description string     `json:"description,omitempty"`
	Steps       []StepPlan `json:"steps"`
	Summary     Summary    `json:"summary"`
	Gates       []GateInfo `json:"gates"`
	Issues      []string   `json:"issues"`
}

// Planner produces dry-run plans without executing any block.
type Planner struct {
	registry *block.Registry
	root     string
	log      logging.Logger
}

// NewPlanner builds a Planner rooted at the given project directory.
func NewPlanner(registry *block.Registry, projectRoot string, log logging.Logger) *Planner {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Planner{registry: registry, root: projectRoot, log: log}
}

// Generate loads the spec at path and analyses it step by step.
func (p *Planner) Generate(ctx context.Context, specPath string) *Plan {
	abs := specPath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(p.root, specPath)
	}

	plan := &Plan{
		Executable: true,
		SpecPath:   relToRoot(p.root, abs),
		Steps:      []StepPlan{},
		Gates:      []GateInfo{},
		Issues:     []string{},
		Summary: Summary{
			BlocksResolved:  []string{},
			BlocksMissing:   []string{},
			Profiles:        []string{},
			UnknownProfiles: []string{},
		},
	}

	s, err := spec.Load(abs)
	if err != nil {
		plan.Executable = false
		plan.Error = fmt.Sprintf("Failed to parse spec YAML: %v", err)
		return plan
	}

	plan.Suite = s.Suite
	if plan.Suite == "" {
		plan.Suite = "default"
	}
	plan.Description = s.Description
	if plan.Description == "" {
		plan.Description = "N/A"
	}

	plan.Summary.TotalSteps = len(s.Pipeline)
	plan.Summary.Gates = len(s.Gates)
	if s.Output.Profiles != nil {
		plan.Summary.Profiles = s.Output.Profiles
	}

	if len(s.Pipeline) == 0 {
		// Not an error, just a warning.
		plan.Issues = append(plan.Issues, "Empty pipeline. Nothing to execute.")
		return plan
	}

	for i, step := range s.Pipeline {
		stepPlan := StepPlan{
			Index:        i + 1,
			Name:         step.EffectiveName(i),
			Block:        step.Block,
			Description:  step.Description,
			ModuleStatus: ModuleOK,
			Inputs:       []InputPlan{},
			Outputs:      append([]string{}, step.Outputs...),
		}

		plan.Summary.TotalInputs += len(step.Inputs)
		plan.Summary.TotalOutputs += len(step.Outputs)

		if _, err := p.registry.Resolve(step.Block); err != nil {
			stepPlan.ModuleStatus = ModuleMissing
			stepPlan.ModuleError = err.Error()
			plan.Summary.BlocksMissing = append(plan.Summary.BlocksMissing, step.Block)
			plan.Issues = append(plan.Issues, fmt.Sprintf("Step[%d]: %v", i, err))
			plan.Executable = false
		} else {
			plan.Summary.BlocksResolved = append(plan.Summary.BlocksResolved, step.Block)
		}

		for _, input := range step.Inputs {
			inputPlan := InputPlan{Path: input}
			switch {
			case spec.IsGlobPattern(input):
				inputPlan.Status = InputGlobPattern
			case pathExists(p.root, input):
				inputPlan.Status = InputExists
			default:
				inputPlan.Status = InputMissing
				plan.Issues = append(plan.Issues, fmt.Sprintf("Step[%d]: input path missing -> %s", i, input))
				plan.Executable = false
			}
			stepPlan.Inputs = append(stepPlan.Inputs, inputPlan)
		}

		plan.Steps = append(plan.Steps, stepPlan)
	}

	for i, gate := range s.Gates {
		info := GateInfo{Index: i + 1, Type: gate.Type, Metric: gate.Metric, Op: gate.Op, Value: gate.Value}
		if gate.Type == spec.GateTypeCheck {
			info.CheckID = gate.CheckID
		}
		plan.Gates = append(plan.Gates, info)
	}

	var unknown []string
	for _, profile := range s.Output.Profiles {
		if !knownProfile(profile) {
			unknown = append(unknown, profile)
		}
	}
	if len(unknown) > 0 {
		plan.Summary.UnknownProfiles = unknown
		plan.Issues = append(plan.Issues, fmt.Sprintf("Unknown profiles: %s", strings.Join(unknown, ", ")))
		plan.Executable = false
	}

	p.log.Debug(ctx, "plan generated",
		"spec", plan.SpecPath, "steps", plan.Summary.TotalSteps, "executable", plan.Executable)
	return plan
}

func knownProfile(profile string) bool {
	for _, known := range spec.KnownProfiles {
		if profile == known {
			return true
		}
	}
	return false
}

func pathExists(root, path string) bool {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, path)
	}
	_, err := os.Stat(p)
	return err == nil
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
