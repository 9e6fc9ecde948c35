package spec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	playground "github.com/go-playground/validator/v10"

	"github.com/flyberryhq/auditpipe/internal/block"
	"github.com/flyberryhq/auditpipe/internal/logging"
	apperrors "github.com/flyberryhq/auditpipe/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *playground.Validate

	gateTypes = map[string]struct{}{GateTypeGlobal: {}, GateTypeCheck: {}}
)

func validatorInstance() *playground.Validate {
	validatorOnce.Do(func() {
		v := playground.New()

		_ = v.RegisterValidation("gate_op", func(fl playground.FieldLevel) bool {
			op := fl.Field().String()
			for _, allowed := range GateOps {
				if op == allowed {
					return true
				}
			}
			return false
		})

		_ = v.RegisterValidation("output_profile", func(fl playground.FieldLevel) bool {
			profile := fl.Field().String()
			for _, known := range KnownProfiles {
				if profile == known {
					return true
				}
			}
			return false
		})

		validateInst = v
	})

	return validateInst
}

// Report is the structured validation result for a single spec document.
// Errors carry their location prefix (step[i]:, gates[i]:, output.profiles:).
type Report struct {
	Path         string   `json:"path"`
	AbsolutePath string   `json:"absolute_path"`
	Valid        bool     `json:"valid"`
	Errors       []string `json:"errors"`
	Suite        string   `json:"suite"`
	Blocks       []string `json:"blocks"`
	Gates        int      `json:"gates"`
	Profiles     []string `json:"profiles"`
	Steps        int      `json:"steps"`
	Inputs       int      `json:"inputs"`
	Outputs      int      `json:"outputs"`
}

// Summary aggregates reports when the spec path is a glob pattern.
type Summary struct {
	Valid        bool     `json:"valid"`
	TotalSpecs   int      `json:"total_specs"`
	ValidSpecs   int      `json:"valid_specs"`
	InvalidSpecs int      `json:"invalid_specs"`
	Specs        []Report `json:"specs"`
}

// Validator shape-checks specs and resolves their block and path references.
// Errors are values aggregated into the report; nothing raises through.
type Validator struct {
	registry *block.Registry
	root     string
	log      logging.Logger
}

// NewValidator builds a Validator rooted at the given project directory.
func NewValidator(registry *block.Registry, projectRoot string, log logging.Logger) *Validator {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Validator{registry: registry, root: projectRoot, log: log}
}

// ValidateFile loads and validates one spec document.
func (v *Validator) ValidateFile(ctx context.Context, path string) Report {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(v.root, path)
	}

	report := Report{
		Path:         relToRoot(v.root, abs),
		AbsolutePath: abs,
		Valid:        true,
		Errors:       []string{},
		Blocks:       []string{},
		Profiles:     []string{},
	}

	s, err := Load(abs)
	if err != nil {
		report.Valid = false
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to parse YAML: %v", err))
		return report
	}

	v.validateInto(ctx, s, &report)
	return report
}

// ValidateGlob validates every spec matching the pattern and returns the
// aggregate summary. A non-glob path validates a single file. No matches is
// an error rather than a vacuously valid summary.
func (v *Validator) ValidateGlob(ctx context.Context, pattern string) (*Summary, error) {
	var paths []string

	if IsGlobPattern(pattern) {
		abs := pattern
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(v.root, pattern)
		}
		matches, err := doublestar.FilepathGlob(abs)
		if err != nil {
			return nil, apperrors.NewParseError(pattern, 0, err)
		}
		if len(matches) == 0 {
			return nil, apperrors.NewNotFoundError(pattern, fmt.Errorf("no specs matched pattern"))
		}
		paths = matches
	} else {
		abs := pattern
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(v.root, pattern)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, apperrors.NewNotFoundError(pattern, err)
		}
		paths = []string{abs}
	}

	summary := &Summary{Valid: true, Specs: make([]Report, 0, len(paths))}
	for _, path := range paths {
		report := v.ValidateFile(ctx, path)
		summary.Specs = append(summary.Specs, report)
		summary.TotalSpecs++
		if report.Valid {
			summary.ValidSpecs++
		} else {
			summary.InvalidSpecs++
			summary.Valid = false
		}
	}

	v.log.Debug(ctx, "spec validation finished",
		"total", summary.TotalSpecs, "invalid", summary.InvalidSpecs)
	return summary, nil
}

func (v *Validator) validateInto(ctx context.Context, s *Spec, report *Report) {
	fail := func(msg string) {
		report.Errors = append(report.Errors, msg)
		report.Valid = false
	}

	if strings.TrimSpace(s.Suite) == "" {
		fail("missing: suite")
	} else {
		report.Suite = s.Suite
	}

	if !s.PipelinePresent {
		fail("missing: pipeline[] (must be an array)")
	} else {
		report.Steps = len(s.Pipeline)
	}

	for i, step := range s.Pipeline {
		if strings.TrimSpace(step.Block) == "" {
			fail(fmt.Sprintf("step[%d]: missing 'block' field", i))
			continue
		}

		report.Blocks = append(report.Blocks, step.Block)

		if _, err := v.registry.Resolve(step.Block); err != nil {
			fail(fmt.Sprintf("step[%d]: %v", i, err))
		}

		report.Inputs += len(step.Inputs)
		for _, input := range step.Inputs {
			// Glob patterns are accepted unconditionally and resolved by the block.
			if IsGlobPattern(input) {
				continue
			}
			p := input
			if !filepath.IsAbs(p) {
				p = filepath.Join(v.root, input)
			}
			if _, err := os.Stat(p); err != nil {
				fail(fmt.Sprintf("step[%d]: input path missing -> %s", i, input))
			}
		}

		report.Outputs += len(step.Outputs)
	}

	report.Profiles = s.Output.Profiles
	if report.Profiles == nil {
		report.Profiles = []string{}
	}
	inst := validatorInstance()
	for _, profile := range s.Output.Profiles {
		if err := inst.Var(profile, "output_profile"); err != nil {
			fail(fmt.Sprintf("output.profiles: unknown profile '%s' (known: %s)", profile, strings.Join(KnownProfiles, ", ")))
		}
	}

	report.Gates = len(s.Gates)
	for i, gate := range s.Gates {
		for _, msg := range validateGate(gate, i) {
			fail(msg)
		}
	}

	v.log.Debug(ctx, "spec validated",
		"path", report.Path, "valid", report.Valid, "errors", len(report.Errors))
}

func validateGate(g Gate, index int) []string {
	var msgs []string
	inst := validatorInstance()

	if _, ok := gateTypes[g.Type]; !ok {
		msgs = append(msgs, fmt.Sprintf("gates[%d]: unknown type '%s' (must be 'global' or 'check')", index, g.Type))
	}
	if err := inst.Var(g.Op, "required,gate_op"); err != nil {
		msgs = append(msgs, fmt.Sprintf("gates[%d]: invalid or missing 'op' (must be %s)", index, strings.Join(GateOps, ", ")))
	}
	if !g.ValueSet {
		msgs = append(msgs, fmt.Sprintf("gates[%d]: missing 'value'", index))
	}
	if g.Type == GateTypeGlobal && strings.TrimSpace(g.Metric) == "" {
		msgs = append(msgs, fmt.Sprintf("gates[%d]: global gate missing 'metric'", index))
	}
	if g.Type == GateTypeCheck && (strings.TrimSpace(g.CheckID) == "" || strings.TrimSpace(g.Metric) == "") {
		msgs = append(msgs, fmt.Sprintf("gates[%d]: check gate missing 'check_id' or 'metric'", index))
	}

	return msgs
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
