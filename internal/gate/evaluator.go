package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/flyberryhq/auditpipe/internal/logging"
	"github.com/flyberryhq/auditpipe/internal/model"
	"github.com/flyberryhq/auditpipe/internal/spec"
)

const (
	// StatusPass marks a gate whose comparison held.
	StatusPass = "pass"
	// StatusFail marks a gate whose comparison did not hold.
	StatusFail = "fail"
	// StatusSkipped marks a gate that could not be evaluated; skipped gates
	// do not affect the overall status.
	StatusSkipped = "skipped"

	// OverallPass is the vacuous default when no gate applies.
	OverallPass = "pass"
	OverallFail = "fail"
)

// Counts holds the aggregated global metrics computed once per run.
type Counts map[string]int

// AggregateCounts sums issue totals and per-severity counts across all check
// results. Severity matching is case-insensitive; unrecognized severities
// count toward issues_total only.
func AggregateCounts(results []model.CheckResult) Counts {
	counts := Counts{
		"issues_total":    0,
		"issues_critical": 0,
		"issues_major":    0,
		"issues_minor":    0,
		"issues_info":     0,
	}
	for _, r := range results {
		for _, issue := range r.Issues {
			counts["issues_total"]++
			sev := strings.ToLower(issue.Severity)
			switch sev {
			case model.SeverityCritical, model.SeverityMajor, model.SeverityMinor, model.SeverityInfo:
				counts["issues_"+sev]++
			}
		}
	}
	return counts
}

// Result reports the evaluation of one gate. Line is the human-readable
// rendering with the left-hand value and PASS/FAIL status.
type Result struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Line   string `json:"line"`
}

// Outcome is the evaluation of every declared gate plus the overall status:
// pass iff each evaluated (non-skipped) gate passed, pass by convention when
// none applied.
type Outcome struct {
	Results []Result `json:"results"`
	Overall string   `json:"overall"`
}

// Evaluator evaluates gate predicates against a finalized canonical run.
type Evaluator struct {
	log logging.Logger
}

// NewEvaluator builds a gate evaluator.
func NewEvaluator(log logging.Logger) *Evaluator {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Evaluator{log: log}
}

// Evaluate runs every gate in order. Evaluation never stops early; a failed
// gate still leaves the remaining gates with their own verdict lines.
func (e *Evaluator) Evaluate(ctx context.Context, run *model.CanonicalRun, gates []spec.Gate) *Outcome {
	outcome := &Outcome{Results: []Result{}, Overall: OverallPass}
	if len(gates) == 0 {
		return outcome
	}

	counts := AggregateCounts(run.Results)

	for i, g := range gates {
		res := e.evaluateGate(ctx, run, counts, g, i)
		outcome.Results = append(outcome.Results, res)
		if res.Status == StatusFail {
			outcome.Overall = OverallFail
		}
	}

	return outcome
}

func (e *Evaluator) evaluateGate(ctx context.Context, run *model.CanonicalRun, counts Counts, g spec.Gate, index int) Result {
	if !validOp(g.Op) {
		return e.skip(ctx, index, fmt.Sprintf("Skipped invalid gate op: '%s'", g.Op))
	}

	switch g.Type {
	case spec.GateTypeGlobal:
		lhs, ok := counts[g.Metric]
		if !ok {
			return e.skip(ctx, index, fmt.Sprintf("Skipped unknown global metric: %s", g.Metric))
		}
		ok = compare(float64(lhs), g.Op, float64(g.Value))
		return Result{
			Index:  index,
			Status: passFail(ok),
			Line:   fmt.Sprintf("%s %s %d => %d [%s]", g.Metric, g.Op, g.Value, lhs, strings.ToUpper(passFail(ok))),
		}

	case spec.GateTypeCheck:
		r := run.ResultByCheckID(g.CheckID)
		if r == nil || r.Metrics == nil {
			return e.skip(ctx, index, fmt.Sprintf("Skipped check gate (missing): %s.%s", g.CheckID, g.Metric))
		}
		raw, ok := r.Metrics[g.Metric]
		if !ok {
			return e.skip(ctx, index, fmt.Sprintf("Skipped check gate (missing): %s.%s", g.CheckID, g.Metric))
		}
		lhs, ok := toFloat(raw)
		if !ok {
			return e.skip(ctx, index, fmt.Sprintf("Skipped check gate (non-numeric metric): %s.%s", g.CheckID, g.Metric))
		}
		pass := compare(lhs, g.Op, float64(g.Value))
		return Result{
			Index:  index,
			Status: passFail(pass),
			Line:   fmt.Sprintf("%s.%s %s %d => %s [%s]", g.CheckID, g.Metric, g.Op, g.Value, formatNumber(lhs), strings.ToUpper(passFail(pass))),
		}

	default:
		return e.skip(ctx, index, fmt.Sprintf("Skipped unknown gate type: %s", g.Type))
	}
}

func (e *Evaluator) skip(ctx context.Context, index int, reason string) Result {
	e.log.Warn(ctx, reason, "gate", index)
	return Result{Index: index, Status: StatusSkipped, Line: reason}
}

func validOp(op string) bool {
	for _, allowed := range spec.GateOps {
		if op == allowed {
			return true
		}
	}
	return false
}

func compare(lhs float64, op string, rhs float64) bool {
	switch op {
	case "==":
		return lhs == rhs
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	}
	return false
}

func passFail(ok bool) string {
	if ok {
		return StatusPass
	}
	return StatusFail
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
