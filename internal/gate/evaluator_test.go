package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flyberryhq/auditpipe/internal/model"
	"github.com/flyberryhq/auditpipe/internal/spec"
)

func runWithIssues(t *testing.T) *model.CanonicalRun {
	t.Helper()

	run := model.NewCanonicalRun("demo", time.Now())
	run.Absorb(&model.BlockResult{
		BlockID: "site.a11y@1.0.0",
		CheckResults: []model.CheckResult{
			{
				CheckID: "a11y.img-alt",
				Status:  model.StatusFail,
				Metrics: map[string]interface{}{"total_images": 1, "missing_alt": 1},
				Issues:  []model.Issue{{ID: "a11y.img-alt:1", Severity: "major"}},
			},
		},
	})
	run.Absorb(&model.BlockResult{
		BlockID: "site.links-assets@1.0.0",
		CheckResults: []model.CheckResult{
			{
				CheckID: "links.broken",
				Status:  model.StatusFail,
				Metrics: map[string]interface{}{"links_total": 2, "links_broken": 1},
				Issues:  []model.Issue{{ID: "links.broken:/missing", Severity: "MAJOR"}},
			},
		},
	})
	return run
}

func TestAggregateCounts(t *testing.T) {
	t.Parallel()

	run := runWithIssues(t)
	counts := AggregateCounts(run.Results)

	require.Equal(t, 2, counts["issues_total"])
	// severity matching is case-insensitive
	require.Equal(t, 2, counts["issues_major"])
	require.Equal(t, 0, counts["issues_critical"])
	require.Equal(t, 0, counts["issues_minor"])
	require.Equal(t, 0, counts["issues_info"])
}

func TestGlobalGateFailure(t *testing.T) {
	t.Parallel()

	run := runWithIssues(t)
	outcome := NewEvaluator(nil).Evaluate(context.Background(), run, []spec.Gate{
		{Type: spec.GateTypeGlobal, Metric: "issues_total", Op: "<=", Value: 0, ValueSet: true},
	})

	require.Equal(t, OverallFail, outcome.Overall)
	require.Len(t, outcome.Results, 1)
	require.Equal(t, StatusFail, outcome.Results[0].Status)
	require.Equal(t, "issues_total <= 0 => 2 [FAIL]", outcome.Results[0].Line)
}

func TestCheckGatePass(t *testing.T) {
	t.Parallel()

	run := runWithIssues(t)
	outcome := NewEvaluator(nil).Evaluate(context.Background(), run, []spec.Gate{
		{Type: spec.GateTypeCheck, CheckID: "links.broken", Metric: "links_broken", Op: "<=", Value: 1, ValueSet: true},
	})

	require.Equal(t, OverallPass, outcome.Overall)
	require.Equal(t, "links.broken.links_broken <= 1 => 1 [PASS]", outcome.Results[0].Line)
}

func TestSkippedGatesDoNotFailOverall(t *testing.T) {
	t.Parallel()

	run := runWithIssues(t)
	gates := []spec.Gate{
		{Type: spec.GateTypeGlobal, Metric: "issues_bogus", Op: "<=", Value: 0, ValueSet: true},
		{Type: spec.GateTypeCheck, CheckID: "absent.check", Metric: "anything", Op: "==", Value: 0, ValueSet: true},
		{Type: spec.GateTypeCheck, CheckID: "links.broken", Metric: "absent_metric", Op: "==", Value: 0, ValueSet: true},
		{Type: spec.GateTypeGlobal, Metric: "issues_total", Op: "~=", Value: 0, ValueSet: true},
		{Type: "suite", Metric: "issues_total", Op: "==", Value: 0, ValueSet: true},
	}

	outcome := NewEvaluator(nil).Evaluate(context.Background(), run, gates)

	require.Equal(t, OverallPass, outcome.Overall)
	for _, res := range outcome.Results {
		require.Equal(t, StatusSkipped, res.Status)
	}
}

func TestEveryGateEvaluatedAfterFailure(t *testing.T) {
	t.Parallel()

	run := runWithIssues(t)
	gates := []spec.Gate{
		{Type: spec.GateTypeGlobal, Metric: "issues_total", Op: "==", Value: 0, ValueSet: true},
		{Type: spec.GateTypeGlobal, Metric: "issues_major", Op: ">=", Value: 2, ValueSet: true},
	}

	outcome := NewEvaluator(nil).Evaluate(context.Background(), run, gates)

	require.Equal(t, OverallFail, outcome.Overall)
	require.Len(t, outcome.Results, 2)
	require.Equal(t, StatusFail, outcome.Results[0].Status)
	require.Equal(t, StatusPass, outcome.Results[1].Status)
}

func TestNoGatesIsVacuousPass(t *testing.T) {
	t.Parallel()

	run := model.NewCanonicalRun("demo", time.Now())
	outcome := NewEvaluator(nil).Evaluate(context.Background(), run, nil)

	require.Equal(t, OverallPass, outcome.Overall)
	require.Empty(t, outcome.Results)
}

func TestOperatorTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		op   string
		lhs  int
		rhs  int
		want bool
	}{
		{"==", 2, 2, true},
		{"==", 2, 3, false},
		{"<", 1, 2, true},
		{"<", 2, 2, false},
		{"<=", 2, 2, true},
		{">", 3, 2, true},
		{">=", 2, 3, false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, compare(float64(tc.lhs), tc.op, float64(tc.rhs)), "%d %s %d", tc.lhs, tc.op, tc.rhs)
	}
}
