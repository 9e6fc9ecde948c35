package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewCanonicalRun(t *testing.T) {
	t.Parallel()

	started := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	run := NewCanonicalRun("site-audit", started)

	require.Equal(t, "run_1741944413", run.Run.ID)
	require.Equal(t, "site-audit", run.Run.Suite)
	require.Equal(t, "2025-03-14T09:26:53.000000Z", run.Run.StartedAt)
	require.Equal(t, SchemaVersion, run.Run.SchemaVersion)
	require.Empty(t, run.Results)
	require.NotNil(t, run.Meta)
}

func TestAbsorbAggregatesInExecutionOrder(t *testing.T) {
	t.Parallel()

	run := NewCanonicalRun("demo", time.Now())

	run.Absorb(&BlockResult{
		BlockID: "site.a11y@1.0.0",
		CheckResults: []CheckResult{
			{CheckID: "a11y.img-alt", BlockID: "site.a11y@1.0.0", Status: StatusFail},
		},
		Meta: map[string]interface{}{"source": "fixtures/home.html"},
	})
	run.Absorb(&BlockResult{
		BlockID: "site.links-assets@1.0.0",
		CheckResults: []CheckResult{
			{CheckID: "links.broken", BlockID: "site.links-assets@1.0.0", Status: StatusFail},
		},
		Meta: map[string]interface{}{"source": "fixtures/links.json"},
	})

	require.Equal(t, []string{"a11y.img-alt", "links.broken"}, run.RequestedChecks)
	require.Equal(t, []string{"site.a11y@1.0.0", "site.links-assets@1.0.0"}, run.BlocksUsed)
	require.Len(t, run.Results, 2)
	// last-write-wins meta merge
	require.Equal(t, "fixtures/links.json", run.Meta["source"])
}

func TestAbsorbDeduplicatesOrderedSets(t *testing.T) {
	t.Parallel()

	run := NewCanonicalRun("demo", time.Now())

	for i := 0; i < 3; i++ {
		run.Absorb(&BlockResult{
			BlockID: "brand.palette@1.0.0",
			CheckResults: []CheckResult{
				{CheckID: "brand.palette-contrast", Status: StatusPass},
			},
		})
	}

	require.Equal(t, []string{"brand.palette-contrast"}, run.RequestedChecks)
	require.Equal(t, []string{"brand.palette@1.0.0"}, run.BlocksUsed)
	require.Len(t, run.Results, 3)

	distinct := make(map[string]struct{})
	for _, res := range run.Results {
		distinct[res.CheckID] = struct{}{}
	}
	require.Len(t, run.RequestedChecks, len(distinct))
}

func TestAbsorbIgnoresNilAndEmptyIdentifiers(t *testing.T) {
	t.Parallel()

	run := NewCanonicalRun("demo", time.Now())
	run.Absorb(nil)
	run.Absorb(&BlockResult{CheckResults: []CheckResult{{Status: StatusPass}}})

	require.Empty(t, run.RequestedChecks)
	require.Empty(t, run.BlocksUsed)
	require.Len(t, run.Results, 1)
}

func TestResultByCheckID(t *testing.T) {
	t.Parallel()

	run := NewCanonicalRun("demo", time.Now())
	run.Absorb(&BlockResult{
		BlockID: "brand.tokens@1.0.0",
		CheckResults: []CheckResult{
			{CheckID: "brand.tokens-naming", Status: StatusFail, Metrics: map[string]interface{}{"tokens_bad": 1}},
		},
	})

	found := run.ResultByCheckID("brand.tokens-naming")
	require.NotNil(t, found)
	require.Equal(t, StatusFail, found.Status)
	require.Nil(t, run.ResultByCheckID("missing.check"))
}
