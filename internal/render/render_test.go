package render

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/flyberryhq/auditpipe/internal/model"
)

func sampleRun(t *testing.T) *model.CanonicalRun {
	t.Helper()

	run := model.NewCanonicalRun("site-audit", time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	run.Absorb(&model.BlockResult{
		BlockID: "site.a11y@1.0.0",
		CheckResults: []model.CheckResult{
			{
				CheckID: "a11y.img-alt",
				BlockID: "site.a11y@1.0.0",
				Status:  model.StatusFail,
				Metrics: map[string]interface{}{"total_images": 1, "missing_alt": 1},
				Issues: []model.Issue{
					{
						ID:       "a11y.img-alt:1",
						Severity: model.SeverityMajor,
						Location: map[string]string{"selector": "img:nth-of-type(1)"},
					},
				},
			},
		},
	})
	run.Absorb(&model.BlockResult{
		BlockID: "brand.palette@1.0.0",
		CheckResults: []model.CheckResult{
			{
				CheckID: "brand.palette-contrast",
				BlockID: "brand.palette@1.0.0",
				Status:  model.StatusPass,
				Metrics: map[string]interface{}{"pairs_tested": 10, "pairs_failing": 0},
			},
		},
		Meta: map[string]interface{}{
			"palettes": []map[string]interface{}{
				{"name": "default", "colors": []string{"#111111", "#FFFFFF"}},
			},
			"tokens": map[string]interface{}{
				"color": map[string]interface{}{"fb-primary": "#1D3557", "fb-accent": "#E63946"},
			},
		},
	})
	return run
}

func TestUnknownProfileRejected(t *testing.T) {
	t.Parallel()

	_, err := Render(sampleRun(t), "summary.pdf")
	require.Error(t, err)
	require.False(t, KnownProfile("summary.pdf"))
	require.True(t, KnownProfile(ProfileExecCSV))
}

func TestDeveloperJSONRoundTrips(t *testing.T) {
	t.Parallel()

	run := sampleRun(t)
	content, err := Render(run, ProfileDeveloperJSON)
	require.NoError(t, err)

	var decoded model.CanonicalRun
	require.NoError(t, json.Unmarshal(content, &decoded))
	require.Equal(t, run.Run, decoded.Run)
	require.Equal(t, run.RequestedChecks, decoded.RequestedChecks)
	require.Equal(t, run.BlocksUsed, decoded.BlocksUsed)
	require.Len(t, decoded.Results, len(run.Results))
}

func TestRendererDeterminism(t *testing.T) {
	t.Parallel()

	run := sampleRun(t)
	for _, profile := range Profiles {
		first, err := Render(run, profile)
		require.NoError(t, err)
		second, err := Render(run, profile)
		require.NoError(t, err)
		if diff := cmp.Diff(string(first), string(second)); diff != "" {
			t.Fatalf("%s not byte-stable (-first +second):\n%s", profile, diff)
		}
	}
}

func TestExecCSVShape(t *testing.T) {
	t.Parallel()

	run := sampleRun(t)
	content, err := Render(run, ProfileExecCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	require.NoError(t, err)

	// header + one issue row + one empty row for the issue-free result
	require.Len(t, records, 3)
	require.Equal(t, []string{"check_id", "status", "url", "selector", "severity"}, records[0])
	require.Equal(t, []string{"a11y.img-alt", "fail", "", "img:nth-of-type(1)", "major"}, records[1])
	require.Equal(t, []string{"brand.palette-contrast", "pass", "", "", ""}, records[2])
}

func TestExecCSVEscapesSpecialCharacters(t *testing.T) {
	t.Parallel()

	run := model.NewCanonicalRun("demo", time.Now())
	run.Absorb(&model.BlockResult{
		BlockID: "site.links-assets@1.0.0",
		CheckResults: []model.CheckResult{
			{
				CheckID: "links.broken",
				Status:  model.StatusFail,
				Issues: []model.Issue{
					{
						ID:       "links.broken:1",
						Severity: model.SeverityMajor,
						Location: map[string]string{"selector": `a[href="x,y"]`, "url": "https://example.com/?a=1&b=2"},
					},
				},
			},
		},
	})

	content, err := Render(run, ProfileExecCSV)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(content))).ReadAll()
	require.NoError(t, err)
	require.Equal(t, `a[href="x,y"]`, records[1][3])
}

func TestExecCSVRowCountInvariant(t *testing.T) {
	t.Parallel()

	run := sampleRun(t)
	content, err := Render(run, ProfileExecCSV)
	require.NoError(t, err)

	issueCount := 0
	emptyResults := 0
	for _, r := range run.Results {
		if len(r.Issues) == 0 {
			emptyResults++
		}
		issueCount += len(r.Issues)
	}

	lines := strings.Count(string(content), "\n")
	require.Equal(t, issueCount+emptyResults+1, lines)
}

func TestBrandGuideSections(t *testing.T) {
	t.Parallel()

	content, err := Render(sampleRun(t), ProfileBrandGuide)
	require.NoError(t, err)

	html := string(content)
	require.Contains(t, html, "Suite: site-audit")
	require.Contains(t, html, "Run: run_")
	require.Contains(t, html, `style="background:#111111"`)
	require.Contains(t, html, `style="background:#FFFFFF"`)
	require.Contains(t, html, `<span class="token">fb-accent</span>: #E63946`)
	require.Contains(t, html, "<td>a11y.img-alt</td><td>major</td><td>1</td>")
}

func TestBrandGuidePlaceholdersWhenMetaAbsent(t *testing.T) {
	t.Parallel()

	run := model.NewCanonicalRun("bare", time.Now())
	content, err := Render(run, ProfileBrandGuide)
	require.NoError(t, err)

	html := string(content)
	require.Contains(t, html, "<em>No palettes found in run meta.</em>")
	require.Contains(t, html, "<em>No tokens found in run meta.</em>")
	require.Contains(t, html, "<em>No issues</em>")
}

func TestBrandGuideHandlesPinnedRunShapes(t *testing.T) {
	t.Parallel()

	// Round-trip through JSON so meta holds the generic shapes a pinned run has.
	original := sampleRun(t)
	data, err := json.Marshal(original)
	require.NoError(t, err)
	var pinned model.CanonicalRun
	require.NoError(t, json.Unmarshal(data, &pinned))

	content, err := Render(&pinned, ProfileBrandGuide)
	require.NoError(t, err)
	require.Contains(t, string(content), `style="background:#111111"`)
}
