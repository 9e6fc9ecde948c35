package spec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flyberryhq/auditpipe/internal/block"
	"github.com/flyberryhq/auditpipe/internal/model"
)

type noopBlock struct{ id string }

func (b *noopBlock) ID() string { return b.id }

func (b *noopBlock) Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error) {
	return nil, nil
}

func testRegistry(t *testing.T) *block.Registry {
	t.Helper()

	reg := block.NewRegistry()
	require.NoError(t, reg.Register("site.a11y", &noopBlock{id: "site.a11y@1.0.0"}))
	require.NoError(t, reg.Register("site.links-assets", &noopBlock{id: "site.links-assets@1.0.0"}))
	require.NoError(t, reg.Register("brand.palette", &noopBlock{id: "brand.palette@1.0.0"}))
	return reg
}

func writeProjectSpec(t *testing.T, root, name, contents string) string {
	t.Helper()

	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestValidateFileHappyPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fixtures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "fixtures", "home.html"), []byte("<html></html>"), 0o600))

	writeProjectSpec(t, root, "specs/site.yaml", `suite: site-audit
pipeline:
  - name: scan
    block: site.a11y
    inputs: ["fixtures/home.html", "fixtures/pages/*.html"]
    outputs: ["product/a11y.json"]
gates:
  - metric: issues_total
    op: "<="
    value: 0
output:
  profiles: ["developer.json", "exec.csv", "brand-guide.html"]
`)

	v := NewValidator(testRegistry(t), root, nil)
	report := v.ValidateFile(context.Background(), "specs/site.yaml")

	require.True(t, report.Valid, "errors: %v", report.Errors)
	require.Empty(t, report.Errors)
	require.Equal(t, "site-audit", report.Suite)
	require.Equal(t, []string{"site.a11y"}, report.Blocks)
	require.Equal(t, 1, report.Steps)
	require.Equal(t, 2, report.Inputs)
	require.Equal(t, 1, report.Outputs)
	require.Equal(t, 1, report.Gates)
	require.Equal(t, []string{"developer.json", "exec.csv", "brand-guide.html"}, report.Profiles)
}

func TestValidateFileRules(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		contents string
		wantErrs []string
	}{
		{
			name:     "missing suite and pipeline",
			contents: "description: no essentials\n",
			wantErrs: []string{"missing: suite", "missing: pipeline[] (must be an array)"},
		},
		{
			name:     "step without block",
			contents: "suite: s\npipeline:\n  - name: empty\n",
			wantErrs: []string{"step[0]: missing 'block' field"},
		},
		{
			name:     "unresolvable block",
			contents: "suite: s\npipeline:\n  - block: site.perf\n",
			wantErrs: []string{"step[0]: cannot import blocks.site.perf.main"},
		},
		{
			name:     "missing non-glob input",
			contents: "suite: s\npipeline:\n  - block: site.a11y\n    inputs: [\"fixtures/absent.html\"]\n",
			wantErrs: []string{"step[0]: input path missing -> fixtures/absent.html"},
		},
		{
			name:     "glob inputs accepted unconditionally",
			contents: "suite: s\npipeline:\n  - block: site.a11y\n    inputs: [\"fixtures/never/*.html\"]\n",
			wantErrs: nil,
		},
		{
			name:     "unknown profile",
			contents: "suite: s\npipeline: []\noutput:\n  profiles: [\"summary.pdf\"]\n",
			wantErrs: []string{"output.profiles: unknown profile 'summary.pdf' (known: developer.json, exec.csv, brand-guide.html)"},
		},
		{
			name:     "bad gate type and op",
			contents: "suite: s\npipeline: []\ngates:\n  - type: suite\n    op: \"~=\"\n    metric: issues_total\n    value: 0\n",
			wantErrs: []string{"gates[0]: unknown type 'suite' (must be 'global' or 'check')", "gates[0]: invalid or missing 'op'"},
		},
		{
			name:     "gate missing value",
			contents: "suite: s\npipeline: []\ngates:\n  - metric: issues_total\n    op: \"<=\"\n",
			wantErrs: []string{"gates[0]: missing 'value'"},
		},
		{
			name:     "global gate missing metric",
			contents: "suite: s\npipeline: []\ngates:\n  - op: \"<=\"\n    value: 0\n",
			wantErrs: []string{"gates[0]: global gate missing 'metric'"},
		},
		{
			name:     "check gate missing check_id",
			contents: "suite: s\npipeline: []\ngates:\n  - type: check\n    metric: missing_alt\n    op: \"==\"\n    value: 0\n",
			wantErrs: []string{"gates[0]: check gate missing 'check_id' or 'metric'"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeProjectSpec(t, root, "spec.yaml", tc.contents)

			v := NewValidator(testRegistry(t), root, nil)
			report := v.ValidateFile(context.Background(), "spec.yaml")

			if len(tc.wantErrs) == 0 {
				require.True(t, report.Valid, "errors: %v", report.Errors)
				return
			}

			require.False(t, report.Valid)
			for _, want := range tc.wantErrs {
				found := false
				for _, got := range report.Errors {
					if len(got) >= len(want) && got[:len(want)] == want {
						found = true
						break
					}
				}
				require.True(t, found, "expected error %q in %v", want, report.Errors)
			}
		})
	}
}

func TestValidateFileParseFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProjectSpec(t, root, "broken.yaml", "suite: [unterminated\n")

	v := NewValidator(testRegistry(t), root, nil)
	report := v.ValidateFile(context.Background(), "broken.yaml")

	require.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	require.Contains(t, report.Errors[0], "Failed to parse YAML")
}

func TestValidateGlobFanOut(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProjectSpec(t, root, "specs/good.yaml", "suite: good\npipeline: []\n")
	writeProjectSpec(t, root, "specs/bad.yaml", "description: nope\n")

	v := NewValidator(testRegistry(t), root, nil)
	summary, err := v.ValidateGlob(context.Background(), "specs/*.yaml")
	require.NoError(t, err)

	require.False(t, summary.Valid)
	require.Equal(t, 2, summary.TotalSpecs)
	require.Equal(t, 1, summary.ValidSpecs)
	require.Equal(t, 1, summary.InvalidSpecs)
	require.Len(t, summary.Specs, 2)
}

func TestValidateGlobNoMatches(t *testing.T) {
	t.Parallel()

	v := NewValidator(testRegistry(t), t.TempDir(), nil)
	_, err := v.ValidateGlob(context.Background(), "specs/*.yaml")
	require.Error(t, err)
}

func TestValidateGlobSinglePathMissing(t *testing.T) {
	t.Parallel()

	v := NewValidator(testRegistry(t), t.TempDir(), nil)
	_, err := v.ValidateGlob(context.Background(), "specs/site.yaml")
	require.Error(t, err)
}
