package render

import (
	"bytes"
	"html/template"
	"sort"

	"github.com/flyberryhq/auditpipe/internal/model"
)

const brandGuideTemplate = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Brand Guide (Projection)</title>
    <style>
      body { font-family: -apple-system, system-ui, Segoe UI, Roboto, sans-serif; margin: 40px; }
      h1 { margin-bottom: 0; }
      .meta { color: #666; }
      .section { margin: 24px 0; }
      .swatch { display: inline-block; width: 80px; height: 40px; margin: 6px; border: 1px solid #ddd; }
      .token { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; background: #f5f5f5; padding: 2px 6px; border-radius: 4px; }
      table { border-collapse: collapse; }
      th, td { border: 1px solid #ddd; padding: 6px 10px; }
    </style>
  </head>
  <body>
    <h1>Brand Guide</h1>
    <div class="meta">Suite: {{.Suite}} &bull; Run: {{.RunID}}</div>

    <div class="section">
      <h2>Palettes</h2>
      {{if .Swatches}}{{range .Swatches}}<div class="swatch" title="{{.}}" style="background:{{.}}"></div>{{end}}{{else}}<em>No palettes found in run meta.</em>{{end}}
    </div>

    <div class="section">
      <h2>Tokens (Color)</h2>
      {{if .Tokens}}<ul>{{range .Tokens}}<li><span class="token">{{.Name}}</span>: {{.Value}}</li>{{end}}</ul>{{else}}<em>No tokens found in run meta.</em>{{end}}
    </div>

    <div class="section">
      <h2>Issues Summary</h2>
      <table>
        <thead><tr><th>Check</th><th>Severity</th><th>Count</th></tr></thead>
        <tbody>
          {{if .IssueRows}}{{range .IssueRows}}<tr><td>{{.Check}}</td><td>{{.Severity}}</td><td>{{.Count}}</td></tr>
          {{end}}{{else}}<tr><td colspan="3"><em>No issues</em></td></tr>{{end}}
        </tbody>
      </table>
    </div>
  </body>
</html>
`

var brandGuideTmpl = template.Must(template.New("brand-guide").Parse(brandGuideTemplate))

type colorToken struct {
	Name  string
	Value string
}

type issueRow struct {
	Check    string
	Severity string
	Count    int
}

type brandGuideView struct {
	Suite     string
	RunID     string
	Swatches  []template.CSS
	Tokens    []colorToken
	IssueRows []issueRow
}

// renderBrandGuide is the presentation projection: palette swatches and color
// tokens pulled from run meta plus a (check, severity) issue count table.
// Sections degrade to placeholders when meta is absent.
func renderBrandGuide(run *model.CanonicalRun) ([]byte, error) {
	view := brandGuideView{
		Suite:     run.Run.Suite,
		RunID:     run.Run.ID,
		Swatches:  metaSwatches(run.Meta),
		Tokens:    metaColorTokens(run.Meta),
		IssueRows: issueRows(run.Results),
	}

	var buf bytes.Buffer
	if err := brandGuideTmpl.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// metaSwatches reads meta.palettes[*].colors, tolerating both the typed shape
// produced by in-process blocks and the generic shape of a pinned run loaded
// from JSON.
func metaSwatches(meta map[string]interface{}) []template.CSS {
	raw, ok := meta["palettes"]
	if !ok {
		return nil
	}

	var swatches []template.CSS
	for _, palette := range toSlice(raw) {
		m, ok := toStringMap(palette)
		if !ok {
			continue
		}
		for _, color := range toSlice(m["colors"]) {
			if s, ok := color.(string); ok {
				swatches = append(swatches, template.CSS(s))
			}
		}
	}
	return swatches
}

func metaColorTokens(meta map[string]interface{}) []colorToken {
	tokens, ok := toStringMap(meta["tokens"])
	if !ok {
		return nil
	}
	colors, ok := toStringMap(tokens["color"])
	if !ok {
		return nil
	}

	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]colorToken, 0, len(names))
	for _, name := range names {
		value, _ := colors[name].(string)
		out = append(out, colorToken{Name: name, Value: value})
	}
	return out
}

func issueRows(results []model.CheckResult) []issueRow {
	type key struct {
		check    string
		severity string
	}
	counts := make(map[key]int)
	for _, r := range results {
		for _, issue := range r.Issues {
			counts[key{check: r.CheckID, severity: issue.Severity}]++
		}
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].check != keys[j].check {
			return keys[i].check < keys[j].check
		}
		return keys[i].severity < keys[j].severity
	})

	rows := make([]issueRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, issueRow{Check: k.check, Severity: k.severity, Count: counts[k]})
	}
	return rows
}

func toSlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []string:
		out := make([]interface{}, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	}
	return nil
}

func toStringMap(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}
