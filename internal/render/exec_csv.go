package render

import (
	"bytes"
	"encoding/csv"

	"github.com/flyberryhq/auditpipe/internal/model"
)

// renderExecCSV is the executive projection: one row per issue, and one empty
// row for results without issues so every check appears. Escaping follows
// RFC 4180 via encoding/csv.
func renderExecCSV(run *model.CanonicalRun) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"check_id", "status", "url", "selector", "severity"}); err != nil {
		return nil, err
	}

	for _, r := range run.Results {
		if len(r.Issues) == 0 {
			if err := w.Write([]string{r.CheckID, r.Status, "", "", ""}); err != nil {
				return nil, err
			}
			continue
		}
		for _, issue := range r.Issues {
			row := []string{
				r.CheckID,
				r.Status,
				issue.Location["url"],
				issue.Location["selector"],
				issue.Severity,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
