package render

import (
	"bytes"
	"encoding/json"

	"github.com/flyberryhq/auditpipe/internal/model"
)

// renderDeveloperJSON is the canonical record pretty-printed with stable key
// order and no content rewriting.
func renderDeveloperJSON(run *model.CanonicalRun) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
