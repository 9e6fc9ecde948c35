// Package frameworkvalidator checks a generated framework document for its
// required structure.
package frameworkvalidator

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/flyberryhq/auditpipe/internal/blocks/blockio"
	"github.com/flyberryhq/auditpipe/internal/model"
)

const blockID = "framework.validator@1.0.0"

const minContentLength = 100

var requiredMarkers = []string{
	"Flyberry Brand Framework",
	"Processed Data Summary",
}

// Block validates the first input document: required section markers must be
// present and the content must not be trivially short.
type Block struct{}

// New returns the framework structure block.
func New() *Block { return &Block{} }

func (b *Block) ID() string { return blockID }

func (b *Block) Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error) {
	expanded := blockio.Expand(inputs)
	if len(expanded) == 0 {
		return nil, fmt.Errorf("no input file specified for validation")
	}

	path := expanded[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("framework file '%s' not found for validation", path)
	}
	content := string(data)

	var issues []model.Issue
	checksTotal := 0
	failed := 0

	addIssue := func(id, rationale, fix string) {
		failed++
		issues = append(issues, model.Issue{
			ID:           id,
			Severity:     model.SeverityMajor,
			Confidence:   0.85,
			Location:     map[string]string{"url": path},
			Evidence:     map[string]interface{}{"type": "document", "note": rationale},
			Rationale:    rationale,
			SuggestedFix: fix,
			Meta:         map[string]interface{}{},
		})
	}

	for _, marker := range requiredMarkers {
		checksTotal++
		if !containsMarker(content, marker) {
			addIssue(
				fmt.Sprintf("framework.structure:missing:%s", marker),
				fmt.Sprintf("Missing section: '%s'", marker),
				fmt.Sprintf("Add the '%s' section to the document.", marker),
			)
		}
	}

	checksTotal++
	if len(content) < minContentLength {
		addIssue(
			"framework.structure:length",
			fmt.Sprintf("Content too short (only %d characters).", len(content)),
			"Generate the full framework before validating.",
		)
	}

	status := model.StatusPass
	if failed > 0 {
		status = model.StatusFail
	}

	return &model.BlockResult{
		BlockID: blockID,
		CheckResults: []model.CheckResult{
			{
				CheckID: "framework.structure",
				BlockID: blockID,
				Status:  status,
				Metrics: map[string]interface{}{
					"checks_total":  checksTotal,
					"checks_failed": failed,
				},
				Issues: issues,
			},
		},
	}, nil
}

func containsMarker(content, marker string) bool {
	return marker != "" && strings.Contains(content, marker)
}
