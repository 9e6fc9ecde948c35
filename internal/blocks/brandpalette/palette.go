// Package brandpalette checks brand palette color pairs against the WCAG 2.x
// contrast ratio.
package brandpalette

import (
	"context"
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/flyberryhq/auditpipe/internal/blocks/blockio"
	"github.com/flyberryhq/auditpipe/internal/model"
)

const blockID = "brand.palette@1.0.0"

var defaultPalette = []string{"#111111", "#FFFFFF", "#E63946", "#1D3557", "#F1FAEE"}

const defaultMinRatio = 4.5

type config struct {
	Palette  []string `json:"palette"`
	MinRatio *float64 `json:"min_ratio"`
}

// Block validates palette contrast. An optional JSON input supplies
// {"palette": [...], "min_ratio": 4.5}; defaults apply otherwise.
type Block struct{}

// New returns the palette contrast block.
func New() *Block { return &Block{} }

func (b *Block) ID() string { return blockID }

func (b *Block) Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error) {
	colors := defaultPalette
	minRatio := defaultMinRatio

	if path, ok := blockio.FirstFileWithExt(inputs, ".json"); ok {
		var cfg config
		if err := blockio.DecodeJSONFile(path, &cfg); err != nil {
			return nil, err
		}
		if len(cfg.Palette) > 0 {
			colors = cfg.Palette
		}
		if cfg.MinRatio != nil {
			minRatio = *cfg.MinRatio
		}
	}

	totalPairs := 0
	fails := 0
	var issues []model.Issue
	for i := 0; i < len(colors); i++ {
		for j := i + 1; j < len(colors); j++ {
			totalPairs++
			c1, c2 := colors[i], colors[j]
			ratio, err := contrastRatio(c1, c2)
			if err != nil {
				continue
			}
			if ratio < minRatio {
				fails++
				issues = append(issues, model.Issue{
					ID:           fmt.Sprintf("brand.palette-contrast:%s:%s", c1, c2),
					Severity:     model.SeverityMajor,
					Confidence:   0.95,
					Location:     map[string]string{},
					Evidence:     map[string]interface{}{"type": "color_pair", "note": fmt.Sprintf("%s vs %s", c1, c2)},
					Rationale:    fmt.Sprintf("Contrast ratio %.2f below minimum %g", ratio, minRatio),
					SuggestedFix: "Increase contrast or adjust palette steps",
					Meta:         map[string]interface{}{"ratio": math.Round(ratio*100) / 100},
				})
			}
		}
	}

	status := model.StatusPass
	if fails > 0 {
		status = model.StatusFail
	}

	if err := blockio.WriteJSONOutputs(outputs, map[string]interface{}{"palette": colors}); err != nil {
		return nil, err
	}

	return &model.BlockResult{
		BlockID: blockID,
		CheckResults: []model.CheckResult{
			{
				CheckID: "brand.palette-contrast",
				BlockID: blockID,
				Status:  status,
				Metrics: map[string]interface{}{
					"pairs_tested":  totalPairs,
					"pairs_failing": fails,
					"min_ratio":     minRatio,
				},
				Issues: issues,
			},
		},
		Meta: map[string]interface{}{
			"palettes": []map[string]interface{}{
				{"name": "default", "colors": colors},
			},
		},
	}, nil
}

// contrastRatio computes (L1+0.05)/(L2+0.05) over WCAG relative luminance.
func contrastRatio(hex1, hex2 string) (float64, error) {
	l1, err := relativeLuminance(hex1)
	if err != nil {
		return 0, err
	}
	l2, err := relativeLuminance(hex2)
	if err != nil {
		return 0, err
	}
	if l2 > l1 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05), nil
}

func relativeLuminance(hex string) (float64, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, err
	}
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B), nil
}

func linearize(channel float64) float64 {
	if channel <= 0.03928 {
		return channel / 12.92
	}
	return math.Pow((channel+0.055)/1.055, 2.4)
}
