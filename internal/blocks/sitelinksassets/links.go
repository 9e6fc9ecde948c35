// Package sitelinksassets reports links whose recorded status is an error.
package sitelinksassets

import (
	"context"
	"fmt"

	"github.com/flyberryhq/auditpipe/internal/blocks/blockio"
	"github.com/flyberryhq/auditpipe/internal/model"
)

const blockID = "site.links-assets@1.0.0"

type link struct {
	Href   string `json:"href"`
	Status int    `json:"status"`
}

type config struct {
	Links []link `json:"links"`
}

var defaultLinks = []link{
	{Href: "/ok", Status: 200},
	{Href: "/missing", Status: 404},
}

// Block sweeps pre-collected link statuses from an input JSON document of
// {"links": [{"href": ..., "status": ...}]}. Client and server error codes
// count as broken.
type Block struct{}

// New returns the broken links block.
func New() *Block { return &Block{} }

func (b *Block) ID() string { return blockID }

func (b *Block) Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error) {
	links := defaultLinks
	if path, ok := blockio.FirstFileWithExt(inputs, ".json"); ok {
		var cfg config
		if err := blockio.DecodeJSONFile(path, &cfg); err != nil {
			return nil, err
		}
		if cfg.Links != nil {
			links = cfg.Links
		}
	}

	var issues []model.Issue
	broken := 0
	for idx, lk := range links {
		if lk.Status < 400 {
			continue
		}
		broken++

		id := lk.Href
		if id == "" {
			id = fmt.Sprintf("%d", idx)
		}
		selector := ""
		if lk.Href != "" {
			selector = fmt.Sprintf("a[href='%s']", lk.Href)
		}
		issues = append(issues, model.Issue{
			ID:           fmt.Sprintf("links.broken:%s", id),
			Severity:     model.SeverityMajor,
			Confidence:   0.9,
			Location:     map[string]string{"url": "", "selector": selector},
			Evidence:     map[string]interface{}{"type": "http", "note": fmt.Sprintf("status %d", lk.Status)},
			Rationale:    "Links should not return client or server errors.",
			SuggestedFix: "Update link or fix target resource.",
			Meta:         map[string]interface{}{"status": lk.Status},
		})
	}

	status := model.StatusPass
	if broken > 0 {
		status = model.StatusFail
	}

	return &model.BlockResult{
		BlockID: blockID,
		CheckResults: []model.CheckResult{
			{
				CheckID: "links.broken",
				BlockID: blockID,
				Status:  status,
				Metrics: map[string]interface{}{
					"links_total":  len(links),
					"links_broken": broken,
				},
				Issues: issues,
			},
		},
	}, nil
}
