package main

import (
	"github.com/flyberryhq/auditpipe/internal/block"
	"github.com/flyberryhq/auditpipe/internal/blocks/brandpalette"
	"github.com/flyberryhq/auditpipe/internal/blocks/brandtokens"
	"github.com/flyberryhq/auditpipe/internal/blocks/dataloader"
	"github.com/flyberryhq/auditpipe/internal/blocks/frameworkvalidator"
	"github.com/flyberryhq/auditpipe/internal/blocks/sitea11y"
	"github.com/flyberryhq/auditpipe/internal/blocks/sitelinksassets"
)

// RegisterBlocks wires every in-repo block into the registry under its spec
// identifier. This table is the compile-time rendition of the conventional
// blocks/<name>/main layout.
func RegisterBlocks(registry *block.Registry) error {
	blocks := map[string]block.Block{
		"brand.palette":       brandpalette.New(),
		"brand.tokens":        brandtokens.New(),
		"site.a11y":           sitea11y.New(),
		"site.links-assets":   sitelinksassets.New(),
		"data.loader":         dataloader.New(),
		"framework.validator": frameworkvalidator.New(),
	}

	for name, b := range blocks {
		if err := registry.Register(name, b); err != nil {
			return err
		}
	}
	return nil
}
