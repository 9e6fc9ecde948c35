// Package dataloader builds a manifest of source files for downstream blocks.
package dataloader

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/flyberryhq/auditpipe/internal/blocks/blockio"
	"github.com/flyberryhq/auditpipe/internal/model"
)

const blockID = "data.loader@1.0.0"

// Block lists the files reachable from its inputs (directories expand one
// level, mirroring a flat intake drop) and writes the manifest to the first
// declared output.
type Block struct{}

// New returns the data loader block.
func New() *Block { return &Block{} }

func (b *Block) ID() string { return blockID }

func (b *Block) Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error) {
	var sourceFiles []string

	for _, input := range blockio.Expand(inputs) {
		info, err := os.Stat(input)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			sourceFiles = append(sourceFiles, input)
			continue
		}
		entries, err := os.ReadDir(input)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			sourceFiles = append(sourceFiles, filepath.Join(input, entry.Name()))
		}
	}
	sort.Strings(sourceFiles)
	if sourceFiles == nil {
		sourceFiles = []string{}
	}

	manifest := map[string]interface{}{
		"source_files": sourceFiles,
		"notes":        "Processed data manifest generated by the data.loader block.",
	}

	if len(outputs) > 0 {
		if err := blockio.WriteJSONOutputs(outputs[:1], manifest); err != nil {
			return nil, err
		}
	}

	return &model.BlockResult{
		BlockID: blockID,
		CheckResults: []model.CheckResult{
			{
				CheckID: "data.loader-manifest",
				BlockID: blockID,
				Status:  model.StatusPass,
				Metrics: map[string]interface{}{"files_seen": len(sourceFiles)},
			},
		},
	}, nil
}
