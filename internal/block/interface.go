package block

import (
	"context"

	"github.com/flyberryhq/auditpipe/internal/model"
)

// Block is the engine's unit of extensibility: an opaque executable step
// invoked with its declared inputs and outputs.
//
// Implementations must:
//   - Return a stable versioned identifier from ID() (e.g. "brand.palette@1.0.0").
//   - Treat inputs and outputs as the only channel shared with the engine
//     besides the structured return; blocks never see the run record.
//   - Appear synchronous: Run returns only when the block is finished.
//   - Return (nil, nil) when the block produces no structured result; its
//     declared outputs are still treated as produced.
type Block interface {
	ID() string
	Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error)
}
