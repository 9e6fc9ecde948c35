// Package brandtokens validates design token naming conventions.
package brandtokens

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/flyberryhq/auditpipe/internal/blocks/blockio"
	"github.com/flyberryhq/auditpipe/internal/model"
)

const blockID = "brand.tokens@1.0.0"

const defaultPrefix = "fb-"

var defaultTokens = map[string]interface{}{
	"color": map[string]interface{}{
		"fb-primary": "#1D3557",
		"fb-accent":  "#E63946",
	},
}

type config struct {
	Tokens       map[string]interface{} `json:"tokens"`
	NamingPrefix string                 `json:"naming_prefix"`
}

// Block checks that every token name carries the configured prefix. An
// optional JSON input supplies {"tokens": {...}, "naming_prefix": "fb-"}.
type Block struct{}

// New returns the token naming block.
func New() *Block { return &Block{} }

func (b *Block) ID() string { return blockID }

func (b *Block) Run(ctx context.Context, inputs, outputs []string) (*model.BlockResult, error) {
	tokens := defaultTokens
	prefix := defaultPrefix

	if path, ok := blockio.FirstFileWithExt(inputs, ".json"); ok {
		var cfg config
		if err := blockio.DecodeJSONFile(path, &cfg); err != nil {
			return nil, err
		}
		if cfg.Tokens != nil {
			tokens = cfg.Tokens
		}
		if cfg.NamingPrefix != "" {
			prefix = cfg.NamingPrefix
		}
	}

	var issues []model.Issue
	total := 0
	bad := 0
	for _, group := range sortedKeys(tokens) {
		members, ok := tokens[group].(map[string]interface{})
		if !ok {
			continue
		}
		for _, name := range sortedKeys(members) {
			total++
			if !strings.HasPrefix(name, prefix) {
				bad++
				issues = append(issues, model.Issue{
					ID:           fmt.Sprintf("brand.tokens-naming:%s", name),
					Severity:     model.SeverityMinor,
					Confidence:   0.9,
					Location:     map[string]string{},
					Evidence:     map[string]interface{}{"type": "token_name", "note": name},
					Rationale:    fmt.Sprintf("Token names must start with prefix '%s'", prefix),
					SuggestedFix: fmt.Sprintf("Rename to '%s%s'", prefix, name),
					Meta:         map[string]interface{}{"group": group},
				})
			}
		}
	}

	status := model.StatusPass
	if bad > 0 {
		status = model.StatusFail
	}

	if err := blockio.WriteJSONOutputs(outputs, map[string]interface{}{"tokens": tokens}); err != nil {
		return nil, err
	}

	return &model.BlockResult{
		BlockID: blockID,
		CheckResults: []model.CheckResult{
			{
				CheckID: "brand.tokens-naming",
				BlockID: blockID,
				Status:  status,
				Metrics: map[string]interface{}{
					"tokens_total": total,
					"tokens_bad":   bad,
					"prefix":       prefix,
				},
				Issues: issues,
			},
		},
		Meta: map[string]interface{}{"tokens": tokens},
	}, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
