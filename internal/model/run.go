package model

import (
	"fmt"
	"time"
)

const (
	// SchemaVersion is stamped into every canonical run record.
	SchemaVersion = "1.0.0"

	// StatusPass marks a check whose assertions all held.
	StatusPass = "pass"
	// StatusFail marks a check with at least one failed assertion.
	StatusFail = "fail"
	// StatusError marks a check that could not complete.
	StatusError = "error"
)

const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
	SeverityInfo     = "info"
)

// Issue is a single finding within a check.
type Issue struct {
	ID           string                 `json:"id"`
	Severity     string                 `json:"severity"`
	Confidence   float64                `json:"confidence"`
	Location     map[string]string      `json:"location,omitempty"`
	Evidence     map[string]interface{} `json:"evidence,omitempty"`
	Rationale    string                 `json:"rationale,omitempty"`
	SuggestedFix string                 `json:"suggested_fix,omitempty"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
}

// CheckResult is one block's structured report about one named check.
type CheckResult struct {
	CheckID string                 `json:"check_id"`
	BlockID string                 `json:"block_id"`
	Status  string                 `json:"status"`
	Metrics map[string]interface{} `json:"metrics,omitempty"`
	Issues  []Issue                `json:"issues,omitempty"`
}

// BlockResult is the optional structured return from a block.
type BlockResult struct {
	BlockID      string                 `json:"block_id"`
	CheckResults []CheckResult          `json:"check_results"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
}

// RunInfo identifies a single execution.
type RunInfo struct {
	ID            string `json:"id"`
	Suite         string `json:"suite"`
	StartedAt     string `json:"started_at"`
	SchemaVersion string `json:"schema_version"`
}

// CanonicalRun is the single source of truth for a pipeline execution. The
// executor owns it exclusively while the run is in flight; after finalization
// readers treat it as immutable.
type CanonicalRun struct {
	Run             RunInfo                `json:"run"`
	RequestedChecks []string               `json:"requested_checks"`
	BlocksUsed      []string               `json:"blocks_used"`
	Results         []CheckResult          `json:"results"`
	Meta            map[string]interface{} `json:"meta"`
}

// NewCanonicalRun initialises an empty run record for the given suite.
func NewCanonicalRun(suite string, startedAt time.Time) *CanonicalRun {
	utc := startedAt.UTC()
	return &CanonicalRun{
		Run: RunInfo{
			ID:            fmt.Sprintf("run_%d", utc.Unix()),
			Suite:         suite,
			StartedAt:     utc.Format("2006-01-02T15:04:05.000000") + "Z",
			SchemaVersion: SchemaVersion,
		},
		RequestedChecks: []string{},
		BlocksUsed:      []string{},
		Results:         []CheckResult{},
		Meta:            map[string]interface{}{},
	}
}

// Absorb folds a block's structured return into the run record: check results
// append in execution order, requested_checks and blocks_used grow as
// insertion-ordered unique sets, and block meta merges last-write-wins.
func (r *CanonicalRun) Absorb(result *BlockResult) {
	if result == nil {
		return
	}

	if result.BlockID != "" {
		r.BlocksUsed = appendUnique(r.BlocksUsed, result.BlockID)
	}
	for _, cr := range result.CheckResults {
		if cr.CheckID != "" {
			r.RequestedChecks = appendUnique(r.RequestedChecks, cr.CheckID)
		}
		r.Results = append(r.Results, cr)
	}
	for k, v := range result.Meta {
		r.Meta[k] = v
	}
}

// ResultByCheckID locates the check result with the given id, or nil.
func (r *CanonicalRun) ResultByCheckID(checkID string) *CheckResult {
	for i := range r.Results {
		if r.Results[i].CheckID == checkID {
			return &r.Results[i]
		}
	}
	return nil
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
