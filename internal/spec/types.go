package spec

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// KnownProfiles is the closed set of projection profiles a spec may request.
var KnownProfiles = []string{"developer.json", "exec.csv", "brand-guide.html"}

// GlobalMetrics is the closed set of metrics a global gate may reference.
var GlobalMetrics = []string{"issues_total", "issues_critical", "issues_major", "issues_minor", "issues_info"}

// GateOps is the allowed comparison operator set for gates.
var GateOps = []string{"==", "<", "<=", ">", ">="}

const (
	// GateTypeGlobal compares an aggregated severity count.
	GateTypeGlobal = "global"
	// GateTypeCheck compares a metric of one named check result.
	GateTypeCheck = "check"
)

// Spec is the full declarative pipeline document. Unknown top-level keys are
// ignored by decoding.
type Spec struct {
	Suite       string `yaml:"suite"`
	Description string `yaml:"description,omitempty"`
	Pipeline    []Step `yaml:"pipeline"`
	Gates       []Gate `yaml:"gates,omitempty"`
	Output      Output `yaml:"output,omitempty"`

	// PipelinePresent records whether the pipeline key appeared at all, so
	// validation can distinguish a missing pipeline from an empty one.
	PipelinePresent bool `yaml:"-"`
}

// Output names the projection profiles a run should render.
type Output struct {
	Profiles []string `yaml:"profiles,omitempty"`
}

// Step binds a block to concrete inputs and outputs.
type Step struct {
	Name        string   `yaml:"name,omitempty"`
	Block       string   `yaml:"block"`
	Description string   `yaml:"description,omitempty"`
	Inputs      []string `yaml:"inputs,omitempty"`
	Outputs     []string `yaml:"outputs,omitempty"`
}

// EffectiveName returns the declared step name, defaulting to step_{index}
// (1-based) when none is set.
func (s Step) EffectiveName(index int) string {
	if strings.TrimSpace(s.Name) != "" {
		return s.Name
	}
	return fmt.Sprintf("step_%d", index+1)
}

// Gate is a tagged variant: type "global" compares an aggregated count,
// type "check" compares result.metrics[metric] of one check result.
type Gate struct {
	Type    string `yaml:"type"`
	CheckID string `yaml:"check_id,omitempty"`
	Metric  string `yaml:"metric"`
	Op      string `yaml:"op"`
	Value   int    `yaml:"value"`

	// ValueSet distinguishes an explicit value of 0 from a missing value.
	ValueSet bool `yaml:"-"`
}

// UnmarshalYAML applies the default gate type and records value presence.
func (g *Gate) UnmarshalYAML(value *yaml.Node) error {
	type rawGate Gate
	var temp rawGate
	if err := value.Decode(&temp); err != nil {
		return err
	}

	*g = Gate(temp)
	if g.Type == "" {
		g.Type = GateTypeGlobal
	}
	g.ValueSet = hasYAMLKey(value, "value")
	return nil
}

// UnmarshalYAML records pipeline presence alongside the decoded document.
func (s *Spec) UnmarshalYAML(value *yaml.Node) error {
	type rawSpec Spec
	var temp rawSpec
	if err := value.Decode(&temp); err != nil {
		return err
	}

	*s = Spec(temp)
	s.PipelinePresent = hasYAMLKey(value, "pipeline")
	return nil
}

// IsGlobPattern reports whether a path contains the supported glob wildcards.
// Bracket classes are out of scope; only * and ? defer to the block.
func IsGlobPattern(path string) bool {
	return strings.ContainsAny(path, "*?")
}

func hasYAMLKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i < len(node.Content); i += 2 {
		k := node.Content[i]
		if strings.EqualFold(k.Value, key) {
			return true
		}
	}
	return false
}
