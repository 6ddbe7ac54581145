package runner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shashiranjanraj/mediaprobe/internal/scenario"
	"github.com/shashiranjanraj/mediaprobe/pkg/collection"
)

// Plan selects and shapes a run. Loaded from a YAML file or assembled from
// CLI flags; the zero value means "run everything with the defaults".
//
//	workers: 4
//	scenario_timeout: 90s
//	tags: [coupon]
//	scenarios:
//	  - coupon_lifecycle
//	  - coupon_not_found
type Plan struct {
	// Workers is the number of concurrent scenario workers. 0 or 1 runs
	// the suite sequentially.
	Workers int `yaml:"workers"`

	// ScenarioTimeout bounds each scenario execution.
	ScenarioTimeout time.Duration `yaml:"scenario_timeout"`

	// Scenarios lists scenario names to run. Empty means all.
	Scenarios []string `yaml:"scenarios"`

	// Tags further filters the selection: a scenario must carry at least
	// one of these tags. Empty means no tag filter.
	Tags []string `yaml:"tags"`
}

// UnmarshalYAML decodes the plan, accepting scenario_timeout in Go
// duration syntax ("45s", "2m") — yaml.v3 has no native duration support.
func (p *Plan) UnmarshalYAML(node *yaml.Node) error {
	var wire struct {
		Workers         int      `yaml:"workers"`
		ScenarioTimeout string   `yaml:"scenario_timeout"`
		Scenarios       []string `yaml:"scenarios"`
		Tags            []string `yaml:"tags"`
	}
	if err := node.Decode(&wire); err != nil {
		return err
	}

	p.Workers = wire.Workers
	p.Scenarios = wire.Scenarios
	p.Tags = wire.Tags
	if wire.ScenarioTimeout != "" {
		d, err := time.ParseDuration(wire.ScenarioTimeout)
		if err != nil {
			return fmt.Errorf("runner: bad scenario_timeout %q: %w", wire.ScenarioTimeout, err)
		}
		p.ScenarioTimeout = d
	}
	return nil
}

// LoadPlan reads a Plan from a YAML file.
func LoadPlan(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("runner: read plan %q: %w", path, err)
	}
	var p Plan
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Plan{}, fmt.Errorf("runner: parse plan %q: %w", path, err)
	}
	return p, nil
}

// Select applies the plan's name and tag filters to the suite, preserving
// suite order. Unknown scenario names are an error so a typo in a plan file
// fails loudly instead of silently running nothing.
func (p Plan) Select(suite []scenario.Scenario) ([]scenario.Scenario, error) {
	known := collection.KeyBy(suite, func(s scenario.Scenario) string { return s.Name })
	for _, name := range p.Scenarios {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("runner: unknown scenario %q in plan", name)
		}
	}

	selected := collection.Filter(suite, func(s scenario.Scenario) bool {
		if len(p.Scenarios) > 0 {
			named := collection.Contains(p.Scenarios, func(n string) bool { return n == s.Name })
			if !named {
				return false
			}
		}
		if len(p.Tags) > 0 {
			tagged := collection.Contains(p.Tags, func(t string) bool {
				return collection.Contains(s.Tags, func(st string) bool { return st == t })
			})
			if !tagged {
				return false
			}
		}
		return true
	})
	return selected, nil
}
