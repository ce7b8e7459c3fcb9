package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ldgraph/internal/observe"
)

// Scenario is a scripted sequence of store operations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Vocab is an optional CUE vocabulary file. Empty means the default
	// vocabulary.
	Vocab string `yaml:"vocab,omitempty"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`
}

// Step is one operation plus its expectations. Exactly one of the
// operation fields (Post, Delete, Replace, Get, Search, Stats, Listen)
// is set.
type Step struct {
	Post    yaml.Node `yaml:"post"`
	Delete  yaml.Node `yaml:"delete"`
	Replace yaml.Node `yaml:"replace"`
	Get     yaml.Node `yaml:"get"`
	Search  yaml.Node `yaml:"search"`
	Stats   yaml.Node `yaml:"stats"`
	Listen  yaml.Node `yaml:"listen"`

	// Meta is the observation metadata for writes. Nil means full
	// credibility stamped by the harness clock.
	Meta *observe.Metadata `yaml:"meta,omitempty"`

	// Property names the property for delete, replace and stats.
	Property string `yaml:"property,omitempty"`

	// Old and New are the replace values. An absent Old is a wildcard.
	Old yaml.Node `yaml:"old"`
	New yaml.Node `yaml:"new"`

	// Negative is the negative filter for search.
	Negative yaml.Node `yaml:"negative"`

	// Fail makes a listen step's listener return an error after recording
	// its first event, so the store deregisters it.
	Fail bool `yaml:"fail,omitempty"`

	// Expect is a subset match: a record for get, a list of records that
	// must each match some result for search.
	Expect yaml.Node `yaml:"expect"`

	// ExpectCount is the exact number of search results.
	ExpectCount *int `yaml:"expect_count,omitempty"`

	// ExpectConfidence maps values (as strings) of Property to their
	// expected confidence level.
	ExpectConfidence map[string]float64 `yaml:"expect_confidence,omitempty"`

	// ExpectError requires the operation to fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Operation names.
const (
	OpPost    = "post"
	OpDelete  = "delete"
	OpReplace = "replace"
	OpGet     = "get"
	OpSearch  = "search"
	OpStats   = "stats"
	OpListen  = "listen"
	OpEvent   = "event"
)

// Op returns the operation the step performs, or "" when none or several
// are set.
func (s *Step) Op() string {
	op := ""
	for name, n := range s.operations() {
		if n.Kind == 0 {
			continue
		}
		if op != "" {
			return ""
		}
		op = name
	}
	return op
}

func (s *Step) operations() map[string]*yaml.Node {
	return map[string]*yaml.Node{
		OpPost:    &s.Post,
		OpDelete:  &s.Delete,
		OpReplace: &s.Replace,
		OpGet:     &s.Get,
		OpSearch:  &s.Search,
		OpStats:   &s.Stats,
		OpListen:  &s.Listen,
	}
}

// Target returns the YAML node of the step's operation.
func (s *Step) Target() *yaml.Node {
	return s.operations()[s.Op()]
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields. A relative vocab
// path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Vocab != "" && !filepath.IsAbs(scenario.Vocab) {
		scenario.Vocab = filepath.Join(filepath.Dir(path), scenario.Vocab)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i := range s.Steps {
		step := &s.Steps[i]
		op := step.Op()
		if op == "" {
			return fmt.Errorf("steps[%d]: exactly one operation is required", i)
		}
		switch op {
		case OpDelete, OpReplace:
			if step.Property == "" {
				return fmt.Errorf("steps[%d]: property is required for %s", i, op)
			}
		case OpStats:
			if len(step.ExpectConfidence) > 0 && step.Property == "" {
				return fmt.Errorf("steps[%d]: property is required for expect_confidence", i)
			}
		}
		if step.ExpectCount != nil && *step.ExpectCount < 0 {
			return fmt.Errorf("steps[%d]: expect_count must be non-negative", i)
		}
		if step.Meta != nil {
			if c := step.Meta.Credibility; c < 0 || c > 1 {
				return fmt.Errorf("steps[%d]: credibility %v outside [0,1]", i, c)
			}
		}
	}
	return nil
}
