package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the author graph file or CUE package directory.
	// Relative paths resolve against the scenario file's directory.
	Graph string `yaml:"graph"`

	// Error is the expected code of a failure not tied to a single
	// output. Empty means none is expected.
	Error string `yaml:"error,omitempty"`

	// Outputs lists expectations per declared output. Outputs not listed
	// are not checked.
	Outputs []OutputExpectation `yaml:"outputs,omitempty"`

	// Assertions are extra checks over the compiled networks.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// OutputExpectation states what one output must compile to.
type OutputExpectation struct {
	Name string `yaml:"name"`

	// Nodes is the expected node count of the compiled network.
	Nodes *int `yaml:"nodes,omitempty"`

	// Root is the expected operation of the root node.
	Root string `yaml:"root,omitempty"`

	// Ops is the expected multiset of operations, in any order.
	Ops []string `yaml:"ops,omitempty"`

	// Error is the expected error code. When set the output must fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion is an extra check over compiled networks.
type Assertion struct {
	// Type specifies the assertion type:
	// - "ops_absent": none of Ops appear in Output
	// - "ops_present": every op in Ops appears in Output
	// - "shared_nodes": Outputs share exactly Count node identities
	// - "same_root": Outputs all compile to the same root identity
	Type string `yaml:"type"`

	Output  string   `yaml:"output,omitempty"`
	Outputs []string `yaml:"outputs,omitempty"`
	Ops     []string `yaml:"ops,omitempty"`
	Count   int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOpsAbsent   = "ops_absent"
	AssertOpsPresent  = "ops_present"
	AssertSharedNodes = "shared_nodes"
	AssertSameRoot    = "same_root"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// The graph path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Graph != "" && !filepath.IsAbs(scenario.Graph) {
		scenario.Graph = filepath.Join(filepath.Dir(path), scenario.Graph)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml scenario directly inside dir,
// sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}
	if _, err := os.Stat(s.Graph); os.IsNotExist(err) {
		return fmt.Errorf("graph file not found: %s", s.Graph)
	}

	if s.Error == "" && len(s.Outputs) == 0 {
		return fmt.Errorf("either error or outputs must be set")
	}

	seen := make(map[string]bool)
	for i, out := range s.Outputs {
		if out.Name == "" {
			return fmt.Errorf("outputs[%d]: name is required", i)
		}
		if seen[out.Name] {
			return fmt.Errorf("outputs[%d]: duplicate output %q", i, out.Name)
		}
		seen[out.Name] = true
		if out.Error != "" && (out.Nodes != nil || out.Root != "" || len(out.Ops) > 0) {
			return fmt.Errorf("outputs[%d]: error excludes nodes, root and ops", i)
		}
		if out.Nodes != nil && *out.Nodes < 1 {
			return fmt.Errorf("outputs[%d]: nodes must be positive", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOpsAbsent, AssertOpsPresent:
		if a.Output == "" {
			return fmt.Errorf("assertions[%d]: output is required for %s", index, a.Type)
		}
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for %s", index, a.Type)
		}
	case AssertSharedNodes:
		if len(a.Outputs) < 2 {
			return fmt.Errorf("assertions[%d]: at least two outputs are required for shared_nodes", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for shared_nodes", index)
		}
	case AssertSameRoot:
		if len(a.Outputs) < 2 {
			return fmt.Errorf("assertions[%d]: at least two outputs are required for same_root", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
