package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance test: a fleet of instances, the inline
// files they read, and optional expectations on the resulting graph.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Instances are the controller instances to interpret.
	Instances []ScenarioInstance `yaml:"instances"`

	// Files maps every path the scenario may read to its content. The
	// interpreter resolves script and database reads against this map
	// only; nothing is read from the host filesystem.
	Files map[string]string `yaml:"files"`

	// Expect holds structural assertions checked after the load.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Strict enables strict macro expansion for every instance.
	Strict bool `yaml:"strict,omitempty"`
}

// ScenarioInstance describes one instance of the scenario's fleet.
type ScenarioInstance struct {
	ID      string            `yaml:"id"`
	Script  string            `yaml:"script"`
	WorkDir string            `yaml:"workdir,omitempty"`
	Macros  map[string]string `yaml:"macros,omitempty"`

	// FailWith asserts that this instance fails to load and that its
	// error contains the given substring.
	FailWith string `yaml:"fail_with,omitempty"`
}

// ExpectClause lists structural assertions on the loaded graph.
type ExpectClause struct {
	// Records that must exist, with their type.
	Records []RecordExpect `yaml:"records,omitempty"`

	// Resolved links that must exist: from-record field to target record.
	Resolved []LinkExpect `yaml:"resolved,omitempty"`

	// Unresolved links that must remain: from-record field naming a
	// target no instance defines.
	Unresolved []LinkExpect `yaml:"unresolved,omitempty"`

	// Warnings whose codes must be present.
	Warnings []string `yaml:"warnings,omitempty"`
}

// RecordExpect asserts one record's presence.
type RecordExpect struct {
	// Key is "instance/name".
	Key  string `yaml:"key"`
	Type string `yaml:"type,omitempty"`
}

// LinkExpect asserts one link edge.
type LinkExpect struct {
	// From is the source record key, "instance/name".
	From string `yaml:"from"`

	// Field is the linking field name.
	Field string `yaml:"field"`

	// To is the target record key for resolved links, or the raw target
	// name for unresolved ones.
	To string `yaml:"to"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("harness: parse scenario: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("harness: scenario has no name")
	}
	if len(s.Instances) == 0 {
		return fmt.Errorf("harness: scenario %s has no instances", s.Name)
	}
	seen := make(map[string]bool, len(s.Instances))
	for _, inst := range s.Instances {
		if inst.ID == "" || inst.Script == "" {
			return fmt.Errorf("harness: scenario %s: instance needs id and script", s.Name)
		}
		if seen[inst.ID] {
			return fmt.Errorf("harness: scenario %s: duplicate instance id %q", s.Name, inst.ID)
		}
		seen[inst.ID] = true
	}
	return nil
}
