// Package fleet loads whole deployments: a YAML config naming every
// instance and its startup script, validated against a CUE schema, then
// interpreted in parallel and aggregated into one cross-reference graph.
package fleet

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config describes one fleet.
type Config struct {
	// Name labels the fleet in output; optional.
	Name string `yaml:"name"`

	// Instances are the controller instances to interpret.
	Instances []InstanceConfig `yaml:"instances"`
}

// InstanceConfig describes one controller instance.
type InstanceConfig struct {
	// ID is the instance identifier. Must be unique within the fleet;
	// link-resolution tie-breaks compare IDs by byte order.
	ID string `yaml:"id"`

	// Script is the startup script path, relative to the working
	// directory.
	Script string `yaml:"script"`

	// WorkDir is the instance's working directory. Defaults to ".".
	WorkDir string `yaml:"workdir"`

	// Macros seed the instance's root macro scope.
	Macros map[string]string `yaml:"macros"`
}

// ParseConfig parses and validates a fleet config. The YAML is checked
// against the embedded CUE schema before decoding, so shape errors surface
// with schema context instead of as zero values.
func ParseConfig(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fleet: parse config: %w", err)
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("fleet: compile schema: %w", err)
	}
	unified := schema.Unify(cctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("fleet: invalid config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("fleet: decode config: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Instances))
	for i := range cfg.Instances {
		inst := &cfg.Instances[i]
		if seen[inst.ID] {
			return nil, fmt.Errorf("fleet: duplicate instance id %q", inst.ID)
		}
		seen[inst.ID] = true
		if inst.WorkDir == "" {
			inst.WorkDir = "."
		}
	}
	return &cfg, nil
}

// LoadConfig reads and parses a fleet config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fleet: read config: %w", err)
	}
	return ParseConfig(data)
}
