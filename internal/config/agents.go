package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentSpec describes one agent in a manifest.
type AgentSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// AgentManifest is a YAML file describing the agent pool: routing order,
// descriptions surfaced to the planner, and keyword overrides for the
// fallback classifier.
type AgentManifest struct {
	Agents  []AgentSpec `yaml:"agents"`
	Default string      `yaml:"default"`
}

// LoadAgentManifest reads an agent manifest from path.
func LoadAgentManifest(path string) (*AgentManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agent manifest: %w", err)
	}

	var m AgentManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing agent manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks the manifest for structural problems.
func (m *AgentManifest) Validate() error {
	if len(m.Agents) == 0 {
		return fmt.Errorf("agent manifest: no agents defined")
	}

	seen := make(map[string]bool, len(m.Agents))
	for i, a := range m.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent manifest: agent %d has no name", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("agent manifest: duplicate agent %q", a.Name)
		}
		seen[a.Name] = true
	}

	if m.Default != "" && !seen[m.Default] {
		return fmt.Errorf("agent manifest: default agent %q not defined", m.Default)
	}

	return nil
}

// Names returns the agent names in manifest order.
func (m *AgentManifest) Names() []string {
	names := make([]string, 0, len(m.Agents))
	for _, a := range m.Agents {
		names = append(names, a.Name)
	}
	return names
}
