package tools

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest declares which tools are enabled and where the built-in HTTP
// tools point. It is loaded from a YAML file next to the service config.
type Manifest struct {
	Provider ProviderConfig `yaml:"provider"`
	Tools    []ToolSpec     `yaml:"tools"`
}

// ProviderConfig identifies the platform backing the account tools.
type ProviderConfig struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

// ToolSpec enables a single named tool.
type ToolSpec struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// LoadManifest reads the manifest file. A missing file yields the default
// manifest with every built-in tool enabled.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultManifest(), nil
		}
		return nil, fmt.Errorf("read tool manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse tool manifest: %w", err)
	}
	if len(manifest.Tools) == 0 {
		manifest.Tools = defaultManifest().Tools
	}
	return &manifest, nil
}

// Enabled reports whether the named tool is switched on.
func (m *Manifest) Enabled(name string) bool {
	for _, spec := range m.Tools {
		if spec.Name == name {
			return spec.Enabled
		}
	}
	return false
}

func defaultManifest() *Manifest {
	return &Manifest{
		Tools: []ToolSpec{
			{Name: ToolSearchKnowledgeBase, Enabled: true},
			{Name: ToolCheckUserPermissions, Enabled: true},
			{Name: ToolResetUserPassword, Enabled: true},
			{Name: ToolVerifySystemStatus, Enabled: true},
		},
	}
}
