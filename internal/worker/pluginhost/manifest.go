package pluginhost

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes a Lua plugin's identity, entry point, and the
// capabilities it requests, the way the teacher's internal/plugin
// Manifest does for its JSON manifests — expressed in YAML instead,
// since nothing in this pack's go.mod or the teacher pulls in a JSON
// schema library worth preferring over yaml.v3 for a small declarative
// document like this one.
type Manifest struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Main         string   `yaml:"main"`
	Capabilities []string `yaml:"capabilities"`

	dir string
}

// LoadManifest reads and parses manifestPath (a plugin.yaml file).
func LoadManifest(manifestPath string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("pluginhost: read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("pluginhost: parse manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("pluginhost: manifest missing name")
	}
	if m.Main == "" {
		m.Main = "init.lua"
	}
	m.dir = filepath.Dir(manifestPath)
	return &m, nil
}

// EntryPath returns the path to the plugin's Lua entry point: Main joined
// onto the manifest file's directory (absolute only if the manifest path
// given to LoadManifest was).
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.dir, m.Main)
}

// HasCapability reports whether the manifest declares cap.
func (m *Manifest) HasCapability(cap string) bool {
	for _, c := range m.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}
