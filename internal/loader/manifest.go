// Package loader reads scene manifests and the geometry they reference and
// turns them into model registrations for the scene.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes the models of a scene and their containment hierarchy
type Manifest struct {
	Models []ModelEntry `yaml:"models"`

	dir string
}

// ModelEntry is one model of the manifest. Geometry is the default file for
// "#solid" references inside the tree.
type ModelEntry struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Geometry string    `yaml:"geometry"`
	Root     NodeEntry `yaml:"root"`
}

// NodeEntry is a hierarchy node. Nodes with geometry become scene objects.
//
// Geometry references take the forms "file.stl", "file.stl#solid",
// "#solid" (solid in the model's default file) and "file.scad".
type NodeEntry struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Kind     string      `yaml:"kind"`
	Geometry string      `yaml:"geometry"`
	Children []NodeEntry `yaml:"children"`
}

// ErrInvalidManifest wraps every manifest validation failure
var ErrInvalidManifest = errors.New("invalid manifest")

// ReadManifest parses the manifest at path
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest parses and validates manifest YAML
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks ids for presence and uniqueness and that "#solid"
// references have a default file to refer to.
func (m *Manifest) Validate() error {
	if len(m.Models) == 0 {
		return fmt.Errorf("%w: no models", ErrInvalidManifest)
	}

	seen := make(map[string]bool)
	models := make(map[string]bool)
	for _, model := range m.Models {
		if model.ID == "" {
			return fmt.Errorf("%w: model without id", ErrInvalidManifest)
		}
		if models[model.ID] {
			return fmt.Errorf("%w: duplicate model %q", ErrInvalidManifest, model.ID)
		}
		models[model.ID] = true

		var check func(n NodeEntry) error
		check = func(n NodeEntry) error {
			if n.ID == "" {
				return fmt.Errorf("%w: node without id in model %q", ErrInvalidManifest, model.ID)
			}
			if seen[n.ID] {
				return fmt.Errorf("%w: duplicate node %q", ErrInvalidManifest, n.ID)
			}
			seen[n.ID] = true
			if strings.HasPrefix(n.Geometry, "#") && model.Geometry == "" {
				return fmt.Errorf("%w: node %q refers to %q but model %q has no geometry file",
					ErrInvalidManifest, n.ID, n.Geometry, model.ID)
			}
			for _, c := range n.Children {
				if err := check(c); err != nil {
					return err
				}
			}
			return nil
		}
		if err := check(model.Root); err != nil {
			return err
		}
	}
	return nil
}

// Model returns the entry with the given id
func (m *Manifest) Model(id string) (ModelEntry, bool) {
	for _, model := range m.Models {
		if model.ID == id {
			return model, true
		}
	}
	return ModelEntry{}, false
}

// Dir is the directory relative geometry paths are resolved against
func (m *Manifest) Dir() string {
	return m.dir
}

// geometryRef splits a reference into file and solid name, applying the
// model's default file to "#solid" references.
func geometryRef(ref, defaultFile string) (file, solid string) {
	file, solid, _ = strings.Cut(ref, "#")
	if file == "" {
		file = defaultFile
	}
	return file, solid
}
