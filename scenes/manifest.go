package scenes

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/milk9111/scenechanger/transition"
	"gopkg.in/yaml.v3"
)

// Manifest lists the scenes the game can change between and the work each
// one registers for its transitions.
type Manifest struct {
	Initial transition.ContentID `yaml:"initial" toml:"initial"`
	Scenes  []SceneSpec          `yaml:"scenes" toml:"scenes"`
}

type SceneSpec struct {
	ID      transition.ContentID `yaml:"id" toml:"id"`
	Level   string               `yaml:"level" toml:"level"`
	Cleanup []TaskSpec           `yaml:"cleanup" toml:"cleanup"`
	Setup   []TaskSpec           `yaml:"setup" toml:"setup"`
}

// TaskSpec declares one cleanup or setup task. Which fields matter depends
// on Kind.
type TaskSpec struct {
	Name   string `yaml:"name" toml:"name"`
	Kind   string `yaml:"kind" toml:"kind"`
	Frames int    `yaml:"frames" toml:"frames"`
	Script string `yaml:"script" toml:"script"`
	Batch  int    `yaml:"batch" toml:"batch"`
}

const DefaultManifest = "scenes.yaml"

// ParseManifest decodes data as "yaml" or "toml".
func ParseManifest(data []byte, format string) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(format) {
	case "yaml", "yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("scenes: decode yaml manifest: %w", err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), &m); err != nil {
			return nil, fmt.Errorf("scenes: decode toml manifest: %w", err)
		}
	default:
		return nil, fmt.Errorf("scenes: unsupported manifest format %q", format)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads name through assets, picking the decoder from its
// extension.
func LoadManifest(assets Assets, name string) (*Manifest, error) {
	if name == "" {
		name = DefaultManifest
	}
	data, err := assets.Read(name)
	if err != nil {
		return nil, fmt.Errorf("scenes: load %s: %w", name, err)
	}
	m, err := ParseManifest(data, strings.TrimPrefix(path.Ext(name), "."))
	if err != nil {
		return nil, fmt.Errorf("scenes: %s: %w", name, err)
	}
	return m, nil
}

// Validate checks ids are unique, every scene names a level and every task
// has a kind. Unnamed tasks are named after their kind.
func (m *Manifest) Validate() error {
	if len(m.Scenes) == 0 {
		return fmt.Errorf("scenes: manifest declares no scenes")
	}
	seen := make(map[transition.ContentID]bool, len(m.Scenes))
	for i := range m.Scenes {
		sc := &m.Scenes[i]
		if sc.ID == "" {
			return fmt.Errorf("scenes: scene %d has no id", i)
		}
		if seen[sc.ID] {
			return fmt.Errorf("scenes: duplicate scene id %q", sc.ID)
		}
		seen[sc.ID] = true
		if sc.Level == "" {
			return fmt.Errorf("scenes: scene %q has no level", sc.ID)
		}
		for _, tasks := range [][]TaskSpec{sc.Cleanup, sc.Setup} {
			for j := range tasks {
				if tasks[j].Kind == "" {
					return fmt.Errorf("scenes: scene %q task %d has no kind", sc.ID, j)
				}
				if tasks[j].Name == "" {
					tasks[j].Name = tasks[j].Kind
				}
			}
		}
	}
	if m.Initial != "" && !seen[m.Initial] {
		return fmt.Errorf("scenes: initial scene %q is not declared", m.Initial)
	}
	return nil
}
