package levels

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed *.json
var LevelsFS embed.FS

type Level struct {
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Layers    [][]int     `json:"layers"`
	LayerMeta []LayerMeta `json:"layer_meta,omitempty"`
	Entities  []Entity    `json:"entities,omitempty"`
}

type LayerMeta struct {
	Physics bool `json:"physics"`
}

type Entity struct {
	Type  string         `json:"type"`
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Props map[string]any `json:"props,omitempty"`
}

// IsPhysicsLayer reports whether layer idx produces collision shapes.
func (l *Level) IsPhysicsLayer(idx int) bool {
	return idx >= 0 && idx < len(l.LayerMeta) && l.LayerMeta[idx].Physics
}

// Validate checks that every layer covers the full grid.
func (l *Level) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", l.Width, l.Height)
	}
	for i, layer := range l.Layers {
		if len(layer) != l.Width*l.Height {
			return fmt.Errorf("layer %d has %d cells, want %d", i, len(layer), l.Width*l.Height)
		}
	}
	return nil
}

// Name normalizes a level reference to its file name ("forest" and
// "levels/forest.json" both become "forest.json").
func Name(ref string) string {
	s := strings.TrimPrefix(path.Clean(strings.ReplaceAll(ref, "\\", "/")), "levels/")
	if path.Ext(s) == "" {
		s += ".json"
	}
	return s
}

// Load reads a level from fsys.
func Load(fsys fs.FS, ref string) (*Level, error) {
	name := Name(ref)
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level %s: %w", name, err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}
	return &lvl, nil
}

func LoadLevelFromFS(ref string) (*Level, error) {
	return Load(LevelsFS, ref)
}
