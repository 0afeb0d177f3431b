package scenes

import (
	"testing"
	"testing/fstest"

	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
)

// tinyLevel is 4x2 with one physics layer: a two-tile run and a single tile
// on the bottom row, plus one spawn.
const tinyLevel = `{
  "width": 4, "height": 2,
  "layers": [[0,0,0,0, 1,1,0,1]],
  "layer_meta": [{"physics": true}],
  "entities": [{"type": "player_start", "x": 0, "y": 0}]
}`

var testLevels = fstest.MapFS{
	"tiny.json":   {Data: []byte(tinyLevel)},
	"broken.json": {Data: []byte(`{"width": 0}`)},
}

const testManifest = `
initial: a
scenes:
  - id: a
    level: tiny
    cleanup:
      - kind: physics
        batch: 1
    setup:
      - name: build
        kind: physics
        batch: 1
      - name: wait
        kind: frames
        frames: 3
  - id: b
    level: tiny
  - id: broken
    level: broken
`

func mustManifest(t *testing.T, src string) *Manifest {
	t.Helper()
	m, err := ParseManifest([]byte(src), "yaml")
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	return m
}

func newTestManager(t *testing.T, batch int) (*Manager, *transition.Changer, *[]float64) {
	t.Helper()
	reg := NewRegistry(mustManifest(t, testManifest), Assets{}, zerolog.Nop())
	m := NewManager(reg, WithLevels(testLevels), WithBatch(batch))
	bus := transition.NewBus()
	var progress []float64
	bus.OnProgress(func(v float64) { progress = append(progress, v) })
	return m, transition.NewChanger(m, bus), &progress
}

// settle runs frames until the changer goes idle.
func settle(t *testing.T, m *Manager, c *transition.Changer) error {
	t.Helper()
	for i := 0; i < 500 && c.Busy(); i++ {
		m.Update()
		if err := c.Update(); err != nil {
			return err
		}
	}
	if c.Busy() {
		t.Fatalf("scene change did not finish")
	}
	return nil
}
