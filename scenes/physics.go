package scenes

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenechanger/common"
	"github.com/milk9111/scenechanger/ecs"
	"github.com/milk9111/scenechanger/ecs/component"
	"github.com/milk9111/scenechanger/transition"
)

const (
	gravity             = 900.0
	defaultPhysicsBatch = 16
)

const collisionTypeSolid cp.CollisionType = 1

func newSpace() *cp.Space {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: gravity})
	return space
}

// newPhysicsTask builds the scene's static shapes when loading and removes
// them when unloading, batch shapes per tick.
func newPhysicsTask(spec TaskSpec, sc *Scene, phase transition.Phase) (transition.Task, error) {
	batch := spec.Batch
	if batch < 1 {
		batch = defaultPhysicsBatch
	}
	if phase == transition.Unloading {
		return &physicsTeardown{scene: sc, batch: batch}, nil
	}
	return &physicsBuild{scene: sc, batch: batch}, nil
}

type physicsBuild struct {
	scene   *Scene
	batch   int
	boxes   []cp.BB
	added   int
	started bool
}

func (t *physicsBuild) Start() {
	t.started = true
	t.boxes = solidBoxes(t.scene.world)
}

func (t *physicsBuild) Tick() {
	if !t.started || t.scene.space == nil {
		return
	}
	for n := 0; n < t.batch && t.added < len(t.boxes); n++ {
		shape := cp.NewBox2(t.scene.space.StaticBody, t.boxes[t.added], 0)
		shape.SetFriction(0.8)
		shape.SetCollisionType(collisionTypeSolid)
		t.scene.space.AddShape(shape)
		t.scene.shapes = append(t.scene.shapes, shape)
		t.added++
	}
}

func (t *physicsBuild) Progress() float64 {
	if !t.started {
		return 0
	}
	if len(t.boxes) == 0 {
		return 1
	}
	return float64(t.added) / float64(len(t.boxes))
}

type physicsTeardown struct {
	scene   *Scene
	batch   int
	total   int
	removed int
	started bool
}

func (t *physicsTeardown) Start() {
	t.started = true
	t.total = len(t.scene.shapes)
}

func (t *physicsTeardown) Tick() {
	if !t.started {
		return
	}
	for n := 0; n < t.batch && len(t.scene.shapes) > 0 && t.removed < t.total; n++ {
		last := len(t.scene.shapes) - 1
		shape := t.scene.shapes[last]
		t.scene.shapes = t.scene.shapes[:last]
		if t.scene.space != nil {
			t.scene.space.RemoveShape(shape)
		}
		t.removed++
	}
}

func (t *physicsTeardown) Progress() float64 {
	if !t.started {
		return 0
	}
	if t.total == 0 {
		return 1
	}
	return float64(t.removed) / float64(t.total)
}

// solidBoxes merges horizontal runs of solid tiles into boxes, row by row
// from the top.
func solidBoxes(w *ecs.World) []cp.BB {
	solid := make(map[[2]int]bool)
	maxX, maxY := -1, -1
	for _, e := range w.Query(component.TileComponent.Kind()) {
		tile, ok := ecs.Get(w, e, component.TileComponent)
		if !ok || !tile.Solid {
			continue
		}
		solid[[2]int{tile.X, tile.Y}] = true
		maxX = max(maxX, tile.X)
		maxY = max(maxY, tile.Y)
	}

	var boxes []cp.BB
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			if !solid[[2]int{x, y}] {
				continue
			}
			run := 1
			for solid[[2]int{x + run, y}] {
				run++
			}
			boxes = append(boxes, cp.BB{
				L: float64(x * common.TileSize),
				B: float64(y * common.TileSize),
				R: float64((x + run) * common.TileSize),
				T: float64((y + 1) * common.TileSize),
			})
			x += run - 1
		}
	}
	return boxes
}
