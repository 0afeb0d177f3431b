package scenes

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenechanger/ecs"
	"github.com/milk9111/scenechanger/ecs/component"
	"github.com/milk9111/scenechanger/levels"
	"github.com/milk9111/scenechanger/transition"
)

// Scene is one loaded level: its ECS world, the tasks registered on it and
// the physics space its setup tasks populate.
type Scene struct {
	id     transition.ContentID
	spec   SceneSpec
	level  *levels.Level
	world  *ecs.World
	space  *cp.Space
	shapes []*cp.Shape
}

func newScene(spec SceneSpec, level *levels.Level) *Scene {
	w := ecs.NewWorld()
	w.AddSystem(TaskSystem{})
	return &Scene{
		id:    spec.ID,
		spec:  spec,
		level: level,
		world: w,
		space: newSpace(),
	}
}

func (s *Scene) ID() transition.ContentID {
	return s.id
}

func (s *Scene) Spec() SceneSpec {
	return s.spec
}

func (s *Scene) Level() *levels.Level {
	return s.level
}

func (s *Scene) World() *ecs.World {
	return s.world
}

// Space returns the scene's physics space, or nil once unloaded.
func (s *Scene) Space() *cp.Space {
	return s.space
}

// Shapes returns the number of static shapes currently in the space.
func (s *Scene) Shapes() int {
	return len(s.shapes)
}

func (s *Scene) CleanupTasks() []transition.Task {
	return s.tasks(component.CleanupTaskComponent)
}

func (s *Scene) SetupTasks() []transition.Task {
	return s.tasks(component.SetupTaskComponent)
}

func (s *Scene) tasks(h component.ComponentHandle[component.SceneTask]) []transition.Task {
	ents := s.world.Query(h.Kind())
	out := make([]transition.Task, 0, len(ents))
	for _, e := range ents {
		if st, ok := ecs.Get(s.world, e, h); ok && st.Task != nil {
			out = append(out, st.Task)
		}
	}
	return out
}
