package scenes

import (
	"github.com/milk9111/scenechanger/ecs"
	"github.com/milk9111/scenechanger/ecs/component"
)

// Ticker is implemented by tasks that make progress once per frame.
type Ticker interface {
	Tick()
}

// TaskSystem ticks every cleanup and setup task in the world.
type TaskSystem struct{}

func (TaskSystem) Update(w *ecs.World) {
	for _, h := range []component.ComponentHandle[component.SceneTask]{
		component.CleanupTaskComponent,
		component.SetupTaskComponent,
	} {
		for _, e := range w.Query(h.Kind()) {
			st, ok := ecs.Get(w, e, h)
			if !ok {
				continue
			}
			if t, ok := st.Task.(Ticker); ok {
				t.Tick()
			}
		}
	}
}
