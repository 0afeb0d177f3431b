package component

import "github.com/milk9111/scenechanger/transition"

// SceneTask registers work a scene needs done behind the loading screen.
// Entities carrying CleanupTaskComponent run before the scene unloads;
// SetupTaskComponent runs after it loads. Query order is declaration order.
type SceneTask struct {
	Name string
	Kind string
	Task transition.Task
}

var (
	CleanupTaskComponent = NewComponent[SceneTask]()
	SetupTaskComponent   = NewComponent[SceneTask]()
)
