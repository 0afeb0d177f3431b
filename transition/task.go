package transition

// ContentID names a loadable scene.
type ContentID string

// Task is a unit of work a scene asks to finish behind the loading screen.
// Start must not block; Progress reports completion in [0, 1] and never
// decreases once started.
type Task interface {
	Start()
	Progress() float64
}

// Operation is a handle to an in-flight content load or unload.
type Operation interface {
	Done() bool
	Progress() float64
}

// failer is implemented by operations that can report a collaborator error.
type failer interface {
	Err() error
}

// Content is a loaded scene as seen by the Changer. Task order must be
// stable between calls.
type Content interface {
	ID() ContentID
	CleanupTasks() []Task
	SetupTasks() []Task
}

// Loader owns scene storage. Active returns nil when nothing is loaded and
// must report the new scene once a load operation is done.
type Loader interface {
	Active() Content
	BeginUnload(c Content) (Operation, error)
	BeginLoad(id ContentID) (Operation, error)
}
