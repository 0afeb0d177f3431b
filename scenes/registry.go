package scenes

import (
	"errors"
	"fmt"
	"slices"

	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownScene    = errors.New("scenes: unknown scene")
	ErrUnknownTaskKind = errors.New("scenes: unknown task kind")
)

// TaskFactory builds the task a TaskSpec declares for sc. phase is Unloading
// for cleanup tasks and Loading for setup tasks.
type TaskFactory func(spec TaskSpec, sc *Scene, phase transition.Phase) (transition.Task, error)

// Registry maps scene ids to their specs and task kinds to factories.
type Registry struct {
	scenes  map[transition.ContentID]SceneSpec
	order   []transition.ContentID
	initial transition.ContentID
	kinds   map[string]TaskFactory
	assets  Assets
	log     zerolog.Logger
}

// NewRegistry creates a registry over m with the built-in task kinds
// "frames", "physics" and "script" registered.
func NewRegistry(m *Manifest, assets Assets, log zerolog.Logger) *Registry {
	r := &Registry{
		kinds:  make(map[string]TaskFactory),
		assets: assets,
		log:    log,
	}
	r.RegisterKind("frames", newFrameTask)
	r.RegisterKind("physics", newPhysicsTask)
	r.RegisterKind("script", r.newScriptTask)
	r.Replace(m)
	return r
}

// RegisterKind adds or overrides a task kind.
func (r *Registry) RegisterKind(kind string, f TaskFactory) {
	r.kinds[kind] = f
}

// Replace swaps in a new manifest. Scenes already loaded keep the tasks
// they were built with.
func (r *Registry) Replace(m *Manifest) {
	r.scenes = make(map[transition.ContentID]SceneSpec)
	r.order = r.order[:0]
	r.initial = ""
	if m == nil {
		return
	}
	for _, sc := range m.Scenes {
		r.scenes[sc.ID] = sc
		r.order = append(r.order, sc.ID)
	}
	r.initial = m.Initial
	if r.initial == "" && len(r.order) > 0 {
		r.initial = r.order[0]
	}
}

func (r *Registry) Lookup(id transition.ContentID) (SceneSpec, error) {
	sc, ok := r.scenes[id]
	if !ok {
		return SceneSpec{}, fmt.Errorf("%w: %q", ErrUnknownScene, id)
	}
	return sc, nil
}

// IDs returns scene ids in manifest order.
func (r *Registry) IDs() []transition.ContentID {
	return slices.Clone(r.order)
}

func (r *Registry) Initial() transition.ContentID {
	return r.initial
}

// Next returns the scene after id in manifest order, wrapping around. An
// unknown id yields the initial scene.
func (r *Registry) Next(id transition.ContentID) transition.ContentID {
	i := slices.Index(r.order, id)
	if i < 0 {
		return r.initial
	}
	return r.order[(i+1)%len(r.order)]
}

func (r *Registry) newTask(spec TaskSpec, sc *Scene, phase transition.Phase) (transition.Task, error) {
	f, ok := r.kinds[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (task %q)", ErrUnknownTaskKind, spec.Kind, spec.Name)
	}
	return f(spec, sc, phase)
}
