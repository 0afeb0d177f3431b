package scenes

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/milk9111/scenechanger/ecs"
	"github.com/milk9111/scenechanger/ecs/component"
	"github.com/milk9111/scenechanger/levels"
	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
)

// ErrBusy is returned when a load or unload is requested while another is
// still running.
var ErrBusy = errors.New("scenes: load or unload already running")

const (
	DefaultBatch = 64
	hazardTile   = 2
)

type ManagerOption func(*Manager)

// WithLevels reads level files from fsys instead of the embedded levels.
func WithLevels(fsys fs.FS) ManagerOption {
	return func(m *Manager) {
		m.levels = fsys
	}
}

// WithBatch sets how many entities a load or unload creates or destroys per
// Update.
func WithBatch(n int) ManagerOption {
	return func(m *Manager) {
		if n >= 1 {
			m.batch = n
		}
	}
}

func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// Manager owns the active scene and performs loads and unloads a batch at a
// time. It implements transition.Loader; call Update once per frame before
// the Changer.
type Manager struct {
	reg    *Registry
	levels fs.FS
	batch  int
	log    zerolog.Logger

	active *Scene
	op     sceneOp

	watcher  *Watcher
	manifest string
}

type sceneOp interface {
	transition.Operation
	step()
}

func NewManager(reg *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		reg:    reg,
		levels: levels.LevelsFS,
		batch:  DefaultBatch,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Registry() *Registry {
	return m.reg
}

// Watch reloads manifest into the registry whenever w reports a change.
func (m *Manager) Watch(w *Watcher, manifest string) {
	m.watcher = w
	m.manifest = manifest
}

// Active returns the loaded scene, or nil.
func (m *Manager) Active() transition.Content {
	if m.active == nil {
		return nil
	}
	return m.active
}

func (m *Manager) ActiveScene() *Scene {
	return m.active
}

func (m *Manager) BeginUnload(c transition.Content) (transition.Operation, error) {
	if m.op != nil {
		return nil, ErrBusy
	}
	sc, ok := c.(*Scene)
	if !ok || sc != m.active {
		return nil, fmt.Errorf("scenes: %s is not the active scene", c.ID())
	}
	op := &unloadOp{m: m, scene: sc, ents: sc.world.Entities()}
	m.op = op
	return op, nil
}

func (m *Manager) BeginLoad(id transition.ContentID) (transition.Operation, error) {
	if m.op != nil {
		return nil, ErrBusy
	}
	if m.active != nil {
		return nil, fmt.Errorf("scenes: cannot load %s while %s is active", id, m.active.id)
	}
	spec, err := m.reg.Lookup(id)
	if err != nil {
		return nil, err
	}
	op := &loadOp{m: m, spec: spec}
	m.op = op
	return op, nil
}

// Update advances the running load or unload, then runs the active scene's
// systems, then applies pending manifest reloads.
func (m *Manager) Update() {
	if m.op != nil {
		m.op.step()
		if m.op.Done() || operationFailed(m.op) {
			m.op = nil
		}
	}
	if m.active != nil {
		m.active.world.Update()
	}
	m.ApplyReloads()
}

// ApplyReloads handles every change the watcher has reported so far without
// running the scene's systems.
func (m *Manager) ApplyReloads() {
	if m.watcher == nil {
		return
	}
	for {
		select {
		case ch, ok := <-m.watcher.Events:
			if !ok {
				m.watcher = nil
				return
			}
			m.reload(ch)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				m.watcher = nil
				return
			}
			m.log.Warn().Err(err).Msg("scene watcher error")
		default:
			return
		}
	}
}

func (m *Manager) reload(ch Change) {
	name := filepath.Base(ch.Path)
	if isScriptFile(ch.Path) {
		if ch.Removed {
			m.log.Warn().Str("file", name).Msg("script removed; next load uses the embedded copy if any")
			return
		}
		m.log.Info().Str("file", name).Msg("script changed; applies on next load")
		return
	}
	if !strings.EqualFold(name, filepath.Base(m.manifest)) {
		return
	}
	if ch.Removed {
		m.log.Warn().Str("file", name).Msg("manifest removed; falling back to the embedded manifest")
	}
	man, err := LoadManifest(m.reg.assets, m.manifest)
	if err != nil {
		m.log.Error().Err(err).Msg("manifest reload failed")
		return
	}
	m.reg.Replace(man)
	m.log.Info().Int("scenes", len(man.Scenes)).Bool("removed", ch.Removed).Msg("manifest reloaded")
}

func operationFailed(op sceneOp) bool {
	f, ok := op.(interface{ Err() error })
	return ok && f.Err() != nil
}

type loadStage int

const (
	loadParse loadStage = iota
	loadPlace
	loadTasks
	loadDone
)

type loadOp struct {
	m     *Manager
	spec  SceneSpec
	stage loadStage
	scene *Scene

	tiles  []component.Tile
	spawns []levels.Entity
	placed int
	total  int
	err    error
}

func (op *loadOp) step() {
	switch op.stage {
	case loadParse:
		lvl, err := levels.Load(op.m.levels, op.spec.Level)
		if err != nil {
			op.err = fmt.Errorf("scenes: load %s: %w", op.spec.ID, err)
			return
		}
		op.scene = newScene(op.spec, lvl)
		op.tiles = levelTiles(lvl)
		op.spawns = lvl.Entities
		// parse and task attachment count as one unit each
		op.total = len(op.tiles) + len(op.spawns) + 2
		op.placed = 1
		op.stage = loadPlace

	case loadPlace:
		w := op.scene.world
		for n := 0; n < op.m.batch; n++ {
			i := op.placed - 1
			switch {
			case i < len(op.tiles):
				_ = ecs.Add(w, w.CreateEntity(), component.TileComponent, op.tiles[i])
			case i < len(op.tiles)+len(op.spawns):
				s := op.spawns[i-len(op.tiles)]
				_ = ecs.Add(w, w.CreateEntity(), component.SpawnComponent, component.Spawn{
					Type:  s.Type,
					X:     s.X,
					Y:     s.Y,
					Props: s.Props,
				})
			default:
				op.stage = loadTasks
				return
			}
			op.placed++
		}
		if op.placed-1 >= len(op.tiles)+len(op.spawns) {
			op.stage = loadTasks
		}

	case loadTasks:
		if err := op.attach(op.spec.Cleanup, component.CleanupTaskComponent, transition.Unloading); err != nil {
			op.err = err
			return
		}
		if err := op.attach(op.spec.Setup, component.SetupTaskComponent, transition.Loading); err != nil {
			op.err = err
			return
		}
		op.placed = op.total
		op.stage = loadDone
		op.m.active = op.scene
		op.m.log.Debug().
			Str("scene", string(op.spec.ID)).
			Int("entities", op.scene.world.EntityCount()).
			Msg("scene loaded")
	}
}

func (op *loadOp) attach(specs []TaskSpec, h component.ComponentHandle[component.SceneTask], phase transition.Phase) error {
	w := op.scene.world
	for _, ts := range specs {
		task, err := op.m.reg.newTask(ts, op.scene, phase)
		if err != nil {
			return fmt.Errorf("scenes: %s: %w", op.spec.ID, err)
		}
		if err := ecs.Add(w, w.CreateEntity(), h, component.SceneTask{Name: ts.Name, Kind: ts.Kind, Task: task}); err != nil {
			return err
		}
	}
	return nil
}

func (op *loadOp) Done() bool {
	return op.stage == loadDone
}

func (op *loadOp) Progress() float64 {
	if op.total == 0 {
		return 0
	}
	return float64(op.placed) / float64(op.total)
}

func (op *loadOp) Err() error {
	return op.err
}

// levelTiles lists the non-empty cells of every layer in layer, then row
// order.
func levelTiles(lvl *levels.Level) []component.Tile {
	var out []component.Tile
	for li, layer := range lvl.Layers {
		physics := lvl.IsPhysicsLayer(li)
		for idx, v := range layer {
			if v == 0 {
				continue
			}
			out = append(out, component.Tile{
				Layer: li,
				X:     idx % lvl.Width,
				Y:     idx / lvl.Width,
				Value: v,
				Solid: physics && v != hazardTile,
			})
		}
	}
	return out
}

type unloadOp struct {
	m         *Manager
	scene     *Scene
	ents      []ecs.Entity
	destroyed int
	done      bool
}

func (op *unloadOp) step() {
	if op.done {
		return
	}
	for n := 0; n < op.m.batch && op.destroyed < len(op.ents); n++ {
		op.scene.world.DestroyEntity(op.ents[op.destroyed])
		op.destroyed++
	}
	if op.destroyed < len(op.ents) {
		return
	}
	op.scene.space = nil
	op.scene.shapes = nil
	if op.m.active == op.scene {
		op.m.active = nil
	}
	op.done = true
	op.m.log.Debug().Str("scene", string(op.scene.id)).Int("entities", op.destroyed).Msg("scene unloaded")
}

func (op *unloadOp) Done() bool {
	return op.done
}

func (op *unloadOp) Progress() float64 {
	if len(op.ents) == 0 {
		if op.done {
			return 1
		}
		return 0
	}
	return float64(op.destroyed) / float64(len(op.ents))
}
