package ecs

import "github.com/milk9111/scenechanger/ecs/component"

// System updates a world each frame.
type System interface {
	Update(w *World)
}

// World owns a scene's entities, their components and the systems that run
// over them.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	systems  []System
	frame    uint64
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: make(map[component.ComponentID]*SparseSet)}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity removes every component of e and retires its handle.
func (w *World) DestroyEntity(e Entity) bool {
	if !w.entities.isAlive(e) {
		return false
	}
	for _, set := range w.stores {
		set.Remove(e)
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.alive
}

// AddSystem appends a system to the update order.
func (w *World) AddSystem(s System) {
	if s == nil {
		return
	}
	w.systems = append(w.systems, s)
}

// Systems returns a copy of the update order.
func (w *World) Systems() []System {
	return append([]System(nil), w.systems...)
}

// Update runs all systems once.
func (w *World) Update() {
	if w == nil {
		return
	}
	w.frame++
	for _, s := range w.systems {
		s.Update(w)
	}
}

// Frame returns how many times Update has run.
func (w *World) Frame() uint64 {
	return w.frame
}

func (w *World) AddComponent(e Entity, kind component.Kind, value any) error {
	if kind == nil || kind.ID() == 0 {
		return component.ErrInvalidComponentKind
	}
	if !w.entities.isAlive(e) {
		return component.ErrEntityNotAlive
	}
	set, ok := w.stores[kind.ID()]
	if !ok {
		set = &SparseSet{}
		w.stores[kind.ID()] = set
	}
	set.Set(e, value)
	return nil
}

func (w *World) GetComponent(e Entity, kind component.Kind) (any, bool) {
	set := w.store(kind)
	if !set.Has(e) {
		return nil, false
	}
	return set.Get(e), true
}

// Count returns how many entities carry kind.
func (w *World) Count(kind component.Kind) int {
	return w.store(kind).Len()
}

func (w *World) store(kind component.Kind) *SparseSet {
	if w == nil || kind == nil {
		return nil
	}
	return w.stores[kind.ID()]
}
