package ecs

import (
	"slices"

	"github.com/milk9111/scenechanger/ecs/component"
)

// Query returns the entities carrying every kind, ordered by entity id so
// repeated queries over an unchanged world agree.
func (w *World) Query(kinds ...component.Kind) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(kinds))
	for _, k := range kinds {
		set := w.store(k)
		if set.Len() == 0 {
			return nil
		}
		sets = append(sets, set)
	}
	// iterate the smallest set
	slices.SortFunc(sets, func(a, b *SparseSet) int { return a.Len() - b.Len() })

	out := make([]Entity, 0, sets[0].Len())
	for _, e := range sets[0].Entities() {
		if hasAll(sets[1:], e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b Entity) int { return int(a.id()) - int(b.id()) })
	return out
}

// First returns the lowest-id entity matching Query.
func (w *World) First(kinds ...component.Kind) (Entity, bool) {
	ents := w.Query(kinds...)
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}

// Entities returns every live entity in id order.
func (w *World) Entities() []Entity {
	out := make([]Entity, 0, w.entities.alive)
	for i, gen := range w.entities.gen {
		if w.entities.live[i] {
			out = append(out, makeEntity(entityID(i+1), gen))
		}
	}
	return out
}

func hasAll(sets []*SparseSet, e Entity) bool {
	for _, set := range sets {
		if !set.Has(e) {
			return false
		}
	}
	return true
}
