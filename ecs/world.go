package ecs

import (
	"sort"

	"github.com/milk9111/jointsync/ecs/component"
)

// World owns entities, their components and the per-tick event queue.
type World struct {
	entities  entityStore
	stores    map[component.ComponentID]store
	observers []Observer
	events    EventQueue
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: make(map[component.ComponentID]store)}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity removes every component of e, notifying observers for each
// removal, then marks the entity dead and reports EntityDestroyed.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, id := range w.storeIDs() {
		if removed, ok := w.stores[id].remove(e.id()); ok {
			w.notifyRemoved(e, removed)
		}
	}
	w.entities.destroy(e)
	for _, o := range w.observers {
		o.EntityDestroyed(e)
	}
	return true
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Entities returns every live entity in id order.
func (w *World) Entities() []Entity {
	if w == nil {
		return nil
	}
	return w.entities.all()
}

// RemoveComponent removes the component of the given kind from e.
func (w *World) RemoveComponent(e Entity, kind component.KindID) bool {
	if w == nil || kind == nil || !w.entities.isAlive(e) {
		return false
	}
	s, ok := w.stores[kind.ID()]
	if !ok {
		return false
	}
	removed, ok := s.remove(e.id())
	if !ok {
		return false
	}
	w.notifyRemoved(e, removed)
	return true
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) storeIDs() []component.ComponentID {
	ids := make([]component.ComponentID, 0, len(w.stores))
	for id := range w.stores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CreateEntity allocates a new entity in w.
func CreateEntity(w *World) Entity {
	return w.CreateEntity()
}

// DestroyEntity destroys e in w.
func DestroyEntity(w *World, e Entity) bool {
	return w.DestroyEntity(e)
}

// IsAlive reports whether e is alive in w.
func IsAlive(w *World, e Entity) bool {
	return w.IsAlive(e)
}

// Entities returns every live entity in w.
func Entities(w *World) []Entity {
	return w.Entities()
}
