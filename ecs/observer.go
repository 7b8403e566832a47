package ecs

// Observer receives component and entity lifecycle notifications. Each
// callback fires exactly once per transition. When an entity is destroyed
// ComponentRemoved fires for each of its components before EntityDestroyed.
type Observer interface {
	ComponentAdded(e Entity, value any)
	ComponentRemoved(e Entity, value any)
	EntityDestroyed(e Entity)
}

// Observe registers o for lifecycle notifications.
func (w *World) Observe(o Observer) {
	if w == nil || o == nil {
		return
	}
	w.observers = append(w.observers, o)
}

func (w *World) notifyAdded(e Entity, value any) {
	for _, o := range w.observers {
		o.ComponentAdded(e, value)
	}
}

func (w *World) notifyRemoved(e Entity, value any) {
	for _, o := range w.observers {
		o.ComponentRemoved(e, value)
	}
}
