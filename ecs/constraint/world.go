package constraint

import (
	"fmt"

	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
)

// Add stores c on e under its kind's component handle.
func Add(w *ecs.World, e ecs.Entity, c Constraint) error {
	switch c := c.(type) {
	case *DistanceLimit:
		return ecs.Add(w, e, DistanceLimitComponent.Kind(), c)
	case *Distance:
		return ecs.Add(w, e, DistanceComponent.Kind(), c)
	case *Hinge:
		return ecs.Add(w, e, HingeComponent.Kind(), c)
	case *Spring:
		return ecs.Add(w, e, SpringComponent.Kind(), c)
	case *AngularLimit:
		return ecs.Add(w, e, AngularLimitComponent.Kind(), c)
	case *AngularMotor:
		return ecs.Add(w, e, AngularMotorComponent.Kind(), c)
	case nil:
		return ErrNilConstraint
	}
	return fmt.Errorf("constraint: unsupported component %T", c)
}

// Lookup returns the constraint component stored on e, if any.
func Lookup(w *ecs.World, e ecs.Entity) (Constraint, bool) {
	if c, ok := ecs.Get(w, e, DistanceLimitComponent.Kind()); ok {
		return c, true
	}
	if c, ok := ecs.Get(w, e, DistanceComponent.Kind()); ok {
		return c, true
	}
	if c, ok := ecs.Get(w, e, HingeComponent.Kind()); ok {
		return c, true
	}
	if c, ok := ecs.Get(w, e, SpringComponent.Kind()); ok {
		return c, true
	}
	if c, ok := ecs.Get(w, e, AngularLimitComponent.Kind()); ok {
		return c, true
	}
	if c, ok := ecs.Get(w, e, AngularMotorComponent.Kind()); ok {
		return c, true
	}
	return nil, false
}

// Remove deletes every constraint component from e.
func Remove(w *ecs.World, e ecs.Entity) bool {
	removed := false
	for _, kind := range Kinds() {
		if w.RemoveComponent(e, kind) {
			removed = true
		}
	}
	return removed
}

// Kinds returns the component kinds of every constraint type, for queries.
func Kinds() []component.KindID {
	return []component.KindID{
		DistanceLimitComponent.Kind(),
		DistanceComponent.Kind(),
		HingeComponent.Kind(),
		SpringComponent.Kind(),
		AngularLimitComponent.Kind(),
		AngularMotorComponent.Kind(),
	}
}

// Each calls fn for every entity carrying a constraint component, in entity
// order.
func Each(w *ecs.World, fn func(e ecs.Entity, c Constraint)) {
	for _, e := range ecs.Entities(w) {
		if c, ok := Lookup(w, e); ok {
			fn(e, c)
		}
	}
}
