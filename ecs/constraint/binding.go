package constraint

import (
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/physics"
)

// Binding is the live link between a component and its native constraint.
// It exists only while the native handle is valid.
type Binding struct {
	handle    physics.ConstraintHandle
	entity    ecs.Entity
	bodyA     physics.BodyHandle
	bodyB     physics.BodyHandle
	owner     Constraint
	processor *Processor
}

func (b *Binding) Handle() physics.ConstraintHandle {
	return b.handle
}

// Entity returns the entity the component is attached to.
func (b *Binding) Entity() ecs.Entity {
	return b.entity
}

// Bodies returns the body handles the native constraint was created with.
func (b *Binding) Bodies() (physics.BodyHandle, physics.BodyHandle) {
	return b.bodyA, b.bodyB
}

func (b *Binding) requestRefresh() {
	b.processor.RequestRefresh(b.owner)
}

func (b *Binding) requestRebind() {
	b.processor.rebind.add(b.owner)
}
