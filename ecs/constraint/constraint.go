// Package constraint keeps editable two-body constraint components in sync
// with the native constraints of a running physics engine.
//
// A component is Unattached until the Processor resolves both of its bodies
// and creates the native constraint; it then carries a Binding until the
// Processor destroys that constraint again. Property setters never call the
// engine themselves: on a bound component they queue a refresh that the
// Processor applies, once per component, at its next synchronization point.
package constraint

import (
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/physics"
)

// Constraint is implemented by every constraint component kind.
type Constraint interface {
	Bodies() (a, b ecs.Entity)
	Attached() bool

	descriptor() physics.Descriptor
	liveBinding() *Binding
	setLiveBinding(*Binding)
}

// Base is the state shared by every constraint kind: the two bodies, the
// current descriptor value and the optional live binding.
type Base[D physics.Descriptor] struct {
	bodyA ecs.Entity
	bodyB ecs.Entity
	desc  D
	live  *Binding
}

func newBase[D physics.Descriptor](a, b ecs.Entity, desc D) Base[D] {
	return Base[D]{bodyA: a, bodyB: b, desc: desc}
}

func (c *Base[D]) Bodies() (ecs.Entity, ecs.Entity) {
	return c.bodyA, c.bodyB
}

// SetBodies changes the constrained bodies. A bound component is rebuilt
// against the new bodies at the next synchronization point.
func (c *Base[D]) SetBodies(a, b ecs.Entity) {
	if a == c.bodyA && b == c.bodyB {
		return
	}
	c.bodyA, c.bodyB = a, b
	if c.live != nil {
		c.live.requestRebind()
	}
}

// Descriptor returns a copy of the current descriptor value.
func (c *Base[D]) Descriptor() D {
	return c.desc
}

func (c *Base[D]) Attached() bool {
	return c.live != nil
}

// Binding returns the live binding, if the component is attached.
func (c *Base[D]) Binding() (*Binding, bool) {
	return c.live, c.live != nil
}

// edit mutates the descriptor and queues a refresh when bound.
func (c *Base[D]) edit(fn func(d *D)) {
	fn(&c.desc)
	if c.live != nil {
		c.live.requestRefresh()
	}
}

func (c *Base[D]) descriptor() physics.Descriptor {
	return c.desc
}

func (c *Base[D]) liveBinding() *Binding {
	return c.live
}

func (c *Base[D]) setLiveBinding(b *Binding) {
	c.live = b
}
