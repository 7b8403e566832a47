package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/jointsync/common"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/physics"
)

// Hinge pins an anchor on each body to a shared point the bodies rotate
// around. Defaults: zero offsets (centers pinned together), default spring.
type Hinge struct {
	Base[physics.Hinge]
}

var HingeComponent = component.NewComponent[Hinge]()

func NewHinge(a, b ecs.Entity) *Hinge {
	return &Hinge{
		Base: newBase(a, b, physics.Hinge{Spring: physics.DefaultSpringSettings}),
	}
}

func (c *Hinge) LocalOffsetA() mgl64.Vec2 { return common.ToHost(c.desc.LocalOffsetA) }
func (c *Hinge) LocalOffsetB() mgl64.Vec2 { return common.ToHost(c.desc.LocalOffsetB) }

func (c *Hinge) SetLocalOffsetA(v mgl64.Vec2) {
	c.edit(func(d *physics.Hinge) { d.LocalOffsetA = common.ToNative(v) })
}

func (c *Hinge) SetLocalOffsetB(v mgl64.Vec2) {
	c.edit(func(d *physics.Hinge) { d.LocalOffsetB = common.ToNative(v) })
}

func (c *Hinge) SpringFrequency() float64    { return c.desc.Spring.Frequency }
func (c *Hinge) SpringDampingRatio() float64 { return c.desc.Spring.DampingRatio }

func (c *Hinge) SetSpringFrequency(v float64) {
	c.edit(func(d *physics.Hinge) { d.Spring.Frequency = v })
}

func (c *Hinge) SetSpringDampingRatio(v float64) {
	c.edit(func(d *physics.Hinge) { d.Spring.DampingRatio = v })
}
