package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/jointsync/common"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/physics"
)

// Distance holds the anchors at a fixed distance, like a rigid rod.
// Defaults: zero offsets, zero target distance, default spring.
type Distance struct {
	Base[physics.Distance]
}

var DistanceComponent = component.NewComponent[Distance]()

func NewDistance(a, b ecs.Entity) *Distance {
	return &Distance{
		Base: newBase(a, b, physics.Distance{Spring: physics.DefaultSpringSettings}),
	}
}

func (c *Distance) LocalOffsetA() mgl64.Vec2 { return common.ToHost(c.desc.LocalOffsetA) }
func (c *Distance) LocalOffsetB() mgl64.Vec2 { return common.ToHost(c.desc.LocalOffsetB) }

func (c *Distance) SetLocalOffsetA(v mgl64.Vec2) {
	c.edit(func(d *physics.Distance) { d.LocalOffsetA = common.ToNative(v) })
}

func (c *Distance) SetLocalOffsetB(v mgl64.Vec2) {
	c.edit(func(d *physics.Distance) { d.LocalOffsetB = common.ToNative(v) })
}

func (c *Distance) TargetDistance() float64 {
	return c.desc.TargetDistance
}

func (c *Distance) SetTargetDistance(v float64) {
	c.edit(func(d *physics.Distance) { d.TargetDistance = v })
}

func (c *Distance) SpringFrequency() float64    { return c.desc.Spring.Frequency }
func (c *Distance) SpringDampingRatio() float64 { return c.desc.Spring.DampingRatio }

func (c *Distance) SetSpringFrequency(v float64) {
	c.edit(func(d *physics.Distance) { d.Spring.Frequency = v })
}

func (c *Distance) SetSpringDampingRatio(v float64) {
	c.edit(func(d *physics.Distance) { d.Spring.DampingRatio = v })
}
