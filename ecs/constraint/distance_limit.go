package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/jointsync/common"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/physics"
)

// DistanceLimit keeps an anchor on each body between a minimum and a maximum
// distance of each other. Inside the range the bodies move freely.
//
// A new component uses the default spring (30 Hz, damping ratio 5), zero
// offsets and a zero range, which holds the anchors together.
type DistanceLimit struct {
	Base[physics.DistanceLimit]
}

var DistanceLimitComponent = component.NewComponent[DistanceLimit]()

func NewDistanceLimit(a, b ecs.Entity) *DistanceLimit {
	return &DistanceLimit{
		Base: newBase(a, b, physics.DistanceLimit{Spring: physics.DefaultSpringSettings}),
	}
}

// LocalOffsetA is the anchor on body A, relative to its center.
func (c *DistanceLimit) LocalOffsetA() mgl64.Vec2 {
	return common.ToHost(c.desc.LocalOffsetA)
}

func (c *DistanceLimit) SetLocalOffsetA(v mgl64.Vec2) {
	c.edit(func(d *physics.DistanceLimit) { d.LocalOffsetA = common.ToNative(v) })
}

// LocalOffsetB is the anchor on body B, relative to its center.
func (c *DistanceLimit) LocalOffsetB() mgl64.Vec2 {
	return common.ToHost(c.desc.LocalOffsetB)
}

func (c *DistanceLimit) SetLocalOffsetB(v mgl64.Vec2) {
	c.edit(func(d *physics.DistanceLimit) { d.LocalOffsetB = common.ToNative(v) })
}

func (c *DistanceLimit) MinimumDistance() float64 {
	return c.desc.MinimumDistance
}

func (c *DistanceLimit) SetMinimumDistance(v float64) {
	c.edit(func(d *physics.DistanceLimit) { d.MinimumDistance = v })
}

func (c *DistanceLimit) MaximumDistance() float64 {
	return c.desc.MaximumDistance
}

func (c *DistanceLimit) SetMaximumDistance(v float64) {
	c.edit(func(d *physics.DistanceLimit) { d.MaximumDistance = v })
}

// SpringFrequency is the stiffness of the limit in hertz.
func (c *DistanceLimit) SpringFrequency() float64 {
	return c.desc.Spring.Frequency
}

func (c *DistanceLimit) SetSpringFrequency(v float64) {
	c.edit(func(d *physics.DistanceLimit) { d.Spring.Frequency = v })
}

// SpringDampingRatio is relative to critical damping; 1 is critical.
func (c *DistanceLimit) SpringDampingRatio() float64 {
	return c.desc.Spring.DampingRatio
}

func (c *DistanceLimit) SetSpringDampingRatio(v float64) {
	c.edit(func(d *physics.DistanceLimit) { d.Spring.DampingRatio = v })
}
