package constraint

import (
	"github.com/milk9111/jointsync/common"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/physics"
)

// AngularLimit keeps the relative rotation of the bodies inside a range.
// Defaults: a zero range, which locks the relative rotation, default spring.
type AngularLimit struct {
	Base[physics.AngularLimit]
}

var AngularLimitComponent = component.NewComponent[AngularLimit]()

func NewAngularLimit(a, b ecs.Entity) *AngularLimit {
	return &AngularLimit{
		Base: newBase(a, b, physics.AngularLimit{Spring: physics.DefaultSpringSettings}),
	}
}

// MinimumAngle in radians.
func (c *AngularLimit) MinimumAngle() float64 {
	return common.ToHostAngle(c.desc.MinimumAngle)
}

func (c *AngularLimit) SetMinimumAngle(v float64) {
	c.edit(func(d *physics.AngularLimit) { d.MinimumAngle = common.ToNativeAngle(v) })
}

// MaximumAngle in radians.
func (c *AngularLimit) MaximumAngle() float64 {
	return common.ToHostAngle(c.desc.MaximumAngle)
}

func (c *AngularLimit) SetMaximumAngle(v float64) {
	c.edit(func(d *physics.AngularLimit) { d.MaximumAngle = common.ToNativeAngle(v) })
}

func (c *AngularLimit) SpringFrequency() float64    { return c.desc.Spring.Frequency }
func (c *AngularLimit) SpringDampingRatio() float64 { return c.desc.Spring.DampingRatio }

func (c *AngularLimit) SetSpringFrequency(v float64) {
	c.edit(func(d *physics.AngularLimit) { d.Spring.Frequency = v })
}

func (c *AngularLimit) SetSpringDampingRatio(v float64) {
	c.edit(func(d *physics.AngularLimit) { d.Spring.DampingRatio = v })
}
