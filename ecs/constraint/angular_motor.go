package constraint

import (
	"math"

	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/physics"
)

// AngularMotor drives the relative angular velocity of the bodies.
// Defaults: target velocity 0 (a brake) with unlimited force.
type AngularMotor struct {
	Base[physics.AngularMotor]
}

var AngularMotorComponent = component.NewComponent[AngularMotor]()

func NewAngularMotor(a, b ecs.Entity) *AngularMotor {
	return &AngularMotor{
		Base: newBase(a, b, physics.AngularMotor{MaximumForce: math.Inf(1)}),
	}
}

// TargetVelocity in radians per second.
func (c *AngularMotor) TargetVelocity() float64 {
	return c.desc.TargetVelocity
}

func (c *AngularMotor) SetTargetVelocity(v float64) {
	c.edit(func(d *physics.AngularMotor) { d.TargetVelocity = v })
}

func (c *AngularMotor) MaximumForce() float64 {
	return c.desc.MaximumForce
}

func (c *AngularMotor) SetMaximumForce(v float64) {
	c.edit(func(d *physics.AngularMotor) { d.MaximumForce = v })
}
