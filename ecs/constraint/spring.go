package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/jointsync/common"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/physics"
)

const (
	DefaultSpringStiffness = 100
	DefaultSpringDamping   = 10
)

// Spring is a damped spring between two anchors.
// Defaults: zero offsets, rest length 0, stiffness 100, damping 10.
type Spring struct {
	Base[physics.Spring]
}

var SpringComponent = component.NewComponent[Spring]()

func NewSpring(a, b ecs.Entity) *Spring {
	return &Spring{
		Base: newBase(a, b, physics.Spring{
			Stiffness: DefaultSpringStiffness,
			Damping:   DefaultSpringDamping,
		}),
	}
}

func (c *Spring) LocalOffsetA() mgl64.Vec2 { return common.ToHost(c.desc.LocalOffsetA) }
func (c *Spring) LocalOffsetB() mgl64.Vec2 { return common.ToHost(c.desc.LocalOffsetB) }

func (c *Spring) SetLocalOffsetA(v mgl64.Vec2) {
	c.edit(func(d *physics.Spring) { d.LocalOffsetA = common.ToNative(v) })
}

func (c *Spring) SetLocalOffsetB(v mgl64.Vec2) {
	c.edit(func(d *physics.Spring) { d.LocalOffsetB = common.ToNative(v) })
}

func (c *Spring) RestLength() float64 { return c.desc.RestLength }
func (c *Spring) Stiffness() float64  { return c.desc.Stiffness }
func (c *Spring) Damping() float64    { return c.desc.Damping }

func (c *Spring) SetRestLength(v float64) {
	c.edit(func(d *physics.Spring) { d.RestLength = v })
}

func (c *Spring) SetStiffness(v float64) {
	c.edit(func(d *physics.Spring) { d.Stiffness = v })
}

func (c *Spring) SetDamping(v float64) {
	c.edit(func(d *physics.Spring) { d.Damping = v })
}
