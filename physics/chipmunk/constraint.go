package chipmunk

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/jointsync/physics"
	"go.uber.org/zap"
)

// defaultErrorBias is cp's own default: 10% of the error remains after 1/60s.
var defaultErrorBias = math.Pow(1.0-0.1, 60.0)

func (s *Space) CreateConstraint(a, b physics.BodyHandle, d physics.Descriptor) (physics.ConstraintHandle, error) {
	if d == nil {
		return 0, fmt.Errorf("%w: nil descriptor", physics.ErrInvalidDescriptor)
	}
	ea, ok := s.bodies[a]
	if !ok {
		return 0, fmt.Errorf("%w: %s", physics.ErrUnknownBody, a)
	}
	eb, ok := s.bodies[b]
	if !ok {
		return 0, fmt.Errorf("%w: %s", physics.ErrUnknownBody, b)
	}
	if a == b {
		return 0, fmt.Errorf("%w: %s constrained to itself", physics.ErrInvalidDescriptor, a)
	}
	if err := d.Validate(); err != nil {
		return 0, err
	}

	var c *cp.Constraint
	err := guard(func() {
		c = newConstraint(d, ea.body, eb.body)
		if c == nil {
			return
		}
		s.space.AddConstraint(c)
	})
	if err != nil {
		return 0, fmt.Errorf("chipmunk: add constraint: %w", err)
	}
	if c == nil {
		return 0, fmt.Errorf("%w: unsupported kind %s", physics.ErrInvalidDescriptor, d.Kind())
	}

	s.nextHandle++
	h := physics.ConstraintHandle(s.nextHandle)
	s.constraints[h] = &constraintEntry{constraint: c, kind: d.Kind(), a: a, b: b}
	ea.constraints++
	eb.constraints++
	s.log.Debug("constraint created", zap.Stringer("constraint", h), zap.String("kind", string(d.Kind())),
		zap.Stringer("bodyA", a), zap.Stringer("bodyB", b))
	return h, nil
}

func (s *Space) UpdateConstraint(h physics.ConstraintHandle, d physics.Descriptor) error {
	entry, ok := s.constraints[h]
	if !ok {
		return fmt.Errorf("%w: %s", physics.ErrUnknownConstraint, h)
	}
	if d == nil || d.Kind() != entry.kind {
		return fmt.Errorf("%w: %s is %s", physics.ErrDescriptorMismatch, h, entry.kind)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	if err := guard(func() { apply(d, entry.constraint) }); err != nil {
		return fmt.Errorf("chipmunk: update %s: %w", h, err)
	}
	return nil
}

func (s *Space) DestroyConstraint(h physics.ConstraintHandle) error {
	entry, ok := s.constraints[h]
	if !ok {
		return fmt.Errorf("%w: %s", physics.ErrUnknownConstraint, h)
	}
	if err := guard(func() { s.space.RemoveConstraint(entry.constraint) }); err != nil {
		return fmt.Errorf("chipmunk: remove %s: %w", h, err)
	}
	delete(s.constraints, h)
	if ea, ok := s.bodies[entry.a]; ok {
		ea.constraints--
	}
	if eb, ok := s.bodies[entry.b]; ok {
		eb.constraints--
	}
	s.log.Debug("constraint destroyed", zap.Stringer("constraint", h))
	return nil
}

// Constraint returns the cp constraint behind h.
func (s *Space) Constraint(h physics.ConstraintHandle) (*cp.Constraint, bool) {
	entry, ok := s.constraints[h]
	if !ok {
		return nil, false
	}
	return entry.constraint, true
}

func newConstraint(d physics.Descriptor, a, b *cp.Body) *cp.Constraint {
	var c *cp.Constraint
	switch d := d.(type) {
	case physics.DistanceLimit:
		c = cp.NewSlideJoint(a, b, d.LocalOffsetA, d.LocalOffsetB, d.MinimumDistance, d.MaximumDistance)
	case physics.Distance:
		c = cp.NewPinJoint(a, b, d.LocalOffsetA, d.LocalOffsetB)
	case physics.Hinge:
		c = cp.NewPivotJoint2(a, b, d.LocalOffsetA, d.LocalOffsetB)
	case physics.Spring:
		c = cp.NewDampedSpring(a, b, d.LocalOffsetA, d.LocalOffsetB, d.RestLength, d.Stiffness, d.Damping)
	case physics.AngularLimit:
		c = cp.NewRotaryLimitJoint(a, b, d.MinimumAngle, d.MaximumAngle)
	case physics.AngularMotor:
		c = cp.NewSimpleMotor(a, b, d.TargetVelocity)
	default:
		return nil
	}
	apply(d, c)
	return c
}

// apply writes every field of d onto c. The kinds must match.
func apply(d physics.Descriptor, c *cp.Constraint) {
	switch d := d.(type) {
	case physics.DistanceLimit:
		j := c.Class.(*cp.SlideJoint)
		j.AnchorA, j.AnchorB = d.LocalOffsetA, d.LocalOffsetB
		j.Min, j.Max = d.MinimumDistance, d.MaximumDistance
		c.SetErrorBias(ErrorBias(d.Spring))
	case physics.Distance:
		j := c.Class.(*cp.PinJoint)
		j.AnchorA, j.AnchorB = d.LocalOffsetA, d.LocalOffsetB
		j.Dist = d.TargetDistance
		c.SetErrorBias(ErrorBias(d.Spring))
	case physics.Hinge:
		j := c.Class.(*cp.PivotJoint)
		j.AnchorA, j.AnchorB = d.LocalOffsetA, d.LocalOffsetB
		c.SetErrorBias(ErrorBias(d.Spring))
	case physics.Spring:
		j := c.Class.(*cp.DampedSpring)
		j.AnchorA, j.AnchorB = d.LocalOffsetA, d.LocalOffsetB
		j.RestLength, j.Stiffness, j.Damping = d.RestLength, d.Stiffness, d.Damping
		c.ActivateBodies()
	case physics.AngularLimit:
		j := c.Class.(*cp.RotaryLimitJoint)
		j.Min, j.Max = d.MinimumAngle, d.MaximumAngle
		c.SetErrorBias(ErrorBias(d.Spring))
	case physics.AngularMotor:
		j := c.Class.(*cp.SimpleMotor)
		j.Rate = d.TargetVelocity
		maxForce := d.MaximumForce
		if math.IsInf(maxForce, 1) {
			maxForce = cp.INFINITY
		}
		c.SetMaxForce(maxForce)
	}
}

// ErrorBias converts spring settings into cp's error bias: the fraction of
// positional error left after one second. The slowest mode of a spring with
// angular frequency w and damping ratio z decays at z*w when underdamped and
// at w*(z-sqrt(z*z-1)) otherwise.
func ErrorBias(s physics.SpringSettings) float64 {
	if s.Frequency <= 0 {
		return defaultErrorBias
	}
	w := 2 * math.Pi * s.Frequency
	z := s.DampingRatio
	var rate float64
	if z < 1 {
		rate = z * w
	} else {
		rate = w * (z - math.Sqrt(z*z-1))
	}
	return math.Exp(-rate)
}
