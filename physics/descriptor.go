package physics

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
)

// Kind names a constraint family.
type Kind string

const (
	KindDistanceLimit Kind = "distance_limit"
	KindDistance      Kind = "distance"
	KindHinge         Kind = "hinge"
	KindSpring        Kind = "spring"
	KindAngularLimit  Kind = "angular_limit"
	KindAngularMotor  Kind = "angular_motor"
)

// Descriptor carries the parameters the engine needs to create or update a
// constraint. Implementations are plain values.
type Descriptor interface {
	Kind() Kind
	Validate() error
	isDescriptor()
}

// SpringSettings soften a constraint: Frequency in hertz, DampingRatio
// relative to critical damping.
type SpringSettings struct {
	Frequency    float64
	DampingRatio float64
}

// DefaultSpringSettings are stiff and heavily damped.
var DefaultSpringSettings = SpringSettings{Frequency: 30, DampingRatio: 5}

func (s SpringSettings) validate() error {
	if !finite(s.Frequency, s.DampingRatio) {
		return fmt.Errorf("%w: spring settings must be finite", ErrInvalidDescriptor)
	}
	if s.Frequency < 0 || s.DampingRatio < 0 {
		return fmt.Errorf("%w: spring frequency %g and damping ratio %g must not be negative", ErrInvalidDescriptor, s.Frequency, s.DampingRatio)
	}
	return nil
}

// DistanceLimit keeps the anchors between MinimumDistance and MaximumDistance.
type DistanceLimit struct {
	LocalOffsetA    cp.Vector
	LocalOffsetB    cp.Vector
	MinimumDistance float64
	MaximumDistance float64
	Spring          SpringSettings
}

func (DistanceLimit) Kind() Kind    { return KindDistanceLimit }
func (DistanceLimit) isDescriptor() {}

func (d DistanceLimit) Validate() error {
	if !finiteVec(d.LocalOffsetA, d.LocalOffsetB) || !finite(d.MinimumDistance, d.MaximumDistance) {
		return fmt.Errorf("%w: distance limit has non-finite values", ErrInvalidDescriptor)
	}
	if d.MinimumDistance < 0 {
		return fmt.Errorf("%w: minimum distance %g is negative", ErrInvalidDescriptor, d.MinimumDistance)
	}
	if d.MinimumDistance > d.MaximumDistance {
		return fmt.Errorf("%w: minimum distance %g exceeds maximum %g", ErrInvalidDescriptor, d.MinimumDistance, d.MaximumDistance)
	}
	return d.Spring.validate()
}

// Distance holds the anchors at exactly TargetDistance.
type Distance struct {
	LocalOffsetA   cp.Vector
	LocalOffsetB   cp.Vector
	TargetDistance float64
	Spring         SpringSettings
}

func (Distance) Kind() Kind    { return KindDistance }
func (Distance) isDescriptor() {}

func (d Distance) Validate() error {
	if !finiteVec(d.LocalOffsetA, d.LocalOffsetB) || !finite(d.TargetDistance) {
		return fmt.Errorf("%w: distance has non-finite values", ErrInvalidDescriptor)
	}
	if d.TargetDistance < 0 {
		return fmt.Errorf("%w: target distance %g is negative", ErrInvalidDescriptor, d.TargetDistance)
	}
	return d.Spring.validate()
}

// Hinge pins one anchor on each body to the same point.
type Hinge struct {
	LocalOffsetA cp.Vector
	LocalOffsetB cp.Vector
	Spring       SpringSettings
}

func (Hinge) Kind() Kind    { return KindHinge }
func (Hinge) isDescriptor() {}

func (d Hinge) Validate() error {
	if !finiteVec(d.LocalOffsetA, d.LocalOffsetB) {
		return fmt.Errorf("%w: hinge has non-finite offsets", ErrInvalidDescriptor)
	}
	return d.Spring.validate()
}

// Spring is a damped spring between two anchors.
type Spring struct {
	LocalOffsetA cp.Vector
	LocalOffsetB cp.Vector
	RestLength   float64
	Stiffness    float64
	Damping      float64
}

func (Spring) Kind() Kind    { return KindSpring }
func (Spring) isDescriptor() {}

func (d Spring) Validate() error {
	if !finiteVec(d.LocalOffsetA, d.LocalOffsetB) || !finite(d.RestLength, d.Stiffness, d.Damping) {
		return fmt.Errorf("%w: spring has non-finite values", ErrInvalidDescriptor)
	}
	if d.RestLength < 0 || d.Stiffness < 0 || d.Damping < 0 {
		return fmt.Errorf("%w: spring rest length, stiffness and damping must not be negative", ErrInvalidDescriptor)
	}
	return nil
}

// AngularLimit keeps the relative angle of the bodies within [Min, Max] radians.
type AngularLimit struct {
	MinimumAngle float64
	MaximumAngle float64
	Spring       SpringSettings
}

func (AngularLimit) Kind() Kind    { return KindAngularLimit }
func (AngularLimit) isDescriptor() {}

func (d AngularLimit) Validate() error {
	if !finite(d.MinimumAngle, d.MaximumAngle) {
		return fmt.Errorf("%w: angular limit has non-finite values", ErrInvalidDescriptor)
	}
	if d.MinimumAngle > d.MaximumAngle {
		return fmt.Errorf("%w: minimum angle %g exceeds maximum %g", ErrInvalidDescriptor, d.MinimumAngle, d.MaximumAngle)
	}
	return d.Spring.validate()
}

// AngularMotor drives the relative angular velocity towards TargetVelocity
// using at most MaximumForce.
type AngularMotor struct {
	TargetVelocity float64
	MaximumForce   float64
}

func (AngularMotor) Kind() Kind    { return KindAngularMotor }
func (AngularMotor) isDescriptor() {}

func (d AngularMotor) Validate() error {
	if math.IsNaN(d.TargetVelocity) || math.IsInf(d.TargetVelocity, 0) || math.IsNaN(d.MaximumForce) {
		return fmt.Errorf("%w: angular motor has non-finite values", ErrInvalidDescriptor)
	}
	if d.MaximumForce < 0 {
		return fmt.Errorf("%w: maximum force %g is negative", ErrInvalidDescriptor, d.MaximumForce)
	}
	return nil
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func finiteVec(vs ...cp.Vector) bool {
	for _, v := range vs {
		if !finite(v.X, v.Y) {
			return false
		}
	}
	return true
}
