package constraint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/physics"
)

// ErrUnknownParam is returned by SetParam for a name the kind does not have.
var ErrUnknownParam = errors.New("constraint: unknown parameter")

// Parameter names shared by scene files and scripts.
const (
	ParamOffsetAX           = "offset_a_x"
	ParamOffsetAY           = "offset_a_y"
	ParamOffsetBX           = "offset_b_x"
	ParamOffsetBY           = "offset_b_y"
	ParamMinDistance        = "min_distance"
	ParamMaxDistance        = "max_distance"
	ParamTargetDistance     = "target_distance"
	ParamSpringFrequency    = "spring_frequency"
	ParamSpringDampingRatio = "spring_damping_ratio"
	ParamRestLength         = "rest_length"
	ParamStiffness          = "stiffness"
	ParamDamping            = "damping"
	ParamMinAngle           = "min_angle"
	ParamMaxAngle           = "max_angle"
	ParamTargetVelocity     = "target_velocity"
	ParamMaxForce           = "max_force"
)

type param struct {
	get func() float64
	set func(float64)
}

type offsetter interface {
	LocalOffsetA() mgl64.Vec2
	LocalOffsetB() mgl64.Vec2
	SetLocalOffsetA(mgl64.Vec2)
	SetLocalOffsetB(mgl64.Vec2)
}

type springer interface {
	SpringFrequency() float64
	SpringDampingRatio() float64
	SetSpringFrequency(float64)
	SetSpringDampingRatio(float64)
}

func offsetParams(o offsetter, out map[string]param) {
	out[ParamOffsetAX] = param{
		get: func() float64 { return o.LocalOffsetA()[0] },
		set: func(v float64) { o.SetLocalOffsetA(mgl64.Vec2{v, o.LocalOffsetA()[1]}) },
	}
	out[ParamOffsetAY] = param{
		get: func() float64 { return o.LocalOffsetA()[1] },
		set: func(v float64) { o.SetLocalOffsetA(mgl64.Vec2{o.LocalOffsetA()[0], v}) },
	}
	out[ParamOffsetBX] = param{
		get: func() float64 { return o.LocalOffsetB()[0] },
		set: func(v float64) { o.SetLocalOffsetB(mgl64.Vec2{v, o.LocalOffsetB()[1]}) },
	}
	out[ParamOffsetBY] = param{
		get: func() float64 { return o.LocalOffsetB()[1] },
		set: func(v float64) { o.SetLocalOffsetB(mgl64.Vec2{o.LocalOffsetB()[0], v}) },
	}
}

func springParams(s springer, out map[string]param) {
	out[ParamSpringFrequency] = param{get: s.SpringFrequency, set: s.SetSpringFrequency}
	out[ParamSpringDampingRatio] = param{get: s.SpringDampingRatio, set: s.SetSpringDampingRatio}
}

func paramsOf(c Constraint) map[string]param {
	out := make(map[string]param)
	switch c := c.(type) {
	case *DistanceLimit:
		offsetParams(c, out)
		springParams(c, out)
		out[ParamMinDistance] = param{get: c.MinimumDistance, set: c.SetMinimumDistance}
		out[ParamMaxDistance] = param{get: c.MaximumDistance, set: c.SetMaximumDistance}
	case *Distance:
		offsetParams(c, out)
		springParams(c, out)
		out[ParamTargetDistance] = param{get: c.TargetDistance, set: c.SetTargetDistance}
	case *Hinge:
		offsetParams(c, out)
		springParams(c, out)
	case *Spring:
		offsetParams(c, out)
		out[ParamRestLength] = param{get: c.RestLength, set: c.SetRestLength}
		out[ParamStiffness] = param{get: c.Stiffness, set: c.SetStiffness}
		out[ParamDamping] = param{get: c.Damping, set: c.SetDamping}
	case *AngularLimit:
		springParams(c, out)
		out[ParamMinAngle] = param{get: c.MinimumAngle, set: c.SetMinimumAngle}
		out[ParamMaxAngle] = param{get: c.MaximumAngle, set: c.SetMaximumAngle}
	case *AngularMotor:
		out[ParamTargetVelocity] = param{get: c.TargetVelocity, set: c.SetTargetVelocity}
		out[ParamMaxForce] = param{get: c.MaximumForce, set: c.SetMaximumForce}
	}
	return out
}

// Params returns the current parameter values of c by name.
func Params(c Constraint) map[string]float64 {
	ps := paramsOf(c)
	out := make(map[string]float64, len(ps))
	for name, p := range ps {
		out[name] = p.get()
	}
	return out
}

// ParamNames returns the sorted parameter names of c.
func ParamNames(c Constraint) []string {
	ps := paramsOf(c)
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam sets one parameter through the component's setter. Writing the
// current value again is skipped so it does not queue a refresh.
func SetParam(c Constraint, name string, v float64) error {
	p, ok := paramsOf(c)[name]
	if !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownParam, name, KindOf(c))
	}
	if p.get() == v {
		return nil
	}
	p.set(v)
	return nil
}

// SetParams applies values in name order and reports every unknown name.
func SetParams(c Constraint, values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	var unknown []string
	for _, name := range names {
		if err := SetParam(c, name, values[name]); err != nil {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w %q for %s", ErrUnknownParam, unknown, KindOf(c))
	}
	return nil
}

// KindOf returns the descriptor kind of c.
func KindOf(c Constraint) physics.Kind {
	if c == nil {
		return ""
	}
	return c.descriptor().Kind()
}

// New creates an unattached component of the given kind with its defaults.
func New(kind physics.Kind, a, b ecs.Entity) (Constraint, error) {
	switch kind {
	case physics.KindDistanceLimit:
		return NewDistanceLimit(a, b), nil
	case physics.KindDistance:
		return NewDistance(a, b), nil
	case physics.KindHinge:
		return NewHinge(a, b), nil
	case physics.KindSpring:
		return NewSpring(a, b), nil
	case physics.KindAngularLimit:
		return NewAngularLimit(a, b), nil
	case physics.KindAngularMotor:
		return NewAngularMotor(a, b), nil
	}
	return nil, fmt.Errorf("constraint: unknown kind %q", kind)
}
