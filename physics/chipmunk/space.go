// Package chipmunk implements physics.Engine on top of the Chipmunk2D port
// github.com/jakecoffman/cp.
package chipmunk

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/jointsync/physics"
	"go.uber.org/zap"
)

const (
	defaultIterations = 20
	defaultBodySize   = 32
)

// BodyDef describes a body to create. Position is the body's center.
type BodyDef struct {
	Position   cp.Vector
	Angle      float64
	Width      float64
	Height     float64
	Radius     float64
	Mass       float64
	Friction   float64
	Elasticity float64
	Static     bool
	Sensor     bool
}

type bodyEntry struct {
	body        *cp.Body
	shapes      []*cp.Shape
	constraints int
}

type constraintEntry struct {
	constraint *cp.Constraint
	kind       physics.Kind
	a, b       physics.BodyHandle
}

// Space owns a cp.Space and hands out handles for its bodies and
// constraints. It is not safe for concurrent use.
type Space struct {
	space       *cp.Space
	log         *zap.Logger
	static      physics.BodyHandle
	nextHandle  uint64
	bodies      map[physics.BodyHandle]*bodyEntry
	constraints map[physics.ConstraintHandle]*constraintEntry
}

var _ physics.Engine = (*Space)(nil)

type Option func(*Space)

func WithLogger(l *zap.Logger) Option {
	return func(s *Space) {
		if l != nil {
			s.log = l
		}
	}
}

func WithIterations(n uint) Option {
	return func(s *Space) {
		if n > 0 {
			s.space.Iterations = n
		}
	}
}

func WithGravity(g cp.Vector) Option {
	return func(s *Space) {
		s.space.SetGravity(g)
	}
}

func NewSpace(opts ...Option) *Space {
	space := cp.NewSpace()
	space.Iterations = defaultIterations
	s := &Space{
		space:       space,
		log:         zap.NewNop(),
		bodies:      make(map[physics.BodyHandle]*bodyEntry),
		constraints: make(map[physics.ConstraintHandle]*constraintEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.static = s.allocBody(&bodyEntry{body: space.StaticBody})
	return s
}

// CPSpace exposes the underlying space for debug drawing.
func (s *Space) CPSpace() *cp.Space {
	return s.space
}

// StaticBody returns the handle of the space's world-anchored static body.
func (s *Space) StaticBody() physics.BodyHandle {
	return s.static
}

func (s *Space) allocBody(e *bodyEntry) physics.BodyHandle {
	s.nextHandle++
	h := physics.BodyHandle(s.nextHandle)
	s.bodies[h] = e
	return h
}

// CreateBody adds a body with a single box or circle shape.
func (s *Space) CreateBody(def BodyDef) (physics.BodyHandle, error) {
	width, height, radius := def.Width, def.Height, def.Radius
	if radius <= 0 && (width <= 0 || height <= 0) {
		width = defaultBodySize
		height = defaultBodySize
	}

	var body *cp.Body
	if def.Static {
		body = cp.NewStaticBody()
	} else {
		mass := def.Mass
		if mass <= 0 {
			mass = 1
		}
		var moment float64
		if radius > 0 {
			moment = cp.MomentForCircle(mass, 0, radius, cp.Vector{})
		} else {
			moment = cp.MomentForBox(mass, width, height)
		}
		body = cp.NewBody(mass, moment)
	}
	body.SetPosition(def.Position)
	body.SetAngle(def.Angle)

	var shape *cp.Shape
	if radius > 0 {
		shape = cp.NewCircle(body, radius, cp.Vector{})
	} else {
		shape = cp.NewBox(body, width, height, 0)
	}
	shape.SetFriction(def.Friction)
	shape.SetElasticity(def.Elasticity)
	shape.SetSensor(def.Sensor)

	err := guard(func() {
		s.space.AddBody(body)
		s.space.AddShape(shape)
	})
	if err != nil {
		return 0, fmt.Errorf("chipmunk: add body: %w", err)
	}

	h := s.allocBody(&bodyEntry{body: body, shapes: []*cp.Shape{shape}})
	s.log.Debug("body created", zap.Stringer("body", h), zap.Bool("static", def.Static))
	return h, nil
}

// DestroyBody removes a body and its shapes. Every constraint attached to
// the body must have been destroyed first.
func (s *Space) DestroyBody(h physics.BodyHandle) error {
	entry, ok := s.bodies[h]
	if !ok {
		return fmt.Errorf("%w: %s", physics.ErrUnknownBody, h)
	}
	if h == s.static {
		return fmt.Errorf("chipmunk: static body %s cannot be destroyed", h)
	}
	if entry.constraints > 0 {
		return fmt.Errorf("%w: %s has %d", physics.ErrBodyInUse, h, entry.constraints)
	}
	err := guard(func() {
		for _, shape := range entry.shapes {
			s.space.RemoveShape(shape)
		}
		s.space.RemoveBody(entry.body)
	})
	if err != nil {
		return fmt.Errorf("chipmunk: remove body %s: %w", h, err)
	}
	delete(s.bodies, h)
	s.log.Debug("body destroyed", zap.Stringer("body", h))
	return nil
}

// Body returns the cp body behind h.
func (s *Space) Body(h physics.BodyHandle) (*cp.Body, bool) {
	entry, ok := s.bodies[h]
	if !ok {
		return nil, false
	}
	return entry.body, true
}

// BodyPosition returns the center and angle of the body behind h.
func (s *Space) BodyPosition(h physics.BodyHandle) (cp.Vector, float64, bool) {
	entry, ok := s.bodies[h]
	if !ok {
		return cp.Vector{}, 0, false
	}
	return entry.body.Position(), entry.body.Angle(), true
}

// ConstraintCount reports how many constraints reference the body behind h.
func (s *Space) ConstraintCount(h physics.BodyHandle) int {
	entry, ok := s.bodies[h]
	if !ok {
		return 0
	}
	return entry.constraints
}

// Constraints returns the number of live constraints.
func (s *Space) Constraints() int {
	return len(s.constraints)
}

// Step advances the simulation by dt.
func (s *Space) Step(dt float64) {
	s.space.Step(dt)
}

// guard turns a cp assertion panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chipmunk: %v", r)
		}
	}()
	fn()
	return nil
}
