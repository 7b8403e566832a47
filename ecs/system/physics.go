package system

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/jointsync/common"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/ecs/constraint"
	"github.com/milk9111/jointsync/physics"
	"github.com/milk9111/jointsync/physics/chipmunk"
	"go.uber.org/zap"
)

const defaultTimeStep = 1.0 / 60.0

// PhysicsSystem owns the simulation space and the constraint processor. Each
// tick it releases bodies whose entities went away, creates bodies for new
// PhysicsBody components, runs the constraint sync point, steps the space
// and copies poses back into Transform.
//
// The zero entity resolves to the space's static body, so constraints can
// anchor to the world.
type PhysicsSystem struct {
	space     *chipmunk.Space
	processor *constraint.Processor
	log       *zap.Logger
	dt        float64

	bodies map[ecs.Entity]physics.BodyHandle
}

var _ constraint.BodyResolver = (*PhysicsSystem)(nil)

type PhysicsOption func(*PhysicsSystem)

func WithPhysicsLogger(l *zap.Logger) PhysicsOption {
	return func(ps *PhysicsSystem) {
		if l != nil {
			ps.log = l
		}
	}
}

// WithTimeStep sets the fixed step passed to the space every tick.
func WithTimeStep(dt float64) PhysicsOption {
	return func(ps *PhysicsSystem) {
		if dt > 0 {
			ps.dt = dt
		}
	}
}

func NewPhysicsSystem(space *chipmunk.Space, opts ...PhysicsOption) *PhysicsSystem {
	if space == nil {
		space = chipmunk.NewSpace()
	}
	ps := &PhysicsSystem{
		space:  space,
		log:    zap.NewNop(),
		dt:     defaultTimeStep,
		bodies: make(map[ecs.Entity]physics.BodyHandle),
	}
	for _, opt := range opts {
		opt(ps)
	}
	ps.processor = constraint.NewProcessor(space, ps, constraint.WithLogger(ps.log.Named("constraint")))
	return ps
}

// Observe registers the constraint processor on w. Call it before adding
// constraint components.
func (ps *PhysicsSystem) Observe(w *ecs.World) {
	ps.processor.Observe(w)
}

func (ps *PhysicsSystem) Space() *chipmunk.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *PhysicsSystem) Processor() *constraint.Processor {
	if ps == nil {
		return nil
	}
	return ps.processor
}

// ResolveBody implements constraint.BodyResolver.
func (ps *PhysicsSystem) ResolveBody(e ecs.Entity) (physics.BodyHandle, bool) {
	if !e.Valid() {
		return ps.space.StaticBody(), true
	}
	h, ok := ps.bodies[e]
	return h, ok
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}

	ps.releaseBodies(w)
	ps.syncEntities(w)
	ps.processor.Update(w)

	ps.space.Step(ps.dt)

	ps.syncTransforms(w)
}

// releaseBodies destroys bodies whose entity died or lost its PhysicsBody.
// Constraints on the body are released first; if that fails the body stays.
func (ps *PhysicsSystem) releaseBodies(w *ecs.World) {
	for _, e := range ps.sortedBodies() {
		h := ps.bodies[e]
		if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok && pb.Handle == h {
			continue
		}
		if err := ps.processor.ReleaseBody(e); err != nil {
			ps.log.Error("release body constraints failed, keeping body", zap.Stringer("entity", e), zap.Error(err))
			continue
		}
		if err := ps.space.DestroyBody(h); err != nil {
			ps.log.Error("destroy body failed", zap.Stringer("entity", e), zap.Stringer("body", h), zap.Error(err))
			continue
		}
		delete(ps.bodies, e)
	}
}

func (ps *PhysicsSystem) syncEntities(w *ecs.World) {
	ecs.ForEach(w, component.PhysicsBodyComponent.Kind(), func(e ecs.Entity, pb *component.PhysicsBody) {
		if _, ok := ps.bodies[e]; ok {
			return
		}
		def := chipmunk.BodyDef{
			Width:      pb.Width,
			Height:     pb.Height,
			Radius:     pb.Radius,
			Mass:       pb.Mass,
			Friction:   pb.Friction,
			Elasticity: pb.Elasticity,
			Static:     pb.Static,
		}
		if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			def.Position = common.ToNative(mgl64.Vec2{t.X, t.Y})
			def.Angle = common.ToNativeAngle(t.Rotation)
		}
		h, err := ps.space.CreateBody(def)
		if err != nil {
			ps.log.Error("create body failed", zap.Stringer("entity", e), zap.Error(err))
			return
		}
		pb.Handle = h
		ps.bodies[e] = h
	})
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, pb *component.PhysicsBody, t *component.Transform) {
		if pb.Static {
			return
		}
		pos, angle, ok := ps.space.BodyPosition(pb.Handle)
		if !ok {
			return
		}
		host := common.ToHost(pos)
		t.X, t.Y = host[0], host[1]
		t.Rotation = common.ToHostAngle(angle)
	})
}

func (ps *PhysicsSystem) sortedBodies() []ecs.Entity {
	out := make([]ecs.Entity, 0, len(ps.bodies))
	for e := range ps.bodies {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
