package constraint

import (
	"errors"

	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/physics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// EventConstraintFault is pushed on the world event queue for every failed
// engine operation during Update. Data is a Fault.
const EventConstraintFault = "constraint_fault"

// Fault describes one failed engine operation.
type Fault struct {
	Entity ecs.Entity
	Op     string
	Err    error
}

// BodyResolver maps body entities to live engine bodies.
type BodyResolver interface {
	ResolveBody(e ecs.Entity) (physics.BodyHandle, bool)
}

type lifecycleOp int

const (
	opAttach lifecycleOp = iota
	opDetach
)

type lifecycleEvent struct {
	op     lifecycleOp
	entity ecs.Entity
	c      Constraint
}

// Processor is the only caller of the engine's constraint operations. It
// owns every Binding and serializes attach, detach and refresh work onto its
// synchronization point.
type Processor struct {
	engine physics.Engine
	bodies BodyResolver
	log    *zap.Logger

	owners    map[Constraint]ecs.Entity
	live      batch
	deferred  batch
	dirty     batch
	rebind    batch
	detaching batch
	lifecycle []lifecycleEvent
	faults    map[ecs.Entity]error
}

var (
	_ ecs.System   = (*Processor)(nil)
	_ ecs.Observer = (*Processor)(nil)
)

type Option func(*Processor)

func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

func NewProcessor(engine physics.Engine, bodies BodyResolver, opts ...Option) *Processor {
	p := &Processor{
		engine: engine,
		bodies: bodies,
		log:    zap.NewNop(),
		owners: make(map[Constraint]ecs.Entity),
		faults: make(map[ecs.Entity]error),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach creates the native constraint for c and installs its binding. When
// either body is not resolvable yet the attach is deferred and retried at
// every Sync. Attaching a bound component does nothing.
func (p *Processor) Attach(e ecs.Entity, c Constraint) error {
	if c == nil {
		return ErrNilConstraint
	}
	if c.liveBinding() != nil {
		// re-adding a component whose detach failed keeps it
		if p.detaching.remove(c) {
			p.owners[c] = e
		}
		p.log.Debug("attach ignored, already attached", zap.Stringer("entity", e))
		return nil
	}
	p.owners[c] = e

	a, b := c.Bodies()
	ha, okA := p.bodies.ResolveBody(a)
	hb, okB := p.bodies.ResolveBody(b)
	if !okA || !okB {
		if p.deferred.add(c) {
			p.log.Debug("attach deferred, bodies unresolved", zap.Stringer("entity", e),
				zap.Stringer("bodyA", a), zap.Bool("bodyAResolved", okA),
				zap.Stringer("bodyB", b), zap.Bool("bodyBResolved", okB))
		}
		return nil
	}
	p.deferred.remove(c)

	h, err := p.engine.CreateConstraint(ha, hb, c.descriptor())
	if err != nil {
		p.log.Error("create constraint failed", zap.Stringer("entity", e), zap.Error(err))
		return &EngineError{Op: "create", Entity: e, Err: err}
	}
	c.setLiveBinding(&Binding{
		handle:    h,
		entity:    e,
		bodyA:     ha,
		bodyB:     hb,
		owner:     c,
		processor: p,
	})
	p.live.add(c)
	// the create carried the latest values
	p.dirty.remove(c)
	p.log.Debug("constraint attached", zap.Stringer("entity", e), zap.Stringer("constraint", h))
	return nil
}

// Detach destroys the native constraint of c and then clears its binding.
// Detaching an unattached component only cancels a deferred attach. When the
// engine refuses the destroy the binding is kept and the entity is marked
// faulted.
func (p *Processor) Detach(e ecs.Entity, c Constraint) error {
	if c == nil {
		return ErrNilConstraint
	}
	if c.liveBinding() == nil {
		p.deferred.remove(c)
		delete(p.owners, c)
		p.log.Debug("detach ignored, not attached", zap.Stringer("entity", e))
		return nil
	}
	if err := p.release(c); err != nil {
		p.detaching.add(c)
		return err
	}
	p.detaching.remove(c)
	delete(p.owners, c)
	return nil
}

// release destroys the native constraint and clears the binding, keeping
// the component registered with the processor.
func (p *Processor) release(c Constraint) error {
	bnd := c.liveBinding()
	if err := p.engine.DestroyConstraint(bnd.handle); err != nil {
		p.faults[bnd.entity] = err
		p.log.Error("destroy constraint failed, keeping binding", zap.Stringer("entity", bnd.entity),
			zap.Stringer("constraint", bnd.handle), zap.Error(err))
		return &EngineError{Op: "destroy", Entity: bnd.entity, Handle: bnd.handle, Err: err}
	}
	c.setLiveBinding(nil)
	delete(p.faults, bnd.entity)
	p.live.remove(c)
	p.dirty.remove(c)
	p.rebind.remove(c)
	p.log.Debug("constraint detached", zap.Stringer("entity", bnd.entity), zap.Stringer("constraint", bnd.handle))
	return nil
}

// Refresh pushes the current descriptor of a bound component to the engine
// immediately.
func (p *Processor) Refresh(c Constraint) error {
	if c == nil {
		return ErrNilConstraint
	}
	bnd := c.liveBinding()
	if bnd == nil {
		return ErrNotAttached
	}
	p.dirty.remove(c)
	if err := p.engine.UpdateConstraint(bnd.handle, c.descriptor()); err != nil {
		p.log.Warn("update constraint failed", zap.Stringer("entity", bnd.entity),
			zap.Stringer("constraint", bnd.handle), zap.Error(err))
		return &EngineError{Op: "update", Entity: bnd.entity, Handle: bnd.handle, Err: err}
	}
	return nil
}

// RequestRefresh queues a refresh for the next Sync. Repeated requests for
// the same component collapse into one. Unbound components are ignored.
func (p *Processor) RequestRefresh(c Constraint) {
	if c == nil || c.liveBinding() == nil {
		return
	}
	p.dirty.add(c)
}

// ReleaseBody detaches every bound constraint that references body so the
// body can be destroyed. Released components are deferred and reattach if
// the body ever resolves again, except those whose detach already failed:
// they are finished instead. The body must not be destroyed when an error
// is returned.
func (p *Processor) ReleaseBody(body ecs.Entity) error {
	var errs error
	for _, c := range p.live.items() {
		a, b := c.Bodies()
		bnd := c.liveBinding()
		if a != body && b != body && !p.boundTo(bnd, body) {
			continue
		}
		if err := p.release(c); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if p.detaching.remove(c) {
			delete(p.owners, c)
			continue
		}
		p.deferred.add(c)
	}
	return errs
}

// boundTo reports whether the native constraint was created against the
// body of e, covering components whose bodies changed since attach.
func (p *Processor) boundTo(bnd *Binding, e ecs.Entity) bool {
	h, ok := p.bodies.ResolveBody(e)
	if !ok {
		return false
	}
	return bnd.bodyA == h || bnd.bodyB == h
}

// Sync is the synchronization point: queued attach and detach requests run
// in arrival order, then rebinds, deferred attaches and finally one update
// per edited component.
func (p *Processor) Sync() error {
	return multierr.Combine(p.sync()...)
}

func (p *Processor) sync() []error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	events := p.lifecycle
	p.lifecycle = nil
	for _, ev := range events {
		switch ev.op {
		case opAttach:
			collect(p.Attach(ev.entity, ev.c))
		case opDetach:
			collect(p.Detach(ev.entity, ev.c))
		}
	}

	for _, c := range p.rebind.drain() {
		if c.liveBinding() == nil || p.detaching.has(c) {
			continue
		}
		e := p.owners[c]
		if err := p.release(c); err != nil {
			collect(err)
			continue
		}
		collect(p.Attach(e, c))
	}

	for _, c := range p.deferred.items() {
		collect(p.Attach(p.owners[c], c))
	}

	for _, c := range p.dirty.drain() {
		if c.liveBinding() == nil {
			continue
		}
		collect(p.Refresh(c))
	}
	return errs
}

// Update runs Sync as part of the world's tick and publishes a Fault event
// for every failure.
func (p *Processor) Update(w *ecs.World) {
	for _, e := range p.sync() {
		fault := Fault{Err: e}
		var engineErr *EngineError
		if errors.As(e, &engineErr) {
			fault.Entity = engineErr.Entity
			fault.Op = engineErr.Op
		}
		w.Events().Push(ecs.Event{Type: EventConstraintFault, Data: fault})
	}
}

func (p *Processor) ComponentAdded(e ecs.Entity, value any) {
	if c, ok := value.(Constraint); ok {
		p.lifecycle = append(p.lifecycle, lifecycleEvent{op: opAttach, entity: e, c: c})
	}
}

func (p *Processor) ComponentRemoved(e ecs.Entity, value any) {
	if c, ok := value.(Constraint); ok {
		p.lifecycle = append(p.lifecycle, lifecycleEvent{op: opDetach, entity: e, c: c})
	}
}

// EntityDestroyed needs no work: the world reports every component removal
// before the entity itself.
func (p *Processor) EntityDestroyed(ecs.Entity) {}

// Observe registers p for component lifecycle notifications on w.
func (p *Processor) Observe(w *ecs.World) {
	w.Observe(p)
}

// Faulted returns the last destroy failure recorded for e.
func (p *Processor) Faulted(e ecs.Entity) error {
	return p.faults[e]
}

// Len returns the number of bound components.
func (p *Processor) Len() int {
	return p.live.len()
}

// Deferred returns the number of components waiting for their bodies.
func (p *Processor) Deferred() int {
	return p.deferred.len()
}

// Pending returns the number of queued lifecycle events and refreshes.
func (p *Processor) Pending() int {
	return len(p.lifecycle) + p.dirty.len() + p.rebind.len()
}
