package constraint

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/physics"
	"github.com/milk9111/jointsync/physics/physicstest"
)

type bodyTable map[ecs.Entity]physics.BodyHandle

func (t bodyTable) ResolveBody(e ecs.Entity) (physics.BodyHandle, bool) {
	h, ok := t[e]
	return h, ok
}

type fixture struct {
	world  *ecs.World
	engine *physicstest.Engine
	bodies bodyTable
	proc   *Processor
	a, b   ecs.Entity
	owner  ecs.Entity
}

func newFixture() *fixture {
	w := ecs.NewWorld()
	f := &fixture{
		world:  w,
		engine: physicstest.NewEngine(),
		bodies: bodyTable{},
		a:      ecs.CreateEntity(w),
		b:      ecs.CreateEntity(w),
		owner:  ecs.CreateEntity(w),
	}
	f.bodies[f.a] = 1
	f.bodies[f.b] = 2
	f.proc = NewProcessor(f.engine, f.bodies)
	return f
}

func TestProcessorLifecycle(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "edits_on_unattached_component_are_buffered",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				c.SetMinimumDistance(1)
				c.SetMaximumDistance(4)
				c.SetLocalOffsetA(mgl64.Vec2{0.5, -0.25})
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if n := len(f.engine.Calls()); n != 0 {
					t.Fatalf("expected no engine calls, got %d", n)
				}
				if c.MinimumDistance() != 1 || c.MaximumDistance() != 4 {
					t.Fatalf("expected buffered 1/4, got %g/%g", c.MinimumDistance(), c.MaximumDistance())
				}

				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("attach: %v", err)
				}
				call, ok := f.engine.Last(physicstest.OpCreate)
				if !ok {
					t.Fatalf("expected a create call")
				}
				d := call.Descriptor.(physics.DistanceLimit)
				if d.MinimumDistance != 1 || d.MaximumDistance != 4 || d.LocalOffsetA.X != 0.5 || d.LocalOffsetA.Y != -0.25 {
					t.Fatalf("create did not carry buffered values: %+v", d)
				}
				if call.BodyA != 1 || call.BodyB != 2 {
					t.Fatalf("expected bodies 1 and 2, got %s %s", call.BodyA, call.BodyB)
				}
			},
		},
		{
			name: "repeated_edits_coalesce_into_one_update",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				c.SetMaximumDistance(1)
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("attach: %v", err)
				}
				for i := 1; i <= 10; i++ {
					c.SetMaximumDistance(float64(i))
				}
				if f.engine.Count(physicstest.OpUpdate) != 0 {
					t.Fatalf("setters must not call the engine")
				}
				if f.proc.Pending() != 1 {
					t.Fatalf("expected one pending refresh, got %d", f.proc.Pending())
				}
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if got := f.engine.Count(physicstest.OpUpdate); got != 1 {
					t.Fatalf("expected exactly one update, got %d", got)
				}
				call, _ := f.engine.Last(physicstest.OpUpdate)
				if got := call.Descriptor.(physics.DistanceLimit).MaximumDistance; got != 10 {
					t.Fatalf("expected final maximum 10, got %g", got)
				}
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("second sync: %v", err)
				}
				if got := f.engine.Count(physicstest.OpUpdate); got != 1 {
					t.Fatalf("clean component must not be updated again, got %d", got)
				}
			},
		},
		{
			name: "attach_then_detach_creates_and_destroys_once",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("attach: %v", err)
				}
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("second attach: %v", err)
				}
				bnd, ok := c.Binding()
				if !ok || !bnd.Handle().Valid() {
					t.Fatalf("expected live binding after attach")
				}
				if bnd.Entity() != f.owner {
					t.Fatalf("binding entity %s, want %s", bnd.Entity(), f.owner)
				}
				if err := f.proc.Detach(f.owner, c); err != nil {
					t.Fatalf("detach: %v", err)
				}
				calls := f.engine.Calls()
				if len(calls) != 2 || calls[0].Op != physicstest.OpCreate || calls[1].Op != physicstest.OpDestroy {
					t.Fatalf("expected create then destroy, got %+v", calls)
				}
				if calls[1].Handle != bnd.Handle() {
					t.Fatalf("destroyed %s, want %s", calls[1].Handle, bnd.Handle())
				}
				if c.Attached() {
					t.Fatalf("component should be unattached after detach")
				}
				if f.proc.Len() != 0 {
					t.Fatalf("expected no live bindings, got %d", f.proc.Len())
				}
			},
		},
		{
			name: "detach_on_unattached_component_does_nothing",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewHinge(f.a, f.b)
				if err := f.proc.Detach(f.owner, c); err != nil {
					t.Fatalf("detach: %v", err)
				}
				if n := len(f.engine.Calls()); n != 0 {
					t.Fatalf("expected no engine calls, got %d", n)
				}
			},
		},
		{
			name: "unresolved_bodies_defer_the_attach",
			run: func(t *testing.T) {
				f := newFixture()
				delete(f.bodies, f.b)
				c := NewDistanceLimit(f.a, f.b)
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("deferred attach must not fail: %v", err)
				}
				if c.Attached() || f.proc.Deferred() != 1 {
					t.Fatalf("expected one deferred unattached component")
				}
				c.SetMaximumDistance(3)
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if f.engine.Count(physicstest.OpCreate) != 0 {
					t.Fatalf("create must wait for both bodies")
				}

				f.bodies[f.b] = 7
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				call, ok := f.engine.Last(physicstest.OpCreate)
				if !ok || call.BodyB != 7 {
					t.Fatalf("expected create against body 7, got %+v", call)
				}
				if got := call.Descriptor.(physics.DistanceLimit).MaximumDistance; got != 3 {
					t.Fatalf("expected buffered maximum 3, got %g", got)
				}
				if !c.Attached() || f.proc.Deferred() != 0 {
					t.Fatalf("expected component attached and nothing deferred")
				}
			},
		},
		{
			name: "detach_cancels_a_deferred_attach",
			run: func(t *testing.T) {
				f := newFixture()
				delete(f.bodies, f.a)
				c := NewDistanceLimit(f.a, f.b)
				_ = f.proc.Attach(f.owner, c)
				if err := f.proc.Detach(f.owner, c); err != nil {
					t.Fatalf("detach: %v", err)
				}
				f.bodies[f.a] = 1
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if f.engine.Count(physicstest.OpCreate) != 0 {
					t.Fatalf("cancelled attach must not create")
				}
			},
		},
		{
			name: "failed_destroy_keeps_the_binding",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("attach: %v", err)
				}
				boom := errors.New("boom")
				f.engine.FailNext(physicstest.OpDestroy, boom)
				err := f.proc.Detach(f.owner, c)
				if !errors.Is(err, ErrEngineRejection) || !errors.Is(err, boom) {
					t.Fatalf("expected engine rejection wrapping boom, got %v", err)
				}
				if !c.Attached() {
					t.Fatalf("binding must survive a failed destroy")
				}
				if !errors.Is(f.proc.Faulted(f.owner), boom) {
					t.Fatalf("expected entity to be marked faulted")
				}
				if err := f.proc.Detach(f.owner, c); err != nil {
					t.Fatalf("retry detach: %v", err)
				}
				if c.Attached() || f.proc.Faulted(f.owner) != nil {
					t.Fatalf("successful retry should clear binding and fault")
				}
			},
		},
		{
			name: "failed_create_leaves_component_unattached",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				c.SetMinimumDistance(5)
				c.SetMaximumDistance(1)
				err := f.proc.Attach(f.owner, c)
				if !errors.Is(err, physics.ErrInvalidDescriptor) {
					t.Fatalf("expected invalid descriptor, got %v", err)
				}
				if c.Attached() {
					t.Fatalf("failed create must not install a binding")
				}
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("failed create is not retried: %v", err)
				}
				if got := f.engine.Count(physicstest.OpCreate); got != 1 {
					t.Fatalf("expected one create attempt, got %d", got)
				}
			},
		},
		{
			name: "failed_update_keeps_local_value",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				_ = f.proc.Attach(f.owner, c)
				c.SetMinimumDistance(3)
				err := f.proc.Sync()
				if !errors.Is(err, ErrEngineRejection) {
					t.Fatalf("expected rejected update, got %v", err)
				}
				if c.MinimumDistance() != 3 {
					t.Fatalf("local value must be kept")
				}
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("rejected update must not be retried: %v", err)
				}
				c.SetMaximumDistance(4)
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("next edit should apply: %v", err)
				}
			},
		},
		{
			name: "default_distance_limit_scenario",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				if c.SpringFrequency() != 30 || c.SpringDampingRatio() != 5 {
					t.Fatalf("expected default spring 30/5, got %g/%g", c.SpringFrequency(), c.SpringDampingRatio())
				}
				if c.LocalOffsetA() != (mgl64.Vec2{}) || c.LocalOffsetB() != (mgl64.Vec2{}) {
					t.Fatalf("expected zero offsets")
				}
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("attach: %v", err)
				}
				c.SetMinimumDistance(2)
				c.SetMaximumDistance(5)
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if got := f.engine.Count(physicstest.OpUpdate); got != 1 {
					t.Fatalf("expected one update, got %d", got)
				}
				bnd, _ := c.Binding()
				live, _ := f.engine.Live(bnd.Handle())
				want := physics.DistanceLimit{
					MinimumDistance: 2,
					MaximumDistance: 5,
					Spring:          physics.SpringSettings{Frequency: 30, DampingRatio: 5},
				}
				if live != want {
					t.Fatalf("engine holds %+v, want %+v", live, want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestProcessorBodies(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "release_body_detaches_and_defers",
			run: func(t *testing.T) {
				f := newFixture()
				c1 := NewDistanceLimit(f.a, f.b)
				c2 := NewSpring(f.a, f.b)
				other := ecs.CreateEntity(f.world)
				f.bodies[other] = 3
				c3 := NewHinge(f.b, other)
				c4 := NewHinge(other, other)
				for _, c := range []Constraint{c1, c2, c3, c4} {
					if err := f.proc.Attach(f.owner, c); err != nil {
						t.Fatalf("attach: %v", err)
					}
				}
				if err := f.proc.ReleaseBody(f.a); err != nil {
					t.Fatalf("release: %v", err)
				}
				if c1.Attached() || c2.Attached() {
					t.Fatalf("constraints on the released body must be detached")
				}
				if !c3.Attached() || !c4.Attached() {
					t.Fatalf("unrelated constraints must stay attached")
				}
				if f.proc.Deferred() != 2 {
					t.Fatalf("expected two deferred components, got %d", f.proc.Deferred())
				}

				delete(f.bodies, f.a)
				_ = f.proc.Sync()
				if c1.Attached() {
					t.Fatalf("must not reattach without a body")
				}
				f.bodies[f.a] = 9
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if !c1.Attached() || !c2.Attached() {
					t.Fatalf("expected reattach once the body resolves")
				}
			},
		},
		{
			name: "release_body_reports_failed_destroy",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				_ = f.proc.Attach(f.owner, c)
				f.engine.FailNext(physicstest.OpDestroy, errors.New("locked"))
				if err := f.proc.ReleaseBody(f.b); !errors.Is(err, ErrEngineRejection) {
					t.Fatalf("expected rejection, got %v", err)
				}
				if !c.Attached() {
					t.Fatalf("binding must survive")
				}
			},
		},
		{
			name: "changing_bodies_rebinds_at_sync",
			run: func(t *testing.T) {
				f := newFixture()
				other := ecs.CreateEntity(f.world)
				f.bodies[other] = 3
				c := NewDistanceLimit(f.a, f.b)
				_ = f.proc.Attach(f.owner, c)
				first, _ := c.Binding()
				firstHandle := first.Handle()

				c.SetBodies(f.a, other)
				c.SetMaximumDistance(2)
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				calls := f.engine.Calls()
				if len(calls) != 3 || calls[1].Op != physicstest.OpDestroy || calls[2].Op != physicstest.OpCreate {
					t.Fatalf("expected create, destroy, create; got %+v", calls)
				}
				if calls[1].Handle != firstHandle || calls[2].BodyB != 3 {
					t.Fatalf("rebind used wrong handles: %+v", calls)
				}
				if got := calls[2].Descriptor.(physics.DistanceLimit).MaximumDistance; got != 2 {
					t.Fatalf("rebind should carry latest values, got %g", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestProcessorObservesWorld(t *testing.T) {
	f := newFixture()
	f.proc.Observe(f.world)

	c := NewDistanceLimit(f.a, f.b)
	c.SetMaximumDistance(1)
	if err := ecs.Add(f.world, f.owner, DistanceLimitComponent.Kind(), c); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(f.engine.Calls()) != 0 {
		t.Fatalf("lifecycle work must wait for the sync point")
	}
	if f.proc.Pending() != 1 {
		t.Fatalf("expected one queued attach, got %d", f.proc.Pending())
	}
	f.proc.Update(f.world)
	if !c.Attached() {
		t.Fatalf("expected attach at update")
	}

	c.SetMaximumDistance(2)
	if !ecs.DestroyEntity(f.world, f.owner) {
		t.Fatalf("destroy entity")
	}
	f.proc.Update(f.world)
	calls := f.engine.Calls()
	if len(calls) != 2 || calls[1].Op != physicstest.OpDestroy {
		t.Fatalf("expected create then destroy without an update, got %+v", calls)
	}
	if c.Attached() {
		t.Fatalf("component should be detached")
	}
}

func TestProcessorRefresh(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "refresh_updates_once_and_clears_dirty",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewSpring(f.a, f.b)
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("attach: %v", err)
				}
				f.engine.Reset()
				c.SetRestLength(12)
				if f.proc.Pending() != 1 {
					t.Fatalf("expected queued refresh, got %d", f.proc.Pending())
				}
				if err := f.proc.Refresh(c); err != nil {
					t.Fatalf("refresh: %v", err)
				}
				if f.proc.Pending() != 0 {
					t.Fatalf("refresh should clear the queued entry, got %d", f.proc.Pending())
				}
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				calls := f.engine.Calls()
				if len(calls) != 1 || calls[0].Op != physicstest.OpUpdate {
					t.Fatalf("expected exactly one update, got %+v", calls)
				}
				if got := calls[0].Descriptor.(physics.Spring).RestLength; got != 12 {
					t.Fatalf("expected rest length 12, got %g", got)
				}
			},
		},
		{
			name: "refresh_on_unbound_component",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewSpring(f.a, f.b)
				if err := f.proc.Refresh(c); !errors.Is(err, ErrNotAttached) {
					t.Fatalf("expected ErrNotAttached, got %v", err)
				}
				if err := f.proc.Refresh(nil); !errors.Is(err, ErrNilConstraint) {
					t.Fatalf("expected ErrNilConstraint, got %v", err)
				}
				if n := len(f.engine.Calls()); n != 0 {
					t.Fatalf("expected no engine calls, got %d", n)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestProcessorFailedDetach(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "release_body_finishes_failed_detach",
			run: func(t *testing.T) {
				f := newFixture()
				f.proc.Observe(f.world)
				c := NewDistanceLimit(f.a, f.b)
				if err := ecs.Add(f.world, f.owner, DistanceLimitComponent.Kind(), c); err != nil {
					t.Fatalf("add: %v", err)
				}
				f.proc.Update(f.world)
				f.engine.FailNext(physicstest.OpDestroy, errors.New("locked"))
				ecs.Remove(f.world, f.owner, DistanceLimitComponent.Kind())
				if err := f.proc.Sync(); !errors.Is(err, ErrEngineRejection) {
					t.Fatalf("expected rejected detach, got %v", err)
				}
				if !c.Attached() {
					t.Fatalf("binding must survive the failed destroy")
				}

				if err := f.proc.ReleaseBody(f.a); err != nil {
					t.Fatalf("release: %v", err)
				}
				if c.Attached() || f.proc.Deferred() != 0 {
					t.Fatalf("removed component must not be deferred for reattach")
				}
				if err := f.proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if got := f.engine.Count(physicstest.OpCreate); got != 1 {
					t.Fatalf("expected no recreate, got %d creates", got)
				}
				if f.engine.LiveCount() != 0 || f.proc.Len() != 0 {
					t.Fatalf("expected nothing live")
				}
			},
		},
		{
			name: "readded_component_keeps_reattach",
			run: func(t *testing.T) {
				f := newFixture()
				c := NewDistanceLimit(f.a, f.b)
				_ = f.proc.Attach(f.owner, c)
				f.engine.FailNext(physicstest.OpDestroy, errors.New("locked"))
				_ = f.proc.Detach(f.owner, c)
				if err := f.proc.Attach(f.owner, c); err != nil {
					t.Fatalf("attach: %v", err)
				}
				if err := f.proc.ReleaseBody(f.b); err != nil {
					t.Fatalf("release: %v", err)
				}
				if f.proc.Deferred() != 1 {
					t.Fatalf("owned component should be deferred, got %d", f.proc.Deferred())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestProcessorPublishesFaults(t *testing.T) {
	f := newFixture()
	f.proc.Observe(f.world)
	c := NewAngularMotor(f.a, f.b)
	if err := ecs.Add(f.world, f.owner, AngularMotorComponent.Kind(), c); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.proc.Update(f.world)

	c.SetMaximumForce(-1)
	f.proc.Update(f.world)
	events := f.world.Events().Peek(EventConstraintFault)
	if len(events) != 1 {
		t.Fatalf("expected one fault event, got %d", len(events))
	}
	fault := events[0].Data.(Fault)
	if fault.Entity != f.owner || fault.Op != "update" {
		t.Fatalf("unexpected fault %+v", fault)
	}
	if !errors.Is(fault.Err, physics.ErrInvalidDescriptor) {
		t.Fatalf("fault should carry engine error, got %v", fault.Err)
	}
}

func TestProcessorPublishesOneFaultPerFailure(t *testing.T) {
	f := newFixture()
	f.proc.Observe(f.world)
	c := NewDistanceLimit(f.a, f.b)
	if err := ecs.Add(f.world, f.owner, DistanceLimitComponent.Kind(), c); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.proc.Update(f.world)

	boom := errors.New("boom")
	f.engine.FailNext(physicstest.OpDestroy, boom)
	if !ecs.DestroyEntity(f.world, f.owner) {
		t.Fatalf("destroy entity")
	}
	f.proc.Update(f.world)
	events := f.world.Events().Peek(EventConstraintFault)
	if len(events) != 1 {
		t.Fatalf("expected one fault event, got %d", len(events))
	}
	fault := events[0].Data.(Fault)
	if fault.Entity != f.owner || fault.Op != "destroy" {
		t.Fatalf("fault not attributed: %+v", fault)
	}
	if !errors.Is(fault.Err, boom) || !errors.Is(fault.Err, ErrEngineRejection) {
		t.Fatalf("fault should match boom and rejection, got %v", fault.Err)
	}
}
