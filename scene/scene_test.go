package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/ecs/constraint"
	"github.com/milk9111/jointsync/physics"
	"github.com/milk9111/jointsync/physics/physicstest"
)

const pendulumYAML = `
bodies:
  - name: anchor
    x: 0
    y: 0
    width: 10
    height: 10
    static: true
  - name: bob
    x: 30
    y: 0
    radius: 4
    mass: 1
constraints:
  - name: rope
    kind: distance_limit
    body_a: anchor
    body_b: bob
    params:
      max_distance: 30
  - name: pin
    kind: hinge
    body_a: world
    body_b: anchor
`

type anyBody struct{}

func (anyBody) ResolveBody(e ecs.Entity) (physics.BodyHandle, bool) {
	return physics.BodyHandle(e) + 1, true
}

func build(t *testing.T, src string) (*ecs.World, *Index, *constraint.Processor, *physicstest.Engine) {
	t.Helper()
	spec, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	w := ecs.NewWorld()
	engine := physicstest.NewEngine()
	proc := constraint.NewProcessor(engine, anyBody{})
	proc.Observe(w)
	idx, err := Build(w, spec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := proc.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return w, idx, proc, engine
}

func TestBuild(t *testing.T) {
	w, idx, _, engine := build(t, pendulumYAML)

	rope, ok := idx.Constraint("rope")
	if !ok {
		t.Fatalf("rope not indexed")
	}
	c, ok := constraint.Lookup(w, rope)
	if !ok {
		t.Fatalf("rope has no constraint")
	}
	limit := c.(*constraint.DistanceLimit)
	if limit.MaximumDistance() != 30 || limit.SpringFrequency() != 30 {
		t.Fatalf("unexpected rope params %v", constraint.Params(limit))
	}
	anchor, _ := idx.Body("anchor")
	bob, _ := idx.Body("bob")
	if a, b := limit.Bodies(); a != anchor || b != bob {
		t.Fatalf("rope bodies %s %s", a, b)
	}
	pin, _ := idx.Constraint("pin")
	pc, _ := constraint.Lookup(w, pin)
	if a, _ := pc.Bodies(); a.Valid() {
		t.Fatalf("world body should resolve to the zero entity")
	}
	if got := engine.Count(physicstest.OpCreate); got != 2 {
		t.Fatalf("expected two creates, got %d", got)
	}
	if n, ok := ecs.Get(w, bob, component.NameComponent.Kind()); !ok || n.Value != "bob" {
		t.Fatalf("bob not named")
	}
}

func TestBuildGeneratesNames(t *testing.T) {
	_, idx, _, _ := build(t, "bodies:\n  - x: 1\n  - x: 2\n")
	names := idx.BodyNames()
	if len(names) != 2 || names[0] == names[1] {
		t.Fatalf("expected two distinct names, got %v", names)
	}
	for _, n := range names {
		if !strings.HasPrefix(n, "body-") {
			t.Fatalf("unexpected generated name %q", n)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"reserved_world", "bodies:\n  - name: world\n"},
		{"duplicate", "bodies:\n  - name: a\n  - name: a\n"},
		{"bad_yaml", "bodies: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "edited_params_become_one_update",
			run: func(t *testing.T) {
				w, idx, proc, engine := build(t, pendulumYAML)
				edited := strings.Replace(pendulumYAML, "max_distance: 30", "max_distance: 5\n      min_distance: 2\n      offset_b_x: 1", 1)
				spec, err := Parse([]byte(edited))
				if err != nil {
					t.Fatalf("parse: %v", err)
				}
				if err := Apply(w, idx, spec); err != nil {
					t.Fatalf("apply: %v", err)
				}
				if err := proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if got := engine.Count(physicstest.OpUpdate); got != 1 {
					t.Fatalf("expected one update, got %d", got)
				}
				call, _ := engine.Last(physicstest.OpUpdate)
				d := call.Descriptor.(physics.DistanceLimit)
				if d.MinimumDistance != 2 || d.MaximumDistance != 5 || d.LocalOffsetB.X != 1 {
					t.Fatalf("unexpected descriptor %+v", d)
				}
				if engine.Count(physicstest.OpCreate) != 2 || engine.Count(physicstest.OpDestroy) != 0 {
					t.Fatalf("apply must not rebuild unchanged constraints")
				}
			},
		},
		{
			name: "removed_constraint_is_destroyed_and_new_one_created",
			run: func(t *testing.T) {
				w, idx, proc, engine := build(t, pendulumYAML)
				edited := strings.Replace(pendulumYAML, "name: pin\n    kind: hinge", "name: motor\n    kind: angular_motor", 1)
				spec, err := Parse([]byte(edited))
				if err != nil {
					t.Fatalf("parse: %v", err)
				}
				if err := Apply(w, idx, spec); err != nil {
					t.Fatalf("apply: %v", err)
				}
				if err := proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				if _, ok := idx.Constraint("pin"); ok {
					t.Fatalf("pin should be gone")
				}
				if engine.Count(physicstest.OpDestroy) != 1 || engine.Count(physicstest.OpCreate) != 3 {
					t.Fatalf("unexpected calls %+v", engine.Calls())
				}
				call, _ := engine.Last(physicstest.OpCreate)
				if call.Descriptor.Kind() != physics.KindAngularMotor {
					t.Fatalf("expected motor created, got %s", call.Descriptor.Kind())
				}
			},
		},
		{
			name: "kind_change_replaces_the_component",
			run: func(t *testing.T) {
				w, idx, proc, engine := build(t, pendulumYAML)
				edited := strings.Replace(pendulumYAML, "kind: distance_limit", "kind: distance", 1)
				edited = strings.Replace(edited, "max_distance: 30", "target_distance: 30", 1)
				spec, _ := Parse([]byte(edited))
				if err := Apply(w, idx, spec); err != nil {
					t.Fatalf("apply: %v", err)
				}
				if err := proc.Sync(); err != nil {
					t.Fatalf("sync: %v", err)
				}
				rope, _ := idx.Constraint("rope")
				c, _ := constraint.Lookup(w, rope)
				if constraint.KindOf(c) != physics.KindDistance {
					t.Fatalf("rope should be a distance constraint")
				}
				if engine.Count(physicstest.OpDestroy) != 1 {
					t.Fatalf("old constraint should be destroyed")
				}
			},
		},
		{
			name: "unknown_body_is_reported",
			run: func(t *testing.T) {
				w, idx, _, _ := build(t, pendulumYAML)
				spec, _ := Parse([]byte(strings.Replace(pendulumYAML, "body_b: bob", "body_b: ghost", 1)))
				if err := Apply(w, idx, spec); err == nil {
					t.Fatalf("expected unknown body error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.run)
	}
}

func TestConstraintSpecOfRoundTrip(t *testing.T) {
	w, idx, _, _ := build(t, pendulumYAML)
	rope, _ := idx.Constraint("rope")
	cs, ok := ConstraintSpecOf(w, idx, rope)
	if !ok {
		t.Fatalf("expected spec")
	}
	data, err := Marshal(Spec{Constraints: []ConstraintSpec{cs}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, data)
	}
	got := back.Constraints[0]
	if got.Name != "rope" || got.BodyA != "anchor" || got.BodyB != "bob" || got.Kind != physics.KindDistanceLimit {
		t.Fatalf("unexpected spec %+v", got)
	}
	params, err := got.NumericParams()
	if err != nil || params["max_distance"] != 30 {
		t.Fatalf("unexpected params %v %v", params, err)
	}
}

func TestLoadAndWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte(pendulumYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	spec, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if spec.Dir != dir || len(spec.Bodies) != 2 {
		t.Fatalf("unexpected spec %+v", spec)
	}

	watcher, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(path, []byte(pendulumYAML+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case got := <-watcher.Events:
		if got != path {
			t.Fatalf("expected %s, got %s", path, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no change event")
	}
}

func TestApplyRefusesEmptyScene(t *testing.T) {
	w, idx, proc, engine := build(t, pendulumYAML)
	empty, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !empty.Empty() {
		t.Fatalf("expected empty spec")
	}
	if err := Apply(w, idx, empty); err != ErrEmptyScene {
		t.Fatalf("expected ErrEmptyScene, got %v", err)
	}
	if err := proc.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if engine.Count(physicstest.OpDestroy) != 0 || proc.Len() != 2 {
		t.Fatalf("running scene must be kept, destroys=%d live=%d", engine.Count(physicstest.OpDestroy), proc.Len())
	}
	if _, ok := idx.Body("bob"); !ok {
		t.Fatalf("bodies must be kept")
	}

	fresh := newIndex("")
	if err := Apply(ecs.NewWorld(), fresh, empty); err != nil {
		t.Fatalf("empty spec on an empty index: %v", err)
	}
}

func TestWatchReportsFinalWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	if err := os.WriteFile(path, []byte(pendulumYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	watcher, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte(pendulumYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-watcher.Events:
		if got != path {
			t.Fatalf("expected %s, got %s", path, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no change event")
	}
	spec, err := Load(path)
	if err != nil || len(spec.Bodies) != 2 {
		t.Fatalf("event must follow the final write, got %+v %v", spec, err)
	}
	select {
	case got := <-watcher.Events:
		t.Fatalf("burst should be reported once, got extra %s", got)
	case <-time.After(3 * debounce):
	}
}
