package scene

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/ecs/constraint"
	"go.uber.org/multierr"
)

// Index maps scene names to the entities built for them and remembers the
// spec they were built from.
type Index struct {
	bodies      map[string]ecs.Entity
	constraints map[string]ecs.Entity
	bodySpecs   map[string]BodySpec
	dir         string
}

func newIndex(dir string) *Index {
	return &Index{
		bodies:      make(map[string]ecs.Entity),
		constraints: make(map[string]ecs.Entity),
		bodySpecs:   make(map[string]BodySpec),
		dir:         dir,
	}
}

// Body returns the entity of a named body. WorldBody and the empty name
// resolve to the zero entity, the static world body.
func (idx *Index) Body(name string) (ecs.Entity, bool) {
	if name == "" || name == WorldBody {
		return 0, true
	}
	e, ok := idx.bodies[name]
	return e, ok
}

func (idx *Index) Constraint(name string) (ecs.Entity, bool) {
	e, ok := idx.constraints[name]
	return e, ok
}

// Len returns the number of named bodies and constraints.
func (idx *Index) Len() int {
	return len(idx.bodies) + len(idx.constraints)
}

// ConstraintNames returns the constraint names in entity order.
func (idx *Index) ConstraintNames() []string {
	return sortedByEntity(idx.constraints)
}

func (idx *Index) BodyNames() []string {
	return sortedByEntity(idx.bodies)
}

// NameOf returns the scene name of a body or constraint entity.
func (idx *Index) NameOf(e ecs.Entity) (string, bool) {
	if !e.Valid() {
		return WorldBody, true
	}
	for name, ent := range idx.bodies {
		if ent == e {
			return name, true
		}
	}
	for name, ent := range idx.constraints {
		if ent == e {
			return name, true
		}
	}
	return "", false
}

// Build creates an entity for every body and constraint in spec. Entries
// without a name get a generated one.
func Build(w *ecs.World, spec Spec) (*Index, error) {
	idx := newIndex(spec.Dir)
	var errs error
	for _, b := range spec.Bodies {
		errs = multierr.Append(errs, idx.addBody(w, b))
	}
	for _, c := range spec.Constraints {
		errs = multierr.Append(errs, idx.addConstraint(w, c))
	}
	return idx, errs
}

func (idx *Index) addBody(w *ecs.World, b BodySpec) error {
	if b.Name == "" {
		b.Name = "body-" + uuid.NewString()
	}
	e := ecs.CreateEntity(w)
	idx.bodies[b.Name] = e
	idx.bodySpecs[b.Name] = b
	return multierr.Combine(
		ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: b.Name}),
		setBody(w, e, b),
	)
}

func setBody(w *ecs.World, e ecs.Entity, b BodySpec) error {
	return multierr.Combine(
		ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: b.X, Y: b.Y, Rotation: b.Rotation}),
		ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
			Width:      b.Width,
			Height:     b.Height,
			Radius:     b.Radius,
			Mass:       b.Mass,
			Friction:   b.Friction,
			Elasticity: b.Elasticity,
			Static:     b.Static,
		}),
	)
}

func (idx *Index) addConstraint(w *ecs.World, cs ConstraintSpec) error {
	if cs.Name == "" {
		cs.Name = "constraint-" + uuid.NewString()
	}
	a, b, err := idx.resolveBodies(cs)
	if err != nil {
		return err
	}
	c, err := constraint.New(cs.Kind, a, b)
	if err != nil {
		return fmt.Errorf("scene: constraint %q: %w", cs.Name, err)
	}
	params, err := cs.NumericParams()
	if err != nil {
		return err
	}
	if err := constraint.SetParams(c, params); err != nil {
		return fmt.Errorf("scene: constraint %q: %w", cs.Name, err)
	}

	e := ecs.CreateEntity(w)
	idx.constraints[cs.Name] = e
	return multierr.Combine(
		ecs.Add(w, e, component.NameComponent.Kind(), &component.Name{Value: cs.Name}),
		constraint.Add(w, e, c),
		idx.setScript(w, e, cs.Script),
	)
}

func (idx *Index) resolveBodies(cs ConstraintSpec) (ecs.Entity, ecs.Entity, error) {
	a, ok := idx.Body(cs.BodyA)
	if !ok {
		return 0, 0, fmt.Errorf("scene: constraint %q: unknown body %q", cs.Name, cs.BodyA)
	}
	b, ok := idx.Body(cs.BodyB)
	if !ok {
		return 0, 0, fmt.Errorf("scene: constraint %q: unknown body %q", cs.Name, cs.BodyB)
	}
	return a, b, nil
}

func (idx *Index) setScript(w *ecs.World, e ecs.Entity, path string) error {
	if path == "" {
		w.RemoveComponent(e, component.ConstraintScriptComponent.Kind())
		return nil
	}
	if !filepath.IsAbs(path) && idx.dir != "" {
		path = filepath.Join(idx.dir, path)
	}
	if cur, ok := ecs.Get(w, e, component.ConstraintScriptComponent.Kind()); ok {
		cur.Path = path
		return nil
	}
	return ecs.Add(w, e, component.ConstraintScriptComponent.Kind(), &component.ConstraintScript{Path: path})
}

func sortedByEntity(m map[string]ecs.Entity) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return m[names[i]] < m[names[j]] })
	return names
}
