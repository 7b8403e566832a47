package scene

import (
	"errors"
	"fmt"

	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/constraint"
	"go.uber.org/multierr"
)

var ErrEmptyScene = errors.New("scene: file has no bodies or constraints")

// Apply brings a world built from an earlier spec in line with spec.
// Parameters of existing constraints change through their setters, so a
// running simulation sees one update per edited constraint at its next sync
// point. Changed bodies are rebuilt, new entries are built and entries no
// longer in spec are destroyed. Parameters missing from spec keep their
// current values. An empty spec is refused while idx still holds entities,
// since a half-written file parses as one.
func Apply(w *ecs.World, idx *Index, spec Spec) error {
	if spec.Empty() && idx.Len() > 0 {
		return ErrEmptyScene
	}
	if spec.Dir != "" {
		idx.dir = spec.Dir
	}
	var errs error

	wantBodies := make(map[string]bool, len(spec.Bodies))
	for _, b := range spec.Bodies {
		if b.Name == "" {
			errs = multierr.Append(errs, idx.addBody(w, b))
			continue
		}
		wantBodies[b.Name] = true
		e, ok := idx.bodies[b.Name]
		if !ok {
			errs = multierr.Append(errs, idx.addBody(w, b))
			continue
		}
		if idx.bodySpecs[b.Name] != b {
			idx.bodySpecs[b.Name] = b
			errs = multierr.Append(errs, setBody(w, e, b))
		}
	}

	wantConstraints := make(map[string]bool, len(spec.Constraints))
	for _, cs := range spec.Constraints {
		if cs.Name == "" {
			errs = multierr.Append(errs, idx.addConstraint(w, cs))
			continue
		}
		wantConstraints[cs.Name] = true
		e, ok := idx.constraints[cs.Name]
		if !ok {
			errs = multierr.Append(errs, idx.addConstraint(w, cs))
			continue
		}
		errs = multierr.Append(errs, idx.updateConstraint(w, e, cs))
	}

	for _, name := range idx.ConstraintNames() {
		if !wantConstraints[name] {
			ecs.DestroyEntity(w, idx.constraints[name])
			delete(idx.constraints, name)
		}
	}
	for _, name := range idx.BodyNames() {
		if !wantBodies[name] {
			ecs.DestroyEntity(w, idx.bodies[name])
			delete(idx.bodies, name)
			delete(idx.bodySpecs, name)
		}
	}
	return errs
}

func (idx *Index) updateConstraint(w *ecs.World, e ecs.Entity, cs ConstraintSpec) error {
	a, b, err := idx.resolveBodies(cs)
	if err != nil {
		return err
	}
	params, err := cs.NumericParams()
	if err != nil {
		return err
	}

	c, ok := constraint.Lookup(w, e)
	if !ok || constraint.KindOf(c) != cs.Kind {
		// a kind change replaces the component
		next, err := constraint.New(cs.Kind, a, b)
		if err != nil {
			return fmt.Errorf("scene: constraint %q: %w", cs.Name, err)
		}
		constraint.Remove(w, e)
		if err := constraint.Add(w, e, next); err != nil {
			return err
		}
		c = next
	} else if setter, ok := c.(interface{ SetBodies(a, b ecs.Entity) }); ok {
		setter.SetBodies(a, b)
	}

	if err := constraint.SetParams(c, params); err != nil {
		return fmt.Errorf("scene: constraint %q: %w", cs.Name, err)
	}
	return idx.setScript(w, e, cs.Script)
}

// ConstraintSpecOf describes the current state of a constraint entity, for
// copying it back into a scene file.
func ConstraintSpecOf(w *ecs.World, idx *Index, e ecs.Entity) (ConstraintSpec, bool) {
	c, ok := constraint.Lookup(w, e)
	if !ok {
		return ConstraintSpec{}, false
	}
	name, _ := idx.NameOf(e)
	a, b := c.Bodies()
	nameA, _ := idx.NameOf(a)
	nameB, _ := idx.NameOf(b)

	params := make(map[string]any)
	for k, v := range constraint.Params(c) {
		params[k] = v
	}
	return ConstraintSpec{
		Name:   name,
		Kind:   constraint.KindOf(c),
		BodyA:  nameA,
		BodyB:  nameB,
		Params: params,
	}, true
}
