package system

import (
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/component"
	"github.com/milk9111/jointsync/ecs/constraint"
	"github.com/milk9111/jointsync/script"
	"go.uber.org/zap"
)

// ScriptSystem runs the script of every entity with a ConstraintScript and
// a constraint, and applies the returned parameters through the setters.
// Schedule it before the PhysicsSystem so the edits reach this tick's sync.
type ScriptSystem struct {
	log     *zap.Logger
	tick    int
	drivers map[ecs.Entity]*script.Driver
	failed  map[ecs.Entity]string
	load    func(path string) (*script.Driver, error)
}

func NewScriptSystem(log *zap.Logger) *ScriptSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptSystem{
		log:     log,
		drivers: make(map[ecs.Entity]*script.Driver),
		failed:  make(map[ecs.Entity]string),
		load:    script.Load,
	}
}

func (s *ScriptSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	s.tick++

	for e := range s.drivers {
		if !ecs.Has(w, e, component.ConstraintScriptComponent.Kind()) {
			delete(s.drivers, e)
		}
	}

	ecs.ForEach(w, component.ConstraintScriptComponent.Kind(), func(e ecs.Entity, cs *component.ConstraintScript) {
		c, ok := constraint.Lookup(w, e)
		if !ok {
			return
		}
		d, ok := s.driver(e, cs.Path)
		if !ok {
			return
		}
		out, err := d.Run(s.tick, constraint.Params(c))
		if err != nil {
			s.log.Warn("constraint script failed", zap.Stringer("entity", e), zap.Error(err))
			return
		}
		if err := constraint.SetParams(c, out); err != nil {
			s.log.Warn("constraint script set params", zap.Stringer("entity", e), zap.Error(err))
		}
	})
}

// driver returns the cached driver for e, reloading it when the path
// changed. A path that failed to load is not retried until it changes.
func (s *ScriptSystem) driver(e ecs.Entity, path string) (*script.Driver, bool) {
	if d, ok := s.drivers[e]; ok && d.Name() == path {
		return d, true
	}
	if s.failed[e] == path {
		return nil, false
	}
	d, err := s.load(path)
	if err != nil {
		s.failed[e] = path
		s.log.Error("load constraint script", zap.Stringer("entity", e), zap.String("path", path), zap.Error(err))
		return nil, false
	}
	delete(s.failed, e)
	s.drivers[e] = d
	return d, true
}

// Reload drops every cached script so changed files are read again.
func (s *ScriptSystem) Reload() {
	s.drivers = make(map[ecs.Entity]*script.Driver)
	s.failed = make(map[ecs.Entity]string)
}
