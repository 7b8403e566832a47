// Package sim wires a scene file, the ECS world and the physics systems
// into one tickable simulation shared by the commands.
package sim

import (
	"path/filepath"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/jointsync/config"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/system"
	"github.com/milk9111/jointsync/physics/chipmunk"
	"github.com/milk9111/jointsync/scene"
	"go.uber.org/zap"
)

type Sim struct {
	World   *ecs.World
	Physics *system.PhysicsSystem
	Scripts *system.ScriptSystem
	Faults  *system.FaultLogSystem
	Index   *scene.Index

	scheduler *ecs.Scheduler
	path      string
	log       *zap.Logger
	ticks     int
}

// New loads the scene at cfg.ScenePath into a fresh world. A scene that
// partly fails to build still returns a Sim together with the error.
func New(cfg config.Config, log *zap.Logger) (*Sim, error) {
	if log == nil {
		log = zap.NewNop()
	}
	space := chipmunk.NewSpace(
		chipmunk.WithLogger(log.Named("chipmunk")),
		chipmunk.WithIterations(cfg.Iterations),
		chipmunk.WithGravity(cp.Vector{X: cfg.GravityX, Y: cfg.GravityY}),
	)

	s := &Sim{
		World:   ecs.NewWorld(),
		Physics: system.NewPhysicsSystem(space, system.WithPhysicsLogger(log), system.WithTimeStep(cfg.TimeStep())),
		Scripts: system.NewScriptSystem(log.Named("script")),
		Faults:  system.NewFaultLogSystem(log),
		path:    cfg.ScenePath,
		log:     log,
	}
	s.Physics.Observe(s.World)
	s.scheduler = ecs.NewScheduler(s.Scripts, s.Physics, s.Faults)

	spec, err := scene.Load(cfg.ScenePath)
	if err != nil {
		return nil, err
	}
	s.Index, err = scene.Build(s.World, spec)
	if err != nil {
		log.Warn("scene built with errors", zap.String("path", s.path), zap.Error(err))
	}
	return s, err
}

// Tick runs one frame of every system.
func (s *Sim) Tick() {
	s.ticks++
	s.scheduler.Update(s.World)
}

func (s *Sim) Ticks() int {
	return s.ticks
}

func (s *Sim) ScenePath() string {
	return s.path
}

// Reload reads the scene file again and applies it to the running world.
func (s *Sim) Reload() error {
	spec, err := scene.Load(s.path)
	if err != nil {
		return err
	}
	if err := scene.Apply(s.World, s.Index, spec); err != nil {
		s.log.Warn("scene applied with errors", zap.String("path", s.path), zap.Error(err))
		return err
	}
	s.log.Info("scene reloaded", zap.String("path", s.path))
	return nil
}

// HandleChange reacts to a changed file reported by a scene.Watcher.
func (s *Sim) HandleChange(path string) error {
	switch {
	case scene.IsScriptFile(path):
		s.Scripts.Reload()
		s.log.Info("scripts reloaded", zap.String("path", path))
		return nil
	case sameFile(path, s.path):
		return s.Reload()
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
