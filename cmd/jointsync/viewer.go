package main

import (
	"fmt"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/jointsync/config"
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/constraint"
	"github.com/milk9111/jointsync/ecs/system"
	"github.com/milk9111/jointsync/physics"
	"github.com/milk9111/jointsync/scene"
	"github.com/milk9111/jointsync/sim"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
	"golang.org/x/image/colornames"
)

const (
	baseWidth  = 1280
	baseHeight = 720
	editStep   = 0.5
)

// editable lists the parameters the arrow keys change per kind: up/down
// edits the first, left/right the second.
var editable = map[physics.Kind][2]string{
	physics.KindDistanceLimit: {constraint.ParamMaxDistance, constraint.ParamMinDistance},
	physics.KindDistance:      {constraint.ParamTargetDistance, constraint.ParamSpringFrequency},
	physics.KindHinge:         {constraint.ParamSpringFrequency, constraint.ParamSpringDampingRatio},
	physics.KindSpring:        {constraint.ParamRestLength, constraint.ParamStiffness},
	physics.KindAngularLimit:  {constraint.ParamMaxAngle, constraint.ParamMinAngle},
	physics.KindAngularMotor:  {constraint.ParamTargetVelocity, constraint.ParamMaxForce},
}

type Viewer struct {
	sim     *sim.Sim
	watcher *scene.Watcher
	log     *zap.Logger

	selected  int
	clipboard bool
	status    string
}

func NewViewer(cfg config.Config, log *zap.Logger) (*Viewer, error) {
	s, err := sim.New(cfg, log)
	if s == nil {
		return nil, err
	}
	if err != nil {
		log.Warn("scene loaded with errors", zap.Error(err))
	}

	v := &Viewer{sim: s, log: log}
	if w, err := scene.NewWatcher(filepath.Dir(cfg.ScenePath)); err != nil {
		log.Warn("hot reload disabled", zap.Error(err))
	} else {
		v.watcher = w
	}
	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable", zap.Error(err))
	} else {
		v.clipboard = true
	}
	return v, nil
}

func (v *Viewer) Close() error {
	if v.watcher == nil {
		return nil
	}
	return v.watcher.Close()
}

func (v *Viewer) Update() error {
	v.drainWatcher()
	v.handleInput()
	v.sim.Tick()
	return nil
}

func (v *Viewer) drainWatcher() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-v.watcher.Events:
			if !ok {
				v.watcher = nil
				return
			}
			if err := v.sim.HandleChange(path); err != nil {
				v.status = "reload failed: " + err.Error()
			} else {
				v.status = "reloaded " + filepath.Base(path)
			}
		case err, ok := <-v.watcher.Errors:
			if ok {
				v.log.Warn("watch error", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (v *Viewer) handleInput() {
	names := v.sim.Index.ConstraintNames()
	if len(names) == 0 {
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.selected = (v.selected + 1) % len(names)
	}
	if v.selected >= len(names) {
		v.selected = 0
	}
	e, _ := v.sim.Index.Constraint(names[v.selected])
	c, ok := constraint.Lookup(v.sim.World, e)
	if !ok {
		return
	}

	keys := editable[constraint.KindOf(c)]
	v.nudge(c, keys[0], ebiten.KeyArrowUp, ebiten.KeyArrowDown)
	v.nudge(c, keys[1], ebiten.KeyArrowRight, ebiten.KeyArrowLeft)

	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.copyConstraint(e)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := v.sim.Reload(); err != nil {
			v.status = "reload failed: " + err.Error()
		} else {
			v.status = "reloaded"
		}
	}
}

func (v *Viewer) nudge(c constraint.Constraint, param string, up, down ebiten.Key) {
	delta := 0.0
	if inpututil.IsKeyJustPressed(up) {
		delta = editStep
	}
	if inpututil.IsKeyJustPressed(down) {
		delta = -editStep
	}
	if delta == 0 {
		return
	}
	value := constraint.Params(c)[param] + delta
	if err := constraint.SetParam(c, param, value); err != nil {
		v.status = err.Error()
		return
	}
	v.status = fmt.Sprintf("%s = %g", param, value)
}

func (v *Viewer) copyConstraint(e ecs.Entity) {
	if !v.clipboard {
		v.status = "clipboard unavailable"
		return
	}
	cs, ok := scene.ConstraintSpecOf(v.sim.World, v.sim.Index, e)
	if !ok {
		return
	}
	data, err := scene.Marshal([]scene.ConstraintSpec{cs})
	if err != nil {
		v.status = err.Error()
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	v.status = "copied " + cs.Name
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	view := system.View{OffsetX: -baseWidth / 2, OffsetY: -baseHeight / 4, Zoom: 1}
	system.DrawPhysicsDebug(v.sim.Physics.Space().CPSpace(), view, screen)

	if names := v.sim.Index.ConstraintNames(); len(names) > 0 && v.selected < len(names) {
		e, _ := v.sim.Index.Constraint(names[v.selected])
		system.DrawConstraintDebug(v.sim.World, e, screen)
	}
	footer := fmt.Sprintf("TPS: %.0f  faults: %d  [tab] select  [arrows] edit  [c] copy  [r] reload\n%s",
		ebiten.ActualTPS(), v.sim.Faults.Total(), v.status)
	ebitenutil.DebugPrintAt(screen, footer, 10, baseHeight-40)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
