package system

import (
	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/ecs/constraint"
	"go.uber.org/zap"
)

// FaultLogSystem logs the constraint faults published during the tick and
// keeps a running count. Schedule it after the PhysicsSystem.
type FaultLogSystem struct {
	OnFault func(constraint.Fault)

	log   *zap.Logger
	total int
}

func NewFaultLogSystem(log *zap.Logger) *FaultLogSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &FaultLogSystem{log: log}
}

func (s *FaultLogSystem) Update(w *ecs.World) {
	for _, evt := range w.Events().Peek(constraint.EventConstraintFault) {
		fault, ok := evt.Data.(constraint.Fault)
		if !ok {
			continue
		}
		s.total++
		s.log.Warn("constraint fault",
			zap.Stringer("entity", fault.Entity),
			zap.String("op", fault.Op),
			zap.Error(fault.Err))
		if s.OnFault != nil {
			s.OnFault(fault)
		}
	}
}

// Total returns the number of faults seen so far.
func (s *FaultLogSystem) Total() int {
	return s.total
}
