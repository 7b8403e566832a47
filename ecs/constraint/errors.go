package constraint

import (
	"errors"
	"fmt"

	"github.com/milk9111/jointsync/ecs"
	"github.com/milk9111/jointsync/physics"
)

var (
	ErrEngineRejection = errors.New("constraint: engine rejected operation")
	ErrNotAttached     = errors.New("constraint: component is not attached")
	ErrNilConstraint   = errors.New("constraint: component is nil")
)

// EngineError reports a failed create, update or destroy. It matches both
// ErrEngineRejection and the engine's own error with errors.Is.
type EngineError struct {
	Op     string
	Entity ecs.Entity
	Handle physics.ConstraintHandle
	Err    error
}

func (e *EngineError) Error() string {
	if e.Handle.Valid() {
		return fmt.Sprintf("constraint: %s %s on entity %s: %v", e.Op, e.Handle, e.Entity, e.Err)
	}
	return fmt.Sprintf("constraint: %s on entity %s: %v", e.Op, e.Entity, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) Is(target error) bool {
	return target == ErrEngineRejection
}
