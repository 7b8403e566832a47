// Package physics defines the boundary between the constraint bridge and a
// running simulation: opaque handles, constraint descriptors and the Engine
// operations that consume them.
package physics

import (
	"errors"
	"strconv"
)

var (
	ErrUnknownBody        = errors.New("physics: unknown body")
	ErrUnknownConstraint  = errors.New("physics: unknown constraint")
	ErrInvalidDescriptor  = errors.New("physics: invalid descriptor")
	ErrDescriptorMismatch = errors.New("physics: descriptor kind does not match constraint")
	ErrBodyInUse          = errors.New("physics: body still has constraints")
)

// BodyHandle identifies a body owned by the engine. Zero is never valid.
type BodyHandle uint64

func (h BodyHandle) Valid() bool { return h != 0 }

func (h BodyHandle) String() string { return "body#" + strconv.FormatUint(uint64(h), 10) }

// ConstraintHandle identifies a native constraint. Zero is never valid.
type ConstraintHandle uint64

func (h ConstraintHandle) Valid() bool { return h != 0 }

func (h ConstraintHandle) String() string {
	return "constraint#" + strconv.FormatUint(uint64(h), 10)
}

// Engine is the constraint table of a simulation. Calls are synchronous and
// bounded; descriptors are always passed as whole values.
type Engine interface {
	CreateConstraint(a, b BodyHandle, d Descriptor) (ConstraintHandle, error)
	UpdateConstraint(h ConstraintHandle, d Descriptor) error
	DestroyConstraint(h ConstraintHandle) error
}
