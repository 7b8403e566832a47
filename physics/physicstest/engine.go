// Package physicstest provides a recording physics.Engine for tests.
package physicstest

import (
	"fmt"

	"github.com/milk9111/jointsync/physics"
)

// Op names an engine operation.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpDestroy Op = "destroy"
)

// Call is one recorded engine call.
type Call struct {
	Op         Op
	BodyA      physics.BodyHandle
	BodyB      physics.BodyHandle
	Handle     physics.ConstraintHandle
	Descriptor physics.Descriptor
	Err        error
}

// Engine records every call and keeps a table of live handles. Failures can
// be injected per operation with FailNext.
type Engine struct {
	calls    []Call
	live     map[physics.ConstraintHandle]physics.Descriptor
	next     physics.ConstraintHandle
	failures map[Op][]error
}

func NewEngine() *Engine {
	return &Engine{
		live:     make(map[physics.ConstraintHandle]physics.Descriptor),
		failures: make(map[Op][]error),
	}
}

// FailNext makes the next call of op fail with err.
func (e *Engine) FailNext(op Op, err error) {
	e.failures[op] = append(e.failures[op], err)
}

func (e *Engine) takeFailure(op Op) error {
	queue := e.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	e.failures[op] = queue[1:]
	return err
}

func (e *Engine) CreateConstraint(a, b physics.BodyHandle, d physics.Descriptor) (physics.ConstraintHandle, error) {
	call := Call{Op: OpCreate, BodyA: a, BodyB: b, Descriptor: d}
	if err := e.takeFailure(OpCreate); err != nil {
		call.Err = err
		e.calls = append(e.calls, call)
		return 0, err
	}
	if err := d.Validate(); err != nil {
		call.Err = err
		e.calls = append(e.calls, call)
		return 0, err
	}
	e.next++
	call.Handle = e.next
	e.live[call.Handle] = d
	e.calls = append(e.calls, call)
	return call.Handle, nil
}

func (e *Engine) UpdateConstraint(h physics.ConstraintHandle, d physics.Descriptor) error {
	call := Call{Op: OpUpdate, Handle: h, Descriptor: d}
	call.Err = e.update(h, d)
	e.calls = append(e.calls, call)
	return call.Err
}

func (e *Engine) update(h physics.ConstraintHandle, d physics.Descriptor) error {
	if err := e.takeFailure(OpUpdate); err != nil {
		return err
	}
	prev, ok := e.live[h]
	if !ok {
		return fmt.Errorf("%w: %s", physics.ErrUnknownConstraint, h)
	}
	if prev.Kind() != d.Kind() {
		return fmt.Errorf("%w: %s is %s, got %s", physics.ErrDescriptorMismatch, h, prev.Kind(), d.Kind())
	}
	if err := d.Validate(); err != nil {
		return err
	}
	e.live[h] = d
	return nil
}

func (e *Engine) DestroyConstraint(h physics.ConstraintHandle) error {
	call := Call{Op: OpDestroy, Handle: h}
	if err := e.takeFailure(OpDestroy); err != nil {
		call.Err = err
	} else if _, ok := e.live[h]; !ok {
		call.Err = fmt.Errorf("%w: %s", physics.ErrUnknownConstraint, h)
	} else {
		delete(e.live, h)
	}
	e.calls = append(e.calls, call)
	return call.Err
}

// Calls returns a copy of every recorded call in order.
func (e *Engine) Calls() []Call {
	return append([]Call(nil), e.calls...)
}

// Count returns how many calls of op were made, failed ones included.
func (e *Engine) Count(op Op) int {
	n := 0
	for _, c := range e.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Last returns the most recent call of op.
func (e *Engine) Last(op Op) (Call, bool) {
	for i := len(e.calls) - 1; i >= 0; i-- {
		if e.calls[i].Op == op {
			return e.calls[i], true
		}
	}
	return Call{}, false
}

// Live returns the descriptor currently held for h.
func (e *Engine) Live(h physics.ConstraintHandle) (physics.Descriptor, bool) {
	d, ok := e.live[h]
	return d, ok
}

// LiveCount returns the number of live constraints.
func (e *Engine) LiveCount() int {
	return len(e.live)
}

// Reset forgets recorded calls but keeps live constraints.
func (e *Engine) Reset() {
	e.calls = nil
}

