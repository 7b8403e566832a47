// Package proc waits for external processes without blocking past a
// context's lifetime.
package proc

import (
	"context"
	"errors"
	"os/exec"
)

var ErrNotStarted = errors.New("proc: process not started")

// WaitExit waits for a started command to exit and returns its exit error.
// If ctx ends first WaitExit returns ctx.Err() immediately; the process is
// left running and is still reaped in the background.
func WaitExit(ctx context.Context, cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrNotStarted
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
