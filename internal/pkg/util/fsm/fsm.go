// Package fsm holds small helpers around github.com/looplab/fsm.
package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback to fsm.Callback, storing the
// error on the event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// Unchanged reports whether err only says that the event left the machine in
// its current state.
func Unchanged(err error) bool {
	var noTransition fsm.NoTransitionError
	return errors.As(err, &noTransition)
}
