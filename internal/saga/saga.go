// Package saga runs a short ordered sequence of steps spanning systems that
// share no transaction primitive. When a step fails, the undo actions of the
// completed steps run in reverse order, best effort: undo failures are
// reported alongside the original cause and never retried.
package saga

import (
	"context"
	"fmt"
	"strings"
)

type Step struct {
	Name string
	Do   func(ctx context.Context) error
	// Undo may be nil for steps that cannot or need not be reverted.
	Undo func(ctx context.Context) error
}

type UndoFailure struct {
	Step string
	Err  error
}

// Error reports the step that failed, the cause, and any compensation
// failures. Unwrap exposes the cause so kind matching keeps working.
type Error struct {
	Step         string
	Cause        error
	UndoFailures []UndoFailure
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %q failed: %v", e.Step, e.Cause)
	for _, f := range e.UndoFailures {
		fmt.Fprintf(&b, "; undo %q failed: %v", f.Step, f.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Run(ctx context.Context, steps ...Step) error {
	for i, step := range steps {
		if err := step.Do(ctx); err != nil {
			return &Error{
				Step:         step.Name,
				Cause:        err,
				UndoFailures: rollback(ctx, steps[:i]),
			}
		}
	}
	return nil
}

func rollback(ctx context.Context, completed []Step) []UndoFailure {
	var failures []UndoFailure
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			failures = append(failures, UndoFailure{Step: step.Name, Err: err})
		}
	}
	return failures
}
