// Package saga runs a short sequence of side-effecting steps and unwinds
// the already-completed ones, in reverse order, when a later step fails.
// Used for the two-phase image upload: store blob, then insert document,
// deleting the blob again if the insert fails.
package saga

import (
	"context"
	"log"
)

// Step pairs an action with its compensating action. Compensate may be nil
// for steps that need no undo.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Run executes steps in order. On the first failure it calls Compensate on
// every previously completed step, newest first, and returns the original
// error. Compensation failures are logged and suppressed: escalating them
// would mask the more actionable original error.
func Run(ctx context.Context, steps ...Step) error {
	var done []Step

	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			unwind(ctx, done)
			return err
		}
		done = append(done, step)
	}
	return nil
}

func unwind(ctx context.Context, done []Step) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if cerr := step.Compensate(ctx); cerr != nil {
			log.Printf("saga: compensating %q failed: %v", step.Name, cerr)
		}
	}
}
