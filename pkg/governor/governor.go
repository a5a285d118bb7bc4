// Package governor bounds concurrent heavy inference work.
package governor

import "context"

// Governor is a counting semaphore shared by everything that runs model
// inference. The slot count protects accelerator memory, not data
// correctness.
type Governor struct {
	slots chan struct{}
}

func New(maxConcurrent int) *Governor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Governor{slots: make(chan struct{}, maxConcurrent)}
}

// Acquire blocks until a slot is free or the context is done.
func (g *Governor) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot. Must be called exactly once per successful Acquire,
// on both success and failure paths.
func (g *Governor) Release() {
	select {
	case <-g.slots:
	default:
	}
}
