// Package types contains common types used across the application
package types

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done. Components that pace or back
// off take one so tests can record the schedule instead of waiting it out.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
