package interaction

import (
	"context"
	"time"
)

// RunFrames posts frame onto the owning goroutine through post at every
// interval until ctx is done. post must not block for long; the editor's
// inbox is the usual target.
func RunFrames(ctx context.Context, interval time.Duration, post func(func()), frame func()) {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			post(frame)
		}
	}
}
