package timex

import (
	"context"
	"time"
)

// Wait is a cancellable suspension point. It reports whether the full
// duration elapsed (false => ctx done).
type Wait func(ctx context.Context, d time.Duration) bool

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// OrSleep returns w, or Sleep when w is nil.
func OrSleep(w Wait) Wait {
	if w == nil {
		return Sleep
	}
	return w
}

// NowUnix returns Unix seconds.
func NowUnix() int64 { return time.Now().Unix() }
