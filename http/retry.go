package http

import (
	"context"
	"time"
)

// RetryPolicy repeats a failing operation up to MaxRetries extra times with a
// fixed Delay between attempts. It does not inspect the error.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	// Sleep waits between attempts. It defaults to a timer that honours ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op until it succeeds or the retry budget is spent and returns the
// number of attempts made together with the last error. op receives the
// 1-based attempt number. A sleep interrupted by ctx stops retrying.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	maxRetries := max(p.MaxRetries, 0)

	for attempt := 1; ; attempt++ {
		err := op(ctx, attempt)
		if err == nil || attempt > maxRetries {
			return attempt, err
		}
		if sleepErr := sleep(ctx, p.Delay); sleepErr != nil {
			return attempt, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
