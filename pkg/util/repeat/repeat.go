package repeat

import (
	"context"
	"time"
)

// RepeatContext runs f up to attempts times, sleeping delay between failures.
// It stops early with ctx.Err() when ctx is done.
func RepeatContext(ctx context.Context, f func() error, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}
