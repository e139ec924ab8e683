package llm

import (
	"context"
	"fmt"
	"time"
)

// rateLimiter is a token bucket backed by a buffered channel. The bucket
// starts full and a background goroutine drips tokens back in at the
// configured per-minute rate.
type rateLimiter struct {
	tokens chan struct{}
	stopCh chan struct{}
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	rl := &rateLimiter{
		tokens: make(chan struct{}, requestsPerMinute),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < requestsPerMinute; i++ {
		rl.tokens <- struct{}{}
	}

	go rl.drip(time.Minute / time.Duration(requestsPerMinute))

	return rl
}

// wait blocks until a token is available or the context is canceled. An
// already-available token is consumed even when the context is done, so a
// caller that was about to be admitted is not turned away.
func (rl *rateLimiter) wait(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	default:
	}

	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
	}
}

func (rl *rateLimiter) drip(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			select {
			case rl.tokens <- struct{}{}:
			default: // bucket already full
			}
		}
	}
}

// Close stops the drip goroutine.
func (rl *rateLimiter) Close() {
	close(rl.stopCh)
}
