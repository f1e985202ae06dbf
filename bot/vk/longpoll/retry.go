package longpoll

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy tells whether and when to try again.
// attempt counts failures, starting at 1.
type RetryPolicy interface {
	Next(attempt int, err error) (time.Duration, bool)
}

// Backoff is exponential backoff with jitter.
// The n-th delay is Base*2^(n-1), capped at Max, randomized by ±50%.
type Backoff struct {
	// Base delay for the first retry
	Base time.Duration
	// Max caps the delay before jitter
	Max time.Duration
	// Attempts limits retries; zero means unlimited
	Attempts int
}

var _ RetryPolicy = Backoff{}

func (b Backoff) Next(attempt int, _ error) (time.Duration, bool) {
	if attempt < 1 || (b.Attempts > 0 && attempt > b.Attempts) {
		return 0, false
	}
	exp := b.exponential()
	delay := exp.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = exp.NextBackOff()
	}
	return delay, true
}

func (b Backoff) exponential() *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = b.Base
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = time.Second
	}
	exp.MaxInterval = b.Max
	if exp.MaxInterval <= 0 {
		exp.MaxInterval = time.Minute
	}
	exp.Multiplier = 2
	exp.RandomizationFactor = 0.5
	exp.Reset()
	return exp
}

// sleep waits for d or ctx cancellation, whichever comes first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
