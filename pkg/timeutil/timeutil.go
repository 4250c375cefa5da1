package timeutil

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffParam describes Initial * Multiplier^attempt, capped at Max.
// A zero Max means uncapped.
type BackoffParam struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

func NewBackoffParam(initial time.Duration, multiplier float64, max time.Duration) BackoffParam {
	return BackoffParam{Initial: initial, Multiplier: multiplier, Max: max}
}

// ComputeJitter returns a pseudo-random duration in [0, max).
func ComputeJitter(max time.Duration, rng *rand.Rand) time.Duration {
	if max <= 0 || rng == nil {
		return 0
	}
	return time.Duration(rng.Int63n(int64(max)))
}

// ExponentialBackoffDelay computes initial * multiplier^attempt + jitter,
// capped at the param's max duration. attempt is zero-based.
func ExponentialBackoffDelay(
	attempt int,
	jitter time.Duration,
	rng *rand.Rand,
	param BackoffParam,
) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	multiplier := param.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := float64(param.Initial) * math.Pow(multiplier, float64(attempt))
	delay += float64(ComputeJitter(jitter, rng))

	max := float64(param.Max)
	if max > 0 && delay > max {
		delay = max
	}
	return time.Duration(delay)
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
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
