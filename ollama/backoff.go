package ollama

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff computes retry delays as a pure function of the attempt
// number: base * multiplier^attempt, capped at MaxDelay. Jitter is applied
// separately by Jitter so the schedule itself stays deterministic and
// testable.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// NewExponentialBackoff creates an exponential backoff schedule with defaults
func NewExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  DefaultRetryBackoff,
		MaxDelay:   DefaultRetryBackoffCap,
		Multiplier: 2.0,
	}
}

// Delay returns the delay before retry number attempt (0-based). attempt 0 is
// the delay after the first failed exchange.
func (eb *ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if delay > float64(eb.MaxDelay) || delay < 0 {
		return eb.MaxDelay
	}
	return time.Duration(delay)
}

// Jitter adds a random component in [0, eb.BaseDelay) to a computed delay to
// avoid retry storms against a recovering backend.
func (eb *ExponentialBackoff) Jitter(delay time.Duration) time.Duration {
	if eb.BaseDelay <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(eb.BaseDelay)))
}
