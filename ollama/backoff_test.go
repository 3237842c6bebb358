package ollama

import (
	"testing"
	"time"
)

func TestExponentialBackoffDelay(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   8 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first retry", 0, 500 * time.Millisecond},
		{"second retry", 1, 1 * time.Second},
		{"third retry", 2, 2 * time.Second},
		{"fourth retry", 3, 4 * time.Second},
		{"fifth retry", 4, 8 * time.Second},
		{"capped", 10, 8 * time.Second},
		{"negative attempt clamped", -5, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backoff.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestExponentialBackoffDelayIsDeterministic(t *testing.T) {
	backoff := NewExponentialBackoff()
	for attempt := 0; attempt < 20; attempt++ {
		first := backoff.Delay(attempt)
		second := backoff.Delay(attempt)
		if first != second {
			t.Fatalf("Delay(%d) not deterministic: %v vs %v", attempt, first, second)
		}
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	base := backoff.Delay(2)
	for i := 0; i < 100; i++ {
		jittered := backoff.Jitter(base)
		if jittered < base {
			t.Fatalf("jittered delay %v below base %v", jittered, base)
		}
		if jittered >= base+backoff.BaseDelay {
			t.Fatalf("jittered delay %v at or above base+BaseDelay %v", jittered, base+backoff.BaseDelay)
		}
	}
}

func TestExponentialBackoffOverflowCaps(t *testing.T) {
	backoff := NewExponentialBackoff()
	// Large attempt counts must cap instead of overflowing into negatives.
	if got := backoff.Delay(200); got != backoff.MaxDelay {
		t.Errorf("Delay(200) = %v, want cap %v", got, backoff.MaxDelay)
	}
}
