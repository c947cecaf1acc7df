package transport

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextBackoffDelay(t *testing.T) {
	cfg := BackoffConfig{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 500 * time.Millisecond},
		{attempt: 1, want: 500 * time.Millisecond},
		{attempt: 2, want: time.Second},
		{attempt: 3, want: 2 * time.Second},
		{attempt: 4, want: 4 * time.Second},
		{attempt: 5, want: 5 * time.Second},
		{attempt: 50, want: 5 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NextBackoffDelay(cfg, tt.attempt, nil), "attempt %d", tt.attempt)
	}
}

func TestNextBackoffDelayJitter(t *testing.T) {
	cfg := BackoffConfig{
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		Jitter:       0.2,
	}
	rng := rand.New(rand.NewSource(1))

	for attempt := 1; attempt <= 5; attempt++ {
		base := time.Second << (attempt - 1)
		got := NextBackoffDelay(cfg, attempt, rng)
		assert.GreaterOrEqual(t, got, time.Duration(float64(base)*0.8), "attempt %d", attempt)
		assert.LessOrEqual(t, got, time.Duration(float64(base)*1.2), "attempt %d", attempt)
	}
}

func TestNextBackoffDelayDegenerate(t *testing.T) {
	assert.Equal(t, time.Duration(0), NextBackoffDelay(BackoffConfig{}, 3, nil))

	flat := BackoffConfig{InitialDelay: time.Second, Multiplier: 0.5}
	assert.Equal(t, time.Second, NextBackoffDelay(flat, 4, nil))
}
