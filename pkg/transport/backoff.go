package transport

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig controls application-driven reconnect delays.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter is the fraction by which a delay may vary in either direction, 0..1.
	Jitter float64
}

// NextBackoffDelay returns the retry delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter > 0 {
		j := math.Min(cfg.Jitter, 1.0)
		f := 1.0
		if rng != nil {
			f = 1.0 - j + 2*j*rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}
