package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/grovetools/elementipelago/config"
	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/pkg/session"
	"github.com/grovetools/elementipelago/pkg/transport"
)

// reconnectPolicy decides what follows a failed or lost connection: another
// attempt after a backoff delay, or the end of the session with an error.
type reconnectPolicy struct {
	enabled     bool
	backoff     transport.BackoffConfig
	maxAttempts int
	rng         *rand.Rand

	attempts int
}

func newReconnectPolicy(cfg config.ReconnectConfig) *reconnectPolicy {
	return &reconnectPolicy{
		enabled: cfg.Enabled,
		backoff: transport.BackoffConfig{
			InitialDelay: cfg.InitialDelay.Std(),
			MaxDelay:     cfg.MaxDelay.Std(),
			Multiplier:   cfg.Multiplier,
			Jitter:       cfg.Jitter,
		},
		maxAttempts: cfg.MaxAttempts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// connected resets the attempt counter.
func (p *reconnectPolicy) connected() {
	p.attempts = 0
}

// next returns the delay before the next connection attempt, or the error
// that ends the session. Login refusals are never retried.
func (p *reconnectPolicy) next(n session.Notification, address string) (time.Duration, error) {
	var cause error
	switch n := n.(type) {
	case session.ConnectionError:
		if len(n.Refusals) > 0 {
			return 0, errors.ConnectionRefused(n.Refusals)
		}
		if n.Reason == session.ReasonEmptyAddress {
			return 0, errors.New(errors.ErrCodeInvalidInput, "no server address: pass --address or set server.address")
		}
		cause = errors.New(errors.ErrCodeConnectFailed, n.Reason).WithDetail("address", address)
	case session.Disconnected:
		cause = errors.New(errors.ErrCodeDisconnected, n.Reason).WithDetail("address", address)
	default:
		return 0, nil
	}

	if !p.enabled {
		return 0, cause
	}
	p.attempts++
	if p.maxAttempts > 0 && p.attempts > p.maxAttempts {
		return 0, errors.Wrap(cause, errors.GetCode(cause), fmt.Sprintf("giving up after %d reconnect attempts", p.maxAttempts)).
			WithDetail("address", address)
	}
	return transport.NextBackoffDelay(p.backoff, p.attempts, p.rng), nil
}
