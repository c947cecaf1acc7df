package config

import (
	"fmt"
	"net"

	"github.com/grovetools/elementipelago/errors"
)

// Validate checks if the configuration is valid. It expects SetDefaults to
// have run.
func (c *Config) Validate() error {
	durations := []struct {
		name  string
		value Duration
	}{
		{"transport.read_timeout", c.Transport.ReadTimeout},
		{"transport.idle_sleep", c.Transport.IdleSleep},
		{"transport.connect_timeout", c.Transport.ConnectTimeout},
		{"transport.write_timeout", c.Transport.WriteTimeout},
		{"client.tick_interval", c.Client.TickInterval},
		{"client.reconnect.initial_delay", c.Client.Reconnect.InitialDelay},
		{"client.reconnect.max_delay", c.Client.Reconnect.MaxDelay},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("%s must be positive", d.name)).
				WithDetail("field", d.name)
		}
	}

	r := c.Client.Reconnect
	if r.MaxDelay < r.InitialDelay {
		return errors.New(errors.ErrCodeConfigValidation, "client.reconnect.max_delay must not be smaller than initial_delay")
	}
	if r.Multiplier < 1 {
		return errors.New(errors.ErrCodeConfigValidation, "client.reconnect.multiplier must be at least 1").
			WithDetail("multiplier", r.Multiplier)
	}
	if r.Jitter < 0 || r.Jitter > 1 {
		return errors.New(errors.ErrCodeConfigValidation, "client.reconnect.jitter must be between 0 and 1").
			WithDetail("jitter", r.Jitter)
	}
	if r.MaxAttempts < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "client.reconnect.max_attempts must not be negative")
	}

	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "metrics.listen must be host:port").
				WithDetail("listen", c.Metrics.Listen)
		}
	}

	return nil
}
