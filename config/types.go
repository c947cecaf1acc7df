package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Config is the elementipelago.yml configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty" toml:"server,omitempty" jsonschema:"description=Multiworld server and slot to log into"`
	Cache     CacheConfig     `yaml:"cache,omitempty" toml:"cache,omitempty" jsonschema:"description=Datapackage cache location"`
	Transport TransportConfig `yaml:"transport,omitempty" toml:"transport,omitempty" jsonschema:"description=Websocket worker tuning"`
	Client    ClientConfig    `yaml:"client,omitempty" toml:"client,omitempty" jsonschema:"description=Client loop behaviour"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty" toml:"metrics,omitempty" jsonschema:"description=Prometheus metrics endpoint"`

	// Extensions captures all other top-level keys (for example `logging`).
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

// ServerConfig holds the credentials of a connection attempt.
type ServerConfig struct {
	Address  string `yaml:"address,omitempty" toml:"address,omitempty" jsonschema:"description=Server address with optional ws:// or wss:// prefix,example=archipelago.gg:38281"`
	Slot     string `yaml:"slot,omitempty" toml:"slot,omitempty" jsonschema:"description=Slot (player) name"`
	Password string `yaml:"password,omitempty" toml:"password,omitempty" jsonschema:"description=Room password"`
}

// CacheConfig configures the datapackage cache.
type CacheConfig struct {
	// Dir overrides <cache dir>/elementipelago/datapackages.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty" jsonschema:"description=Directory holding one <game>.json file per cached datapackage"`
}

// TransportConfig tunes the transport worker.
type TransportConfig struct {
	ReadTimeout       Duration `yaml:"read_timeout,omitempty" toml:"read_timeout,omitempty" jsonschema:"description=How long one worker iteration waits for an inbound frame"`
	IdleSleep         Duration `yaml:"idle_sleep,omitempty" toml:"idle_sleep,omitempty" jsonschema:"description=How long the worker sleeps while not connected"`
	ConnectTimeout    Duration `yaml:"connect_timeout,omitempty" toml:"connect_timeout,omitempty" jsonschema:"description=Timeout of one websocket handshake attempt"`
	WriteTimeout      Duration `yaml:"write_timeout,omitempty" toml:"write_timeout,omitempty" jsonschema:"description=Timeout of one outbound frame write"`
	EnableCompression *bool    `yaml:"enable_compression,omitempty" toml:"enable_compression,omitempty" jsonschema:"description=Negotiate permessage-deflate"`
}

// ClientConfig configures the application loop.
type ClientConfig struct {
	TickInterval Duration        `yaml:"tick_interval,omitempty" toml:"tick_interval,omitempty" jsonschema:"description=Interval between two drains of the event queue"`
	Game         string          `yaml:"game,omitempty" toml:"game,omitempty" jsonschema:"description=Game name sent at login"`
	Reconnect    ReconnectConfig `yaml:"reconnect,omitempty" toml:"reconnect,omitempty" jsonschema:"description=Automatic reconnection after a lost connection"`
}

// ReconnectConfig configures the jittered exponential backoff between attempts.
type ReconnectConfig struct {
	Enabled      bool     `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	InitialDelay Duration `yaml:"initial_delay,omitempty" toml:"initial_delay,omitempty"`
	MaxDelay     Duration `yaml:"max_delay,omitempty" toml:"max_delay,omitempty"`
	Multiplier   float64  `yaml:"multiplier,omitempty" toml:"multiplier,omitempty"`
	Jitter       float64  `yaml:"jitter,omitempty" toml:"jitter,omitempty" jsonschema:"minimum=0,maximum=1"`
	// MaxAttempts of 0 retries forever.
	MaxAttempts int `yaml:"max_attempts,omitempty" toml:"max_attempts,omitempty" jsonschema:"minimum=0"`
}

// MetricsConfig configures the optional HTTP metrics endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty" toml:"listen,omitempty" jsonschema:"description=Listen address for /metrics and /healthz; empty disables the endpoint,example=127.0.0.1:9464"`
}

// Default values applied by SetDefaults.
const (
	DefaultReadTimeout    = 10 * time.Millisecond
	DefaultIdleSleep      = 10 * time.Millisecond
	DefaultConnectTimeout = 10 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultTickInterval   = 16 * time.Millisecond
	DefaultInitialDelay   = 500 * time.Millisecond
	DefaultMaxDelay       = 30 * time.Second
	DefaultMultiplier     = 2.0
	DefaultJitter         = 0.2
	DefaultGame           = "Elementipelago"
)

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	setDuration(&c.Transport.ReadTimeout, DefaultReadTimeout)
	setDuration(&c.Transport.IdleSleep, DefaultIdleSleep)
	setDuration(&c.Transport.ConnectTimeout, DefaultConnectTimeout)
	setDuration(&c.Transport.WriteTimeout, DefaultWriteTimeout)
	if c.Transport.EnableCompression == nil {
		enabled := true
		c.Transport.EnableCompression = &enabled
	}

	setDuration(&c.Client.TickInterval, DefaultTickInterval)
	if c.Client.Game == "" {
		c.Client.Game = DefaultGame
	}

	r := &c.Client.Reconnect
	setDuration(&r.InitialDelay, DefaultInitialDelay)
	setDuration(&r.MaxDelay, DefaultMaxDelay)
	if r.Multiplier == 0 {
		r.Multiplier = DefaultMultiplier
	}
	if r.Jitter == 0 {
		r.Jitter = DefaultJitter
	}
}

func setDuration(d *Duration, def time.Duration) {
	if *d == 0 {
		*d = Duration(def)
	}
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded file into the provided target struct. The target must be a pointer.
// A missing key leaves the target untouched.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}

// Duration is a time.Duration written as a Go duration string ("10ms", "1m30s").
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// JSONSchema describes Duration as a string for the generated schema.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     durationPattern,
		Description: "Go duration string, e.g. 10ms or 1m30s",
	}
}

const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`
