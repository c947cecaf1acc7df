// Package client ties the transport worker, the session engine and the
// datapackage cache together behind an intent/notification API.
package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/grovetools/elementipelago/config"
	"github.com/grovetools/elementipelago/logging"
	"github.com/grovetools/elementipelago/pkg/datapackage"
	"github.com/grovetools/elementipelago/pkg/graph"
	"github.com/grovetools/elementipelago/pkg/profiling"
	"github.com/grovetools/elementipelago/pkg/protocol"
	"github.com/grovetools/elementipelago/pkg/queue"
	"github.com/grovetools/elementipelago/pkg/session"
	"github.com/grovetools/elementipelago/pkg/transport"
	"github.com/grovetools/elementipelago/version"
	"github.com/sirupsen/logrus"
)

// DefaultTickInterval is used by Run when no interval is given.
const DefaultTickInterval = config.DefaultTickInterval

// Config holds everything needed to build a Client.
type Config struct {
	Address  string
	Slot     string
	Password string
	Game     string
	// CacheDir defaults to datapackage.DefaultDir().
	CacheDir          string
	Transport         transport.Config
	EnableCompression bool
}

// ConfigFrom maps a loaded configuration file onto a client Config.
func ConfigFrom(cfg *config.Config) Config {
	compression := true
	if cfg.Transport.EnableCompression != nil {
		compression = *cfg.Transport.EnableCompression
	}
	return Config{
		Address:  cfg.Server.Address,
		Slot:     cfg.Server.Slot,
		Password: cfg.Server.Password,
		Game:     cfg.Client.Game,
		CacheDir: cfg.Cache.Dir,
		Transport: transport.Config{
			ReadTimeout:    cfg.Transport.ReadTimeout.Std(),
			IdleSleep:      cfg.Transport.IdleSleep.Std(),
			ConnectTimeout: cfg.Transport.ConnectTimeout.Std(),
			WriteTimeout:   cfg.Transport.WriteTimeout.Std(),
		},
		EnableCompression: compression,
	}
}

// Option configures a Client.
type Option func(*options)

type options struct {
	dialer    transport.Dialer
	metrics   *transport.Metrics
	generator session.Generator
	logger    *logrus.Entry
}

// WithDialer replaces the websocket dialer.
func WithDialer(d transport.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithMetrics records transport activity.
func WithMetrics(m *transport.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithGenerator replaces the default recipe graph generator.
func WithGenerator(g session.Generator) Option {
	return func(o *options) { o.generator = g }
}

// WithLogger replaces the component logger.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.logger = l }
}

// Client is the application-facing side of a multiworld session.
// Intents may be called from any goroutine; notifications are only
// produced by Tick.
type Client struct {
	cache    *datapackage.Cache
	commands *queue.Queue[transport.Command]
	events   *queue.Queue[transport.Event]
	worker   *transport.Worker
	logger   *logrus.Entry

	mu      sync.Mutex
	engine  *session.Engine
	pending []session.Notification

	closeOnce sync.Once
}

// New opens the datapackage cache, warms the catalogs from it and prepares
// the transport worker. The worker goroutine starts on the first StartConnect.
// A cache directory that cannot be created is the only fatal error.
func New(cfg Config, opts ...Option) (*Client, error) {
	defer profiling.Start("client.New").Stop()

	o := options{generator: graph.Generator{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewLogger("client")
	}

	dir := cfg.CacheDir
	if dir == "" {
		dir = datapackage.DefaultDir()
	}
	cache, err := datapackage.Open(dir)
	if err != nil {
		return nil, err
	}
	loaded := profiling.Start("datapackage.Load")
	catalogs := cache.Load()
	loaded.Stop()
	o.logger.WithFields(logrus.Fields{
		"dir":   cache.Dir(),
		"games": len(catalogs),
	}).Debug("Datapackage cache loaded")

	game := cfg.Game
	if game == "" {
		game = graph.GameName
	}
	state := session.NewState(game, catalogs)
	state.Address = cfg.Address
	state.Slot = cfg.Slot
	state.Password = cfg.Password

	dialer := o.dialer
	if dialer == nil {
		tc := cfg.Transport
		if tc.ConnectTimeout <= 0 {
			tc.ConnectTimeout = transport.DefaultConfig().ConnectTimeout
		}
		dialer = &transport.WebsocketDialer{
			HandshakeTimeout:  tc.ConnectTimeout,
			EnableCompression: cfg.EnableCompression,
			Header:            http.Header{"User-Agent": {version.GetInfo().UserAgent()}},
		}
	}

	c := &Client{
		cache:    cache,
		commands: queue.New[transport.Command](),
		events:   queue.New[transport.Event](),
		logger:   o.logger,
	}
	var workerOpts []transport.Option
	if o.metrics != nil {
		workerOpts = append(workerOpts, transport.WithMetrics(o.metrics))
	}
	c.worker = transport.NewWorker(cfg.Transport, dialer, c.commands, c.events, workerOpts...)
	c.engine = session.NewEngine(state, c.commands, cache, o.generator)
	return c, nil
}

// Cache returns the datapackage cache.
func (c *Client) Cache() *datapackage.Cache {
	return c.cache
}

// TransportState returns the worker's connection state.
func (c *Client) TransportState() transport.State {
	return c.worker.State()
}

// SetCredentials changes what the next StartConnect uses.
func (c *Client) SetCredentials(address, slot, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.SetCredentials(address, slot, password)
}

// StartConnect begins a connection attempt. Failures are reported by Tick.
func (c *Client) StartConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.worker.Start()
	c.pending = append(c.pending, c.engine.StartConnect()...)
}

// SendItem reports a crafted element to the server.
func (c *Client) SendItem(el graph.Element) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.SendItem(el)
}

// Say sends a chat message.
func (c *Client) Say(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Say(text)
}

// UpdateStatus reports the client status.
func (c *Client) UpdateStatus(status protocol.ClientStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.UpdateStatus(status)
}

// Tick drains every available transport event without blocking and
// returns the resulting notifications in order.
func (c *Client) Tick() []session.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.pending
	c.pending = nil
	events, _ := c.events.Drain()
	for _, ev := range events {
		out = append(out, c.engine.HandleEvent(ev)...)
	}
	return out
}

// Run ticks every interval until ctx is done, passing each notification
// to handler on the calling goroutine.
func (c *Client) Run(ctx context.Context, interval time.Duration, handler func(session.Notification)) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, n := range c.Tick() {
				handler(n)
			}
		}
	}
}

// Snapshot returns a copy of the session state.
func (c *Client) Snapshot() session.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.State().Snapshot()
}

// Close shuts the worker down and waits for it to stop.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.commands.Push(transport.Shutdown{})
		c.commands.Close()
		// A never-started worker exits on its first drain.
		c.worker.Start()
		<-c.worker.Done()
		c.logger.Debug("Client closed")
	})
}
