package transport

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/logging"
	"github.com/grovetools/elementipelago/pkg/queue"
	"github.com/sirupsen/logrus"
)

// State is the worker's connection state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config holds the worker timings.
type Config struct {
	// ReadTimeout bounds the wait for one inbound frame while connected.
	ReadTimeout time.Duration
	// IdleSleep bounds the wait for a command while not connected.
	IdleSleep time.Duration
	// ConnectTimeout bounds each candidate URL's dial and handshake.
	ConnectTimeout time.Duration
	// WriteTimeout bounds each outbound frame.
	WriteTimeout time.Duration
}

// DefaultConfig returns the standard worker timings.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:    10 * time.Millisecond,
		IdleSleep:      10 * time.Millisecond,
		ConnectTimeout: 10 * time.Second,
		WriteTimeout:   5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.IdleSleep <= 0 {
		c.IdleSleep = d.IdleSleep
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}

// Option configures a Worker.
type Option func(*Worker)

// WithMetrics records connection activity on m.
func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLogger replaces the component logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// Worker owns at most one websocket connection. All socket writes and the
// connection lifecycle happen on the goroutine running Run; a reader
// goroutine per connection only forwards ReadMessage results to it.
type Worker struct {
	cfg      Config
	dialer   Dialer
	commands *queue.Queue[Command]
	events   *queue.Queue[Event]
	logger   *logrus.Entry
	metrics  *Metrics

	state     atomic.Int32
	conn      *connection
	done      chan struct{}
	startOnce sync.Once
}

type frame struct {
	kind int
	data []byte
	err  error
}

type connection struct {
	url    string
	conn   Conn
	frames chan frame
	stop   chan struct{}
}

func (c *connection) read() {
	for {
		kind, data, err := c.conn.ReadMessage()
		select {
		case c.frames <- frame{kind: kind, data: data, err: err}:
		case <-c.stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// NewWorker creates a worker reading commands and writing events.
// A nil dialer uses a WebsocketDialer bounded by cfg.ConnectTimeout.
func NewWorker(cfg Config, dialer Dialer, commands *queue.Queue[Command], events *queue.Queue[Event], opts ...Option) *Worker {
	cfg = cfg.withDefaults()
	if dialer == nil {
		dialer = NewWebsocketDialer(cfg.ConnectTimeout)
	}
	w := &Worker{
		cfg:      cfg,
		dialer:   dialer,
		commands: commands,
		events:   events,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NewLogger("transport")
	}
	return w
}

// Start runs the worker on a new goroutine. Later calls are no-ops.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.Run()
	})
}

// Done is closed once the worker has stopped.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// State returns the current connection state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run processes commands until Shutdown or until the command queue is closed.
func (w *Worker) Run() {
	defer close(w.done)
	w.logger.Debug("Transport worker started")

	for {
		cmds, closed := w.commands.Drain()
		for _, cmd := range cmds {
			if !w.handle(cmd) {
				return
			}
		}
		if closed {
			w.shutdown("command queue closed")
			return
		}
		w.wait()
	}
}

func (w *Worker) handle(cmd Command) bool {
	switch c := cmd.(type) {
	case Connect:
		w.connect(c.Address)
	case SendText:
		w.send(c.Payload)
	case Shutdown:
		w.shutdown("shutdown requested")
		return false
	default:
		w.logger.WithField("command", fmt.Sprintf("%T", cmd)).Warn("Ignoring unknown transport command")
	}
	return true
}

func (w *Worker) wait() {
	if w.conn == nil {
		timer := time.NewTimer(w.cfg.IdleSleep)
		defer timer.Stop()
		select {
		case <-w.commands.Ready():
		case <-timer.C:
		}
		return
	}

	timer := time.NewTimer(w.cfg.ReadTimeout)
	defer timer.Stop()
	select {
	case f := <-w.conn.frames:
		w.handleFrame(f)
	case <-w.commands.Ready():
	case <-timer.C:
	}
}

func (w *Worker) connect(address string) {
	if w.conn != nil {
		w.logger.WithField("url", w.conn.url).Debug("Dropping existing connection for new connect")
		w.teardown("reconnect", true)
	}

	urls, err := CandidateURLs(address)
	if err != nil {
		w.logger.WithError(err).Warn("Invalid server address")
		w.emit(ConnectionError{Message: err.Error(), Err: err})
		return
	}

	w.state.Store(int32(StateConnecting))
	var lastErr error
	for _, u := range urls {
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.ConnectTimeout)
		conn, err := w.dialer.Dial(ctx, u)
		cancel()
		if err != nil {
			w.metrics.attempt(u, "failure")
			w.logger.WithError(err).WithField("url", u).Debug("Connect attempt failed")
			lastErr = err
			continue
		}

		w.metrics.attempt(u, "success")
		w.open(u, conn)
		w.logger.WithField("url", u).Info("Connected")
		w.emit(Connected{URL: u})
		return
	}

	w.state.Store(int32(StateIdle))
	failed := errors.ConnectFailed(address, lastErr)
	w.logger.WithError(lastErr).WithField("address", address).Warn("Could not connect to server")
	w.emit(ConnectionError{Message: failed.Error(), Err: failed})
}

func (w *Worker) open(url string, conn Conn) {
	c := &connection{
		url:    url,
		conn:   conn,
		frames: make(chan frame),
		stop:   make(chan struct{}),
	}
	w.conn = c
	w.state.Store(int32(StateConnected))
	w.metrics.up()
	go c.read()
}

func (w *Worker) send(payload string) {
	if w.conn == nil {
		w.logger.Debug("Send requested while not connected")
		w.emit(Disconnected{Reason: ReasonNotConnected})
		return
	}

	_ = w.conn.conn.SetWriteDeadline(time.Now().Add(w.cfg.WriteTimeout))
	if err := w.conn.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		w.logger.WithError(err).Warn("Send failed, closing connection")
		w.teardown("send_error", false)
		w.emit(Disconnected{Reason: fmt.Sprintf("send failed: %v", err)})
		return
	}
	w.metrics.sent()
}

func (w *Worker) handleFrame(f frame) {
	if f.err != nil {
		reason, cause := readFailure(f.err)
		w.logger.WithError(f.err).Info("Connection closed")
		w.teardown(cause, false)
		w.emit(Disconnected{Reason: reason})
		return
	}

	switch f.kind {
	case websocket.TextMessage:
		w.metrics.received("text")
		if !utf8.Valid(f.data) {
			w.logger.Warn("Received text frame that is not valid UTF-8")
			w.teardown("invalid_utf8", true)
			w.emit(Disconnected{Reason: "received text frame that is not valid UTF-8"})
			return
		}
		w.emit(TextMessage{Payload: string(f.data)})
	case websocket.BinaryMessage:
		w.metrics.received("binary")
		w.logger.WithField("bytes", len(f.data)).Debug("Ignoring binary frame")
	default:
		w.metrics.received("other")
		w.logger.WithField("type", f.kind).Debug("Ignoring frame")
	}
}

func readFailure(err error) (reason, cause string) {
	var closeErr *websocket.CloseError
	if stderrors.As(err, &closeErr) {
		if closeErr.Text != "" {
			return fmt.Sprintf("closed by server (%d): %s", closeErr.Code, closeErr.Text), "close"
		}
		return fmt.Sprintf("closed by server (%d)", closeErr.Code), "close"
	}
	return fmt.Sprintf("read failed: %v", err), "read_error"
}

func (w *Worker) teardown(cause string, graceful bool) {
	c := w.conn
	if c == nil {
		return
	}
	w.conn = nil
	close(c.stop)
	if graceful {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(w.cfg.WriteTimeout))
	}
	_ = c.conn.Close()
	w.state.Store(int32(StateIdle))
	w.metrics.down(cause)
}

func (w *Worker) shutdown(reason string) {
	w.logger.WithField("reason", reason).Debug("Transport worker stopping")
	w.teardown("shutdown", true)
}

func (w *Worker) emit(ev Event) {
	if !w.events.Push(ev) {
		w.logger.WithField("event", fmt.Sprintf("%T", ev)).Debug("Event queue closed, dropping event")
	}
}
