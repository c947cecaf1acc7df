package transport

// Command is a request from the application to the worker.
type Command interface {
	command()
}

// Connect drops any existing connection and dials Address.
type Connect struct {
	Address string
}

// SendText writes Payload as a single text frame.
type SendText struct {
	Payload string
}

// Shutdown closes the connection and stops the worker permanently.
type Shutdown struct{}

func (Connect) command()  {}
func (SendText) command() {}
func (Shutdown) command() {}

// Event is reported by the worker to the application.
type Event interface {
	event()
}

// Connected reports a successful handshake with URL.
type Connected struct {
	URL string
}

// ConnectionError reports a connect attempt that failed on every candidate URL.
type ConnectionError struct {
	Message string
	Err     error
}

// Disconnected reports the end of a connection, or a send attempted without one.
type Disconnected struct {
	Reason string
}

// TextMessage carries one inbound text frame, already checked to be UTF-8.
type TextMessage struct {
	Payload string
}

func (Connected) event()       {}
func (ConnectionError) event() {}
func (Disconnected) event()    {}
func (TextMessage) event()     {}

// ReasonNotConnected is the Disconnected reason for a SendText issued while idle.
const ReasonNotConnected = "not connected"
