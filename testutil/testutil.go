// Package testutil provides a fake multiworld server for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every blocking helper in this package.
const DefaultTimeout = 5 * time.Second

// WebsocketServer is a plain (non-TLS) httptest server that upgrades every
// request. Accepted connections are handed to the handler, or queued for
// Accept when the handler is nil.
type WebsocketServer struct {
	*httptest.Server
	conns chan *ServerConn
}

// NewWebsocketServer starts a server and registers its shutdown with t.
func NewWebsocketServer(t *testing.T, handler func(*ServerConn)) *WebsocketServer {
	t.Helper()

	s := &WebsocketServer{conns: make(chan *ServerConn, 16)}
	upgrader := websocket.Upgrader{
		CheckOrigin:       func(*http.Request) bool { return true },
		EnableCompression: true,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sc := &ServerConn{t: t, Conn: conn}
		if handler != nil {
			handler(sc)
			return
		}
		s.conns <- sc
	}))
	t.Cleanup(s.Close)
	return s
}

// Address returns host:port without a scheme.
func (s *WebsocketServer) Address() string {
	return strings.TrimPrefix(s.Server.URL, "http://")
}

// WSURL returns the ws:// URL of the server.
func (s *WebsocketServer) WSURL() string {
	return "ws://" + s.Address()
}

// Accept waits for the next connection when the server has no handler.
func (s *WebsocketServer) Accept(t *testing.T) *ServerConn {
	t.Helper()
	select {
	case c := <-s.conns:
		t.Cleanup(func() { _ = c.Conn.Close() })
		return c
	case <-time.After(DefaultTimeout):
		require.FailNow(t, "no websocket connection accepted")
		return nil
	}
}

// ServerConn is the server side of one accepted connection.
type ServerConn struct {
	t    *testing.T
	Conn *websocket.Conn
}

// ReadText reads the next frame and requires it to be a text frame.
func (c *ServerConn) ReadText() string {
	c.t.Helper()
	_ = c.Conn.SetReadDeadline(time.Now().Add(DefaultTimeout))
	kind, data, err := c.Conn.ReadMessage()
	require.NoError(c.t, err)
	require.Equal(c.t, websocket.TextMessage, kind)
	return string(data)
}

// ReadMessages reads the next text frame and decodes it as a JSON array of objects.
func (c *ServerConn) ReadMessages() []map[string]any {
	c.t.Helper()
	var msgs []map[string]any
	require.NoError(c.t, json.Unmarshal([]byte(c.ReadText()), &msgs))
	return msgs
}

// Commands returns the cmd tags of a decoded batch in order.
func Commands(msgs []map[string]any) []string {
	cmds := make([]string, 0, len(msgs))
	for _, m := range msgs {
		cmd, _ := m["cmd"].(string)
		cmds = append(cmds, cmd)
	}
	return cmds
}

// WriteText sends a text frame.
func (c *ServerConn) WriteText(payload string) {
	c.t.Helper()
	require.NoError(c.t, c.Conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

// WriteBinary sends a binary frame.
func (c *ServerConn) WriteBinary(payload []byte) {
	c.t.Helper()
	require.NoError(c.t, c.Conn.WriteMessage(websocket.BinaryMessage, payload))
}

// WriteJSON sends msgs as one JSON array text frame.
func (c *ServerConn) WriteJSON(msgs ...any) {
	c.t.Helper()
	data, err := json.Marshal(msgs)
	require.NoError(c.t, err)
	c.WriteText(string(data))
}

// CloseWith sends a close frame with code and text, then closes the socket.
func (c *ServerConn) CloseWith(code int, text string) {
	c.t.Helper()
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.Conn.Close()
}

// Eventually polls cond until it returns true or DefaultTimeout passes.
func Eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, DefaultTimeout, 5*time.Millisecond, msg)
}
