package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SafeConn wraps an upgraded connection with a write lock so read-loop
// replies and asynchronous pushes cannot interleave frames.
type SafeConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewSafeConn wraps an upgraded connection.
func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

// Close closes the underlying connection.
func (c *SafeConn) Close() error { return c.conn.Close() }

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *SafeConn, v interface{}) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *SafeConn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *SafeConn, v interface{}) error {
	conn.conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	return conn.conn.ReadJSON(v)
}
