package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// WSTransport adapts a gorilla/websocket upgrade to the Transport interface.
// Handshake performs the HTTP upgrade, so a connect attempt that cannot
// complete within the registry's timeout fails before any session state
// changes hands.
type WSTransport struct {
	upgrader websocket.Upgrader
	w        http.ResponseWriter
	r        *http.Request
	conn     *websocket.Conn
}

// NewWSTransport prepares an upgrade for the given request.
func NewWSTransport(w http.ResponseWriter, r *http.Request) *WSTransport {
	return &WSTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients authenticate via the session cookie; origin
			// enforcement happens at the CORS layer.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		w: w,
		r: r,
	}
}

// Handshake upgrades the HTTP request to a websocket connection.
func (t *WSTransport) Handshake(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		t.upgrader.HandshakeTimeout = time.Until(deadline)
	}

	conn, err := t.upgrader.Upgrade(t.w, t.r, nil)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

// WriteMessage pushes one text frame to the client.
func (t *WSTransport) WriteMessage(payload []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the underlying websocket.
func (t *WSTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// ClientFrame is a join/leave request sent by the client over the socket.
type ClientFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// ReadFrame blocks until the client sends the next join/leave frame.
func (t *WSTransport) ReadFrame() (*ClientFrame, error) {
	var frame ClientFrame
	if err := t.conn.ReadJSON(&frame); err != nil {
		return nil, err
	}
	return &frame, nil
}
