package radio

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// NetworkTransport speaks the gateway envelope protocol over a websocket
// connection to a network-attached radio gateway.
type NetworkTransport struct {
	conn    *websocket.Conn
	in      *inbound
	writeMu sync.Mutex
	closed  sync.Once
}

// DialNetwork connects to a gateway host and starts the read loop. A bare
// host is expanded to ws://<host>/ws; a full ws:// or wss:// URL is used
// as given.
func DialNetwork(ctx context.Context, host string, logger *log.Logger) (*NetworkTransport, error) {
	gatewayURL := host
	if !strings.Contains(gatewayURL, "://") {
		gatewayURL = fmt.Sprintf("ws://%s/ws", host)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, gatewayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway %s: %w", gatewayURL, err)
	}

	t := &NetworkTransport{
		conn: conn,
		in:   newInbound(logger),
	}
	go t.readLoop()
	return t, nil
}

func (t *NetworkTransport) readLoop() {
	defer close(t.in.events)

	for {
		_, frame, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.in.logger.Printf("Gateway connection lost: %v", err)
			}
			return
		}
		t.in.handleFrame(frame)
	}
}

// Events returns the inbound message stream.
func (t *NetworkTransport) Events() <-chan Message {
	return t.in.events
}

// SendText writes one outbound text frame to the gateway.
func (t *NetworkTransport) SendText(ctx context.Context, to NodeID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame, err := sendFrame(to, text)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("gateway write failed: %w", err)
	}
	return nil
}

// LastKnownPosition reports the most recent position seen for a node.
func (t *NetworkTransport) LastKnownPosition(id NodeID) (Position, bool) {
	return t.in.nodes.position(id)
}

// Close closes the websocket; the read loop then drains and closes the
// event stream.
func (t *NetworkTransport) Close() error {
	var err error
	t.closed.Do(func() {
		err = t.conn.Close()
	})
	return err
}
