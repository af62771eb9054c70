package radio

import (
	"encoding/json"
	"fmt"
	"log"
)

// Envelope frame types used by the gateway protocol. The gateway emits
// "text" and "nodeinfo" frames; the bot emits "send" frames.
const (
	envelopeText     = "text"
	envelopeNodeInfo = "nodeinfo"
	envelopeSend     = "send"
)

// envelope is one JSON frame exchanged with the gateway. Serial links
// carry one envelope per line; websocket links carry one per message.
type envelope struct {
	Type     string    `json:"type"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Text     string    `json:"text,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// sendFrame encodes an outbound text envelope.
func sendFrame(to NodeID, text string) ([]byte, error) {
	frame, err := json.Marshal(envelope{Type: envelopeSend, To: string(to), Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode send frame: %w", err)
	}
	return frame, nil
}

// inbound routes decoded gateway frames to the node table and the event
// stream. It is shared by the serial and network links.
type inbound struct {
	nodes  *nodeTable
	events chan Message
	logger *log.Logger
}

func newInbound(logger *log.Logger) *inbound {
	return &inbound{
		nodes:  newNodeTable(),
		events: make(chan Message, 64),
		logger: logger,
	}
}

// handleFrame decodes and dispatches one raw frame. Malformed frames are
// logged and dropped; they never take the link down.
func (in *inbound) handleFrame(frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		in.logger.Printf("Dropping malformed gateway frame: %v", err)
		return
	}
	in.handle(env)
}

func (in *inbound) handle(env envelope) {
	switch env.Type {
	case envelopeText:
		if env.Position != nil {
			in.nodes.update(NodeID(env.From), *env.Position)
		}
		in.events <- Message{From: NodeID(env.From), Text: env.Text}
	case envelopeNodeInfo:
		if env.Position != nil {
			in.nodes.update(NodeID(env.From), *env.Position)
		}
	default:
		in.logger.Printf("Ignoring gateway frame of unknown type %q", env.Type)
	}
}
