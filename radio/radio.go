// Package radio connects the bot to a mesh radio gateway. Two link kinds
// are supported: a local serial device and a network gateway reachable
// over websocket. Both speak the same JSON envelope protocol and feed a
// shared node table with each sender's last-known position.
//
// The rest of the program depends only on the Transport interface: a
// stream of inbound text messages, a send operation, and a read-only
// position lookup.
package radio

import "context"

// NodeID is an opaque mesh node identifier, e.g. "!a4e9f0c2".
type NodeID string

// Position is a node's last reported location.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Message is one inbound text message from the mesh.
type Message struct {
	From NodeID
	Text string
}

// Transport is the radio collaborator surface the bot depends on.
// Implementations own the connection, delivery and the node position
// table; the bot treats all three as externally synchronized.
type Transport interface {
	// Events returns the inbound message stream. The channel is closed
	// when the link goes down or the transport is closed.
	Events() <-chan Message

	// SendText delivers one text payload to the given node. Failures are
	// reported to the caller and are not retried here.
	SendText(ctx context.Context, to NodeID, text string) error

	// LastKnownPosition reports the most recent position seen for a node.
	LastKnownPosition(id NodeID) (Position, bool)

	// Close tears down the link and closes the event stream.
	Close() error
}
