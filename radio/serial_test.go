package radio

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"testing"
	"time"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func waitForMessage(t *testing.T, events <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-events:
		if !ok {
			t.Fatal("Event stream closed unexpectedly")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for inbound message")
		return Message{}
	}
}

func TestSerialTransport_inbound(t *testing.T) {
	botEnd, gatewayEnd := net.Pipe()
	tr := newSerialTransport(botEnd, discardLogger())
	defer tr.Close()
	defer gatewayEnd.Close()

	go func() {
		frames := []string{
			`{"type":"nodeinfo","from":"!node1","position":{"lat":55.44,"lon":55.58}}`,
			`this is not a frame`,
			`{"type":"text","from":"!node1","text":"#прогноз"}`,
		}
		for _, frame := range frames {
			gatewayEnd.Write([]byte(frame + "\n"))
		}
	}()

	msg := waitForMessage(t, tr.Events())
	if msg.From != "!node1" {
		t.Errorf("Expected sender !node1, got %q", msg.From)
	}
	if msg.Text != "#прогноз" {
		t.Errorf("Expected text %q, got %q", "#прогноз", msg.Text)
	}

	pos, ok := tr.LastKnownPosition("!node1")
	if !ok {
		t.Fatal("Expected a last-known position for !node1")
	}
	if pos.Latitude != 55.44 || pos.Longitude != 55.58 {
		t.Errorf("Unexpected position: %+v", pos)
	}

	if _, ok := tr.LastKnownPosition("!unknown"); ok {
		t.Error("Expected no position for unknown node")
	}
}

func TestSerialTransport_inboundTextCarriesPosition(t *testing.T) {
	botEnd, gatewayEnd := net.Pipe()
	tr := newSerialTransport(botEnd, discardLogger())
	defer tr.Close()
	defer gatewayEnd.Close()

	go func() {
		gatewayEnd.Write([]byte(`{"type":"text","from":"!node2","text":"help","position":{"lat":1.5,"lon":2.5}}` + "\n"))
	}()

	waitForMessage(t, tr.Events())

	pos, ok := tr.LastKnownPosition("!node2")
	if !ok {
		t.Fatal("Expected position learned from text frame")
	}
	if pos.Latitude != 1.5 || pos.Longitude != 2.5 {
		t.Errorf("Unexpected position: %+v", pos)
	}
}

func TestSerialTransport_sendText(t *testing.T) {
	botEnd, gatewayEnd := net.Pipe()
	tr := newSerialTransport(botEnd, discardLogger())
	defer tr.Close()
	defer gatewayEnd.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- tr.SendText(context.Background(), "!node1", "понг")
	}()

	scanner := bufio.NewScanner(gatewayEnd)
	if !scanner.Scan() {
		t.Fatalf("Failed to read outbound frame: %v", scanner.Err())
	}

	var env envelope
	if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
		t.Fatalf("Outbound frame is not valid JSON: %v", err)
	}
	if env.Type != envelopeSend {
		t.Errorf("Expected frame type %q, got %q", envelopeSend, env.Type)
	}
	if env.To != "!node1" {
		t.Errorf("Expected recipient !node1, got %q", env.To)
	}
	if env.Text != "понг" {
		t.Errorf("Expected text %q, got %q", "понг", env.Text)
	}

	if err := <-errCh; err != nil {
		t.Errorf("SendText returned error: %v", err)
	}
}

func TestSerialTransport_sendTextCanceledContext(t *testing.T) {
	botEnd, gatewayEnd := net.Pipe()
	tr := newSerialTransport(botEnd, discardLogger())
	defer tr.Close()
	defer gatewayEnd.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tr.SendText(ctx, "!node1", "hello"); err == nil {
		t.Error("Expected error for canceled context")
	}
}

func TestSerialTransport_closeEndsEventStream(t *testing.T) {
	botEnd, gatewayEnd := net.Pipe()
	tr := newSerialTransport(botEnd, discardLogger())
	defer gatewayEnd.Close()

	if err := tr.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	select {
	case _, ok := <-tr.Events():
		if ok {
			t.Error("Expected event stream to be closed without messages")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event stream to close")
	}
}
