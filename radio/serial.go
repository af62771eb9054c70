package radio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/goburrow/serial"
)

// maxFrameBytes bounds one gateway frame on the serial line.
const maxFrameBytes = 4096

// SerialTransport speaks the gateway envelope protocol over a local
// serial device, one JSON frame per line.
type SerialTransport struct {
	port    io.ReadWriteCloser
	in      *inbound
	writeMu sync.Mutex
	closed  sync.Once
}

// OpenSerial opens the gateway on a serial device path such as
// /dev/ttyUSB0 and starts the read loop.
func OpenSerial(device string, baudRate int, logger *log.Logger) (*SerialTransport, error) {
	port, err := serial.Open(&serial.Config{
		Address:  device,
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial device %s: %w", device, err)
	}

	return newSerialTransport(port, logger), nil
}

// newSerialTransport wraps any byte stream with the line-framed gateway
// protocol. Split out from OpenSerial so tests can drive it with a pipe.
func newSerialTransport(port io.ReadWriteCloser, logger *log.Logger) *SerialTransport {
	t := &SerialTransport{
		port: port,
		in:   newInbound(logger),
	}
	go t.readLoop()
	return t
}

func (t *SerialTransport) readLoop() {
	defer close(t.in.events)

	scanner := bufio.NewScanner(t.port)
	scanner.Buffer(make([]byte, maxFrameBytes), maxFrameBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		t.in.handleFrame(line)
	}

	if err := scanner.Err(); err != nil {
		t.in.logger.Printf("Serial read loop terminated: %v", err)
	}
}

// Events returns the inbound message stream.
func (t *SerialTransport) Events() <-chan Message {
	return t.in.events
}

// SendText writes one outbound text frame to the device.
func (t *SerialTransport) SendText(ctx context.Context, to NodeID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame, err := sendFrame(to, text)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.port.Write(append(frame, '\n')); err != nil {
		return fmt.Errorf("serial write failed: %w", err)
	}
	return nil
}

// LastKnownPosition reports the most recent position seen for a node.
func (t *SerialTransport) LastKnownPosition(id NodeID) (Position, bool) {
	return t.in.nodes.position(id)
}

// Close closes the serial device; the read loop then drains and closes
// the event stream.
func (t *SerialTransport) Close() error {
	var err error
	t.closed.Do(func() {
		err = t.port.Close()
	})
	return err
}
