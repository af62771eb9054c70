package bot

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meshwx-org/meshwx/meteo"
	"github.com/meshwx-org/meshwx/radio"
)

var fixedNow = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

type sentMessage struct {
	to   radio.NodeID
	text string
}

type fakeTransport struct {
	events    chan radio.Message
	positions map[radio.NodeID]radio.Position

	mu       sync.Mutex
	sent     []sentMessage
	sendErr  error
	attempts int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:    make(chan radio.Message, 8),
		positions: make(map[radio.NodeID]radio.Position),
	}
}

func (f *fakeTransport) Events() <-chan radio.Message { return f.events }

func (f *fakeTransport) SendText(_ context.Context, to radio.NodeID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{to: to, text: text})
	return nil
}

func (f *fakeTransport) LastKnownPosition(id radio.NodeID) (radio.Position, bool) {
	pos, ok := f.positions[id]
	return pos, ok
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		texts = append(texts, m.text)
	}
	return texts
}

type fakeProvider struct {
	samples []meteo.HourlySample
	err     error

	gotPos     meteo.Position
	gotHorizon int
}

func (f *fakeProvider) FetchHourly(_ context.Context, pos meteo.Position, horizonHours int) ([]meteo.HourlySample, error) {
	f.gotPos = pos
	f.gotHorizon = horizonHours
	if f.err != nil {
		return nil, f.err
	}
	return f.samples, nil
}

func (f *fakeProvider) Location() *time.Location { return time.UTC }

// hourlySeries builds n consecutive hourly samples starting at start.
func hourlySeries(start time.Time, n int) []meteo.HourlySample {
	samples := make([]meteo.HourlySample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, meteo.HourlySample{
			Time:         start.Add(time.Duration(i) * time.Hour),
			TemperatureC: float64(i % 24),
			WindSpeedKmh: 18.0,
		})
	}
	return samples
}

func newTestBot(transport radio.Transport, provider ForecastProvider) *Bot {
	config := DefaultConfig()
	config.SendInterval = 0

	b := New(config, transport, provider, log.New(io.Discard, "", 0))
	b.now = func() time.Time { return fixedNow }
	return b
}

func TestHandleMessage_forecastDaily(t *testing.T) {
	transport := newFakeTransport()
	provider := &fakeProvider{samples: hourlySeries(fixedNow, 96)}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#прогноз 55.44 55.58 2д"})

	texts := transport.sentTexts()
	// One header plus one line per calendar day covered.
	if len(texts) != 3 {
		t.Fatalf("Expected 3 messages, got %d: %v", len(texts), texts)
	}
	if texts[0] != "Прогноз для 55.44, 55.58 (2 дней)" {
		t.Errorf("Unexpected header: %q", texts[0])
	}
	if !strings.HasPrefix(texts[1], "📆 01.05.2024") {
		t.Errorf("Unexpected first day line: %q", texts[1])
	}
	if !strings.HasPrefix(texts[2], "📆 02.05.2024") {
		t.Errorf("Unexpected second day line: %q", texts[2])
	}
	// Precipitation to two decimals, wind peak to one decimal in m/s.
	if !strings.Contains(texts[1], "🌧 0.00mm") || !strings.Contains(texts[1], "💨 5.0m/s") {
		t.Errorf("Day line missing formatted totals: %q", texts[1])
	}

	if provider.gotHorizon != 48 {
		t.Errorf("Expected fetch horizon 48 hours, got %d", provider.gotHorizon)
	}
	if provider.gotPos.Latitude != 55.44 || provider.gotPos.Longitude != 55.58 {
		t.Errorf("Unexpected fetch position: %+v", provider.gotPos)
	}
}

func TestHandleMessage_forecastHourly(t *testing.T) {
	transport := newFakeTransport()
	provider := &fakeProvider{samples: hourlySeries(fixedNow, 48)}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#weather 55.44 55.58 3h"})

	texts := transport.sentTexts()
	if len(texts) != 4 {
		t.Fatalf("Expected 4 messages, got %d: %v", len(texts), texts)
	}
	if texts[0] != "Прогноз для 55.44, 55.58 (3 часов)" {
		t.Errorf("Unexpected header: %q", texts[0])
	}
	for _, line := range texts[1:] {
		if !strings.HasPrefix(line, "🕒 ") {
			t.Errorf("Expected hourly line, got %q", line)
		}
	}
	if provider.gotHorizon != 3 {
		t.Errorf("Expected fetch horizon 3 hours, got %d", provider.gotHorizon)
	}
}

func TestHandleMessage_daysWinOverHours(t *testing.T) {
	transport := newFakeTransport()
	provider := &fakeProvider{samples: hourlySeries(fixedNow, 48)}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#прогноз 55.44 55.58 1д 5ч"})

	texts := transport.sentTexts()
	if len(texts) == 0 {
		t.Fatal("Expected messages to be sent")
	}
	if texts[0] != "Прогноз для 55.44, 55.58 (1 дней)" {
		t.Errorf("Expected daily header, got %q", texts[0])
	}
	if provider.gotHorizon != 24 {
		t.Errorf("Expected fetch horizon 24 hours, got %d", provider.gotHorizon)
	}
}

func TestHandleMessage_defaultHorizon(t *testing.T) {
	transport := newFakeTransport()
	provider := &fakeProvider{samples: hourlySeries(fixedNow, 120)}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#прогноз 55.44 55.58"})

	texts := transport.sentTexts()
	if len(texts) == 0 {
		t.Fatal("Expected messages to be sent")
	}
	if texts[0] != "Прогноз для 55.44, 55.58 (3 дней)" {
		t.Errorf("Expected default 3-day header, got %q", texts[0])
	}
	if provider.gotHorizon != 72 {
		t.Errorf("Expected fetch horizon 72 hours, got %d", provider.gotHorizon)
	}
}

func TestHandleMessage_fallbackToLastKnownPosition(t *testing.T) {
	transport := newFakeTransport()
	transport.positions["!node1"] = radio.Position{Latitude: 56.9496, Longitude: 24.1052}
	provider := &fakeProvider{samples: hourlySeries(fixedNow, 96)}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#погода"})

	if provider.gotPos.Latitude != 56.9496 || provider.gotPos.Longitude != 24.1052 {
		t.Errorf("Expected fetch at last-known position, got %+v", provider.gotPos)
	}
}

func TestHandleMessage_noPositionGuidance(t *testing.T) {
	transport := newFakeTransport()
	provider := &fakeProvider{}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#прогноз"})

	texts := transport.sentTexts()
	if len(texts) != len(guidanceSequence) {
		t.Fatalf("Expected %d guidance messages, got %d: %v", len(guidanceSequence), len(texts), texts)
	}
	for i, want := range guidanceSequence {
		if texts[i] != want {
			t.Errorf("Guidance message %d: expected %q, got %q", i, want, texts[i])
		}
	}
	if !strings.Contains(texts[len(texts)-1], "#прогноз 55.44 55.58 3д") {
		t.Errorf("Expected guidance to end with an example command, got %q", texts[len(texts)-1])
	}
	if provider.gotHorizon != 0 {
		t.Error("Provider must not be called without a resolved position")
	}
}

func TestHandleMessage_providerUnavailable(t *testing.T) {
	transport := newFakeTransport()
	provider := &fakeProvider{err: &meteo.UnavailableError{Op: "request", Err: errors.New("timeout")}}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#прогноз 55.44 55.58 3д"})

	texts := transport.sentTexts()
	if len(texts) != 1 || texts[0] != noForecastReply {
		t.Fatalf("Expected single %q reply, got %v", noForecastReply, texts)
	}
}

func TestHandleMessage_emptyWindow(t *testing.T) {
	transport := newFakeTransport()
	// All samples are in the past relative to fixedNow.
	provider := &fakeProvider{samples: hourlySeries(fixedNow.Add(-100*time.Hour), 10)}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#прогноз 55.44 55.58 3д"})

	texts := transport.sentTexts()
	if len(texts) != 1 || texts[0] != noForecastReply {
		t.Fatalf("Expected single %q reply, got %v", noForecastReply, texts)
	}
}

func TestHandleMessage_helpWithKnownPosition(t *testing.T) {
	transport := newFakeTransport()
	transport.positions["!node1"] = radio.Position{Latitude: 55.44, Longitude: 55.58}
	b := newTestBot(transport, &fakeProvider{})

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#помощь"})

	texts := transport.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("Expected 2 messages, got %d: %v", len(texts), texts)
	}
	if !strings.Contains(texts[0], "55.44") || !strings.Contains(texts[0], "55.58") {
		t.Errorf("Expected coordinates in reply, got %q", texts[0])
	}
	if texts[1] != forecastHint {
		t.Errorf("Expected forecast hint, got %q", texts[1])
	}
}

func TestHandleMessage_helpWithoutPosition(t *testing.T) {
	transport := newFakeTransport()
	b := newTestBot(transport, &fakeProvider{})

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "help"})

	texts := transport.sentTexts()
	if len(texts) != len(guidanceSequence) {
		t.Fatalf("Expected %d guidance messages, got %d: %v", len(guidanceSequence), len(texts), texts)
	}
}

func TestHandleMessage_testEcho(t *testing.T) {
	transport := newFakeTransport()
	b := newTestBot(transport, &fakeProvider{})

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "тест"})

	texts := transport.sentTexts()
	if len(texts) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(texts))
	}
	if !strings.Contains(texts[0], "!node1") {
		t.Errorf("Expected echo to contain sender ID, got %q", texts[0])
	}
}

func TestHandleMessage_ping(t *testing.T) {
	transport := newFakeTransport()
	b := newTestBot(transport, &fakeProvider{})

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#ping"})

	texts := transport.sentTexts()
	if len(texts) != 1 || texts[0] != pingReply {
		t.Fatalf("Expected single %q reply, got %v", pingReply, texts)
	}
}

func TestHandleMessage_unrecognizedSilentlyDropped(t *testing.T) {
	transport := newFakeTransport()
	provider := &fakeProvider{}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "just chatting"})

	if texts := transport.sentTexts(); len(texts) != 0 {
		t.Errorf("Expected no replies, got %v", texts)
	}
}

func TestHandleMessage_sendFailureAbortsDispatch(t *testing.T) {
	transport := newFakeTransport()
	transport.sendErr = errors.New("radio busy")
	provider := &fakeProvider{samples: hourlySeries(fixedNow, 96)}
	b := newTestBot(transport, provider)

	b.handleMessage(context.Background(), radio.Message{From: "!node1", Text: "#прогноз 55.44 55.58 2д"})

	transport.mu.Lock()
	attempts := transport.attempts
	transport.mu.Unlock()
	if attempts != 1 {
		t.Errorf("Expected dispatch to abort after first failed send, got %d attempts", attempts)
	}
}

func TestRun_processesEventsUntilCanceled(t *testing.T) {
	transport := newFakeTransport()
	b := newTestBot(transport, &fakeProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()

	transport.events <- radio.Message{From: "!node1", Text: "пинг"}

	deadline := time.After(2 * time.Second)
	for {
		if len(transport.sentTexts()) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for ping reply")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRun_stopsWhenEventStreamCloses(t *testing.T) {
	transport := newFakeTransport()
	b := newTestBot(transport, &fakeProvider{})

	close(transport.events)

	if err := b.Run(context.Background()); err != nil {
		t.Errorf("Expected nil error on closed stream, got %v", err)
	}
}
