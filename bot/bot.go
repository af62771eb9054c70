// Package bot dispatches parsed chat commands: it resolves the sender's
// location, fetches and aggregates forecasts, and sends paced replies
// back over the radio transport.
package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/meshwx-org/meshwx/command"
	"github.com/meshwx-org/meshwx/message"
	"github.com/meshwx-org/meshwx/meteo"
	"github.com/meshwx-org/meshwx/radio"
)

// ForecastProvider is the weather capability the dispatcher depends on.
// *meteo.Client satisfies it.
type ForecastProvider interface {
	FetchHourly(ctx context.Context, pos meteo.Position, horizonHours int) ([]meteo.HourlySample, error)
	Location() *time.Location
}

// Bot ties the parser, forecast provider, aggregation and formatting
// together behind a radio transport.
type Bot struct {
	config    *Config
	transport radio.Transport
	provider  ForecastProvider
	logger    *log.Logger
	pacer     *Pacer

	// Injected for tests.
	now func() time.Time
}

// New creates a Bot with its collaborators injected.
func New(config *Config, transport radio.Transport, provider ForecastProvider, logger *log.Logger) *Bot {
	return &Bot{
		config:    config,
		transport: transport,
		provider:  provider,
		logger:    logger,
		pacer:     NewPacer(config.SendInterval),
		now:       time.Now,
	}
}

// Run drains the transport event stream until the context is canceled or
// the stream closes. Messages are processed one at a time so the paced
// multi-part replies of one dispatch never interleave with another's.
func (b *Bot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-b.transport.Events():
			if !ok {
				return nil
			}
			b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage runs one inbound message through parse and dispatch.
// Nothing escapes to the caller: every failure either becomes a
// user-visible reply or is logged and dropped.
func (b *Bot) handleMessage(ctx context.Context, msg radio.Message) {
	cmd, ok := command.Parse(msg.Text)
	if !ok {
		b.logger.Printf("Ignoring unrecognized message from %s: %.50s", msg.From, msg.Text)
		return
	}

	b.logger.Printf("Received %s command from %s", cmd.Group, msg.From)

	switch cmd.Group {
	case command.GroupForecast:
		b.handleForecast(ctx, msg.From, cmd)
	case command.GroupHelp:
		b.handleHelp(ctx, msg.From)
	case command.GroupTest:
		b.send(ctx, msg.From, testReply(string(msg.From)))
	case command.GroupPing:
		b.send(ctx, msg.From, pingReply)
	}
}

// handleForecast resolves the location and horizon, fetches the forecast
// and streams the formatted reply one line per message.
func (b *Bot) handleForecast(ctx context.Context, from radio.NodeID, cmd command.Command) {
	pos, ok := b.resolvePosition(from, cmd)
	if !ok {
		b.sendGuidance(ctx, from)
		return
	}

	// Days win over hours; neither means the configured default horizon.
	days, hours := cmd.Days, cmd.Hours
	if days == 0 && hours == 0 {
		days = b.config.ForecastDefaultDays
	}
	daily := days > 0
	horizon := hours
	if daily {
		horizon = days * 24
	}

	fetchCtx, cancel := context.WithTimeout(ctx, b.config.APITimeout)
	defer cancel()

	samples, err := b.provider.FetchHourly(fetchCtx, pos, horizon)
	if err != nil {
		b.logger.Printf("Forecast fetch for %s failed: %v", from, err)
		b.send(ctx, from, noForecastReply)
		return
	}

	windowed := meteo.Window(samples, b.now().In(b.provider.Location()), horizon)
	if len(windowed) == 0 {
		b.send(ctx, from, noForecastReply)
		return
	}

	var header string
	var lines []string
	if daily {
		header = fmt.Sprintf(headerDailyFormat, pos.Latitude, pos.Longitude, days)
		lines = message.FormatDaily(meteo.RollupDaily(windowed), pos)
	} else {
		header = fmt.Sprintf(headerHourlyFormat, pos.Latitude, pos.Longitude, hours)
		lines = message.FormatHourly(windowed)
	}

	if err := b.send(ctx, from, header); err != nil {
		return
	}
	for _, line := range lines {
		if err := b.send(ctx, from, line); err != nil {
			return
		}
	}
}

// handleHelp reports the sender's known coordinates and the forecast
// command hint, or the guidance sequence when no position is known.
func (b *Bot) handleHelp(ctx context.Context, from radio.NodeID) {
	pos, ok := b.transport.LastKnownPosition(from)
	if !ok {
		b.sendGuidance(ctx, from)
		return
	}

	if err := b.send(ctx, from, fmt.Sprintf(positionKnownFormat, pos.Latitude, pos.Longitude)); err != nil {
		return
	}
	b.send(ctx, from, forecastHint)
}

// resolvePosition prefers explicit command coordinates, then the sender's
// last-known position from the transport.
func (b *Bot) resolvePosition(from radio.NodeID, cmd command.Command) (meteo.Position, bool) {
	if cmd.HasCoordinates() {
		return meteo.Position{Latitude: *cmd.Latitude, Longitude: *cmd.Longitude}, true
	}
	if pos, ok := b.transport.LastKnownPosition(from); ok {
		return meteo.Position{Latitude: pos.Latitude, Longitude: pos.Longitude}, true
	}
	return meteo.Position{}, false
}

// sendGuidance sends the fixed multi-part location guidance, each part as
// its own paced message.
func (b *Bot) sendGuidance(ctx context.Context, to radio.NodeID) {
	for _, part := range guidanceSequence {
		if err := b.send(ctx, to, part); err != nil {
			return
		}
	}
}

// send delivers one logical reply, chunked to the payload budget, with
// every transport write gated by the pacer. A failed send aborts the
// current dispatch; there is no retry here.
func (b *Bot) send(ctx context.Context, to radio.NodeID, text string) error {
	for _, chunk := range message.Chunk(text, b.config.MaxMessageBytes) {
		if err := b.pacer.Wait(ctx); err != nil {
			return err
		}
		if err := b.transport.SendText(ctx, to, chunk); err != nil {
			b.logger.Printf("Send to %s failed: %v", to, err)
			return err
		}
		b.logger.Printf("Sent message to %s: %.50s", to, chunk)
	}
	return nil
}
