// Package chat names the outbound effects the engine needs from the chat
// platform. The platform connection itself lives in a separate process; this
// service only ever talks through the Gateway interface.
package chat

import (
	"context"

	"github.com/okian/raidline/pkg/logger"
)

// Gateway is the engine's view of the session channel.
type Gateway interface {
	// SetPostable raises or lowers write access to the session channel.
	SetPostable(ctx context.Context, postable bool) error

	// Announce sends a short lifecycle notice (window opened, window closed).
	Announce(ctx context.Context, text string) error

	// Send delivers one report chunk to the channel.
	Send(ctx context.Context, text string) error
}

// LogGateway implements Gateway by writing to the log. It stands in until a
// platform bridge is attached and keeps every outbound effect observable.
type LogGateway struct {
	logger logger.Logger
}

// NewLogGateway creates a LogGateway on the given logger.
func NewLogGateway(l logger.Logger) *LogGateway {
	if l == nil {
		l = logger.Get()
	}
	return &LogGateway{logger: l}
}

// SetPostable implements Gateway.
func (g *LogGateway) SetPostable(ctx context.Context, postable bool) error {
	g.logger.Info(ctx, "channel postable toggled", logger.Any("postable", postable))
	return nil
}

// Announce implements Gateway.
func (g *LogGateway) Announce(ctx context.Context, text string) error {
	g.logger.Info(ctx, "announcement", logger.String("text", text))
	return nil
}

// Send implements Gateway.
func (g *LogGateway) Send(ctx context.Context, text string) error {
	g.logger.Info(ctx, "report chunk", logger.Int("bytes", len(text)))
	return nil
}
