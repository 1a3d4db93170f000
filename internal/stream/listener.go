package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/edlund/sentinel/internal/model"
)

// channelName is the postgres NOTIFY channel raised by the insert triggers.
const channelName = "security_events"

// reconnectDelay is how long the listener waits before re-acquiring a
// connection after a failure.
const reconnectDelay = 5 * time.Second

// Handler consumes one security event. Handlers must not block for long;
// the listener dispatches events serially.
type Handler func(ctx context.Context, ev model.SecurityEvent) error

// Listener holds a dedicated connection on LISTEN security_events and
// dispatches each notification to the registered handlers.
type Listener struct {
	pool     *pgxpool.Pool
	handlers []Handler
	logger   zerolog.Logger
}

func NewListener(pool *pgxpool.Pool, logger zerolog.Logger) *Listener {
	return &Listener{
		pool:   pool,
		logger: logger.With().Str("component", "listener").Logger(),
	}
}

// Register adds a handler. Must be called before Run.
func (l *Listener) Register(h Handler) {
	l.handlers = append(l.handlers, h)
}

// Run listens until the context is cancelled, reconnecting on failure.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error().Err(err).Msg("listener disconnected, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return fmt.Errorf("listen on %s: %w", channelName, err)
	}
	l.logger.Info().Str("channel", channelName).Msg("listening for security events")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var ev model.SecurityEvent
		if err := json.Unmarshal([]byte(notification.Payload), &ev); err != nil {
			l.logger.Warn().Err(err).Str("payload", notification.Payload).Msg("malformed security event")
			continue
		}

		for _, h := range l.handlers {
			if err := h(ctx, ev); err != nil {
				l.logger.Error().Err(err).Str("kind", ev.Kind).Str("id", ev.ID).Msg("event handler failed")
			}
		}
	}
}
