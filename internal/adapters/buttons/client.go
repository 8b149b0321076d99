// Package buttons connects to the physical button daemon over a websocket
// and forwards its press events to the input relay.
package buttons

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bnema/evo/internal/application"
	"github.com/gorilla/websocket"
)

const (
	DefaultReconnectDelay = 2 * time.Second
	handshakeTimeout      = 5 * time.Second
)

// Sink receives decoded button messages.
type Sink interface {
	Remote(ctx context.Context, msg application.ButtonMessage) (application.VoteOutcome, bool, error)
}

type Client struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration
	logger         *slog.Logger
}

func NewClient(url string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		url:            url,
		dialer:         &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		reconnectDelay: DefaultReconnectDelay,
		logger:         logger.With("component", "buttons", "url", url),
	}
}

// Run keeps a connection open until ctx is done, reconnecting after
// failures. Every message is handed to sink in arrival order.
func (c *Client) Run(ctx context.Context, sink Sink) error {
	for {
		err := c.session(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("button connection lost, reconnecting", "error", err, "delay", c.reconnectDelay)

		timer := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (c *Client) session(ctx context.Context, sink Sink) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial button daemon: %w", err)
	}
	defer func() { _ = conn.Close() }()
	c.logger.Info("connected to button daemon")

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read button message: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}

		var msg application.ButtonMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn("ignoring malformed button message", "error", err)
			continue
		}

		if _, _, err := sink.Remote(ctx, msg); err != nil {
			c.logger.Debug("button vote not applied", "button", msg.Button, "error", err)
		}
	}
}
