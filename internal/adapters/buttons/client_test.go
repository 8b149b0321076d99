package buttons

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/evo/internal/application"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	messages []application.ButtonMessage
}

func (s *recordingSink) Remote(_ context.Context, msg application.ButtonMessage) (application.VoteOutcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return application.VoteOutcome{}, true, nil
}

func (s *recordingSink) received() []application.ButtonMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]application.ButtonMessage(nil), s.messages...)
}

func TestClientForwardsMessagesInOrder(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, frame := range []string{
			`{"event":"PRESSED","button":1}`,
			`not json`,
			`{"event":"RELEASED","button":1}`,
			`{"event":"PRESSED","button":2}`,
		} {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	sink := &recordingSink{}
	client := NewClient("ws"+strings.TrimPrefix(server.URL, "http"), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, sink) }()

	require.Eventually(t, func() bool { return len(sink.received()) == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []application.ButtonMessage{
		{Event: "PRESSED", Button: 1},
		{Event: "RELEASED", Button: 1},
		{Event: "PRESSED", Button: 2},
	}, sink.received())
}

func TestClientStopsRetryingWhenCancelled(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1/buttons", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.reconnectDelay = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, client.Run(ctx, &recordingSink{}))
}
