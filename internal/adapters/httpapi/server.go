// Package httpapi serves a running session over HTTP so other processes
// can start rounds, vote and follow state changes.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	eventBuffer     = 8
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Controller is the part of the round controller the API drives.
type Controller interface {
	StartRound(ctx context.Context) (application.Snapshot, error)
	Vote(ctx context.Context, slot domain.VariantSlot, source application.VoteSource) (application.VoteOutcome, error)
	Reset(ctx context.Context, confirmed bool) (application.Snapshot, error)
	Snapshot(ctx context.Context) (application.Snapshot, error)
	Subscribe(buffer int) (<-chan application.Snapshot, func())
}

type Options struct {
	// Metrics is mounted on GET /metrics when set.
	Metrics http.Handler
	// Relay delivers votes; one over the controller is built when nil.
	Relay  *application.InputRelay
	Logger *slog.Logger
}

type handlers struct {
	controller Controller
	relay      *application.InputRelay
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

func NewRouter(controller Controller, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	relay := opts.Relay
	if relay == nil {
		relay = application.NewInputRelay(controller, 0, nil, logger)
	}

	h := &handlers{
		controller: controller,
		relay:      relay,
		logger:     logger,
		upgrader: websocket.Upgrader{
			// The API binds to a local address and carries no credentials.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/state", h.state)
	router.GET("/events", h.events)
	router.POST("/round", h.startRound)
	router.POST("/vote/:variant", h.vote)
	router.POST("/reset", h.reset)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	return router
}

// Serve runs the API on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http api: %w", err)
	}
	return nil
}

func (h *handlers) state(c *gin.Context) {
	snapshot, err := h.controller.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStateResponse(snapshot))
}

func (h *handlers) startRound(c *gin.Context) {
	snapshot, err := h.controller.StartRound(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, NewStateResponse(snapshot))
}

func (h *handlers) vote(c *gin.Context) {
	slot, err := domain.ParseVariantSlot(c.Param("variant"))
	if err != nil {
		h.fail(c, err)
		return
	}

	outcome, err := h.relay.DirectFrom(c.Request.Context(), slot, application.VoteSourceHTTP)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewVoteResponse(outcome))
}

func (h *handlers) reset(c *gin.Context) {
	var req ResetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid reset request: %v", err)})
			return
		}
	}

	snapshot, err := h.controller.Reset(c.Request.Context(), req.Confirm)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStateResponse(snapshot))
}

// events streams a snapshot after every transition, starting with the
// current one.
func (h *handlers) events(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade event stream", "error", err)
		return
	}
	defer func() { _ = ws.Close() }()

	updates, cancel := h.controller.Subscribe(eventBuffer)
	defer cancel()

	ctx := c.Request.Context()
	initial, err := h.controller.Snapshot(ctx)
	if err != nil {
		h.logger.Warn("initial event snapshot", "error", err)
		return
	}
	if err := h.send(ws, initial); err != nil {
		return
	}

	// Incoming frames are discarded; a read error means the peer left.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-ctx.Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session stopped"),
					time.Now().Add(writeTimeout))
				return
			}
			if err := h.send(ws, snapshot); err != nil {
				return
			}
		}
	}
}

func (h *handlers) send(ws *websocket.Conn, snapshot application.Snapshot) error {
	_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ws.WriteJSON(NewStateResponse(snapshot)); err != nil {
		h.logger.Debug("write event", "error", err)
		return err
	}
	return nil
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: codeFor(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidVariant), errors.Is(err, domain.ErrResetNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRoundInFlight),
		errors.Is(err, domain.ErrDecisionPending),
		errors.Is(err, domain.ErrRoundDecided),
		errors.Is(err, domain.ErrVotingClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCredentialMissing), errors.Is(err, domain.ErrControllerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(err error) string {
	for code, target := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return ""
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
