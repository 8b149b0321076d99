package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	"golang.org/x/time/rate"
)

const DefaultButtonDebounce = 200 * time.Millisecond

const (
	ButtonEventPressed  = "PRESSED"
	ButtonEventReleased = "RELEASED"
)

// ButtonMessage is one event from the physical button transport.
type ButtonMessage struct {
	Event  string `json:"event"`
	Button int    `json:"button"`
}

type Voter interface {
	Vote(ctx context.Context, slot domain.VariantSlot, source VoteSource) (VoteOutcome, error)
}

// InputRelay turns direct interactions and remote button messages into
// votes. It never decides whether a vote is accepted.
type InputRelay struct {
	voter   Voter
	limiter *rate.Limiter
	clock   ports.Clock
	logger  *slog.Logger
}

func NewInputRelay(voter Voter, debounce time.Duration, clock ports.Clock, logger *slog.Logger) *InputRelay {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if debounce > 0 {
		limit = rate.Every(debounce)
	}

	return &InputRelay{
		voter:   voter,
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
		logger:  logger,
	}
}

// Direct maps one terminal interaction to exactly one vote.
func (r *InputRelay) Direct(ctx context.Context, slot domain.VariantSlot) (VoteOutcome, error) {
	return r.DirectFrom(ctx, slot, VoteSourceDirect)
}

// DirectFrom maps one interaction from source to exactly one vote. Direct
// interactions are never debounced.
func (r *InputRelay) DirectFrom(ctx context.Context, slot domain.VariantSlot, source VoteSource) (VoteOutcome, error) {
	outcome, err := r.voter.Vote(ctx, slot, source)
	if err != nil {
		r.logger.Debug("direct vote rejected", "slot", slot, "source", source, "error", err)
	}
	return outcome, err
}

// Remote handles a button message. delivered is false when the message
// was a release, unrecognized, or debounced.
func (r *InputRelay) Remote(ctx context.Context, msg ButtonMessage) (outcome VoteOutcome, delivered bool, err error) {
	switch strings.ToUpper(strings.TrimSpace(msg.Event)) {
	case ButtonEventReleased:
		return VoteOutcome{}, false, nil
	case ButtonEventPressed:
	default:
		r.logger.Warn("ignoring unknown button event", "event", msg.Event, "button", msg.Button)
		return VoteOutcome{}, false, nil
	}

	slot := domain.VariantSlot(msg.Button)
	if !slot.Valid() {
		r.logger.Warn("ignoring unknown button", "button", msg.Button)
		return VoteOutcome{}, false, nil
	}

	if !r.limiter.AllowN(r.clock.Now(), 1) {
		r.logger.Debug("button press debounced", "button", msg.Button)
		return VoteOutcome{}, false, nil
	}

	outcome, err = r.voter.Vote(ctx, slot, VoteSourceRemote)
	if err != nil {
		r.logger.Debug("remote vote rejected", "button", msg.Button, "error", err)
		return outcome, true, err
	}
	return outcome, true, nil
}
