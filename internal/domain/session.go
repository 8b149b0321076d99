package domain

import (
	"fmt"
	"time"
)

// SessionState owns the current image, round counter, displayed variants and
// history of a single local session. Every mutation goes through a method.
type SessionState struct {
	id       string
	seed     Image
	current  Image
	round    int
	inFlight bool
	phase    Phase
	display  *Round
	chosen   VariantSlot
	history  History
}

func NewSessionState(id string, seed Image) *SessionState {
	return &SessionState{
		id:      id,
		seed:    seed,
		current: seed,
		phase:   PhaseIdle,
	}
}

func (s *SessionState) ID() string          { return s.id }
func (s *SessionState) CurrentImage() Image { return s.current }
func (s *SessionState) SeedImage() Image    { return s.seed }
func (s *SessionState) RoundNumber() int    { return s.round }
func (s *SessionState) InFlight() bool      { return s.inFlight }
func (s *SessionState) Phase() Phase        { return s.phase }
func (s *SessionState) Chosen() VariantSlot { return s.chosen }
func (s *SessionState) History() []Round    { return s.history.Rounds() }

// Displayed returns the round whose variants are currently shown.
func (s *SessionState) Displayed() (Round, bool) {
	if s.display == nil {
		return Round{}, false
	}
	return *s.display, true
}

// PendingDecision reports whether variants are shown without a selection,
// either fresh ones or the ones kept after a failed round. Only fresh ones
// block the next round.
func (s *SessionState) PendingDecision() bool {
	if s.display == nil || s.chosen.Valid() {
		return false
	}
	return s.phase == PhaseAwaitingDecision || s.phase == PhaseFailed
}

// AcceptingVotes is true exactly when PendingDecision is.
func (s *SessionState) AcceptingVotes() bool {
	return s.PendingDecision()
}

// CanStartRound applies the start guard.
func (s *SessionState) CanStartRound() error {
	if s.inFlight {
		return ErrRoundInFlight
	}
	if s.phase == PhaseAwaitingDecision && s.PendingDecision() {
		return ErrDecisionPending
	}
	return nil
}

// BeginRound marks a new round in flight and returns its number.
func (s *SessionState) BeginRound() (int, error) {
	if err := s.CanStartRound(); err != nil {
		return 0, err
	}

	s.round++
	s.inFlight = true
	s.phase = PhaseGenerating
	s.chosen = SlotNone
	return s.round, nil
}

// CompleteRound shows the variants of a successfully generated round.
func (s *SessionState) CompleteRound(round Round) error {
	if !s.inFlight {
		return fmt.Errorf("complete round %d: no round in flight", round.Number)
	}

	s.inFlight = false
	s.phase = PhaseAwaitingDecision
	s.chosen = SlotNone
	s.display = &round
	return nil
}

// FailRound ends the in-flight round without variants. Previously shown
// variants stay displayed for re-decision.
func (s *SessionState) FailRound() {
	s.inFlight = false
	s.phase = PhaseFailed
	s.chosen = SlotNone
}

// Select finalizes the displayed round with the given slot: the winner's
// image becomes the current image and the round is appended to history.
func (s *SessionState) Select(slot VariantSlot, now time.Time) (Round, error) {
	if !slot.Valid() {
		return Round{}, ErrInvalidVariant
	}
	if !s.PendingDecision() {
		return Round{}, ErrVotingClosed
	}

	decided := *s.display
	decided.Selected = slot
	decided.DecidedAt = now
	decided.Redecided = s.phase == PhaseFailed

	if err := s.history.Append(decided); err != nil {
		return Round{}, err
	}

	winner, _ := decided.Winner()
	s.current = winner.Image
	s.chosen = slot
	s.phase = PhaseIdle
	return decided, nil
}

// Reset returns the session to the seed image with no rounds.
func (s *SessionState) Reset() {
	s.current = s.seed
	s.round = 0
	s.inFlight = false
	s.phase = PhaseIdle
	s.display = nil
	s.chosen = SlotNone
	s.history.Clear()
}
