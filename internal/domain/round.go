package domain

import "time"

type RoundID string

// Round is one generation cycle: two variants and, once decided, the
// selected slot.
type Round struct {
	ID        RoundID
	Number    int
	Variants  [2]Variant
	Selected  VariantSlot
	Redecided bool
	StartedAt time.Time
	DecidedAt time.Time
}

func (r Round) Variant(slot VariantSlot) (Variant, bool) {
	if !slot.Valid() {
		return Variant{}, false
	}
	return r.Variants[slot.index()], true
}

func (r Round) Decided() bool {
	return r.Selected.Valid()
}

func (r Round) Winner() (Variant, bool) {
	return r.Variant(r.Selected)
}

func (r Round) Loser() (Variant, bool) {
	return r.Variant(r.Selected.Other())
}

// History is the append-only log of decided rounds.
type History struct {
	rounds []Round
}

func (h *History) Append(round Round) error {
	if !round.Decided() {
		return ErrRoundUndecided
	}
	h.rounds = append(h.rounds, round)
	return nil
}

func (h *History) Rounds() []Round {
	return append([]Round(nil), h.rounds...)
}

func (h *History) Len() int {
	return len(h.rounds)
}

func (h *History) Clear() {
	h.rounds = nil
}
