package domain

const DefaultVotesRequired = 3

type VoteResult struct {
	Slot    VariantSlot
	Votes   [2]int
	Reached bool
}

func (r VoteResult) For(slot VariantSlot) int {
	if !slot.Valid() {
		return 0
	}
	return r.Votes[slot.index()]
}

// VoteTally counts votes per variant for one round. Once a slot reaches the
// threshold the tally is decided and rejects votes until Reset.
type VoteTally struct {
	required int
	votes    [2]int
	decided  bool
}

func NewVoteTally(required int) *VoteTally {
	if required <= 0 {
		required = DefaultVotesRequired
	}
	return &VoteTally{required: required}
}

func (t *VoteTally) Register(slot VariantSlot) (VoteResult, error) {
	if !slot.Valid() {
		return VoteResult{}, ErrInvalidVariant
	}
	if t.decided {
		return VoteResult{Slot: slot, Votes: t.votes}, ErrRoundDecided
	}

	t.votes[slot.index()]++
	reached := t.votes[slot.index()] >= t.required
	if reached {
		t.decided = true
	}

	return VoteResult{Slot: slot, Votes: t.votes, Reached: reached}, nil
}

func (t *VoteTally) Reset() {
	t.votes = [2]int{}
	t.decided = false
}

func (t *VoteTally) Votes() [2]int {
	return t.votes
}

func (t *VoteTally) Decided() bool {
	return t.decided
}

func (t *VoteTally) Required() int {
	return t.required
}
