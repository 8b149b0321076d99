package application

import (
	"github.com/bnema/evo/internal/domain"
)

type NoticeSeverity string

const (
	NoticeNone NoticeSeverity = ""
	NoticeInfo NoticeSeverity = "info"
	// NoticeSoft reports exhausted retries. Prior variants stay choosable
	// and nothing interrupts the user.
	NoticeSoft NoticeSeverity = "soft"
	// NoticeHard reports a fatal failure that needs a visible alert.
	NoticeHard NoticeSeverity = "hard"
)

type Notice struct {
	Severity NoticeSeverity `json:"severity,omitempty"`
	Message  string         `json:"message,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

func (n Notice) IsZero() bool {
	return n.Severity == NoticeNone && n.Message == ""
}

type VariantView struct {
	Slot        domain.VariantSlot
	Instruction domain.Instruction
	Display     string
	Image       domain.Image
	Votes       int
}

// Snapshot is a read-only copy of the session taken by the dispatcher.
type Snapshot struct {
	SessionID     string
	Phase         domain.Phase
	RoundNumber   int
	InFlight      bool
	Votes         [2]int
	VotesRequired int
	Variants      []VariantView
	Redeciding    bool
	CurrentImage  domain.Image
	History       []RoundSummary
	PoolSize      int
	PoolOriginal  int
	Supply        domain.SupplyLevel
	Status        string
	Notice        Notice
}

func (s Snapshot) AcceptingVotes() bool {
	return len(s.Variants) == 2
}

func (s Snapshot) Variant(slot domain.VariantSlot) (VariantView, bool) {
	for _, view := range s.Variants {
		if view.Slot == slot {
			return view, true
		}
	}
	return VariantView{}, false
}

type VoteSource string

const (
	VoteSourceDirect VoteSource = "direct"
	VoteSourceRemote VoteSource = "remote"
	VoteSourceHTTP   VoteSource = "http"
)

// VoteOutcome describes what a single vote did to the round.
type VoteOutcome struct {
	Result    domain.VoteResult
	Finalized bool
	Round     domain.Round
	// NextRound is the number of the round started automatically after
	// finalization, or 0 when none was started.
	NextRound int
}
