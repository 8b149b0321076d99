package httpapi

import (
	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
)

type VariantState struct {
	Slot        int    `json:"slot"`
	Instruction string `json:"instruction"`
	Display     string `json:"display"`
	Image       string `json:"image,omitempty"`
	Votes       int    `json:"votes"`
}

type PoolState struct {
	Remaining int    `json:"remaining"`
	Original  int    `json:"original"`
	Supply    string `json:"supply"`
}

type StateResponse struct {
	SessionID     string                     `json:"session_id"`
	Phase         string                     `json:"phase"`
	Round         int                        `json:"round"`
	Generating    bool                       `json:"generating"`
	Votes         [2]int                     `json:"votes"`
	VotesRequired int                        `json:"votes_required"`
	Variants      []VariantState             `json:"variants"`
	Redeciding    bool                       `json:"redeciding,omitempty"`
	CurrentImage  string                     `json:"current_image,omitempty"`
	History       []application.RoundSummary `json:"history"`
	Pool          PoolState                  `json:"pool"`
	Status        string                     `json:"status"`
	Notice        *application.Notice        `json:"notice,omitempty"`
}

type VoteResponse struct {
	Slot      int    `json:"slot"`
	Votes     [2]int `json:"votes"`
	Reached   bool   `json:"reached"`
	Finalized bool   `json:"finalized"`
	NextRound int    `json:"next_round,omitempty"`
}

type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewStateResponse converts a snapshot into its wire form. Images travel as
// data URLs.
func NewStateResponse(snapshot application.Snapshot) StateResponse {
	resp := StateResponse{
		SessionID:     snapshot.SessionID,
		Phase:         string(snapshot.Phase),
		Round:         snapshot.RoundNumber,
		Generating:    snapshot.InFlight,
		Votes:         snapshot.Votes,
		VotesRequired: snapshot.VotesRequired,
		Variants:      make([]VariantState, 0, len(snapshot.Variants)),
		Redeciding:    snapshot.Redeciding,
		CurrentImage:  snapshot.CurrentImage.DataURL(),
		History:       snapshot.History,
		Pool: PoolState{
			Remaining: snapshot.PoolSize,
			Original:  snapshot.PoolOriginal,
			Supply:    string(snapshot.Supply),
		},
		Status: snapshot.Status,
	}
	if resp.History == nil {
		resp.History = []application.RoundSummary{}
	}

	for _, view := range snapshot.Variants {
		resp.Variants = append(resp.Variants, VariantState{
			Slot:        int(view.Slot),
			Instruction: view.Instruction.String(),
			Display:     view.Display,
			Image:       view.Image.DataURL(),
			Votes:       view.Votes,
		})
	}

	if !snapshot.Notice.IsZero() {
		notice := snapshot.Notice
		resp.Notice = &notice
	}

	return resp
}

func NewVoteResponse(outcome application.VoteOutcome) VoteResponse {
	return VoteResponse{
		Slot:      int(outcome.Result.Slot),
		Votes:     outcome.Result.Votes,
		Reached:   outcome.Result.Reached,
		Finalized: outcome.Finalized,
		NextRound: outcome.NextRound,
	}
}

// errorCodes names the errors a client can tell apart.
var errorCodes = map[string]error{
	"round_in_flight":     domain.ErrRoundInFlight,
	"decision_pending":    domain.ErrDecisionPending,
	"round_decided":       domain.ErrRoundDecided,
	"voting_closed":       domain.ErrVotingClosed,
	"invalid_variant":     domain.ErrInvalidVariant,
	"credential_missing":  domain.ErrCredentialMissing,
	"reset_not_confirmed": domain.ErrResetNotConfirmed,
	"controller_stopped":  domain.ErrControllerStopped,
}
