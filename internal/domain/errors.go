package domain

import "errors"

var (
	ErrRoundInFlight     = errors.New("a round is already generating")
	ErrDecisionPending   = errors.New("choose a variant from the current round first")
	ErrRoundDecided      = errors.New("round already decided")
	ErrVotingClosed      = errors.New("no variants are open for voting")
	ErrInvalidVariant    = errors.New("variant must be 1 or 2")
	ErrRoundUndecided    = errors.New("round has no selected variant")
	ErrCredentialMissing = errors.New("api credential is required")
	ErrResetNotConfirmed = errors.New("reset requires explicit confirmation")
	ErrSecretNotFound    = errors.New("secret not found")
	ErrKeyNotFound       = errors.New("mirror key not found")
	ErrQuotaExceeded     = errors.New("mirror quota exceeded")
	ErrControllerStopped = errors.New("round controller stopped")
	ErrInvalidImage      = errors.New("invalid image data")
	ErrNoInstructions    = errors.New("instruction source is empty")
)
