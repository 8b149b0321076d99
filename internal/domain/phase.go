package domain

// Phase is the logical state of the round controller, observed by renderers.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseGenerating       Phase = "generating"
	PhaseAwaitingDecision Phase = "awaiting_decision"
	PhaseFailed           Phase = "failed"
)

func (p Phase) Label() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseGenerating:
		return "Generating"
	case PhaseAwaitingDecision:
		return "Awaiting decision"
	case PhaseFailed:
		return "Failed"
	default:
		return string(p)
	}
}
