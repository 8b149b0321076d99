package ports

// Metrics receives controller events for observability.
type Metrics interface {
	RoundStarted()
	RoundSettled(outcome string)
	GenerationAttempt(outcome string)
	Vote(source string, result string)
	PoolSize(size int)
}

type NopMetrics struct{}

func (NopMetrics) RoundStarted()            {}
func (NopMetrics) RoundSettled(string)      {}
func (NopMetrics) GenerationAttempt(string) {}
func (NopMetrics) Vote(string, string)      {}
func (NopMetrics) PoolSize(int)             {}
