package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Second
)

type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay}
}

// WaitFunc suspends the calling goroutine for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// RetrySupervisor wraps a VariantGenerator with a bounded retry for
// transient failures. Fatal failures are returned after the first attempt.
type RetrySupervisor struct {
	generator ports.VariantGenerator
	policy    RetryPolicy
	wait      WaitFunc
	logger    *slog.Logger
	metrics   ports.Metrics
}

func NewRetrySupervisor(generator ports.VariantGenerator, policy RetryPolicy, logger *slog.Logger, metrics ports.Metrics) *RetrySupervisor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	return &RetrySupervisor{
		generator: generator,
		policy:    policy,
		wait:      timerWait,
		logger:    logger,
		metrics:   metrics,
	}
}

// WithWait replaces the delay implementation, typically with a fake in tests.
func (s *RetrySupervisor) WithWait(wait WaitFunc) *RetrySupervisor {
	if wait != nil {
		s.wait = wait
	}
	return s
}

func (s *RetrySupervisor) Generate(ctx context.Context, req ports.GenerateRequest) (domain.Image, error) {
	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		s.logger.Debug("generation attempt",
			"attempt", attempt,
			"max_attempts", s.policy.MaxAttempts,
			"instruction", truncate(req.Instruction.String(), 50),
		)

		image, err := s.generator.Generate(ctx, req)
		if err == nil {
			s.metrics.GenerationAttempt("success")
			return image, nil
		}

		kind := domain.ClassifyFailure(err)
		s.metrics.GenerationAttempt(string(kind))
		if !kind.Transient() {
			s.logger.Warn("generation failed", "attempt", attempt, "error", err)
			return domain.Image{}, err
		}

		lastErr = err
		if attempt == s.policy.MaxAttempts {
			break
		}

		s.logger.Info("transient generation failure, retrying",
			"attempt", attempt,
			"kind", kind,
			"delay", s.policy.Delay,
			"error", err,
		)
		if err := s.wait(ctx, s.policy.Delay); err != nil {
			return domain.Image{}, domain.NewFatalError("retry wait interrupted", err)
		}
	}

	s.logger.Warn("generation retries exhausted", "attempts", s.policy.MaxAttempts, "error", lastErr)
	return domain.Image{}, lastErr
}

func timerWait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
