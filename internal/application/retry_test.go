package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/evo/internal/domain"
	"github.com/bnema/evo/internal/ports"
	"github.com/bnema/evo/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedWaits struct {
	delays []time.Duration
	err    error
}

func (r *recordedWaits) wait(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return r.err
}

func TestRetrySupervisorRetriesTransientFailuresUntilSuccess(t *testing.T) {
	generator := mocks.NewMockVariantGenerator(t)
	waits := &recordedWaits{}
	supervisor := NewRetrySupervisor(generator, RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}, discardLogger(), nil).
		WithWait(waits.wait)

	req := ports.GenerateRequest{Instruction: "Make it blue", Credential: "key"}
	want := domain.NewImage([]byte("generated"), "image/png")

	generator.EXPECT().Generate(mockAnyContext(), req).Return(domain.Image{}, domain.NewNoImageError("no image in response")).Twice()
	generator.EXPECT().Generate(mockAnyContext(), req).Return(want, nil).Once()

	got, err := supervisor.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, waits.delays)
	generator.AssertNumberOfCalls(t, "Generate", 3)
}

func TestRetrySupervisorStopsOnFatalFailure(t *testing.T) {
	generator := mocks.NewMockVariantGenerator(t)
	waits := &recordedWaits{}
	supervisor := NewRetrySupervisor(generator, DefaultRetryPolicy(), discardLogger(), nil).WithWait(waits.wait)

	fatal := domain.NewFatalError("HTTP 401", errors.New("unauthorized"))
	generator.EXPECT().Generate(mockAnyContext(), ports.GenerateRequest{}).Return(domain.Image{}, fatal).Once()

	_, err := supervisor.Generate(context.Background(), ports.GenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.FailureFatal, domain.ClassifyFailure(err))
	assert.Empty(t, waits.delays)
	generator.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRetrySupervisorReturnsLastTransientErrorWhenExhausted(t *testing.T) {
	generator := mocks.NewMockVariantGenerator(t)
	waits := &recordedWaits{}
	supervisor := NewRetrySupervisor(generator, RetryPolicy{MaxAttempts: 3, Delay: time.Second}, discardLogger(), nil).
		WithWait(waits.wait)

	generator.EXPECT().Generate(mockAnyContext(), ports.GenerateRequest{}).Return(domain.Image{}, domain.NewNoImageError("first")).Once()
	generator.EXPECT().Generate(mockAnyContext(), ports.GenerateRequest{}).Return(domain.Image{}, domain.NewNoImageError("second")).Once()
	generator.EXPECT().Generate(mockAnyContext(), ports.GenerateRequest{}).Return(domain.Image{}, domain.NewSafetyBlockError("SAFETY")).Once()

	_, err := supervisor.Generate(context.Background(), ports.GenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.FailureSafetyBlock, domain.ClassifyFailure(err))
	assert.Len(t, waits.delays, 2)
}

func TestRetrySupervisorTreatsInterruptedWaitAsFatal(t *testing.T) {
	generator := mocks.NewMockVariantGenerator(t)
	waits := &recordedWaits{err: context.Canceled}
	supervisor := NewRetrySupervisor(generator, DefaultRetryPolicy(), discardLogger(), nil).WithWait(waits.wait)

	generator.EXPECT().Generate(mockAnyContext(), ports.GenerateRequest{}).Return(domain.Image{}, domain.NewNoImageError("empty")).Once()

	_, err := supervisor.Generate(context.Background(), ports.GenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, domain.FailureFatal, domain.ClassifyFailure(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTimerWaitHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := timerWait(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, timerWait(context.Background(), time.Millisecond))
}
