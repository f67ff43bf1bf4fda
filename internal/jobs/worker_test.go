package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockPruner struct {
	mock.Mock
}

func (m *MockPruner) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("test", mockProcessor, 100*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(250 * time.Millisecond)

	worker.Stop()
	wg.Wait()

	// One immediate run plus at least one tick.
	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 2)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker("test", mockProcessor, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	mockProcessor.AssertNumberOfCalls(t, "ProcessJobs", 1)
}

func TestWorker_LogsProcessorErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("database down"))

	worker := NewWorker("retention", mockProcessor, time.Hour, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Start(ctx)
	}()

	require.Eventually(t, func() bool { return logs.Len() > 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	entry := logs.All()[0]
	assert.Equal(t, "processing jobs failed", entry.Message)
	assert.Equal(t, "retention", entry.ContextMap()["worker"])
	assert.Equal(t, "database down", entry.ContextMap()["error"])
}

func TestRetentionProcessor_PrunesBeforeCutoff(t *testing.T) {
	pruner := new(MockPruner)
	now := time.Date(2026, 5, 31, 12, 0, 0, 0, time.UTC)
	pruner.On("Prune", mock.Anything, now.Add(-30*24*time.Hour)).Return(int64(4), nil)

	p := NewRetentionProcessor(pruner, 30*24*time.Hour)
	p.now = func() time.Time { return now }

	require.NoError(t, p.ProcessJobs(context.Background()))
	pruner.AssertExpectations(t)
}

func TestRetentionProcessor_Disabled(t *testing.T) {
	pruner := new(MockPruner)

	p := NewRetentionProcessor(pruner, 0)

	require.NoError(t, p.ProcessJobs(context.Background()))
	pruner.AssertNotCalled(t, "Prune", mock.Anything, mock.Anything)
}

func TestRetentionProcessor_PropagatesErrors(t *testing.T) {
	pruner := new(MockPruner)
	pruner.On("Prune", mock.Anything, mock.Anything).Return(int64(0), assert.AnError)

	p := NewRetentionProcessor(pruner, time.Hour)

	assert.ErrorIs(t, p.ProcessJobs(context.Background()), assert.AnError)
}
