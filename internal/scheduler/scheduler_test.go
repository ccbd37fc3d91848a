package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dealdesk/server/config"
	"dealdesk/server/internal/portfolio"
	"dealdesk/server/internal/queue"
)

// MockScenarioLister is a mock implementation of ScenarioLister
type MockScenarioLister struct {
	mock.Mock
}

func (m *MockScenarioLister) ListAllScenarioIDs() ([]uint, error) {
	args := m.Called()
	return args.Get(0).([]uint), args.Error(1)
}

// MockReanalyzer is a mock implementation of Reanalyzer
type MockReanalyzer struct {
	mock.Mock
}

func (m *MockReanalyzer) ReanalyzeBatch(ctx context.Context, ids []uint) (portfolio.BatchResult, error) {
	args := m.Called(ids)
	return args.Get(0).(portfolio.BatchResult), args.Error(1)
}

// MockBackfiller is a mock implementation of Backfiller
type MockBackfiller struct {
	mock.Mock
}

func (m *MockBackfiller) Backfill(ctx context.Context, limit int) (int, error) {
	args := m.Called(limit)
	return args.Int(0), args.Error(1)
}

func testConfig(interval time.Duration, runOnStart bool) *config.Config {
	cfg := &config.Config{}
	cfg.BatchProcessing.MaxBatchSize = 2
	cfg.Scheduler.Interval = interval
	cfg.Scheduler.RunOnStart = runOnStart
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestJobType_String(t *testing.T) {
	assert.Equal(t, "reanalysis", JobTypeReanalysis.String())
	assert.Equal(t, "geocode", JobTypeGeocode.String())
	assert.Equal(t, "unknown", JobType(42).String())
}

func TestRunReanalysis_BatchesAllScenarios(t *testing.T) {
	lister := &MockScenarioLister{}
	lister.On("ListAllScenarioIDs").Return([]uint{1, 2, 3, 4, 5}, nil)
	q := queue.NewScenarioQueue(10, quietLogger())

	s := NewScheduler(lister, q, nil, testConfig(time.Hour, false), quietLogger())

	queued, err := s.RunReanalysis()
	require.NoError(t, err)
	assert.Equal(t, 5, queued)
	assert.Equal(t, 3, q.Len())
}

func TestRunReanalysis_ListFailure(t *testing.T) {
	lister := &MockScenarioLister{}
	lister.On("ListAllScenarioIDs").Return([]uint(nil), errors.New("db down"))
	q := queue.NewScenarioQueue(10, quietLogger())

	s := NewScheduler(lister, q, nil, testConfig(time.Hour, false), quietLogger())

	_, err := s.RunReanalysis()
	assert.Error(t, err)
	assert.Zero(t, q.Len())
}

func TestRunReanalysis_QueueFullWithoutFallback(t *testing.T) {
	lister := &MockScenarioLister{}
	lister.On("ListAllScenarioIDs").Return([]uint{1, 2, 3, 4, 5}, nil)
	q := queue.NewScenarioQueue(1, quietLogger())

	s := NewScheduler(lister, q, nil, testConfig(time.Hour, false), quietLogger())

	queued, err := s.RunReanalysis()
	assert.ErrorIs(t, err, queue.ErrQueueFull)
	assert.Equal(t, 2, queued)
}

func TestRunReanalysis_QueueFullRunsRemainderInline(t *testing.T) {
	ids := []uint{1, 2, 3, 4, 5, 6, 7}
	lister := &MockScenarioLister{}
	lister.On("ListAllScenarioIDs").Return(ids, nil)
	reanalyzer := &MockReanalyzer{}
	reanalyzer.On("ReanalyzeBatch", mock.Anything).Return(portfolio.BatchResult{}, nil)
	q := queue.NewScenarioQueue(1, quietLogger())

	s := NewScheduler(lister, q, reanalyzer, testConfig(time.Hour, false), quietLogger())

	handled, err := s.RunReanalysis()
	require.NoError(t, err)
	assert.Equal(t, len(ids), handled)

	processed := map[uint]bool{}
	q.Subscribe(func(batch []uint) error {
		for _, id := range batch {
			processed[id] = true
		}
		return nil
	})
	q.Start()
	q.Close()
	q.Wait()
	for _, call := range reanalyzer.Calls {
		batch := call.Arguments.Get(0).([]uint)
		assert.LessOrEqual(t, len(batch), 2)
		for _, id := range batch {
			assert.False(t, processed[id], "scenario %d handled twice", id)
			processed[id] = true
		}
	}
	for _, id := range ids {
		assert.True(t, processed[id], "scenario %d dropped", id)
	}
	reanalyzer.AssertNumberOfCalls(t, "ReanalyzeBatch", 3)
}

func TestRunReanalysis_InlineFailure(t *testing.T) {
	lister := &MockScenarioLister{}
	lister.On("ListAllScenarioIDs").Return([]uint{1, 2, 3, 4, 5}, nil)
	reanalyzer := &MockReanalyzer{}
	reanalyzer.On("ReanalyzeBatch", []uint{3, 4}).Return(portfolio.BatchResult{}, errors.New("db down"))
	q := queue.NewScenarioQueue(1, quietLogger())

	s := NewScheduler(lister, q, reanalyzer, testConfig(time.Hour, false), quietLogger())

	handled, err := s.RunReanalysis()
	assert.Error(t, err)
	assert.Equal(t, 2, handled)
	reanalyzer.AssertNotCalled(t, "ReanalyzeBatch", []uint{5})
}

func TestScheduler_StartupAndTicks(t *testing.T) {
	lister := &MockScenarioLister{}
	lister.On("ListAllScenarioIDs").Return([]uint{7}, nil)
	backfiller := &MockBackfiller{}
	backfiller.On("Backfill", geocodeBatchLimit).Return(1, nil)

	q := queue.NewScenarioQueue(100, quietLogger())
	var mu sync.Mutex
	var batches int
	q.Subscribe(func(ids []uint) error {
		mu.Lock()
		batches++
		mu.Unlock()
		return nil
	})
	q.Start()
	defer func() {
		q.Close()
		q.Wait()
	}()

	s := NewScheduler(lister, q, nil, testConfig(20*time.Millisecond, true), quietLogger())
	s.SetBackfiller(backfiller)
	s.Start()

	// Startup run plus at least two ticks
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return batches >= 3
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	backfiller.AssertCalled(t, "Backfill", geocodeBatchLimit)
}

func TestScheduler_StopWithoutStartupRun(t *testing.T) {
	lister := &MockScenarioLister{}
	q := queue.NewScenarioQueue(10, quietLogger())

	s := NewScheduler(lister, q, nil, testConfig(time.Hour, false), quietLogger())
	s.Start()
	s.Stop()

	lister.AssertNotCalled(t, "ListAllScenarioIDs")
}
