package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler re-analyzes one batch of scenario ids
type Handler func(ids []uint) error

// ScenarioQueue is an in-memory queue of scenario id batches awaiting
// re-analysis. Every batch goes to exactly one subscribed handler.
type ScenarioQueue struct {
	items    chan []uint
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *logrus.Logger
	handlers []Handler
}

// NewScenarioQueue creates a queue holding up to bufferSize batches
func NewScenarioQueue(bufferSize int, logger *logrus.Logger) *ScenarioQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &ScenarioQueue{
		items:   make(chan []uint, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a batch without blocking
func (q *ScenarioQueue) Push(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	// The read lock keeps Close from closing the channel mid-send
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- ids:
		q.logger.WithField("batch_size", len(ids)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// PushIDs splits ids into batches of at most batchSize and pushes them. It
// returns how many ids were queued before the first failure.
func (q *ScenarioQueue) PushIDs(ids []uint, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = len(ids)
	}
	queued := 0
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := make([]uint, end-start)
		copy(batch, ids[start:end])
		if err := q.Push(batch); err != nil {
			return queued, err
		}
		queued += len(batch)
	}
	return queued, nil
}

// Subscribe registers a handler; each handler gets its own worker once the
// queue is started
func (q *ScenarioQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
	if q.started {
		q.wg.Add(1)
		go q.consume(handler)
	}
}

// Start launches one worker per subscribed handler
func (q *ScenarioQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	for _, h := range q.handlers {
		q.wg.Add(1)
		go q.consume(h)
	}
}

func (q *ScenarioQueue) consume(handler Handler) {
	defer q.wg.Done()
	for batch := range q.items {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting batches. Workers finish what is already queued.
func (q *ScenarioQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.items)
	return nil
}

// Wait blocks until the workers have drained a closed queue
func (q *ScenarioQueue) Wait() {
	q.wg.Wait()
}

// Len returns the current number of batches in the queue
func (q *ScenarioQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ScenarioQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
