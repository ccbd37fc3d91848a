package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"dealdesk/server/config"
	"dealdesk/server/internal/metrics"
	"dealdesk/server/internal/portfolio"
	"dealdesk/server/internal/queue"
)

// Reanalyzer re-prices a batch of stored scenarios
type Reanalyzer interface {
	ReanalyzeBatch(ctx context.Context, ids []uint) (portfolio.BatchResult, error)
}

// BatchProcessor drains the re-analysis queue with a pool of workers
type BatchProcessor struct {
	reanalyzer Reanalyzer
	logger     *logrus.Logger
	config     *config.Config
	queue      *queue.ScenarioQueue
	metrics    *metrics.Metrics
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(reanalyzer Reanalyzer, queue *queue.ScenarioQueue, config *config.Config, logger *logrus.Logger, m *metrics.Metrics) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		reanalyzer: reanalyzer,
		queue:      queue,
		config:     config,
		logger:     logger,
		metrics:    m,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes one worker per configured processor and starts the queue
func (p *BatchProcessor) Start() {
	for i := 0; i < p.config.BatchProcessing.ProcessorCount; i++ {
		p.queue.Subscribe(p.processBatch)
	}
	p.queue.Start()
}

// Stop closes the queue and waits for the workers. Batches still queued are
// abandoned; the next scheduled sweep picks their scenarios up again.
func (p *BatchProcessor) Stop() {
	p.queue.Close()
	p.cancel()
	p.queue.Wait()
}

// processBatch re-analyzes one batch, retrying storage failures
func (p *BatchProcessor) processBatch(ids []uint) error {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			select {
			case <-p.ctx.Done():
				return p.ctx.Err()
			case <-time.After(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second):
			}
		}
		if p.ctx.Err() != nil {
			return p.ctx.Err()
		}

		var result portfolio.BatchResult
		result, err = p.reanalyzer.ReanalyzeBatch(p.ctx, ids)
		if err == nil {
			p.metrics.ObserveBatch(nil)
			p.logger.WithFields(logrus.Fields{
				"batch_size": len(ids),
				"analyzed":   result.Analyzed,
				"rejected":   result.Rejected,
				"missing":    result.Missing,
			}).Info("Successfully processed batch")
			return nil
		}

		p.logger.WithError(err).Error("Batch processing failed")
	}

	p.metrics.ObserveBatch(err)
	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries+1, err)
}
