package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealdesk/server/config"
	"dealdesk/server/internal/portfolio"
)

// JobType represents the periodic jobs the scheduler runs
type JobType int

const (
	JobTypeReanalysis JobType = iota
	JobTypeGeocode
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeReanalysis:
		return "reanalysis"
	case JobTypeGeocode:
		return "geocode"
	default:
		return "unknown"
	}
}

// ScenarioLister lists every stored scenario
type ScenarioLister interface {
	ListAllScenarioIDs() ([]uint, error)
}

// Enqueuer accepts scenario ids for background re-analysis
type Enqueuer interface {
	PushIDs(ids []uint, batchSize int) (int, error)
}

// Reanalyzer re-prices scenarios in place when the queue has no room
type Reanalyzer interface {
	ReanalyzeBatch(ctx context.Context, ids []uint) (portfolio.BatchResult, error)
}

// Backfiller geocodes properties that have no coordinates yet
type Backfiller interface {
	Backfill(ctx context.Context, limit int) (int, error)
}

// geocodeBatchLimit bounds one backfill run; Nominatim allows one request per second
const geocodeBatchLimit = 50

// Scheduler periodically re-queues every scenario so stored metrics follow
// changes to the analysis assumptions
type Scheduler struct {
	scenarios  ScenarioLister
	queue      Enqueuer
	reanalyzer Reanalyzer
	backfiller Backfiller
	batchSize  int
	interval   time.Duration
	runOnStart bool
	logger     *logrus.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	jobMutex   sync.Mutex // Ensures sequential job execution
}

// NewScheduler creates a new scheduler
func NewScheduler(scenarios ScenarioLister, queue Enqueuer, reanalyzer Reanalyzer, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scenarios:  scenarios,
		queue:      queue,
		reanalyzer: reanalyzer,
		batchSize:  cfg.BatchProcessing.MaxBatchSize,
		interval:   cfg.Scheduler.Interval,
		runOnStart: cfg.Scheduler.RunOnStart,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetBackfiller adds the coordinate backfill to every run
func (s *Scheduler) SetBackfiller(b Backfiller) {
	s.backfiller = b
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

// runScheduler handles all scheduled tasks
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	if s.runOnStart {
		s.logger.Info("Running startup jobs")
		s.runJobs()
		s.logger.Info("Startup jobs completed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runJobs()
		}
	}
}

func (s *Scheduler) runJobs() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if _, err := s.RunReanalysis(); err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeReanalysis.String()).Error("Scheduled job failed")
	}
	if s.backfiller != nil {
		geocoded, err := s.backfiller.Backfill(s.ctx, geocodeBatchLimit)
		fields := logrus.Fields{"job_type": JobTypeGeocode.String(), "geocoded": geocoded}
		if err != nil {
			s.logger.WithError(err).WithFields(fields).Error("Scheduled job failed")
		} else {
			s.logger.WithFields(fields).Info("Scheduled job completed successfully")
		}
	}
}

// RunReanalysis queues every stored scenario in batches. Whatever the queue
// cannot take is re-analyzed inline so a sweep never drops scenarios. It
// reports how many scenarios were queued or re-analyzed.
func (s *Scheduler) RunReanalysis() (int, error) {
	ids, err := s.scenarios.ListAllScenarioIDs()
	if err != nil {
		return 0, err
	}

	queued, err := s.queue.PushIDs(ids, s.batchSize)
	fields := logrus.Fields{
		"job_type":  JobTypeReanalysis.String(),
		"scenarios": len(ids),
		"queued":    queued,
	}
	if err == nil {
		s.logger.WithFields(fields).Info("Queued scenarios for re-analysis")
		return queued, nil
	}
	if s.reanalyzer == nil {
		s.logger.WithError(err).WithFields(fields).Warn("Queue rejected re-analysis")
		return queued, err
	}

	s.logger.WithError(err).WithFields(fields).Warn("Queue rejected re-analysis, running inline")
	inline, err := s.reanalyzeInline(ids[queued:])
	fields["inline"] = inline
	s.logger.WithFields(fields).Info("Re-analysis sweep completed")
	return queued + inline, err
}

func (s *Scheduler) reanalyzeInline(ids []uint) (int, error) {
	size := s.batchSize
	if size <= 0 {
		size = len(ids)
	}
	done := 0
	for start := 0; start < len(ids); start += size {
		if err := s.ctx.Err(); err != nil {
			return done, err
		}
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		if _, err := s.reanalyzer.ReanalyzeBatch(s.ctx, ids[start:end]); err != nil {
			return done, err
		}
		done = end
	}
	return done, nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
