package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealdesk/server/internal/analysis"
	"dealdesk/server/internal/database"
	"dealdesk/server/internal/metrics"
	"dealdesk/server/internal/models"
)

// Store is the persistence the service needs. *database.Database satisfies it.
type Store interface {
	GetProperty(ownerID, id uint) (*models.Property, error)
	GetPropertyByID(id uint) (*models.Property, error)
	CreateScenario(s *models.DealScenario) error
	GetScenario(ownerID, id uint) (*models.DealScenario, error)
	ListScenarios(ownerID, propertyID uint) ([]models.DealScenario, error)
	UpdateScenario(s *models.DealScenario) error
	SaveScenarioResults(id uint, r models.AnalysisResult, at time.Time) error
	ClearScenarioResults(id uint) error
	GetScenariosByIDs(ids []uint) ([]models.DealScenario, error)
	ScenarioIDsForProperty(propertyID uint) ([]uint, error)
	RenovationSummary(ownerID, propertyID uint) (*models.RenovationSummary, error)
}

// Enqueuer schedules scenarios for background re-analysis
type Enqueuer interface {
	PushIDs(ids []uint, batchSize int) (int, error)
}

// Notifier is told about scenarios whose ROI clears the alert threshold
type Notifier interface {
	NotifyDeal(ctx context.Context, property models.Property, scenario models.DealScenario) error
}

// BatchResult counts the outcome of one re-analysis batch
type BatchResult struct {
	Analyzed int `json:"analyzed"`
	Rejected int `json:"rejected"`
	Missing  int `json:"missing"`
}

type Service struct {
	store       Store
	transact    func(fn func(Store) error) error
	analyzer    *analysis.Analyzer
	queue       Enqueuer
	notifier    Notifier
	alertMinROI float64
	alerts      sync.WaitGroup
	rankMetric  analysis.Metric
	batchSize   int
	metrics     *metrics.Metrics
	logger      *logrus.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithQueue(q Enqueuer, batchSize int) Option {
	return func(s *Service) {
		s.queue = q
		s.batchSize = batchSize
	}
}

// WithNotifier enables deal alerts for analyses with ROI >= minROI
func WithNotifier(n Notifier, minROI float64) Option {
	return func(s *Service) {
		s.notifier = n
		s.alertMinROI = minROI
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRankMetric sets the metric comparisons use when the caller names none
func WithRankMetric(m analysis.Metric) Option {
	return func(s *Service) { s.rankMetric = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, analyzer *analysis.Analyzer, opts ...Option) *Service {
	s := &Service{
		store:      store,
		analyzer:   analyzer,
		rankMetric: analysis.MetricROI,
		now:        time.Now,
	}
	if db, ok := store.(*database.Database); ok {
		s.transact = func(fn func(Store) error) error {
			return db.Transaction(func(tx *database.Database) error { return fn(tx) })
		}
	} else {
		s.transact = func(fn func(Store) error) error { return fn(store) }
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.New()
		s.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return s
}

// alertTimeout bounds one deal alert; alerts outlive the request that fired them
const alertTimeout = 15 * time.Second

// WaitAlerts blocks until every deal alert in flight has been sent or given up
func (s *Service) WaitAlerts() {
	s.alerts.Wait()
}

func (s *Service) Analyzer() *analysis.Analyzer {
	return s.analyzer
}

func (s *Service) analyze(scenario models.DealScenario, property models.Property) (models.AnalysisResult, error) {
	start := time.Now()
	result, err := s.analyzer.Analyze(scenario, property)
	s.metrics.ObserveAnalysis(string(scenario.ExitStrategy), string(analysis.KindOf(err)), time.Since(start))
	return result, err
}

// CreateScenario prices a new scenario and stores it with its metrics. A
// scenario the engine refuses is not stored.
func (s *Service) CreateScenario(ctx context.Context, ownerID, propertyID uint, scenario *models.DealScenario) error {
	property, err := s.store.GetProperty(ownerID, propertyID)
	if err != nil {
		return err
	}

	scenario.ID = 0
	scenario.PropertyID = property.ID
	scenario.ClearUnusedStrategyInputs()

	result, err := s.analyze(*scenario, *property)
	if err != nil {
		return err
	}
	scenario.ApplyResult(result, s.now())

	if err := s.store.CreateScenario(scenario); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"scenario_id":   scenario.ID,
		"property_id":   property.ID,
		"exit_strategy": scenario.ExitStrategy,
		"roi":           result.ROI,
	}).Info("Created scenario")
	s.alert(ctx, *property, *scenario)
	return nil
}

// UpdateScenario replaces the inputs of an existing scenario and re-prices it
func (s *Service) UpdateScenario(ctx context.Context, ownerID, id uint, input models.DealScenario) (*models.DealScenario, error) {
	existing, err := s.store.GetScenario(ownerID, id)
	if err != nil {
		return nil, err
	}
	property, err := s.store.GetProperty(ownerID, existing.PropertyID)
	if err != nil {
		return nil, err
	}

	updated := input
	updated.ID = existing.ID
	updated.PropertyID = existing.PropertyID
	updated.CreatedAt = existing.CreatedAt
	updated.ClearUnusedStrategyInputs()

	result, err := s.analyze(updated, *property)
	if err != nil {
		return nil, err
	}
	updated.ApplyResult(result, s.now())

	if err := s.store.UpdateScenario(&updated); err != nil {
		return nil, err
	}
	s.alert(ctx, *property, updated)
	return &updated, nil
}

// AnalyzeScenario re-prices a stored scenario against the current property
// and persists the metrics. On refusal the stored metrics are cleared.
func (s *Service) AnalyzeScenario(ctx context.Context, ownerID, id uint) (*models.DealScenario, error) {
	scenario, err := s.store.GetScenario(ownerID, id)
	if err != nil {
		return nil, err
	}
	property, err := s.store.GetProperty(ownerID, scenario.PropertyID)
	if err != nil {
		return nil, err
	}

	result, err := s.analyze(*scenario, *property)
	if err != nil {
		if clearErr := s.store.ClearScenarioResults(scenario.ID); clearErr != nil {
			s.logger.WithError(clearErr).WithField("scenario_id", scenario.ID).Error("Failed to clear stale results")
		}
		return nil, err
	}

	at := s.now()
	if err := s.store.SaveScenarioResults(scenario.ID, result, at); err != nil {
		return nil, err
	}
	scenario.ApplyResult(result, at)
	s.alert(ctx, *property, *scenario)
	return scenario, nil
}

// CompareScenarios ranks every scenario of a property. An empty metric name
// selects the configured default.
func (s *Service) CompareScenarios(ctx context.Context, ownerID, propertyID uint, metricName string) ([]analysis.Ranked, error) {
	metric := s.rankMetric
	if metricName != "" {
		m, err := analysis.ParseMetric(metricName)
		if err != nil {
			return nil, err
		}
		metric = m
	}

	property, err := s.store.GetProperty(ownerID, propertyID)
	if err != nil {
		return nil, err
	}
	scenarios, err := s.store.ListScenarios(ownerID, propertyID)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Compare(scenarios, *property, metric)
}

// Schedule returns the loan schedule behind a scenario's metrics
func (s *Service) Schedule(ctx context.Context, ownerID, id uint) (models.LoanSchedule, error) {
	scenario, err := s.store.GetScenario(ownerID, id)
	if err != nil {
		return models.LoanSchedule{}, err
	}
	property, err := s.store.GetProperty(ownerID, scenario.PropertyID)
	if err != nil {
		return models.LoanSchedule{}, err
	}
	_, schedule, err := s.analyzer.AnalyzeWithSchedule(*scenario, *property)
	return schedule, err
}

// ApplyRenovationBudget sets the scenario's rehab cost to the property's
// projected renovation total and re-prices it
func (s *Service) ApplyRenovationBudget(ctx context.Context, ownerID, scenarioID uint) (*models.DealScenario, error) {
	scenario, err := s.store.GetScenario(ownerID, scenarioID)
	if err != nil {
		return nil, err
	}
	summary, err := s.store.RenovationSummary(ownerID, scenario.PropertyID)
	if err != nil {
		return nil, err
	}

	input := *scenario
	input.RehabCost = summary.ProjectedTotal
	return s.UpdateScenario(ctx, ownerID, scenarioID, input)
}

// PropertyChanged queues every scenario of the property for re-analysis.
// Without a queue the scenarios are re-analyzed inline.
func (s *Service) PropertyChanged(ctx context.Context, propertyID uint) error {
	ids, err := s.store.ScenarioIDsForProperty(propertyID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if s.queue != nil {
		queued, err := s.queue.PushIDs(ids, s.batchSize)
		if err == nil {
			s.logger.WithFields(logrus.Fields{"property_id": propertyID, "scenarios": queued}).Debug("Queued scenarios for re-analysis")
			return nil
		}
		s.logger.WithError(err).WithField("property_id", propertyID).Warn("Queue rejected re-analysis, running inline")
		ids = ids[queued:]
	}

	_, err = s.ReanalyzeBatch(ctx, ids)
	return err
}

// ReanalyzeBatch re-prices the given scenarios in one transaction. Scenarios
// the engine refuses get their stored metrics cleared and are counted, not
// returned as errors; storage failures abort the batch.
func (s *Service) ReanalyzeBatch(ctx context.Context, ids []uint) (BatchResult, error) {
	var result BatchResult
	err := s.transact(func(store Store) error {
		result = BatchResult{}
		scenarios, err := store.GetScenariosByIDs(ids)
		if err != nil {
			return err
		}
		result.Missing = len(uniqueIDs(ids)) - len(scenarios)

		properties := map[uint]*models.Property{}
		at := s.now()
		for i := range scenarios {
			if err := ctx.Err(); err != nil {
				return err
			}
			scenario := &scenarios[i]

			property, ok := properties[scenario.PropertyID]
			if !ok {
				property, err = store.GetPropertyByID(scenario.PropertyID)
				if errors.Is(err, database.ErrNotFound) {
					result.Missing++
					continue
				}
				if err != nil {
					return err
				}
				properties[scenario.PropertyID] = property
			}

			computed, err := s.analyze(*scenario, *property)
			if err != nil {
				if analysis.KindOf(err) == "" {
					return err
				}
				s.logger.WithError(err).WithField("scenario_id", scenario.ID).Warn("Scenario refused during re-analysis")
				if err := store.ClearScenarioResults(scenario.ID); err != nil {
					return err
				}
				result.Rejected++
				continue
			}
			if err := store.SaveScenarioResults(scenario.ID, computed, at); err != nil {
				return fmt.Errorf("scenario %d: %w", scenario.ID, err)
			}
			result.Analyzed++
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	return result, nil
}

// alert sends the deal alert in the background so a slow Bot API never holds
// up the caller
func (s *Service) alert(ctx context.Context, property models.Property, scenario models.DealScenario) {
	if s.notifier == nil || scenario.ROI == nil || *scenario.ROI < s.alertMinROI {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	s.alerts.Add(1)
	go func() {
		defer s.alerts.Done()
		defer cancel()
		if err := s.notifier.NotifyDeal(ctx, property, scenario); err != nil {
			s.logger.WithError(err).WithField("scenario_id", scenario.ID).Warn("Failed to send deal alert")
		}
	}()
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
