package analysis

import (
	"fmt"
	"math"
	"sort"

	"dealdesk/server/internal/models"
)

// Metric names the figure scenarios are ranked by
type Metric string

const (
	MetricROI         Metric = "roi"
	MetricCapRate     Metric = "cap_rate"
	MetricCashOnCash  Metric = "cash_on_cash"
	MetricMonthlyNOI  Metric = "monthly_noi"
	MetricTotalProfit Metric = "total_profit"
)

// ParseMetric accepts a metric name; empty selects ROI
func ParseMetric(name string) (Metric, error) {
	switch m := Metric(name); m {
	case "":
		return MetricROI, nil
	case MetricROI, MetricCapRate, MetricCashOnCash, MetricMonthlyNOI, MetricTotalProfit:
		return m, nil
	}
	return "", newError(KindInvalidInput, fmt.Sprintf("unknown ranking metric %q", name), "metric")
}

func (m Metric) value(r models.AnalysisResult) float64 {
	switch m {
	case MetricCapRate:
		return r.CapRate
	case MetricCashOnCash:
		return r.CashOnCash
	case MetricMonthlyNOI:
		return r.MonthlyNOI
	case MetricTotalProfit:
		return r.TotalProfit
	default:
		return r.ROI
	}
}

// Ranked is one scenario's place in a comparison; Rank starts at 1
type Ranked struct {
	Scenario models.DealScenario   `json:"scenario"`
	Result   models.AnalysisResult `json:"result"`
	Rank     int                   `json:"rank"`
}

// Compare analyzes every scenario of one property and ranks them by metric,
// descending. Ties fall back to total profit, then to creation order and
// finally to name and inputs. A
// single failing scenario fails the whole comparison.
func (a *Analyzer) Compare(scenarios []models.DealScenario, property models.Property, metric Metric) ([]Ranked, error) {
	if metric == "" {
		metric = MetricROI
	}
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	ranked := make([]Ranked, len(scenarios))
	for i, s := range scenarios {
		ranked[i] = Ranked{Scenario: s}
	}
	// Analyze in creation order so the reported failure does not depend on
	// the order the caller passed the scenarios in.
	sort.SliceStable(ranked, func(i, j int) bool {
		return createdBefore(&ranked[i].Scenario, &ranked[j].Scenario)
	})

	for i := range ranked {
		result, err := a.Analyze(ranked[i].Scenario, property)
		if err != nil {
			return nil, &ScenarioError{
				ScenarioID: ranked[i].Scenario.ID,
				Name:       ranked[i].Scenario.Name,
				Err:        err,
			}
		}
		ranked[i].Result = result
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := metric.value(ranked[i].Result), metric.value(ranked[j].Result)
		if vi != vj {
			return vi > vj
		}
		pi, pj := ranked[i].Result.TotalProfit, ranked[j].Result.TotalProfit
		if pi != pj {
			return pi > pj
		}
		return createdBefore(&ranked[i].Scenario, &ranked[j].Scenario)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// createdBefore orders by creation time and ID. Scenarios that were never
// stored tie on both, so their name and inputs decide instead.
func createdBefore(a, b *models.DealScenario) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.ExitStrategy != b.ExitStrategy {
		return a.ExitStrategy < b.ExitStrategy
	}
	ka, kb := inputKey(a), inputKey(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return false
}

func inputKey(s *models.DealScenario) [12]float64 {
	opt := func(v *float64) float64 {
		if v == nil {
			return math.Inf(-1)
		}
		return *v
	}
	return [12]float64{
		s.PurchasePrice, s.RehabCost, s.HoldingCosts, s.ClosingCosts,
		s.InterestRate, float64(s.HoldTimeMonths),
		opt(s.MonthlyRent), opt(s.OccupancyRate),
		opt(s.DailyRate), opt(s.AverageOccupancy),
		opt(s.SalePrice), opt(s.SellingCosts),
	}
}
