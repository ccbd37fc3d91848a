package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealdesk/server/internal/models"
)

func comparisonSet() []models.DealScenario {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	rental := rentalScenario()
	rental.ID, rental.CreatedAt = 1, base

	flip := flipScenario()
	flip.ID, flip.CreatedAt = 2, base.Add(time.Hour)

	stay := airbnbScenario()
	stay.ID, stay.CreatedAt = 3, base.Add(2*time.Hour)

	return []models.DealScenario{rental, flip, stay}
}

func rankedIDs(ranked []Ranked) []uint {
	ids := make([]uint, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Scenario.ID
	}
	return ids
}

func TestCompare_RanksByMetric(t *testing.T) {
	a := newTestAnalyzer(t)
	property := rentalProperty()

	ranked, err := a.Compare(comparisonSet(), property, MetricROI)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Result.ROI, r.Result.ROI)
		}

		direct, err := a.Analyze(r.Scenario, property)
		require.NoError(t, err)
		assert.Equal(t, direct, r.Result)
	}
}

func TestCompare_ByMonthlyNOI(t *testing.T) {
	a := newTestAnalyzer(t)

	ranked, err := a.Compare(comparisonSet(), rentalProperty(), MetricMonthlyNOI)
	require.NoError(t, err)

	// short-term rental out-earns the long-term rental; the flip has no NOI
	assert.Equal(t, []uint{3, 1, 2}, rankedIDs(ranked))
}

func TestCompare_OrderIndependent(t *testing.T) {
	a := newTestAnalyzer(t)

	forward := comparisonSet()
	reversed := []models.DealScenario{forward[2], forward[1], forward[0]}

	first, err := a.Compare(forward, rentalProperty(), MetricCashOnCash)
	require.NoError(t, err)
	second, err := a.Compare(reversed, rentalProperty(), MetricCashOnCash)
	require.NoError(t, err)
	again, err := a.Compare(forward, rentalProperty(), MetricCashOnCash)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
}

func TestCompare_TieBreakers(t *testing.T) {
	a := newTestAnalyzer(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	cheap := flipScenario()
	cheap.ID, cheap.Name, cheap.CreatedAt = 5, "Cheap flip", base.Add(time.Hour)

	// Doubling every amount keeps the ROI but doubles the profit
	large := flipScenario()
	large.ID, large.Name, large.CreatedAt = 6, "Large flip", base.Add(2*time.Hour)
	large.PurchasePrice *= 2
	large.RehabCost *= 2
	large.HoldingCosts *= 2
	large.ClosingCosts *= 2
	large.SalePrice = ptr(*large.SalePrice * 2)
	large.SellingCosts = ptr(*large.SellingCosts * 2)

	twin := flipScenario()
	twin.ID, twin.Name, twin.CreatedAt = 4, "Twin flip", base.Add(3*time.Hour)

	ranked, err := a.Compare([]models.DealScenario{twin, cheap, large}, rentalProperty(), MetricROI)
	require.NoError(t, err)

	for _, r := range ranked {
		assert.Equal(t, 21.7, r.Result.ROI)
	}
	// profit first, then creation time even when the ID says otherwise
	assert.Equal(t, []uint{6, 5, 4}, rankedIDs(ranked))
	assert.Equal(t, []int{1, 2, 3}, []int{ranked[0].Rank, ranked[1].Rank, ranked[2].Rank})
}

func TestCompare_SameCreationTimeFallsBackToID(t *testing.T) {
	a := newTestAnalyzer(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first := flipScenario()
	first.ID, first.CreatedAt = 8, created
	second := flipScenario()
	second.ID, second.CreatedAt = 7, created

	ranked, err := a.Compare([]models.DealScenario{first, second}, rentalProperty(), MetricTotalProfit)
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 8}, rankedIDs(ranked))
}

func TestCompare_UnsavedScenariosOrderIndependent(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name     string
		mutate   func(x, y *models.DealScenario)
		expected []float64
	}{
		{
			name:     "Identical inputs ordered by name",
			mutate:   func(x, y *models.DealScenario) {},
			expected: []float64{5000, 5000},
		},
		{
			name: "Same name ordered by inputs",
			mutate: func(x, y *models.DealScenario) {
				// same ROI and profit: holding costs traded for closing costs
				y.Name = "x"
				y.HoldingCosts, y.ClosingCosts = x.ClosingCosts, x.HoldingCosts
			},
			expected: []float64{3000, 5000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := flipScenario(), flipScenario()
			x.ID, y.ID = 0, 0
			x.Name, y.Name = "x", "y"
			tt.mutate(&x, &y)

			forward, err := a.Compare([]models.DealScenario{x, y}, rentalProperty(), MetricROI)
			require.NoError(t, err)
			reversed, err := a.Compare([]models.DealScenario{y, x}, rentalProperty(), MetricROI)
			require.NoError(t, err)

			assert.Equal(t, forward, reversed)
			assert.Equal(t, "x", forward[0].Scenario.Name)
			assert.Equal(t, tt.expected, []float64{forward[0].Scenario.HoldingCosts, forward[1].Scenario.HoldingCosts})
		})
	}
}

func TestCompare_FailingScenarioFailsComparison(t *testing.T) {
	a := newTestAnalyzer(t)

	scenarios := comparisonSet()
	scenarios[2].DailyRate = nil

	ranked, err := a.Compare(scenarios, rentalProperty(), MetricROI)
	require.Error(t, err)
	assert.Nil(t, ranked)

	var scenarioErr *ScenarioError
	require.True(t, errors.As(err, &scenarioErr))
	assert.Equal(t, uint(3), scenarioErr.ScenarioID)
	assert.Equal(t, "Short-term rental", scenarioErr.Name)
	assert.True(t, errors.Is(err, ErrStrategyMismatch))
	assert.Equal(t, []string{"daily_rate"}, Fields(err))
}

func TestCompare_Empty(t *testing.T) {
	a := newTestAnalyzer(t)

	ranked, err := a.Compare(nil, rentalProperty(), "")
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Metric
		wantErr  bool
	}{
		{name: "Default", input: "", expected: MetricROI},
		{name: "Cap rate", input: "cap_rate", expected: MetricCapRate},
		{name: "Total profit", input: "total_profit", expected: MetricTotalProfit},
		{name: "Unknown", input: "irr", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMetric(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput))
				assert.Equal(t, []string{"metric"}, Fields(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestCompare_UnknownMetric(t *testing.T) {
	a := newTestAnalyzer(t)

	_, err := a.Compare(comparisonSet(), rentalProperty(), Metric("irr"))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
