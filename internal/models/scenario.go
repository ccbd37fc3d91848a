package models

import "time"

// DealScenario is a named what-if analysis tied to one property. The five
// output fields stay nil until the scenario has been analyzed.
type DealScenario struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	PropertyID     uint         `gorm:"not null;index;uniqueIndex:idx_scenario_property_name" json:"property_id"`
	Name           string       `gorm:"size:128;not null;uniqueIndex:idx_scenario_property_name" json:"name"`
	PurchasePrice  float64      `json:"purchase_price"`
	RehabCost      float64      `json:"rehab_cost"`
	HoldingCosts   float64      `json:"holding_costs"`
	ClosingCosts   float64      `json:"closing_costs"`
	InterestRate   float64      `json:"interest_rate"`
	HoldTimeMonths int          `json:"hold_time_months"`
	ExitStrategy   ExitStrategy `gorm:"size:16;not null" json:"exit_strategy"`

	MonthlyRent      *float64 `json:"monthly_rent,omitempty"`
	OccupancyRate    *float64 `json:"occupancy_rate,omitempty"`
	DailyRate        *float64 `json:"daily_rate,omitempty"`
	AverageOccupancy *float64 `json:"average_occupancy,omitempty"`
	SalePrice        *float64 `json:"sale_price,omitempty"`
	SellingCosts     *float64 `json:"selling_costs,omitempty"`

	CapRate     *float64   `json:"cap_rate"`
	CashOnCash  *float64   `json:"cash_on_cash"`
	ROI         *float64   `gorm:"column:roi" json:"roi"`
	MonthlyNOI  *float64   `gorm:"column:monthly_noi" json:"monthly_noi"`
	TotalProfit *float64   `json:"total_profit"`
	AnalyzedAt  *time.Time `json:"analyzed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DealScenario) TableName() string { return "scenarios" }

// ClearUnusedStrategyInputs drops the strategy inputs that do not belong to
// the scenario's exit strategy, so a strategy switch leaves one input set.
func (s *DealScenario) ClearUnusedStrategyInputs() {
	if s.ExitStrategy != StrategyRent {
		s.MonthlyRent, s.OccupancyRate = nil, nil
	}
	if s.ExitStrategy != StrategyAirbnb {
		s.DailyRate, s.AverageOccupancy = nil, nil
	}
	if s.ExitStrategy != StrategyFlip {
		s.SalePrice, s.SellingCosts = nil, nil
	}
}

// ApplyResult copies computed metrics onto the scenario
func (s *DealScenario) ApplyResult(r AnalysisResult, at time.Time) {
	capRate, coc, roi, noi, profit := r.CapRate, r.CashOnCash, r.ROI, r.MonthlyNOI, r.TotalProfit
	s.CapRate = &capRate
	s.CashOnCash = &coc
	s.ROI = &roi
	s.MonthlyNOI = &noi
	s.TotalProfit = &profit
	s.AnalyzedAt = &at
}

// AnalysisResult is the unified metric set produced by the deal engine
type AnalysisResult struct {
	CapRate     float64 `json:"cap_rate"`
	CashOnCash  float64 `json:"cash_on_cash"`
	ROI         float64 `json:"roi"`
	MonthlyNOI  float64 `json:"monthly_noi"`
	TotalProfit float64 `json:"total_profit"`
}

// AmortizationPeriod is one month of a loan schedule as served to clients
type AmortizationPeriod struct {
	Period           int     `json:"period"`
	Payment          float64 `json:"payment"`
	PrincipalPaid    float64 `json:"principal_paid"`
	InterestPaid     float64 `json:"interest_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// LoanSchedule is the financing view of a scenario
type LoanSchedule struct {
	ScenarioID     uint                 `json:"scenario_id"`
	LoanAmount     float64              `json:"loan_amount"`
	InterestRate   float64              `json:"interest_rate"`
	TermMonths     int                  `json:"term_months"`
	MonthlyPayment float64              `json:"monthly_payment"`
	TotalInterest  float64              `json:"total_interest"`
	Periods        []AmortizationPeriod `json:"periods"`
}
