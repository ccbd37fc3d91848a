package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"dealdesk/server/internal/models"
)

// Assumptions are the financing and operating parameters the scenario itself
// does not carry. All percentages are 0-100.
type Assumptions struct {
	// LoanToValuePercent of the purchase price is financed for held strategies
	LoanToValuePercent float64
	// LoanTermMonths is the amortization term of that loan
	LoanTermMonths int
	// ManagementFeePercent of gross income goes to property management
	ManagementFeePercent float64
	// MaintenanceReservePercent of gross income is reserved for repairs
	MaintenanceReservePercent float64
	// PlatformFeePercent of gross income is charged on short-term rentals only
	PlatformFeePercent float64
	// MaxHoldMonths caps holdTimeMonths; never above MaxTermMonths
	MaxHoldMonths int
}

// DefaultAssumptions finances 75% over 30 years and adds no operating costs
// beyond the scenario's own holding costs.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		LoanToValuePercent:        75,
		LoanTermMonths:            360,
		ManagementFeePercent:      0,
		MaintenanceReservePercent: 0,
		PlatformFeePercent:        0,
		MaxHoldMonths:             MaxTermMonths,
	}
}

func (a Assumptions) validate() error {
	var check fieldCheck
	if !isPercent(a.LoanToValuePercent) {
		check.fail("loan_to_value")
	}
	if a.LoanTermMonths <= 0 || a.LoanTermMonths > MaxTermMonths {
		check.fail("loan_term_months")
	}
	if !isPercent(a.ManagementFeePercent) {
		check.fail("management_fee")
	}
	if !isPercent(a.MaintenanceReservePercent) {
		check.fail("maintenance_reserve")
	}
	if !isPercent(a.PlatformFeePercent) {
		check.fail("platform_fee")
	}
	if a.MaxHoldMonths <= 0 || a.MaxHoldMonths > MaxTermMonths {
		check.fail("max_hold_months")
	}
	return check.err(KindInvalidInput, "invalid analysis assumptions")
}

// Analyzer prices deal scenarios. It holds no mutable state and is safe for
// concurrent use.
type Analyzer struct {
	assumptions Assumptions
}

func NewAnalyzer(a Assumptions) (*Analyzer, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &Analyzer{assumptions: a}, nil
}

func (a *Analyzer) Assumptions() Assumptions {
	return a.assumptions
}

type financing struct {
	loanAmount         float64
	monthlyDebtService float64
	balanceAtExit      float64
	schedule           []Period
}

// Analyze computes the unified metric set for a scenario against its
// property snapshot. Nothing is returned alongside an error.
func (a *Analyzer) Analyze(scenario models.DealScenario, property models.Property) (models.AnalysisResult, error) {
	result, _, err := a.analyze(&scenario, &property)
	return result, err
}

// AnalyzeWithSchedule also returns the financing schedule backing the metrics.
// Flips are not amortized and get an empty schedule.
func (a *Analyzer) AnalyzeWithSchedule(scenario models.DealScenario, property models.Property) (models.AnalysisResult, models.LoanSchedule, error) {
	result, fin, err := a.analyze(&scenario, &property)
	if err != nil {
		return models.AnalysisResult{}, models.LoanSchedule{}, err
	}

	loan := models.LoanSchedule{
		ScenarioID:   scenario.ID,
		InterestRate: scenario.InterestRate,
		Periods:      ToModel(fin.schedule),
	}
	if len(fin.schedule) > 0 {
		totalInterest := decimal.Zero
		for _, p := range fin.schedule {
			totalInterest = totalInterest.Add(p.InterestPaid)
		}
		loan.LoanAmount = roundCurrency(fin.loanAmount)
		loan.TermMonths = len(fin.schedule)
		loan.MonthlyPayment = roundCurrency(fin.monthlyDebtService)
		loan.TotalInterest = totalInterest.InexactFloat64()
	}
	return result, loan, nil
}

func (a *Analyzer) analyze(scenario *models.DealScenario, property *models.Property) (models.AnalysisResult, financing, error) {
	if err := a.validateDeal(scenario, property); err != nil {
		return models.AnalysisResult{}, financing{}, err
	}

	strategy, err := StrategyFor(scenario)
	if err != nil {
		return models.AnalysisResult{}, financing{}, err
	}

	var check fieldCheck
	strategy.validate(&check)
	if strategy.financed() && (!finite(property.CurrentValue) || property.CurrentValue <= 0) {
		check.fail("property.current_value")
	}
	if err := check.err(KindInvalidInput, "invalid strategy inputs"); err != nil {
		return models.AnalysisResult{}, financing{}, err
	}

	deal := dealFrom(scenario)
	fin, err := a.finance(deal, strategy)
	if err != nil {
		return models.AnalysisResult{}, financing{}, err
	}

	m := strategy.metrics(deal, *property, fin, a.assumptions)
	return round(m), fin, nil
}

func (a *Analyzer) validateDeal(s *models.DealScenario, p *models.Property) error {
	var check fieldCheck
	if !finite(s.PurchasePrice) || s.PurchasePrice <= 0 {
		check.fail("purchase_price")
	}
	if !finite(s.RehabCost) || s.RehabCost < 0 {
		check.fail("rehab_cost")
	}
	if !finite(s.HoldingCosts) || s.HoldingCosts < 0 {
		check.fail("holding_costs")
	}
	if !finite(s.ClosingCosts) || s.ClosingCosts < 0 {
		check.fail("closing_costs")
	}
	if !isPercent(s.InterestRate) {
		check.fail("interest_rate")
	}
	if s.HoldTimeMonths <= 0 {
		check.fail("hold_time_months")
	}
	if p.ID != 0 && s.PropertyID != 0 && s.PropertyID != p.ID {
		check.fail("property_id")
	}
	if err := check.err(KindInvalidInput, "invalid scenario inputs"); err != nil {
		return err
	}

	if s.HoldTimeMonths > a.assumptions.MaxHoldMonths {
		return newError(KindUnbounded,
			fmt.Sprintf("hold time exceeds %d months", a.assumptions.MaxHoldMonths), "hold_time_months")
	}
	return nil
}

func (a *Analyzer) finance(deal Deal, strategy Strategy) (financing, error) {
	if !strategy.financed() {
		return financing{}, nil
	}

	loanAmount := deal.PurchasePrice * a.assumptions.LoanToValuePercent / 100
	if loanAmount <= 0 {
		return financing{}, nil
	}

	schedule, err := ComputeSchedule(loanAmount, deal.InterestRate, a.assumptions.LoanTermMonths)
	if err != nil {
		return financing{}, err
	}

	return financing{
		loanAmount:         loanAmount,
		monthlyDebtService: exactPayment(loanAmount, deal.InterestRate, a.assumptions.LoanTermMonths).Round(2).InexactFloat64(),
		balanceAtExit:      BalanceAfter(schedule, deal.HoldTimeMonths).InexactFloat64(),
		schedule:           schedule,
	}, nil
}

// round applies the boundary precision once: cents for currency, one decimal
// for percentages.
func round(m Metrics) models.AnalysisResult {
	return models.AnalysisResult{
		CapRate:     roundPercent(m.CapRate),
		CashOnCash:  roundPercent(m.CashOnCash),
		ROI:         roundPercent(m.ROI),
		MonthlyNOI:  roundCurrency(m.MonthlyNOI),
		TotalProfit: roundCurrency(m.TotalProfit),
	}
}

func roundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundPercent(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
