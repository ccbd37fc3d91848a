package analysis

import (
	"dealdesk/server/internal/models"
)

// AverageDaysPerMonth converts a nightly rate into monthly income
const AverageDaysPerMonth = 30.4

// Deal holds the financial inputs shared by every exit strategy
type Deal struct {
	PurchasePrice  float64
	RehabCost      float64
	HoldingCosts   float64
	ClosingCosts   float64
	InterestRate   float64
	HoldTimeMonths int
}

func dealFrom(s *models.DealScenario) Deal {
	return Deal{
		PurchasePrice:  s.PurchasePrice,
		RehabCost:      s.RehabCost,
		HoldingCosts:   s.HoldingCosts,
		ClosingCosts:   s.ClosingCosts,
		InterestRate:   s.InterestRate,
		HoldTimeMonths: s.HoldTimeMonths,
	}
}

func (d Deal) TotalCashInvested() float64 {
	return d.PurchasePrice + d.RehabCost + d.HoldingCosts + d.ClosingCosts
}

// Metrics is the unrounded output of a strategy calculator
type Metrics struct {
	MonthlyNOI  float64
	CapRate     float64
	CashOnCash  float64
	ROI         float64
	TotalProfit float64
}

// Strategy is the closed set of exit strategies the engine can price:
// Rental, ShortTermRental and Flip. Each variant carries only its own inputs.
type Strategy interface {
	Kind() models.ExitStrategy
	validate(c *fieldCheck)
	metrics(deal Deal, property models.Property, fin financing, a Assumptions) Metrics
	financed() bool
}

type Rental struct {
	MonthlyRent   float64
	OccupancyRate float64
}

type ShortTermRental struct {
	DailyRate        float64
	AverageOccupancy float64
}

type Flip struct {
	SalePrice    float64
	SellingCosts float64
}

func (Rental) Kind() models.ExitStrategy          { return models.StrategyRent }
func (ShortTermRental) Kind() models.ExitStrategy { return models.StrategyAirbnb }
func (Flip) Kind() models.ExitStrategy            { return models.StrategyFlip }

func (Rental) financed() bool          { return true }
func (ShortTermRental) financed() bool { return true }
func (Flip) financed() bool            { return false }

// StrategyFor lifts the scenario's strategy inputs into their variant. The
// scenario must carry exactly the input set of its exit strategy.
func StrategyFor(s *models.DealScenario) (Strategy, error) {
	var missing, extra fieldCheck
	require := func(v *float64, field string) float64 {
		if v == nil {
			missing.fail(field)
			return 0
		}
		return *v
	}
	forbid := func(v *float64, field string) {
		if v != nil {
			extra.fail(field)
		}
	}

	var strategy Strategy
	switch s.ExitStrategy {
	case models.StrategyRent:
		strategy = Rental{
			MonthlyRent:   require(s.MonthlyRent, "monthly_rent"),
			OccupancyRate: require(s.OccupancyRate, "occupancy_rate"),
		}
		forbid(s.DailyRate, "daily_rate")
		forbid(s.AverageOccupancy, "average_occupancy")
		forbid(s.SalePrice, "sale_price")
		forbid(s.SellingCosts, "selling_costs")
	case models.StrategyAirbnb:
		strategy = ShortTermRental{
			DailyRate:        require(s.DailyRate, "daily_rate"),
			AverageOccupancy: require(s.AverageOccupancy, "average_occupancy"),
		}
		forbid(s.MonthlyRent, "monthly_rent")
		forbid(s.OccupancyRate, "occupancy_rate")
		forbid(s.SalePrice, "sale_price")
		forbid(s.SellingCosts, "selling_costs")
	case models.StrategyFlip:
		strategy = Flip{
			SalePrice:    require(s.SalePrice, "sale_price"),
			SellingCosts: require(s.SellingCosts, "selling_costs"),
		}
		forbid(s.MonthlyRent, "monthly_rent")
		forbid(s.OccupancyRate, "occupancy_rate")
		forbid(s.DailyRate, "daily_rate")
		forbid(s.AverageOccupancy, "average_occupancy")
	default:
		return nil, newError(KindInvalidInput, "unknown exit strategy", "exit_strategy")
	}

	if err := missing.err(KindStrategyMismatch, "missing inputs for exit strategy "+string(s.ExitStrategy)); err != nil {
		return nil, err
	}
	if err := extra.err(KindStrategyMismatch, "inputs do not belong to exit strategy "+string(s.ExitStrategy)); err != nil {
		return nil, err
	}
	return strategy, nil
}

func (r Rental) validate(c *fieldCheck) {
	if !finite(r.MonthlyRent) || r.MonthlyRent <= 0 {
		c.fail("monthly_rent")
	}
	if !isPercent(r.OccupancyRate) {
		c.fail("occupancy_rate")
	}
}

func (r ShortTermRental) validate(c *fieldCheck) {
	if !finite(r.DailyRate) || r.DailyRate <= 0 {
		c.fail("daily_rate")
	}
	if !isPercent(r.AverageOccupancy) {
		c.fail("average_occupancy")
	}
}

func (f Flip) validate(c *fieldCheck) {
	if !finite(f.SalePrice) || f.SalePrice <= 0 {
		c.fail("sale_price")
	}
	if !finite(f.SellingCosts) || f.SellingCosts < 0 {
		c.fail("selling_costs")
	}
}

func (r Rental) grossMonthlyIncome() float64 {
	return r.MonthlyRent * (r.OccupancyRate / 100)
}

func (r ShortTermRental) grossMonthlyIncome() float64 {
	return r.DailyRate * (r.AverageOccupancy / 100) * AverageDaysPerMonth
}

func (r Rental) metrics(deal Deal, property models.Property, fin financing, a Assumptions) Metrics {
	gross := r.grossMonthlyIncome()
	opex := deal.HoldingCosts/float64(deal.HoldTimeMonths) +
		gross*(a.ManagementFeePercent+a.MaintenanceReservePercent)/100
	return heldMetrics(deal, property, fin, gross-fin.monthlyDebtService-opex)
}

func (r ShortTermRental) metrics(deal Deal, property models.Property, fin financing, a Assumptions) Metrics {
	gross := r.grossMonthlyIncome()
	opex := deal.HoldingCosts/float64(deal.HoldTimeMonths) +
		gross*(a.ManagementFeePercent+a.MaintenanceReservePercent+a.PlatformFeePercent)/100
	return heldMetrics(deal, property, fin, gross-fin.monthlyDebtService-opex)
}

// heldMetrics derives the income-strategy metrics from the monthly NOI. The
// NOI here already nets out debt service.
func heldMetrics(deal Deal, property models.Property, fin financing, monthlyNOI float64) Metrics {
	invested := deal.TotalCashInvested()
	annualNOI := monthlyNOI * 12
	accumulatedNOI := monthlyNOI * float64(deal.HoldTimeMonths)
	appreciation := property.CurrentValue - deal.PurchasePrice
	equityAtExit := property.CurrentValue - fin.balanceAtExit

	return Metrics{
		MonthlyNOI:  monthlyNOI,
		CapRate:     annualNOI / property.CurrentValue * 100,
		CashOnCash:  annualNOI / invested * 100,
		ROI:         (appreciation + accumulatedNOI) / invested * 100,
		TotalProfit: equityAtExit + accumulatedNOI - invested,
	}
}

func (f Flip) metrics(deal Deal, _ models.Property, _ financing, _ Assumptions) Metrics {
	invested := deal.TotalCashInvested()
	profit := f.SalePrice - f.SellingCosts - invested - FlipFinancingCost(deal)
	roi := profit / invested * 100

	return Metrics{
		MonthlyNOI:  0,
		CapRate:     0,
		CashOnCash:  roi,
		ROI:         roi,
		TotalProfit: profit,
	}
}

// FlipFinancingCost is simple interest on purchase and rehab over the hold
func FlipFinancingCost(deal Deal) float64 {
	if deal.InterestRate <= 0 {
		return 0
	}
	return (deal.PurchasePrice + deal.RehabCost) * (deal.InterestRate / 100) * (float64(deal.HoldTimeMonths) / 12)
}

func isPercent(v float64) bool {
	return finite(v) && v >= 0 && v <= 100
}
