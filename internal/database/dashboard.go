package database

import (
	"github.com/shopspring/decimal"

	"dealdesk/server/internal/models"
)

type groupCount struct {
	GroupKey string
	Count    int
}

// DashboardStats aggregates the owner's portfolio
func (d *Database) DashboardStats(ownerID uint) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		ByStatus: map[models.PropertyStatus]int{},
		ByType:   map[models.ExitStrategy]int{},
	}

	var statusCounts, typeCounts []groupCount
	err := d.db.Model(&models.Property{}).Select("status AS group_key, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).Group("status").Scan(&statusCounts).Error
	if err != nil {
		return nil, translate(err, "count properties by status")
	}
	err = d.db.Model(&models.Property{}).Select("type AS group_key, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).Group("type").Scan(&typeCounts).Error
	if err != nil {
		return nil, translate(err, "count properties by type")
	}
	for _, c := range statusCounts {
		stats.ByStatus[models.PropertyStatus(c.GroupKey)] = c.Count
		stats.TotalProperties += c.Count
	}
	for _, c := range typeCounts {
		stats.ByType[models.ExitStrategy(c.GroupKey)] = c.Count
	}

	var values struct {
		PortfolioValue float64
		TotalInvested  float64
	}
	err = d.db.Model(&models.Property{}).
		Select("COALESCE(SUM(current_value), 0) AS portfolio_value, COALESCE(SUM(purchase_price), 0) AS total_invested").
		Where("owner_id = ?", ownerID).Scan(&values).Error
	if err != nil {
		return nil, translate(err, "sum property values")
	}
	portfolio := decimal.NewFromFloat(values.PortfolioValue).Round(2)
	invested := decimal.NewFromFloat(values.TotalInvested).Round(2)
	stats.PortfolioValue = portfolio.InexactFloat64()
	stats.TotalInvested = invested.InexactFloat64()
	stats.EquityGain = portfolio.Sub(invested).InexactFloat64()

	var scenarios []models.DealScenario
	err = d.db.Where("property_id IN (?)", d.ownedBy(ownerID)).Order("id").Find(&scenarios).Error
	if err != nil {
		return nil, translate(err, "list scenarios")
	}
	stats.TotalScenarios = len(scenarios)

	roiSum, capSum := decimal.Zero, decimal.Zero
	for i := range scenarios {
		s := &scenarios[i]
		if s.ROI == nil {
			continue
		}
		stats.AnalyzedScenarios++
		roiSum = roiSum.Add(decimal.NewFromFloat(*s.ROI))
		if s.CapRate != nil {
			capSum = capSum.Add(decimal.NewFromFloat(*s.CapRate))
		}
		if stats.BestScenario == nil || *s.ROI > *stats.BestScenario.ROI {
			stats.BestScenario = s
		}
	}
	if stats.AnalyzedScenarios > 0 {
		n := decimal.NewFromInt(int64(stats.AnalyzedScenarios))
		stats.AverageROI = roiSum.Div(n).Round(1).InexactFloat64()
		stats.AverageCapRate = capSum.Div(n).Round(1).InexactFloat64()
	}

	var renovations struct {
		Budget float64
		Spent  float64
	}
	err = d.db.Model(&models.RenovationItem{}).
		Select("COALESCE(SUM(estimated_cost), 0) AS budget, COALESCE(SUM(actual_cost), 0) AS spent").
		Where("property_id IN (?)", d.ownedBy(ownerID)).Scan(&renovations).Error
	if err != nil {
		return nil, translate(err, "sum renovations")
	}
	stats.RenovationBudget = decimal.NewFromFloat(renovations.Budget).Round(2).InexactFloat64()
	stats.RenovationSpent = decimal.NewFromFloat(renovations.Spent).Round(2).InexactFloat64()

	return stats, nil
}

// MappedProperties returns the owner's geocoded properties
func (d *Database) MappedProperties(ownerID uint) ([]models.Property, error) {
	properties := []models.Property{}
	err := d.db.Where("owner_id = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", ownerID).
		Order("id").Find(&properties).Error
	if err != nil {
		return nil, translate(err, "list mapped properties")
	}
	return properties, nil
}

// BestROIByProperty maps property id to the highest analyzed scenario ROI
func (d *Database) BestROIByProperty(ownerID uint) (map[uint]float64, error) {
	var rows []struct {
		PropertyID uint
		BestROI    float64
	}
	err := d.db.Model(&models.DealScenario{}).
		Select("property_id, MAX(roi) AS best_roi").
		Where("roi IS NOT NULL AND property_id IN (?)", d.ownedBy(ownerID)).
		Group("property_id").Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "query best roi")
	}
	best := make(map[uint]float64, len(rows))
	for _, r := range rows {
		best[r.PropertyID] = r.BestROI
	}
	return best, nil
}
