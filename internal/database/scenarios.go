package database

import (
	"time"

	"gorm.io/gorm"

	"dealdesk/server/internal/models"
)

// ownedBy restricts a scenario or child-record query to properties of ownerID
func (d *Database) ownedBy(ownerID uint) *gorm.DB {
	return d.db.Model(&models.Property{}).Select("id").Where("owner_id = ?", ownerID)
}

func (d *Database) CreateScenario(s *models.DealScenario) error {
	return translate(d.db.Create(s).Error, "create scenario")
}

func (d *Database) GetScenario(ownerID, id uint) (*models.DealScenario, error) {
	var s models.DealScenario
	err := d.db.Where("id = ? AND property_id IN (?)", id, d.ownedBy(ownerID)).First(&s).Error
	if err != nil {
		return nil, translate(err, "get scenario")
	}
	return &s, nil
}

func (d *Database) GetScenarioByID(id uint) (*models.DealScenario, error) {
	var s models.DealScenario
	if err := d.db.First(&s, id).Error; err != nil {
		return nil, translate(err, "get scenario")
	}
	return &s, nil
}

// ListScenarios returns a property's scenarios in creation order
func (d *Database) ListScenarios(ownerID, propertyID uint) ([]models.DealScenario, error) {
	scenarios := []models.DealScenario{}
	err := d.db.Where("property_id = ? AND property_id IN (?)", propertyID, d.ownedBy(ownerID)).
		Order("created_at, id").Find(&scenarios).Error
	if err != nil {
		return nil, translate(err, "list scenarios")
	}
	return scenarios, nil
}

// UpdateScenario saves the scenario's inputs and outputs. Nil strategy
// inputs are written as NULL.
func (d *Database) UpdateScenario(s *models.DealScenario) error {
	if s.ID == 0 {
		return ErrNotFound
	}
	result := d.db.Model(s).Select("*").Omit("id", "property_id", "created_at").Updates(s)
	if result.Error != nil {
		return translate(result.Error, "update scenario")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteScenario(ownerID, id uint) error {
	result := d.db.Where("id = ? AND property_id IN (?)", id, d.ownedBy(ownerID)).Delete(&models.DealScenario{})
	if result.Error != nil {
		return translate(result.Error, "delete scenario")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveScenarioResults writes the five computed metrics and the analysis time
func (d *Database) SaveScenarioResults(id uint, r models.AnalysisResult, at time.Time) error {
	result := d.db.Model(&models.DealScenario{}).Where("id = ?", id).Updates(map[string]interface{}{
		"cap_rate":     r.CapRate,
		"cash_on_cash": r.CashOnCash,
		"roi":          r.ROI,
		"monthly_noi":  r.MonthlyNOI,
		"total_profit": r.TotalProfit,
		"analyzed_at":  at,
	})
	if result.Error != nil {
		return translate(result.Error, "save scenario results")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearScenarioResults drops stale metrics after an analysis was refused
func (d *Database) ClearScenarioResults(id uint) error {
	err := d.db.Model(&models.DealScenario{}).Where("id = ?", id).Updates(map[string]interface{}{
		"cap_rate":     nil,
		"cash_on_cash": nil,
		"roi":          nil,
		"monthly_noi":  nil,
		"total_profit": nil,
		"analyzed_at":  nil,
	}).Error
	return translate(err, "clear scenario results")
}

func (d *Database) ListAllScenarioIDs() ([]uint, error) {
	var ids []uint
	if err := d.db.Model(&models.DealScenario{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, translate(err, "list scenario ids")
	}
	return ids, nil
}

// GetScenariosByIDs loads the scenarios that still exist among ids
func (d *Database) GetScenariosByIDs(ids []uint) ([]models.DealScenario, error) {
	scenarios := []models.DealScenario{}
	if len(ids) == 0 {
		return scenarios, nil
	}
	if err := d.db.Where("id IN ?", ids).Order("id").Find(&scenarios).Error; err != nil {
		return nil, translate(err, "get scenarios")
	}
	return scenarios, nil
}
