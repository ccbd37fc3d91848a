package database

import (
	"sort"

	"github.com/shopspring/decimal"

	"dealdesk/server/internal/models"
)

func (d *Database) CreateRenovation(r *models.RenovationItem) error {
	return translate(d.db.Create(r).Error, "create renovation")
}

func (d *Database) GetRenovation(ownerID, id uint) (*models.RenovationItem, error) {
	var r models.RenovationItem
	err := d.db.Where("id = ? AND property_id IN (?)", id, d.ownedBy(ownerID)).First(&r).Error
	if err != nil {
		return nil, translate(err, "get renovation")
	}
	return &r, nil
}

func (d *Database) ListRenovations(ownerID, propertyID uint) ([]models.RenovationItem, error) {
	items := []models.RenovationItem{}
	err := d.db.Where("property_id = ? AND property_id IN (?)", propertyID, d.ownedBy(ownerID)).
		Order("created_at, id").Find(&items).Error
	if err != nil {
		return nil, translate(err, "list renovations")
	}
	return items, nil
}

func (d *Database) UpdateRenovation(r *models.RenovationItem) error {
	if r.ID == 0 {
		return ErrNotFound
	}
	result := d.db.Model(r).Select("*").Omit("id", "property_id", "created_at").Updates(r)
	if result.Error != nil {
		return translate(result.Error, "update renovation")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteRenovation(ownerID, id uint) error {
	result := d.db.Where("id = ? AND property_id IN (?)", id, d.ownedBy(ownerID)).Delete(&models.RenovationItem{})
	if result.Error != nil {
		return translate(result.Error, "delete renovation")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RenovationSummary totals a property's renovation items. ActualTotal only
// counts items with a recorded actual cost; ProjectedTotal takes the actual
// cost where known and the estimate elsewhere.
func (d *Database) RenovationSummary(ownerID, propertyID uint) (*models.RenovationSummary, error) {
	items, err := d.ListRenovations(ownerID, propertyID)
	if err != nil {
		return nil, err
	}
	return summarizeRenovations(propertyID, items), nil
}

func summarizeRenovations(propertyID uint, items []models.RenovationItem) *models.RenovationSummary {
	estimated, actual, projected := decimal.Zero, decimal.Zero, decimal.Zero
	byCategory := map[string]*models.CategoryTotal{}
	summary := &models.RenovationSummary{
		PropertyID: propertyID,
		ByStatus:   map[models.RenovationStatus]int{},
		ByCategory: []models.CategoryTotal{},
	}

	for i := range items {
		item := &items[i]
		summary.ByStatus[item.Status]++

		cat, ok := byCategory[item.Category]
		if !ok {
			cat = &models.CategoryTotal{Category: item.Category}
			byCategory[item.Category] = cat
		}

		est := decimal.NewFromFloat(item.EstimatedCost)
		estimated = estimated.Add(est)
		cat.Estimated = decimal.NewFromFloat(cat.Estimated).Add(est).InexactFloat64()
		if item.ActualCost != nil {
			act := decimal.NewFromFloat(*item.ActualCost)
			actual = actual.Add(act)
			cat.Actual = decimal.NewFromFloat(cat.Actual).Add(act).InexactFloat64()
		}
		projected = projected.Add(decimal.NewFromFloat(item.Cost()))
	}

	for _, cat := range byCategory {
		summary.ByCategory = append(summary.ByCategory, *cat)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		return summary.ByCategory[i].Category < summary.ByCategory[j].Category
	})

	summary.EstimatedTotal = estimated.Round(2).InexactFloat64()
	summary.ActualTotal = actual.Round(2).InexactFloat64()
	summary.ProjectedTotal = projected.Round(2).InexactFloat64()
	summary.Variance = projected.Sub(estimated).Round(2).InexactFloat64()
	return summary
}
