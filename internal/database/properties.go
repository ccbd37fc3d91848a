package database

import (
	"gorm.io/gorm"

	"dealdesk/server/internal/models"
)

func (d *Database) CreateProperty(p *models.Property) error {
	return translate(d.db.Create(p).Error, "create property")
}

// GetProperty loads a property owned by ownerID
func (d *Database) GetProperty(ownerID, id uint) (*models.Property, error) {
	var p models.Property
	err := d.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&p).Error
	if err != nil {
		return nil, translate(err, "get property")
	}
	return &p, nil
}

// GetPropertyByID loads a property regardless of owner, for background work
func (d *Database) GetPropertyByID(id uint) (*models.Property, error) {
	var p models.Property
	if err := d.db.First(&p, id).Error; err != nil {
		return nil, translate(err, "get property")
	}
	return &p, nil
}

func (d *Database) ListProperties(ownerID uint, filter models.PropertyFilter) ([]models.Property, error) {
	query := d.db.Where("owner_id = ?", ownerID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filter.City)
	}

	properties := []models.Property{}
	if err := query.Order("created_at DESC, id DESC").Find(&properties).Error; err != nil {
		return nil, translate(err, "list properties")
	}
	return properties, nil
}

// UpdateProperty saves every column of p; the owner must match
func (d *Database) UpdateProperty(p *models.Property) error {
	if p.ID == 0 {
		return ErrNotFound
	}
	result := d.db.Model(p).Where("owner_id = ?", p.OwnerID).
		Select("*").Omit("id", "owner_id", "created_at").
		Updates(p)
	if result.Error != nil {
		return translate(result.Error, "update property")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProperty removes the property together with its scenarios,
// renovations and photo records. Photo files are the caller's concern.
func (d *Database) DeleteProperty(ownerID, id uint) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Property{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		for _, child := range []interface{}{&models.DealScenario{}, &models.RenovationItem{}, &models.Photo{}} {
			if err := tx.Where("property_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err, "delete property")
}

// PropertiesMissingCoordinates returns up to limit properties that have an
// address but were never geocoded
func (d *Database) PropertiesMissingCoordinates(limit int) ([]models.Property, error) {
	properties := []models.Property{}
	err := d.db.Where("latitude IS NULL AND street <> '' AND city <> ''").
		Order("id").Limit(limit).Find(&properties).Error
	if err != nil {
		return nil, translate(err, "query properties without coordinates")
	}
	return properties, nil
}

func (d *Database) SetCoordinates(id uint, lat, lon float64) error {
	err := d.db.Model(&models.Property{}).Where("id = ?", id).
		Updates(map[string]interface{}{"latitude": lat, "longitude": lon}).Error
	return translate(err, "update coordinates")
}

// ScenarioIDsForProperty lists the scenarios whose metrics depend on the property
func (d *Database) ScenarioIDsForProperty(propertyID uint) ([]uint, error) {
	var ids []uint
	err := d.db.Model(&models.DealScenario{}).Where("property_id = ?", propertyID).
		Order("id").Pluck("id", &ids).Error
	if err != nil {
		return nil, translate(err, "list scenario ids")
	}
	return ids, nil
}
