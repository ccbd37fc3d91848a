package database

import (
	"dealdesk/server/internal/models"
)

func (d *Database) CreatePhoto(p *models.Photo) error {
	return translate(d.db.Create(p).Error, "create photo")
}

func (d *Database) ListPhotos(ownerID, propertyID uint) ([]models.Photo, error) {
	photos := []models.Photo{}
	err := d.db.Where("property_id = ? AND property_id IN (?)", propertyID, d.ownedBy(ownerID)).
		Order("created_at, id").Find(&photos).Error
	if err != nil {
		return nil, translate(err, "list photos")
	}
	return photos, nil
}

func (d *Database) GetPhoto(ownerID, id uint) (*models.Photo, error) {
	var photo models.Photo
	err := d.db.Where("id = ? AND property_id IN (?)", id, d.ownedBy(ownerID)).First(&photo).Error
	if err != nil {
		return nil, translate(err, "get photo")
	}
	return &photo, nil
}

// DeletePhoto removes the record and returns it so the caller can drop the file
func (d *Database) DeletePhoto(ownerID, id uint) (*models.Photo, error) {
	photo, err := d.GetPhoto(ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := d.db.Delete(photo).Error; err != nil {
		return nil, translate(err, "delete photo")
	}
	return photo, nil
}
