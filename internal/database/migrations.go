package database

import (
	"fmt"

	"dealdesk/server/internal/models"
)

func (d *Database) RunMigrations() error {
	err := d.db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.DealScenario{},
		&models.RenovationItem{},
		&models.Photo{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Map queries filter on coordinates
	if !d.db.Migrator().HasIndex(&models.Property{}, "idx_properties_coordinates") {
		err = d.db.Exec("CREATE INDEX idx_properties_coordinates ON properties(latitude, longitude)").Error
		if err != nil {
			return fmt.Errorf("failed to create coordinates index: %w", err)
		}
	}
	return nil
}
