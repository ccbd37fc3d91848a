package database

import (
	"strings"

	"dealdesk/server/internal/models"
)

func (d *Database) CreateUser(user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate(d.db.Create(user).Error, "create user")
}

func (d *Database) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := d.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (d *Database) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}
