package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"size:128" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type Photo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PropertyID  uint      `gorm:"not null;index" json:"property_id"`
	ObjectKey   string    `gorm:"size:255;not null;uniqueIndex" json:"object_key"`
	FileName    string    `gorm:"size:255" json:"file_name"`
	ContentType string    `gorm:"size:64" json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Caption     string    `gorm:"size:255" json:"caption"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Photo) TableName() string { return "photos" }
