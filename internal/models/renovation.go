package models

import "time"

type RenovationStatus string

const (
	RenovationPlanned    RenovationStatus = "planned"
	RenovationInProgress RenovationStatus = "in_progress"
	RenovationCompleted  RenovationStatus = "completed"
)

func (s RenovationStatus) Valid() bool {
	switch s {
	case RenovationPlanned, RenovationInProgress, RenovationCompleted:
		return true
	}
	return false
}

type RenovationItem struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	PropertyID    uint             `gorm:"not null;index" json:"property_id"`
	Category      string           `gorm:"size:64;not null" json:"category"`
	Description   string           `gorm:"size:512" json:"description"`
	EstimatedCost float64          `json:"estimated_cost"`
	ActualCost    *float64         `json:"actual_cost"`
	Status        RenovationStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (RenovationItem) TableName() string { return "renovations" }

// Cost is the actual cost once known, the estimate otherwise
func (r *RenovationItem) Cost() float64 {
	if r.ActualCost != nil {
		return *r.ActualCost
	}
	return r.EstimatedCost
}

type CategoryTotal struct {
	Category  string  `json:"category"`
	Estimated float64 `json:"estimated"`
	Actual    float64 `json:"actual"`
}

// RenovationSummary aggregates a property's renovation budget
type RenovationSummary struct {
	PropertyID     uint                     `json:"property_id"`
	EstimatedTotal float64                  `json:"estimated_total"`
	ActualTotal    float64                  `json:"actual_total"`
	ProjectedTotal float64                  `json:"projected_total"`
	Variance       float64                  `json:"variance"`
	ByStatus       map[RenovationStatus]int `json:"by_status"`
	ByCategory     []CategoryTotal          `json:"by_category"`
}
