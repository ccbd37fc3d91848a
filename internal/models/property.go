package models

import "time"

// ExitStrategy is the disposition plan for a property or a deal scenario
type ExitStrategy string

const (
	StrategyRent   ExitStrategy = "rent"
	StrategyAirbnb ExitStrategy = "airbnb"
	StrategyFlip   ExitStrategy = "flip"
)

func (s ExitStrategy) Valid() bool {
	switch s {
	case StrategyRent, StrategyAirbnb, StrategyFlip:
		return true
	}
	return false
}

type PropertyStatus string

const (
	StatusLead          PropertyStatus = "lead"
	StatusAnalyzing     PropertyStatus = "analyzing"
	StatusOffer         PropertyStatus = "offer"
	StatusUnderContract PropertyStatus = "under_contract"
	StatusOwned         PropertyStatus = "owned"
	StatusSold          PropertyStatus = "sold"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusLead, StatusAnalyzing, StatusOffer, StatusUnderContract, StatusOwned, StatusSold:
		return true
	}
	return false
}

type Property struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OwnerID       uint           `gorm:"index;not null" json:"owner_id"`
	Street        string         `gorm:"size:255" json:"street"`
	City          string         `gorm:"size:128;index" json:"city"`
	State         string         `gorm:"size:64" json:"state"`
	PostalCode    string         `gorm:"size:32" json:"postal_code"`
	Country       string         `gorm:"size:64" json:"country"`
	Latitude      *float64       `json:"latitude"`
	Longitude     *float64       `json:"longitude"`
	PurchasePrice float64        `json:"purchase_price"`
	CurrentValue  float64        `json:"current_value"`
	ARV           float64        `gorm:"column:arv" json:"arv"`
	Sqft          *int           `json:"sqft"`
	Bedrooms      *int           `json:"bedrooms"`
	Bathrooms     *float64       `json:"bathrooms"`
	YearBuilt     *int           `json:"year_built"`
	LotSize       *float64       `json:"lot_size"`
	Type          ExitStrategy   `gorm:"size:16;not null" json:"type"`
	Status        PropertyStatus `gorm:"size:32;not null;index" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Property) TableName() string { return "properties" }

// Address formats the street address for geocoding and notifications
func (p *Property) Address() string {
	addr := p.Street
	for _, part := range []string{p.PostalCode, p.City, p.State, p.Country} {
		if part == "" {
			continue
		}
		if addr != "" {
			addr += ", "
		}
		addr += part
	}
	return addr
}

// PropertyFilter narrows property listings
type PropertyFilter struct {
	Status PropertyStatus
	Type   ExitStrategy
	City   string
}

// DashboardStats are the portfolio KPIs shown on the dashboard
type DashboardStats struct {
	TotalProperties   int                    `json:"total_properties"`
	ByStatus          map[PropertyStatus]int `json:"by_status"`
	ByType            map[ExitStrategy]int   `json:"by_type"`
	PortfolioValue    float64                `json:"portfolio_value"`
	TotalInvested     float64                `json:"total_invested"`
	EquityGain        float64                `json:"equity_gain"`
	TotalScenarios    int                    `json:"total_scenarios"`
	AnalyzedScenarios int                    `json:"analyzed_scenarios"`
	AverageROI        float64                `json:"average_roi"`
	AverageCapRate    float64                `json:"average_cap_rate"`
	RenovationBudget  float64                `json:"renovation_budget"`
	RenovationSpent   float64                `json:"renovation_spent"`
	BestScenario      *DealScenario          `json:"best_scenario"`
}
