package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealdesk/server/internal/analysis"
	"dealdesk/server/internal/models"
)

type scenarioRequest struct {
	Name           string              `json:"name" binding:"required,max=128"`
	PurchasePrice  *float64            `json:"purchase_price"`
	RehabCost      *float64            `json:"rehab_cost"`
	HoldingCosts   *float64            `json:"holding_costs"`
	ClosingCosts   *float64            `json:"closing_costs"`
	InterestRate   *float64            `json:"interest_rate"`
	HoldTimeMonths *int                `json:"hold_time_months"`
	ExitStrategy   models.ExitStrategy `json:"exit_strategy" binding:"required"`

	MonthlyRent      *float64 `json:"monthly_rent"`
	OccupancyRate    *float64 `json:"occupancy_rate"`
	DailyRate        *float64 `json:"daily_rate"`
	AverageOccupancy *float64 `json:"average_occupancy"`
	SalePrice        *float64 `json:"sale_price"`
	SellingCosts     *float64 `json:"selling_costs"`
}

// toModel rejects a request that leaves out any shared deal input; an omitted
// number must not be read as zero.
func (r *scenarioRequest) toModel() (models.DealScenario, error) {
	var missing []string
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"purchase_price", r.PurchasePrice != nil},
		{"rehab_cost", r.RehabCost != nil},
		{"holding_costs", r.HoldingCosts != nil},
		{"closing_costs", r.ClosingCosts != nil},
		{"interest_rate", r.InterestRate != nil},
		{"hold_time_months", r.HoldTimeMonths != nil},
	} {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return models.DealScenario{}, analysis.MissingFields(missing...)
	}

	return models.DealScenario{
		Name:             r.Name,
		PurchasePrice:    *r.PurchasePrice,
		RehabCost:        *r.RehabCost,
		HoldingCosts:     *r.HoldingCosts,
		ClosingCosts:     *r.ClosingCosts,
		InterestRate:     *r.InterestRate,
		HoldTimeMonths:   *r.HoldTimeMonths,
		ExitStrategy:     r.ExitStrategy,
		MonthlyRent:      r.MonthlyRent,
		OccupancyRate:    r.OccupancyRate,
		DailyRate:        r.DailyRate,
		AverageOccupancy: r.AverageOccupancy,
		SalePrice:        r.SalePrice,
		SellingCosts:     r.SellingCosts,
	}, nil
}

func (h *Handler) ListScenarios(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	ownerID := currentUser(c)
	if _, err := h.db.GetProperty(ownerID, propertyID); err != nil {
		h.respondError(c, err, "Failed to get scenarios")
		return
	}
	scenarios, err := h.db.ListScenarios(ownerID, propertyID)
	if err != nil {
		h.respondError(c, err, "Failed to get scenarios")
		return
	}
	c.JSON(http.StatusOK, scenarios)
}

// CreateScenario stores a scenario priced against its property
func (h *Handler) CreateScenario(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	var req scenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid scenario")
		return
	}

	scenario, err := req.toModel()
	if err != nil {
		h.respondError(c, err, "Failed to create scenario")
		return
	}
	if err := h.service.CreateScenario(c.Request.Context(), currentUser(c), propertyID, &scenario); err != nil {
		h.respondError(c, err, "Failed to create scenario")
		return
	}
	c.JSON(http.StatusCreated, scenario)
}

func (h *Handler) CompareScenarios(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	ranked, err := h.service.CompareScenarios(c.Request.Context(), currentUser(c), propertyID, c.Query("metric"))
	if err != nil {
		h.respondError(c, err, "Failed to compare scenarios")
		return
	}
	c.JSON(http.StatusOK, gin.H{"property_id": propertyID, "rankings": ranked})
}

func (h *Handler) GetScenario(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	scenario, err := h.db.GetScenario(currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to get scenario")
		return
	}
	c.JSON(http.StatusOK, scenario)
}

func (h *Handler) UpdateScenario(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req scenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid scenario")
		return
	}

	input, err := req.toModel()
	if err != nil {
		h.respondError(c, err, "Failed to update scenario")
		return
	}
	scenario, err := h.service.UpdateScenario(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		h.respondError(c, err, "Failed to update scenario")
		return
	}
	c.JSON(http.StatusOK, scenario)
}

func (h *Handler) DeleteScenario(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.db.DeleteScenario(currentUser(c), id); err != nil {
		h.respondError(c, err, "Failed to delete scenario")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AnalyzeScenario(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	scenario, err := h.service.AnalyzeScenario(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to analyze scenario")
		return
	}
	c.JSON(http.StatusOK, scenario)
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	schedule, err := h.service.Schedule(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to build loan schedule")
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handler) ApplyRenovations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	scenario, err := h.service.ApplyRenovationBudget(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to apply renovation budget")
		return
	}
	c.JSON(http.StatusOK, scenario)
}
