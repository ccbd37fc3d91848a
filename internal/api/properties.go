package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealdesk/server/internal/models"
)

type propertyRequest struct {
	Street        string                `json:"street"`
	City          string                `json:"city"`
	State         string                `json:"state"`
	PostalCode    string                `json:"postal_code"`
	Country       string                `json:"country"`
	Latitude      *float64              `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude     *float64              `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
	PurchasePrice float64               `json:"purchase_price" binding:"gte=0"`
	CurrentValue  float64               `json:"current_value" binding:"gte=0"`
	ARV           float64               `json:"arv" binding:"gte=0"`
	Sqft          *int                  `json:"sqft" binding:"omitempty,gte=0"`
	Bedrooms      *int                  `json:"bedrooms" binding:"omitempty,gte=0"`
	Bathrooms     *float64              `json:"bathrooms" binding:"omitempty,gte=0"`
	YearBuilt     *int                  `json:"year_built"`
	LotSize       *float64              `json:"lot_size" binding:"omitempty,gte=0"`
	Type          models.ExitStrategy   `json:"type" binding:"required"`
	Status        models.PropertyStatus `json:"status"`
}

func (r *propertyRequest) toModel() (*models.Property, string) {
	if !r.Type.Valid() {
		return nil, "type must be one of rent, airbnb, flip"
	}
	if r.Status == "" {
		r.Status = models.StatusLead
	}
	if !r.Status.Valid() {
		return nil, "Invalid status"
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return nil, "latitude and longitude must be set together"
	}
	return &models.Property{
		Street:        r.Street,
		City:          r.City,
		State:         r.State,
		PostalCode:    r.PostalCode,
		Country:       r.Country,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		PurchasePrice: r.PurchasePrice,
		CurrentValue:  r.CurrentValue,
		ARV:           r.ARV,
		Sqft:          r.Sqft,
		Bedrooms:      r.Bedrooms,
		Bathrooms:     r.Bathrooms,
		YearBuilt:     r.YearBuilt,
		LotSize:       r.LotSize,
		Type:          r.Type,
		Status:        r.Status,
	}, ""
}

func (h *Handler) ListProperties(c *gin.Context) {
	filter := models.PropertyFilter{
		Status: models.PropertyStatus(c.Query("status")),
		Type:   models.ExitStrategy(c.Query("type")),
		City:   c.Query("city"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		badRequest(c, "Invalid status filter")
		return
	}
	if filter.Type != "" && !filter.Type.Valid() {
		badRequest(c, "Invalid type filter")
		return
	}

	properties, err := h.db.ListProperties(currentUser(c), filter)
	if err != nil {
		h.respondError(c, err, "Failed to get properties")
		return
	}
	c.JSON(http.StatusOK, properties)
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid property")
		return
	}
	property, problem := req.toModel()
	if problem != "" {
		badRequest(c, problem)
		return
	}
	property.OwnerID = currentUser(c)
	h.locate(c, property)

	if err := h.db.CreateProperty(property); err != nil {
		h.respondError(c, err, "Failed to create property")
		return
	}
	c.JSON(http.StatusCreated, property)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	property, err := h.db.GetProperty(currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to get property")
		return
	}
	c.JSON(http.StatusOK, property)
}

// UpdateProperty replaces the property and re-prices its scenarios
func (h *Handler) UpdateProperty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid property")
		return
	}
	property, problem := req.toModel()
	if problem != "" {
		badRequest(c, problem)
		return
	}

	ownerID := currentUser(c)
	existing, err := h.db.GetProperty(ownerID, id)
	if err != nil {
		h.respondError(c, err, "Failed to update property")
		return
	}
	property.ID = existing.ID
	property.OwnerID = existing.OwnerID
	property.CreatedAt = existing.CreatedAt
	if property.Latitude == nil && property.Address() == existing.Address() {
		property.Latitude, property.Longitude = existing.Latitude, existing.Longitude
	}
	h.locate(c, property)

	if err := h.db.UpdateProperty(property); err != nil {
		h.respondError(c, err, "Failed to update property")
		return
	}
	h.propertyChanged(c, property.ID)

	updated, err := h.db.GetProperty(ownerID, id)
	if err != nil {
		h.respondError(c, err, "Failed to update property")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.db.DeleteProperty(currentUser(c), id); err != nil {
		h.respondError(c, err, "Failed to delete property")
		return
	}
	if err := h.photos.RemoveProperty(id); err != nil {
		h.logger.WithError(err).WithField("property_id", id).Warn("Failed to remove property photos")
	}
	c.Status(http.StatusNoContent)
}

// locate fills in missing coordinates when a geocoder is configured
func (h *Handler) locate(c *gin.Context, p *models.Property) {
	if h.locator == nil || p.Latitude != nil || p.Street == "" || p.City == "" {
		return
	}
	point, err := h.locator.GeocodeProperty(c.Request.Context(), p)
	if err != nil {
		h.logger.WithError(err).WithField("address", p.Address()).Warn("Failed to geocode property")
		return
	}
	p.Latitude, p.Longitude = &point.Lat, &point.Lon
}
