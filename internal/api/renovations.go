package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dealdesk/server/internal/models"
)

type renovationRequest struct {
	Category      string                  `json:"category" binding:"required,max=64"`
	Description   string                  `json:"description" binding:"max=512"`
	EstimatedCost float64                 `json:"estimated_cost" binding:"gte=0"`
	ActualCost    *float64                `json:"actual_cost" binding:"omitempty,gte=0"`
	Status        models.RenovationStatus `json:"status"`
}

func (r *renovationRequest) apply(item *models.RenovationItem) bool {
	if r.Status == "" {
		r.Status = models.RenovationPlanned
	}
	if !r.Status.Valid() {
		return false
	}
	item.Category = r.Category
	item.Description = r.Description
	item.EstimatedCost = r.EstimatedCost
	item.ActualCost = r.ActualCost
	item.Status = r.Status
	return true
}

func (h *Handler) ListRenovations(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	ownerID := currentUser(c)
	if _, err := h.db.GetProperty(ownerID, propertyID); err != nil {
		h.respondError(c, err, "Failed to get renovations")
		return
	}
	items, err := h.db.ListRenovations(ownerID, propertyID)
	if err != nil {
		h.respondError(c, err, "Failed to get renovations")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateRenovation(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	var req renovationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid renovation item")
		return
	}
	item := &models.RenovationItem{}
	if !req.apply(item) {
		badRequest(c, "Invalid status")
		return
	}

	property, err := h.db.GetProperty(currentUser(c), propertyID)
	if err != nil {
		h.respondError(c, err, "Failed to create renovation item")
		return
	}
	item.PropertyID = property.ID
	if err := h.db.CreateRenovation(item); err != nil {
		h.respondError(c, err, "Failed to create renovation item")
		return
	}
	h.propertyChanged(c, property.ID)
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) RenovationSummary(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}
	ownerID := currentUser(c)
	if _, err := h.db.GetProperty(ownerID, propertyID); err != nil {
		h.respondError(c, err, "Failed to summarize renovations")
		return
	}
	summary, err := h.db.RenovationSummary(ownerID, propertyID)
	if err != nil {
		h.respondError(c, err, "Failed to summarize renovations")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) UpdateRenovation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req renovationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid renovation item")
		return
	}

	item, err := h.db.GetRenovation(currentUser(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to update renovation item")
		return
	}
	if !req.apply(item) {
		badRequest(c, "Invalid status")
		return
	}
	if err := h.db.UpdateRenovation(item); err != nil {
		h.respondError(c, err, "Failed to update renovation item")
		return
	}
	h.propertyChanged(c, item.PropertyID)
	c.JSON(http.StatusOK, item)
}

func (h *Handler) DeleteRenovation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ownerID := currentUser(c)
	item, err := h.db.GetRenovation(ownerID, id)
	if err != nil {
		h.respondError(c, err, "Failed to delete renovation item")
		return
	}
	if err := h.db.DeleteRenovation(ownerID, id); err != nil {
		h.respondError(c, err, "Failed to delete renovation item")
		return
	}
	h.propertyChanged(c, item.PropertyID)
	c.Status(http.StatusNoContent)
}
