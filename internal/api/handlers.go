package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dealdesk/server/internal/auth"
	"dealdesk/server/internal/database"
	"dealdesk/server/internal/geocoding"
	"dealdesk/server/internal/geometry"
	"dealdesk/server/internal/models"
	"dealdesk/server/internal/photos"
	"dealdesk/server/internal/portfolio"
)

// Locator resolves property addresses to coordinates
type Locator interface {
	GeocodeProperty(ctx context.Context, p *models.Property) (geocoding.Point, error)
}

type Handler struct {
	db      *database.Database
	service *portfolio.Service
	tokens  *auth.TokenService
	photos  *photos.Store
	locator Locator
	logger  *logrus.Logger
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		db:      deps.DB,
		service: deps.Service,
		tokens:  deps.Tokens,
		photos:  deps.Photos,
		locator: deps.Locator,
		logger:  deps.Logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		h.logger.WithError(err).Error("Health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid registration request")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrWeakPassword) {
		badRequest(c, err.Error())
		return
	}
	if err != nil {
		h.respondError(c, err, "Failed to register user")
		return
	}

	user := &models.User{Email: req.Email, Name: req.Name, PasswordHash: hash}
	if err := h.db.CreateUser(user); err != nil {
		h.respondError(c, err, "Failed to register user")
		return
	}
	h.logger.WithField("user_id", user.ID).Info("Registered user")
	h.issueToken(c, http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid login request")
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.respondError(c, err, "Failed to log in")
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	h.issueToken(c, http.StatusOK, user)
}

func (h *Handler) issueToken(c *gin.Context, status int, user *models.User) {
	token, expires, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.respondError(c, err, "Failed to issue token")
		return
	}
	c.JSON(status, tokenResponse{Token: token, ExpiresAt: expires, User: user})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.db.GetUserByID(currentUser(c))
	if err != nil {
		h.respondError(c, err, "Failed to get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.db.DashboardStats(currentUser(c))
	if err != nil {
		h.respondError(c, err, "Failed to get dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DashboardMap serves the owner's geocoded properties as GeoJSON
func (h *Handler) DashboardMap(c *gin.Context) {
	ownerID := currentUser(c)
	properties, err := h.db.MappedProperties(ownerID)
	if err != nil {
		h.respondError(c, err, "Failed to get mapped properties")
		return
	}
	bestROI, err := h.db.BestROIByProperty(ownerID)
	if err != nil {
		h.respondError(c, err, "Failed to get mapped properties")
		return
	}
	c.JSON(http.StatusOK, geometry.PortfolioMap(properties, bestROI))
}

// pathID parses the :id route parameter; it writes the 400 itself
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

// propertyChanged re-prices the property's scenarios. Failures are logged;
// the edit itself already succeeded.
func (h *Handler) propertyChanged(c *gin.Context, propertyID uint) {
	if err := h.service.PropertyChanged(c.Request.Context(), propertyID); err != nil {
		h.logger.WithError(err).WithField("property_id", propertyID).Warn("Failed to re-analyze scenarios")
	}
}
