package api

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dealdesk/server/internal/auth"
	"dealdesk/server/internal/database"
	"dealdesk/server/internal/metrics"
	"dealdesk/server/internal/photos"
	"dealdesk/server/internal/portfolio"
)

// Dependencies are the collaborators the HTTP layer is built from. Locator
// and Limiter are optional.
type Dependencies struct {
	DB          *database.Database
	Service     *portfolio.Service
	Tokens      *auth.TokenService
	Photos      *photos.Store
	Locator     Locator
	Limiter     *RateLimiter
	Metrics     *metrics.Metrics
	Logger      *logrus.Logger
	CORSOrigins []string
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
		deps.Logger.SetFormatter(&logrus.JSONFormatter{})
		deps.Logger.SetOutput(os.Stdout)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(deps.Logger, deps.Metrics))
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	handler := NewHandler(deps)

	router.GET("/health", handler.Health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := router.Group("/api")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware())
	}
	{
		api.POST("/auth/register", handler.Register)
		api.POST("/auth/login", handler.Login)
	}

	secured := api.Group("", requireAuth(deps.Tokens))
	{
		secured.GET("/me", handler.Me)

		secured.GET("/properties", handler.ListProperties)
		secured.POST("/properties", handler.CreateProperty)
		secured.GET("/properties/:id", handler.GetProperty)
		secured.PUT("/properties/:id", handler.UpdateProperty)
		secured.DELETE("/properties/:id", handler.DeleteProperty)

		secured.GET("/properties/:id/scenarios", handler.ListScenarios)
		secured.POST("/properties/:id/scenarios", handler.CreateScenario)
		secured.GET("/properties/:id/compare", handler.CompareScenarios)

		secured.GET("/scenarios/:id", handler.GetScenario)
		secured.PUT("/scenarios/:id", handler.UpdateScenario)
		secured.DELETE("/scenarios/:id", handler.DeleteScenario)
		secured.POST("/scenarios/:id/analyze", handler.AnalyzeScenario)
		secured.GET("/scenarios/:id/schedule", handler.GetSchedule)
		secured.POST("/scenarios/:id/apply-renovations", handler.ApplyRenovations)

		secured.GET("/properties/:id/renovations", handler.ListRenovations)
		secured.POST("/properties/:id/renovations", handler.CreateRenovation)
		secured.GET("/properties/:id/renovations/summary", handler.RenovationSummary)
		secured.PUT("/renovations/:id", handler.UpdateRenovation)
		secured.DELETE("/renovations/:id", handler.DeleteRenovation)

		secured.GET("/properties/:id/photos", handler.ListPhotos)
		secured.POST("/properties/:id/photos", handler.UploadPhoto)
		secured.GET("/photos/:id", handler.GetPhotoFile)
		secured.DELETE("/photos/:id", handler.DeletePhoto)

		secured.GET("/dashboard", handler.Dashboard)
		secured.GET("/dashboard/map", handler.DashboardMap)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
