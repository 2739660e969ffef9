package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup/internal/api/handlers"
	"github.com/stitts-dev/dfs-lineup/internal/api/middleware"
	"github.com/stitts-dev/dfs-lineup/internal/services"
	"github.com/stitts-dev/dfs-lineup/internal/websocket"
	"github.com/stitts-dev/dfs-lineup/pkg/config"
)

// Dependencies are the wired services the router exposes. Health, Hub and
// Limiter may be nil.
type Dependencies struct {
	Config       *config.Config
	Optimization *services.OptimizationService
	Health       *handlers.HealthHandler
	Hub          *websocket.Hub
	Limiter      *middleware.RateLimiter
	Logger       *logrus.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORS(deps.Config.CorsOrigins))

	if deps.Health != nil {
		router.GET("/health", deps.Health.GetHealth)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	SetupRoutes(apiV1, deps)

	// WebSocket endpoint at root level, not under /api/v1
	if deps.Hub != nil {
		router.GET("/ws", deps.Hub.HandleWebSocket)
	}

	return router
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, deps Dependencies) {
	contestHandler := handlers.NewContestHandler()
	optimizerHandler := handlers.NewOptimizerHandler(deps.Optimization, deps.Logger)

	// Contest settings
	group.GET("/contests", contestHandler.ListContests)
	group.GET("/contests/:provider/:sport", contestHandler.GetContest)

	// Optimization endpoints are rate limited per client
	optimize := group.Group("/optimize")
	if deps.Limiter != nil {
		optimize.Use(deps.Limiter.Middleware())
	}
	{
		optimize.POST("", optimizerHandler.OptimizeLineups)
		optimize.POST("/upload", optimizerHandler.OptimizeUpload)
	}

	// Persisted runs
	group.GET("/runs", optimizerHandler.ListRuns)
	group.GET("/runs/:id", optimizerHandler.GetRun)
	group.GET("/runs/:id/export", optimizerHandler.ExportRun)
}
