package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clubhouse-dev/clubhouse/internal/api/handlers"
	"github.com/clubhouse-dev/clubhouse/internal/api/middleware"
	"github.com/clubhouse-dev/clubhouse/internal/auth"
	"github.com/clubhouse-dev/clubhouse/internal/config"
	"github.com/clubhouse-dev/clubhouse/internal/metrics"
	"github.com/clubhouse-dev/clubhouse/internal/notify"
	"github.com/clubhouse-dev/clubhouse/internal/rbac"
	"github.com/clubhouse-dev/clubhouse/internal/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Deps are the long-lived components the router wires into handlers.
type Deps struct {
	DB       *gorm.DB
	Policy   *rbac.Policy
	Notifier notify.Publisher
	Metrics  *metrics.Metrics // optional
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	// Set Gin mode
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	var observer service.DecisionObserver
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", deps.Metrics.Handler())
		observer = deps.Metrics
	}

	authenticator := auth.NewBasicAuthenticator(deps.DB, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	roleHandler := handlers.NewRoleHandler(service.NewRoleService(deps.DB, deps.Notifier, observer))
	userHandler := handlers.NewUserHandler(service.NewUserService(deps.DB, deps.Notifier, observer))
	auditHandler := handlers.NewAuditHandler(deps.DB)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/version", handlers.GetVersion)
		public.POST("/auth/login", handlers.Login(authenticator, deps.DB))
	}

	// Authenticated routes. /auth/me stays reachable for pending users so the
	// console can tell them why they are locked out.
	protected := router.Group("/api/v1")
	protected.Use(authenticator.Middleware())
	{
		protected.GET("/auth/me", handlers.GetCurrentUser)
	}

	console := protected.Group("")
	console.Use(middleware.RequireConsole(deps.Policy))
	{
		console.GET("/roles", roleHandler.ListRoles)
		console.POST("/roles", roleHandler.CreateRole)
		console.GET("/roles/:id", roleHandler.GetRole)
		console.PATCH("/roles/:id", roleHandler.UpdateRole)
		console.DELETE("/roles/:id", roleHandler.DeleteRole)
		console.PUT("/roles/:id/position", roleHandler.UpdatePosition)
		console.GET("/roles/:id/users", roleHandler.GetRoleUsers)

		console.GET("/users", userHandler.ListUsers)
		console.PUT("/users/:id/role", userHandler.AssignRole)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAccess(deps.Policy, rbac.AreaAudit, rbac.ActionRead))
	{
		admin.GET("/audit-logs", auditHandler.ListAuditLogs)
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	slog.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
