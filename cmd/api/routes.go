package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/client-attendance-api/internal/handler"
	"github.com/noah-isme/client-attendance-api/internal/middleware"
	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/config"
	"github.com/noah-isme/client-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/client-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/client-attendance-api/pkg/middleware/requestid"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type requestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

type routeDeps struct {
	auth       *handler.AuthHandler
	users      *handler.UserHandler
	clients    *handler.ClientHandler
	attendance *handler.AttendanceHandler
	reports    *handler.ReportHandler
	metrics    *handler.MetricsHandler
	tokens     tokenValidator
	audit      auditWriter
	observer   requestObserver
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/signup", deps.auth.SignUp)
	auth.POST("/login", deps.auth.Login)
	auth.POST("/refresh", deps.auth.Refresh)
	auth.POST("/logout", middleware.JWT(deps.tokens), deps.auth.Logout)
	auth.GET("/me", middleware.JWT(deps.tokens), deps.auth.Me)

	// Signed tokens authorise downloads on their own.
	api.GET("/reports/download/:token", deps.reports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.tokens))

	secured.GET("/dashboard", deps.attendance.Dashboard)

	clients := secured.Group("/clients")
	clients.GET("", deps.clients.List)
	clients.POST("", middleware.Audit(deps.audit, logr, models.AuditActionClientCreate, "client"), deps.clients.Create)
	clients.GET("/:id", deps.clients.Get)
	clients.PUT("/:id", deps.clients.Update)
	clients.DELETE("/:id", middleware.AdminOnly(), deps.clients.Delete)
	clients.PUT("/:id/payment-status", middleware.Audit(deps.audit, logr, models.AuditActionPayment, "client"), deps.clients.UpdatePaymentStatus)
	clients.GET("/:id/detail", deps.attendance.Detail)
	clients.POST("/:id/notify-parent", deps.attendance.NotifyParent)
	clients.PUT("/:id/attendance/:date", deps.attendance.Select)
	clients.DELETE("/:id/attendance/:date", deps.attendance.Clear)
	clients.POST("/:id/attendance/:date/cycle", deps.attendance.Cycle)

	reports := secured.Group("/reports")
	reports.GET("/location", deps.reports.Location)
	reports.GET("/daily", deps.reports.Daily)
	reports.POST("/export", middleware.Audit(deps.audit, logr, models.AuditActionExport, "report"), deps.reports.Export)

	admin := secured.Group("")
	admin.Use(middleware.AdminOnly())
	admin.GET("/users", deps.users.List)
	admin.DELETE("/users/:id", deps.users.Delete)
	admin.GET("/admin/metrics", deps.metrics.Snapshot)

	return r
}
