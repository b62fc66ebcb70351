package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/client-attendance-api/api/swagger"
	"github.com/noah-isme/client-attendance-api/internal/handler"
	"github.com/noah-isme/client-attendance-api/internal/repository"
	"github.com/noah-isme/client-attendance-api/internal/service"
	"github.com/noah-isme/client-attendance-api/pkg/cache"
	"github.com/noah-isme/client-attendance-api/pkg/config"
	"github.com/noah-isme/client-attendance-api/pkg/database"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
	"github.com/noah-isme/client-attendance-api/pkg/jobs"
	"github.com/noah-isme/client-attendance-api/pkg/logger"
	"github.com/noah-isme/client-attendance-api/pkg/mailer"
	"github.com/noah-isme/client-attendance-api/pkg/storage"
)

// @title Client Attendance API
// @version 1.0.0
// @description Attendance tracking for scheduled program clients: daily check-ins, monthly summaries, strike notices and location reports.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const strikeMemoryTTL = 12 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock, err := dates.NewClock(cfg.Timezone)
	if err != nil {
		logr.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{"database": pingDB(db)}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
			checks["redis"] = repo.Ping
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.SummaryTTL, logr, cacheRepo != nil)

	strikes, mailQueue := newStrikeNotifier(cfg, logr)
	if mailQueue != nil {
		mailQueue.Start(ctx)
		defer mailQueue.Stop()
	}

	exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	validate := service.NewValidator()
	authSvc := service.NewAuthService(userRepo, strikes, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "client-attendance-api",
	})
	userSvc := service.NewUserService(userRepo, logr)
	clientSvc := service.NewClientService(clientRepo, userRepo, cacheSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(clientRepo, attendanceRepo, cacheSvc, strikes, metrics, clock, logr)
	reportSvc := service.NewReportService(attendanceRepo, exportStore, signer, clock, validate,
		service.ReportConfig{LookbackMonths: cfg.Reports.LookbackMonths}, logr)

	go purgeExports(ctx, reportSvc, cfg.Reports.SignedURLTTL)

	r := newRouter(cfg, logr, routeDeps{
		auth:       handler.NewAuthHandler(authSvc),
		users:      handler.NewUserHandler(userSvc),
		clients:    handler.NewClientHandler(clientSvc),
		attendance: handler.NewAttendanceHandler(attendanceSvc),
		reports:    handler.NewReportHandler(reportSvc, cfg.APIPrefix+"/reports/download"),
		metrics:    handler.NewMetricsHandler(metrics, checks),
		tokens:     authSvc,
		audit:      userRepo,
		observer:   metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", clock.Location().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newStrikeNotifier wires parent e-mail delivery when SMTP is configured.
func newStrikeNotifier(cfg *config.Config, logr *zap.Logger) (*service.StrikeNotifier, *jobs.Queue) {
	if !cfg.Mail.Enabled() {
		logr.Info("smtp not configured, parent e-mails disabled")
		return service.NewStrikeNotifier(nil, strikeMemoryTTL, logr), nil
	}
	queue := jobs.NewQueue("parent-mail", jobs.QueueConfig{
		Workers:    cfg.Mail.Workers,
		MaxRetries: cfg.Mail.Retries,
		RetryDelay: 30 * time.Second,
		Logger:     logr,
	})
	queue.Handle(service.JobTypeParentEmail, service.ParentEmailHandler(mailer.NewSMTPSender(cfg.Mail, logr)))
	return service.NewStrikeNotifier(queue, strikeMemoryTTL, logr), queue
}

func purgeExports(ctx context.Context, reports *service.ReportService, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reports.PurgeExports(ttl)
		}
	}
}

func pingDB(db *sqlx.DB) handler.Pinger {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
