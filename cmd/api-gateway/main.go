package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/careerbird/grant-match-api/api/swagger"
	"github.com/careerbird/grant-match-api/internal/handler"
	"github.com/careerbird/grant-match-api/internal/middleware"
	"github.com/careerbird/grant-match-api/internal/repository"
	"github.com/careerbird/grant-match-api/internal/scoring"
	"github.com/careerbird/grant-match-api/internal/service"
	"github.com/careerbird/grant-match-api/pkg/cache"
	"github.com/careerbird/grant-match-api/pkg/config"
	"github.com/careerbird/grant-match-api/pkg/database"
	"github.com/careerbird/grant-match-api/pkg/events"
	"github.com/careerbird/grant-match-api/pkg/jobs"
	"github.com/careerbird/grant-match-api/pkg/logger"
	corsmiddleware "github.com/careerbird/grant-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/careerbird/grant-match-api/pkg/middleware/requestid"
	"github.com/careerbird/grant-match-api/pkg/scheduler"
	"github.com/careerbird/grant-match-api/pkg/storage"
)

// @title Grant Match API
// @version 1.0.0
// @description Student profiles, grant matching, applications and tryout deliverables
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	classifier, err := scoring.LoadDeadlineClassifier(cfg.Scoring.TimeZone)
	if err != nil {
		logr.Fatal("invalid DEADLINE_TIME_ZONE", zap.String("zone", cfg.Scoring.TimeZone), zap.Error(err))
	}
	matcher := scoring.NewMatcher(cfg.Scoring.MatchMode, cfg.Scoring.LegacyMatch)
	logr.Info("scoring configured", zap.String("match_mode", matcher.Mode()), zap.String("deadline_zone", cfg.Scoring.TimeZone))

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logr.Fatal("object storage init failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}

	metrics := service.NewMetricsService()
	validate := service.NewValidator()
	files := service.NewFileUploader(store, metrics, service.UploadConfig{
		MaxBytes: cfg.Storage.MaxFileSizeBytes,
		Enforce:  cfg.Storage.EnforceTypes,
	})

	profileRepo := repository.NewProfileRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	universityRepo := repository.NewUniversityRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	savedRepo := repository.NewSavedOpportunityRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	tryoutRepo := repository.NewTryoutRepository(db)
	sessionRepo := repository.NewWizardSessionRepository(redisClient, cfg.Wizard.SessionTTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Opportunities.CacheTTL, logr, cfg.Opportunities.CacheEnabled)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	profileSvc := service.NewProfileService(profileRepo, universityRepo, documentRepo, files, validate, logr)
	wizardSvc := service.NewWizardService(profileRepo, universityRepo, sessionRepo, validate, metrics, logr, cfg.Wizard.SaveTimeout)
	opportunitySvc := service.NewOpportunityService(opportunityRepo, savedRepo, universityRepo, profileRepo, cacheSvc, metrics,
		service.OpportunityServiceConfig{Classifier: classifier, Matcher: matcher}, validate, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, opportunityRepo, profileRepo,
		service.ApplicationServiceConfig{Classifier: classifier, Matcher: matcher}, logr)
	tryoutSvc := service.NewTryoutService(tryoutRepo, applicationRepo, applicationSvc, files, metrics, logr)
	reviewSvc := service.NewReviewService(applicationRepo, opportunityRepo, validate, logr)
	exportSvc := service.NewExportService(reviewSvc, opportunityRepo, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Profiles:      profileRepo,
		Applications:  applicationRepo,
		Saved:         savedRepo,
		Opportunities: opportunityRepo,
		Logger:        logr,
		Config: service.DashboardServiceConfig{
			ThisWeekLimit: cfg.Scoring.ThisWeekLimit,
			Classifier:    classifier,
			Matcher:       matcher,
		},
	})
	mobilitySvc := service.NewMobilityService(profileRepo, applicationRepo, opportunityRepo, documentRepo, files, classifier, nil, logr)

	publisher := events.New(cfg.Events, logr)
	defer publisher.Close() //nolint:errcheck
	queue := jobs.NewQueue("reminders", jobs.QueueConfig{
		Workers:    cfg.Reminders.Workers,
		MaxRetries: cfg.Reminders.MaxRetries,
		RetryDelay: cfg.Reminders.RetryDelay,
		Logger:     logr,
	})
	reminderSvc := service.NewReminderService(applicationRepo, cacheRepo, queue, publisher, metrics,
		service.ReminderServiceConfig{LookaheadDays: cfg.Reminders.LookaheadDays, Classifier: classifier}, logr)
	reminderSvc.Register(queue)
	sched := scheduler.New(logr, 5*time.Minute)
	if cfg.Reminders.Enabled {
		if err := sched.Register("deadline-reminders", cfg.Reminders.Schedule, reminderSvc.Run); err != nil {
			logr.Fatal("reminder schedule invalid", zap.Error(err))
		}
		queue.Start(ctx)
		sched.Start()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
		"database": db.PingContext,
		"redis":    cache.Ping(redisClient),
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	h := handlers{
		profile:     handler.NewProfileHandler(profileSvc),
		wizard:      handler.NewWizardHandler(wizardSvc),
		opportunity: handler.NewOpportunityHandler(opportunitySvc),
		application: handler.NewApplicationHandler(applicationSvc),
		tryout:      handler.NewTryoutHandler(tryoutSvc),
		review:      handler.NewReviewHandler(reviewSvc, exportSvc),
		dashboard:   handler.NewDashboardHandler(dashboardSvc, mobilitySvc),
	}
	if local, ok := store.(*storage.LocalStorage); ok {
		h.files = handler.NewFileHandler(local)
	}
	registerRoutes(r, cfg.APIPrefix, middleware.JWT(authSvc), h)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	if cfg.Reminders.Enabled {
		sched.Stop()
		queue.Stop()
	}
}
