package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	expenseapp "github.com/gestionale/backend/internal/application/expense"
	identityapp "github.com/gestionale/backend/internal/application/identity"
	"github.com/gestionale/backend/internal/domain/expense"
	"github.com/gestionale/backend/internal/infrastructure/auth"
	"github.com/gestionale/backend/internal/infrastructure/config"
	"github.com/gestionale/backend/internal/infrastructure/logger"
	"github.com/gestionale/backend/internal/infrastructure/persistence"
	"github.com/gestionale/backend/internal/infrastructure/storage"
	"github.com/gestionale/backend/internal/interfaces/http/handler"
	"github.com/gestionale/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting gestionale backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database
	db, err := persistence.NewDatabase(cfg.Database, logger.NewGormLogger(log, cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	// Redis-backed token blacklist; falls back to in-process when Redis
	// is not configured (single-instance deployments).
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		log.Warn("Redis not configured, using in-memory token blacklist")
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Attachment storage
	var attachments expenseapp.AttachmentStorage
	if cfg.Storage.Endpoint != "" || cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3AttachmentStorage(cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize attachment storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure attachment bucket", zap.Error(err))
		}
		attachments = s3Storage
	} else {
		log.Warn("Object storage not configured, using in-memory attachment storage")
		attachments = storage.NewMemoryAttachmentStorage()
	}

	// Repositories
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	claimRepo := persistence.NewGormClaimRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	settingRepo := persistence.NewGormApprovalSettingRepository(db.DB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	permissionService := identityapp.NewPermissionService(roleRepo, log)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	roleService := identityapp.NewRoleService(roleRepo, userRepo, log)
	resolver := expense.NewApprovalResolver(settingRepo)
	claimService := expenseapp.NewClaimService(
		claimRepo, categoryRepo, auditRepo, resolver, permissionService, attachments, log)
	categoryService := expenseapp.NewCategoryService(categoryRepo, permissionService, log)
	settingService := expenseapp.NewApprovalSettingService(settingRepo, permissionService, log)

	// HTTP
	engine := router.New(router.Config{
		JWTService: jwtService,
		Blacklist:  blacklist,
		Logger:     log,
		System:     handler.NewSystemHandler(db),
		Registrars: []router.RouteRegistrar{
			handler.NewAuthHandler(authService),
			handler.NewRoleHandler(roleService, permissionService),
			handler.NewClaimHandler(claimService),
			handler.NewCategoryHandler(categoryService),
			handler.NewApprovalSettingHandler(settingService),
		},
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
