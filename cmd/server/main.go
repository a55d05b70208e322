// FoxOps - field service location onboarding
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aethra/foxops/internal/api"
	"github.com/aethra/foxops/internal/auth"
	"github.com/aethra/foxops/internal/config"
	"github.com/aethra/foxops/internal/database"
	"github.com/aethra/foxops/internal/engine"
	"github.com/aethra/foxops/internal/ratelimit"
	"github.com/aethra/foxops/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) > 1 && os.Args[1] != "serve" {
		runCLI(cfg, logger)
		return
	}
	startServer(cfg, logger)
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func startServer(cfg *config.Config, logger *zap.Logger) {
	logger.Info("FoxOps starting", zap.String("version", Version))

	db := connectDB(cfg.Database, logger)
	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	repos := repository.NewRepositories(db, cfg.Store.Timeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loginLimiter := ratelimit.NewLoginRateLimiter()
	go loginLimiter.Run(ctx, time.Minute)

	api.Version = Version
	handler := api.NewHandler(api.Deps{
		Fields:       engine.NewFieldEngine(repos.Fields, logger),
		Forms:        engine.NewFormEngine(repos.Forms, logger),
		Submissions:  engine.NewSubmissionEngine(repos.Forms, repos.Submissions, repos.Locations, logger, cfg.Store.Timeout),
		Locations:    engine.NewLocationEngine(repos.Locations, logger),
		Verifier:     auth.NewAPIKeyVerifier(repos.APIKeys, logger),
		Keys:         auth.NewAPIKeyManager(repos.APIKeys, logger),
		JWT:          auth.NewJWTService(cfg.Auth, logger),
		Users:        repos.Users,
		Limiter:      newLimiter(ctx, cfg, logger),
		LoginLimiter: loginLimiter,
		Logger:       logger,
	})

	gin.SetMode(cfg.Server.Mode)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.SetupRouter(handler, cfg.CORS, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// newLimiter prefers redis so limits hold across replicas
func newLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		logger.Warn("API key rate limits disabled")
		return ratelimit.Noop{}
	}
	if cfg.Redis.Addr == "" {
		logger.Info("rate limiting in memory")
		return ratelimit.NewMemoryLimiter()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting in memory", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		client.Close()
		return ratelimit.NewMemoryLimiter()
	}
	logger.Info("rate limiting in redis", zap.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedisLimiter(client, logger)
}

func connectDB(cfg config.DatabaseConfig, logger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("database handle unavailable", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("database connected", zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return db
}
