package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/config"
	"github.com/ashtonliu88/SlugScheduler/internal/api/handler"
	"github.com/ashtonliu88/SlugScheduler/internal/api/middleware"
	"github.com/ashtonliu88/SlugScheduler/internal/api/router"
	"github.com/ashtonliu88/SlugScheduler/internal/catalog"
	"github.com/ashtonliu88/SlugScheduler/internal/repository"
	"github.com/ashtonliu88/SlugScheduler/internal/service"
	"github.com/ashtonliu88/SlugScheduler/pkg/database"
	"github.com/ashtonliu88/SlugScheduler/pkg/jwt"
	applogger "github.com/ashtonliu88/SlugScheduler/pkg/logger"
	"github.com/ashtonliu88/SlugScheduler/pkg/recommender"
	"github.com/ashtonliu88/SlugScheduler/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// 1. .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	// 2. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 3. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("thursday_style", cfg.Parser.ThursdayStyle),
	)

	engine, err := service.NewEngine(cfg)
	if err != nil {
		logger.Fatal("invalid parser or grid config", zap.Error(err))
	}

	// 4. database and migrations
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// 5. Redis is optional; without it the source endpoints are not throttled
	var limiter middleware.RateLimiter
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
			rdb = nil
		} else {
			limiter = rdb
		}
	}

	// 6. course sources
	sources := service.Sources{Recommender: recommender.NewClient(&cfg.Recommender, logger)}
	var fs *catalog.Firestore
	if cfg.Catalog.Enabled {
		initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		fs, err = catalog.NewFirestore(initCtx, cfg.Catalog.CredentialsFile)
		cancel()
		if err != nil {
			logger.Warn("catalog unavailable, catalog source disabled", zap.Error(err))
			fs = nil
		} else {
			sources.Catalog = fs
		}
	}

	// 7. wiring: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, engine, repo, jwtMgr, sources, logger)
	h := handler.NewHandler(svc)

	r := router.Setup(cfg, h, jwtMgr, limiter, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // transcript analysis is slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}
	if fs != nil {
		fs.Close()
	}

	logger.Info("server stopped")
}
