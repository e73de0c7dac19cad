package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/catalog"
	"dvms-arcade-backend/internal/config"
	"dvms-arcade-backend/internal/handlers"
	"dvms-arcade-backend/internal/services"
)

type pruner interface {
	Prune(now time.Time)
}

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store   services.LedgerStore
		history services.HistoryStore
		limiter services.RequestLimiter
	)
	switch cfg.StorageDriver {
	case config.DriverRedis:
		redisService, err := services.NewRedisService(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		store = redisService
		history = redisService
		limiter = services.NewRedisRequestLimiter(redisService, cfg.RequestRateLimit, cfg.RequestRateWindow)
	default:
		fileStore, err := services.NewFileStore(cfg.DBFile, cfg.DefaultUserID, logger)
		if err != nil {
			logger.Fatal("failed to open user data file", zap.String("path", cfg.DBFile), zap.Error(err))
		}
		store = fileStore
		history = services.NewMemoryHistory()
		limiter = services.NewMemoryRequestLimiter(cfg.RequestRateLimit, cfg.RequestRateWindow)
	}
	defer store.Close()

	settings, err := config.LoadGameSettings(cfg.GamesFile)
	if err != nil {
		logger.Fatal("failed to load game settings", zap.String("path", cfg.GamesFile), zap.Error(err))
	}

	cards, _ := catalog.Load(cfg.CardsFile, logger)

	games, err := services.NewGameService(store, history, cards, settings, logger)
	if err != nil {
		logger.Fatal("failed to create game service", zap.Error(err))
	}

	wsHandler := handlers.NewWebSocketHandler(games, logger)
	games.SetBroadcaster(wsHandler)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				games.CleanupIdleSessions(cfg.SessionIdleTimeout)
				if p, ok := limiter.(pruner); ok {
					p.Prune(now)
				}
			}
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:    cfg,
		Games:     games,
		JWT:       services.NewJWTService(cfg),
		Limiter:   limiter,
		WebSocket: wsHandler,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("storage", cfg.StorageDriver),
			zap.Int("cards", cards.Len()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
