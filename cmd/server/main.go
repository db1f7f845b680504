package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"echonews/internal/config"
	"echonews/internal/db"
	"echonews/internal/logger"
	"echonews/internal/router"
	"echonews/internal/services"
	"echonews/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level)

	// Initialize Database
	conn, err := db.Init(cfg.Database)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	dispatcher, closeDispatch := buildDispatcher(cfg)
	defer closeDispatch()

	mode, _ := utils.ParseTrendingMode(cfg.Ranking.Mode)
	app, err := services.NewApp(conn, services.Options{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenTTL:      cfg.Auth.TokenTTL,
		RankingMode:   mode,
		ImportTimeout: cfg.Import.Timeout,
		Dispatcher:    dispatcher,
	})
	if err != nil {
		slog.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(app, cfg.Auth.SessionSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("EchoNews server starting", "port", cfg.Port, "ranking_mode", mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	slog.Info("server exited")
}

// buildDispatcher wires mail and the redis stream when configured, falling
// back to the log.
func buildDispatcher(cfg *config.Config) (services.Dispatcher, func()) {
	var out services.MultiDispatcher
	closeFn := func() {}

	if cfg.SMTP.Enabled() {
		out = append(out, services.NewMailService(cfg.SMTP))
		slog.Info("mail notifications enabled", "host", cfg.SMTP.Host)
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		out = append(out, services.NewEventStream(client, cfg.Redis.Stream))
		closeFn = func() { client.Close() }
		slog.Info("notification stream enabled", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	}
	if len(out) == 0 {
		return services.LogDispatcher{}, closeFn
	}
	return out, closeFn
}
