package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/foxxcyber/deal-finder/internal/alerts"
	"github.com/foxxcyber/deal-finder/internal/config"
	"github.com/foxxcyber/deal-finder/internal/database"
	"github.com/foxxcyber/deal-finder/internal/handlers"
	"github.com/foxxcyber/deal-finder/internal/services"
	logx "github.com/foxxcyber/deal-finder/pkg/logger"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load configuration")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		logx.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Fired alerts go to Redis for the delivery workers, or to the log
	var (
		publisher alerts.Publisher = services.LogPublisher{}
		queue     handlers.AlertQueue
	)
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		rp := services.NewRedisPublisher(rdb, cfg.AlertListKey)
		publisher, queue = rp, rp
		logx.Info().Str("key", cfg.AlertListKey).Msg("publishing alerts to redis")
	} else {
		logx.Warn().Msg("REDIS_URL not set, fired alerts will only be logged")
	}

	monitor := alerts.NewMonitor(db, publisher)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := handlers.New(db, monitor, cfg)
	if queue != nil {
		h.WithAlertQueue(queue)
	}
	h.Register(app)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logx.Info().Str("port", cfg.Port).Str("environment", cfg.Environment.String()).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logx.Fatal().Err(err).Msg("server stopped")
	}
}
