package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/ha-weather-tool/internal/api/http"
	"github.com/i474232898/ha-weather-tool/internal/config"
	"github.com/i474232898/ha-weather-tool/internal/logging"
	"github.com/i474232898/ha-weather-tool/internal/publish"
	"github.com/i474232898/ha-weather-tool/internal/scheduler"
	"github.com/i474232898/ha-weather-tool/internal/store"
	"github.com/i474232898/ha-weather-tool/internal/weather"
	"github.com/i474232898/ha-weather-tool/internal/weather/providers"
)

const appName = "ha-weather-tool"

func main() {
	once := flag.Bool("once", false, "print one weather report to stdout and exit")
	describe := flag.Bool("describe", false, "list the tool settings and exit")
	flag.Parse()

	if *describe {
		for _, v := range config.Describe() {
			fmt.Printf("%-34s default=%q\n    %s\n", v.Name, v.Default, v.Description)
		}
		return
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(os.Stderr, cfg.AppEnv, cfg.LogLevel, appName)
	slog.SetDefault(logger)

	// Shared HTTP client for outbound hub calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	hub := providers.NewHomeAssistant(providers.HTTPClientConfig{
		Client:          httpClient,
		BreakerFailures: cfg.BreakerFailures,
	}, cfg.Valves.HAURL, cfg.Valves.HAAPIToken)

	// In-memory report history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	service := weather.NewService(cfg.Valves, hub, memStore, logger)

	if *once {
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
		defer cancel()
		fmt.Println(service.CurrentForecast(ctx))
		return
	}

	if err := run(cfg, service, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, service *weather.Service, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher publish.Publisher
	if cfg.MQTTBroker != "" {
		mqttPub := publish.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := mqttPub.Connect(connectCtx); err != nil {
			logger.Warn("mqtt connection failed (continuing; reports will be published once connected)", "error", err)
		}
		connectCancel()
		defer mqttPub.Disconnect()
		publisher = mqttPub
	}

	// Scheduler that periodically produces and stores reports.
	sched := scheduler.New(cfg.RefreshInterval, service, publisher, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(httpapi.RateLimit(cfg.RateLimit, cfg.RateBurst))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(app, service, 2*cfg.HTTPTimeout)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	return nil
}
