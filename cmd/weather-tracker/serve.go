package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-tracker/internal/api/http"
	"github.com/i474232898/weather-tracker/internal/cloudapp"
	"github.com/i474232898/weather-tracker/internal/config"
	"github.com/i474232898/weather-tracker/internal/gate"
	"github.com/i474232898/weather-tracker/internal/logging"
	"github.com/i474232898/weather-tracker/internal/scheduler"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather/providers"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, note, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if note != "" {
		logger.Info(note)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer backend.Close()

	// An unreachable store is not fatal: the gate fails closed and /health reports it.
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := backend.Ping(pingCtx); err != nil {
		logger.Warn("store not reachable at startup", zap.String("backend", backend.Name()), zap.Error(err))
	}
	cancelPing()

	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is empty; weather lookups will fail")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithBackoff(providers.BackoffConfig{
			MaxRetries:      cfg.WeatherMaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}),
	)

	g := gate.New(backend,
		gate.WithConditionalWrites(cfg.ConditionalWrites),
		gate.WithLogger(logger.Named("gate")),
	)
	svc := cloudapp.New(provider, g, cfg.PushCooldown, cloudapp.WithLogger(logger.Named("app")))

	prober := scheduler.New(backend.Name(), store.Probe(backend), cfg.HealthInterval, logger.Named("health"))
	if err := prober.Start(); err != nil {
		return fmt.Errorf("start health prober: %w", err)
	}
	defer prober.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-tracker",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		App:         svc,
		Descriptor:  cloudapp.NewDescriptor(cfg.PublicURL),
		StoreStatus: prober.Status,
		Logger:      logger,
	})

	logger.Info("listening", zap.String("port", cfg.Port), zap.String("store", backend.Name()))
	return listenUntilDone(ctx, app, ":"+cfg.Port, logger)
}

// listenUntilDone serves until SIGINT/SIGTERM, ctx cancellation or a Listen
// failure, then shuts the app down. A Listen failure is returned.
func listenUntilDone(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		if err := app.Listen(addr); err != nil {
			listenErr <- err
			stop()
		}
	}()

	<-sigCtx.Done()

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen on %s: %w", addr, err)
	default:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	return nil
}
