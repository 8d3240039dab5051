package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/firewatch-labs/wildfire-risk-dashboard/internal/api/http"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/config"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/dashboard"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/firespot"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/forecast"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/geocode"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/observability"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/scheduler"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/store"
	"github.com/firewatch-labs/wildfire-risk-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory reading history with configured retention.
	history := store.NewMemoryStore(cfg.HistoryMax, cfg.HistoryMaxAge, nil)

	metrics := observability.NewMetrics()

	// Providers: live weather, simulated fire spots.
	weatherProvider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)
	spotProvider := firespot.NewStaticProvider()

	// Session manager owning the per-dashboard aggregation state.
	manager := dashboard.NewManager(dashboard.ManagerConfig{
		Weather:          weatherProvider,
		Spots:            spotProvider,
		Synth:            forecast.NewSynthesizer(nil),
		History:          history,
		Metrics:          metrics,
		FetchTimeout:     cfg.FetchTimeout,
		SessionTTL:       cfg.SessionTTL,
		DefaultViewPoint: cfg.DefaultViewPoint,
	})

	// Optional place search.
	resolver := geocode.NewResolver(cfg.GeocoderAPIKey, cfg.DefaultViewPoint.Zoom)

	// Scheduler that periodically refreshes live sessions.
	sched := scheduler.New(manager, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "wildfire-risk-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
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

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "wildfire-risk-dashboard",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Manager:          manager,
		Spots:            spotProvider,
		History:          history,
		Resolver:         resolver,
		MapboxToken:      cfg.MapboxToken,
		DefaultViewPoint: cfg.DefaultViewPoint,
	})

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
