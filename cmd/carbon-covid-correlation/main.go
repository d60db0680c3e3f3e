package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/carbon-covid-correlation/internal/api/http"
	"github.com/i474232898/carbon-covid-correlation/internal/config"
	"github.com/i474232898/carbon-covid-correlation/internal/correlation"
	"github.com/i474232898/carbon-covid-correlation/internal/correlation/upstream"
	"github.com/i474232898/carbon-covid-correlation/internal/regions"
	"github.com/i474232898/carbon-covid-correlation/internal/scheduler"
	"github.com/i474232898/carbon-covid-correlation/internal/status"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Static region directory, built once and read-only afterwards.
	directory := regions.NewDirectory()

	// Upstream clients with circuit breakers.
	carbonClient := upstream.NewCarbonClient(httpClient, cfg.CarbonBaseURL)
	covidClient := upstream.NewCovidClient(httpClient, directory, cfg.CovidBaseURL)

	// Core engine correlating the two upstreams per day.
	engine := correlation.NewEngine(directory, carbonClient, covidClient, cfg.MaxConcurrentDays, cfg.MaxRangeDays)

	// Upstream availability monitoring.
	monitor := status.NewMonitor(cfg.StatusMaxHistory)
	sched := scheduler.New(map[string]scheduler.Pinger{
		"carbon-intensity": carbonClient,
		"covid-data":       covidClient,
	}, cfg.ProbeInterval, monitor)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "carbon-covid-correlation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute, // long ranges mean many upstream round trips
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
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	// API routes.
	httpapi.RegisterRoutes(app, engine, carbonClient, covidClient, monitor)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
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
