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

	"github.com/i474232898/weather-data-aggregation/internal/aggregate"
	"github.com/i474232898/weather-data-aggregation/internal/compose"
	"github.com/i474232898/weather-data-aggregation/internal/config"
	"github.com/i474232898/weather-data-aggregation/internal/forecast"
	"github.com/i474232898/weather-data-aggregation/internal/forecast/adapters"
	"github.com/i474232898/weather-data-aggregation/internal/httpapi"
	"github.com/i474232898/weather-data-aggregation/internal/local"
	"github.com/i474232898/weather-data-aggregation/internal/scheduler"
	"github.com/i474232898/weather-data-aggregation/internal/store"
	"github.com/i474232898/weather-data-aggregation/internal/tz"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	obsStore := store.New(cfg.PersistenceLocation)
	if cfg.LocalPersistenceEnabled {
		if err := obsStore.Restore(); err != nil {
			log.Printf("WARN: observation store restore reported an error, continuing with what was recovered: %v", err)
		}
	}

	resolver := tz.New()
	aggregator := aggregate.New(resolver)
	localProvider := local.New(obsStore, aggregator)

	registry := forecast.NewRegistry()
	registry.Register(adapters.NewOpenMeteo(httpClient, resolver))
	registry.Register(adapters.NewWeatherAPI(httpClient, cfg.WeatherAPIKey))
	registry.Register(adapters.NewOpenWeather(httpClient, cfg.OpenWeatherAPIKey))

	composer := compose.New(localProvider, registry, resolver, cfg.CacheTTL)

	var sched *scheduler.Scheduler
	if cfg.LocalPersistenceEnabled {
		sched = scheduler.New(obsStore, cfg.PersistInterval)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "irrigation-weather-core",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.NewErrorHandler(),
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Store:       obsStore,
		Composer:    composer,
		GeocoderKey: cfg.GeocoderAPIKey,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	if sched != nil {
		if err := sched.PersistNow(); err != nil {
			log.Printf("ERROR: final persist on shutdown failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
