// Package httpapi is the HTTP transport for the engine: push ingest, the
// watering-decision endpoint, and the weather endpoint, registered on a
// Fiber app.
package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-data-aggregation/internal/compose"
	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/store"
)

var validate = validator.New()

// Deps bundles the collaborators the HTTP layer needs.
type Deps struct {
	Store       *store.ObservationStore
	Composer    *compose.Composer
	GeocoderKey string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/pws/update", func(c *fiber.Ctx) error {
		return handlePushIngest(c, deps.Store)
	})

	v1.Get("/irrigation/watering-window", func(c *fiber.Ctx) error {
		return handleWateringWindow(c, deps.Composer, deps.GeocoderKey)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		return handleWeatherCurrent(c, deps.Composer, deps.GeocoderKey)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

// NewErrorHandler builds the Fiber ErrorHandler bound at app construction,
// mapping core.Error kinds to status codes the same way mapEngineError does
// for handler-returned errors, so panics recovered upstream and
// fiber.NewError calls land on a consistent status.
func NewErrorHandler() func(c *fiber.Ctx, err error) error {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		} else if kind, ok := core.KindOf(err); ok {
			switch kind {
			case core.KindInvalidProvider:
				code = fiber.StatusBadRequest
			case core.KindInsufficientData:
				code = fiber.StatusServiceUnavailable
			default:
				code = fiber.StatusInternalServerError
			}
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

// coordsQuery holds the `coords` request parameters, shared by the decision
// and weather endpoints, validated against their geographic ranges.
type coordsQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// parseCoords resolves the request's coordinates either directly from
// lat/lon query parameters or, when those are absent, by geocoding a
// city/country pair.
func parseCoords(c *fiber.Ctx, geocoderKey string) (core.GeoCoordinates, error) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")

	if latStr == "" && lonStr == "" {
		return geocodeCityCountry(c, geocoderKey)
	}
	if latStr == "" || lonStr == "" {
		return core.GeoCoordinates{}, errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return core.GeoCoordinates{}, errors.New("lat must be numeric")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return core.GeoCoordinates{}, errors.New("lon must be numeric")
	}

	if err := validate.Struct(coordsQuery{Lat: lat, Lon: lon}); err != nil {
		return core.GeoCoordinates{}, err
	}

	return core.GeoCoordinates{Lat: lat, Lon: lon}, nil
}

// geocodeCityCountry is the convenience path for callers who don't have
// coordinates handy: it resolves a city/country pair to lat/lon.
func geocodeCityCountry(c *fiber.Ctx, geocoderKey string) (core.GeoCoordinates, error) {
	city := c.Query("city")
	country := c.Query("country")
	if city == "" || country == "" {
		return core.GeoCoordinates{}, errors.New("either lat/lon or city/country query parameters are required")
	}

	if geocoderKey != "" {
		geocoder.ApiKey = geocoderKey
	}

	location, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return core.GeoCoordinates{}, fmt.Errorf("geocoding %s, %s failed: %w", city, country, err)
	}

	return core.GeoCoordinates{Lat: location.Latitude, Lon: location.Longitude}, nil
}

func providerTag(c *fiber.Ctx) (string, error) {
	tag := c.Query("forecastProvider")
	if tag == "" {
		return "", errors.New("forecastProvider query parameter is required")
	}
	return tag, nil
}

func handleWateringWindow(c *fiber.Ctx, composer *compose.Composer, geocoderKey string) error {
	coords, err := parseCoords(c, geocoderKey)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	tag, err := providerTag(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	series, err := composer.ViewForAdjustment(c.Context(), coords, tag)
	if err != nil {
		return mapEngineError(err)
	}

	return c.JSON(series)
}

func handleWeatherCurrent(c *fiber.Ctx, composer *compose.Composer, geocoderKey string) error {
	coords, err := parseCoords(c, geocoderKey)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	tag, err := providerTag(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	current, forecastTail, err := composer.ViewForRainRestriction(c.Context(), coords, tag)
	if err != nil {
		return mapEngineError(err)
	}

	return c.JSON(fiber.Map{
		"current":  current,
		"forecast": forecastTail,
	})
}

// mapEngineError maps a core.Error kind to an HTTP status: 4xx for
// InvalidProvider (a client configuration mismatch), 5xx for everything
// else including InsufficientData.
func mapEngineError(err error) error {
	kind, ok := core.KindOf(err)
	if !ok {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	switch kind {
	case core.KindInvalidProvider:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case core.KindInsufficientData:
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// parseTime tries to parse either RFC3339, the PWS "YYYY-MM-DD HH:MM:SS"
// format, or the literal "now".
func parseTime(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return time.Now().UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, errors.New("invalid dateutc format")
}
