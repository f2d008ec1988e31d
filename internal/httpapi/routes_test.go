package httpapi

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-data-aggregation/internal/compose"
	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/forecast"
	"github.com/i474232898/weather-data-aggregation/internal/store"
	"github.com/i474232898/weather-data-aggregation/internal/tz"
)

type fakeLocal struct {
	days    []core.DayBucket
	current core.CurrentConditions
}

func (f *fakeLocal) GetWateringWindow(coords core.GeoCoordinates, now time.Time) ([]core.DayBucket, error) {
	return f.days, nil
}

func (f *fakeLocal) GetCurrent(coords core.GeoCoordinates, now time.Time) (core.CurrentConditions, error) {
	return f.current, nil
}

type fakeAdapter struct{ tag string }

func (a *fakeAdapter) Tag() string { return a.tag }
func (a *fakeAdapter) FetchDaily(ctx context.Context, coords core.GeoCoordinates) ([]core.ForecastDay, error) {
	return []core.ForecastDay{{LocalMidnightEpoch: time.Now().Add(48 * time.Hour).Unix(), MinTempF: 55, MaxTempF: 70}}, nil
}

func newTestApp() (*fiber.App, *store.ObservationStore) {
	obsStore := store.New("")
	registry := forecast.NewRegistry()
	registry.Register(&fakeAdapter{tag: "stub"})

	local := &fakeLocal{
		days:    []core.DayBucket{{LocalMidnightEpoch: time.Now().Unix(), MeanTempF: 70}},
		current: core.CurrentConditions{TempF: 72},
	}
	composer := compose.New(local, registry, tz.New(), time.Minute)

	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler()})
	RegisterRoutes(app, Deps{Store: obsStore, Composer: composer})
	return app, obsStore
}

func TestPushIngestRespondsSuccessAndRecordsSample(t *testing.T) {
	app, obsStore := newTestApp()

	req := httptest.NewRequest("GET", "/api/v1/pws/update?dateutc=now&tempf=71.5&humidity=44&windspeedmph=3.2&dailyrainin=0.2", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "success\n" {
		t.Fatalf("body = %q, want \"success\\n\"", string(body))
	}

	obs := obsStore.SnapshotView(time.Now())
	if len(obs) != 1 {
		t.Fatalf("expected 1 recorded observation, got %d", len(obs))
	}
	if obs[0].TempF == nil || *obs[0].TempF != 71.5 {
		t.Fatalf("TempF not recorded correctly: %v", obs[0].TempF)
	}
}

func TestPushIngestConvertsSolarRadiationToKwhPerM2Day(t *testing.T) {
	app, obsStore := newTestApp()

	req := httptest.NewRequest("GET", "/api/v1/pws/update?dateutc=now&solarradiation=500", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	resp.Body.Close()

	obs := obsStore.SnapshotView(time.Now())
	if len(obs) != 1 {
		t.Fatalf("expected 1 recorded observation, got %d", len(obs))
	}
	if obs[0].SolarWpm2 == nil {
		t.Fatal("expected a recorded solar reading")
	}
	want := 500.0 * 24 / 1000
	if *obs[0].SolarWpm2 != want {
		t.Fatalf("SolarWpm2 = %v, want %v (500 W/m^2 converted to kWh/m^2/day)", *obs[0].SolarWpm2, want)
	}
}

func TestPushIngestTreatsSentinelAsAbsent(t *testing.T) {
	app, obsStore := newTestApp()

	req := httptest.NewRequest("GET", "/api/v1/pws/update?dateutc=now&tempf=-9999.0", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	resp.Body.Close()

	obs := obsStore.SnapshotView(time.Now())
	if obs[0].TempF != nil {
		t.Fatalf("expected TempF to be absent for the sentinel value, got %v", *obs[0].TempF)
	}
}

func TestWateringWindowRequiresCoords(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("GET", "/api/v1/irrigation/watering-window?forecastProvider=stub", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing coordinates", resp.StatusCode)
	}
}

func TestWateringWindowReturnsCombinedSeries(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("GET", "/api/v1/irrigation/watering-window?lat=40&lon=0&forecastProvider=stub", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWateringWindowUnknownProviderReturns400(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("GET", "/api/v1/irrigation/watering-window?lat=40&lon=0&forecastProvider=nope", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an unknown provider tag", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
