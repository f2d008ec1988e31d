package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/store"
)

// pushAbsentSentinel is the magic value push clients send for a field with
// no sensor attached.
const pushAbsentSentinel = -9999.0

// handlePushIngest accepts a Weather-Underground-compatible push update and
// records it on the observation store. The response body is the literal
// string every PWS console expects on success.
func handlePushIngest(c *fiber.Ctx, obsStore *store.ObservationStore) error {
	ts, err := parseTime(c.Query("dateutc"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sample := core.Observation{
		Timestamp:   ts.Unix(),
		TempF:       parseFieldOrAbsent(c.Query("tempf")),
		HumidityPc:  parseFieldOrAbsent(c.Query("humidity")),
		WindMPH:     parseFieldOrAbsent(c.Query("windspeedmph")),
		SolarWpm2:   solarKwhPerM2Day(parseFieldOrAbsent(c.Query("solarradiation"))),
		DailyRainIn: parseFieldOrAbsent(c.Query("dailyrainin")),
	}

	obsStore.Ingest(sample)

	if rate := parseFieldOrAbsent(c.Query("rainin")); rate != nil {
		obsStore.NoteRainRate(*rate, ts.Unix())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlain)
	return c.SendString("success\n")
}

// solarKwhPerM2Day converts a push client's instantaneous W/m^2 solar
// radiation reading to the kWh/m^2/day unit used everywhere else in the
// engine (DayBucket.MeanSolarWpm2, ForecastDay.SolarWpm2): W/m^2 * 24h,
// expressed in kWh.
func solarKwhPerM2Day(wpm2 *float64) *float64 {
	if wpm2 == nil {
		return nil
	}
	v := *wpm2 * 24 / 1000
	return &v
}

// parseFieldOrAbsent parses a push query value, treating a missing,
// non-numeric, or sentinel (-9999.0) value as an absent sensor reading.
func parseFieldOrAbsent(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	if v == pushAbsentSentinel {
		return nil
	}
	return &v
}
