// Package adapters holds the concrete forecast.Adapter implementations
// registered under internal/forecast.Registry.
//
// openmeteo.go fetches against Open-Meteo's daily forecast block rather
// than its current_weather endpoint, since a 7-day forecast is needed
// here, not a single instantaneous reading.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/forecast"
	"github.com/i474232898/weather-data-aggregation/internal/tz"
)

const openMeteoTag = "openmeteo"

// OpenMeteo implements forecast.Adapter against Open-Meteo's daily block.
// Open-Meteo, run with timezone=auto, stamps each daily entry with a
// date-only string that this adapter resolves to local midnight itself, so
// it never needs the composer's non-midnight tie-break.
type OpenMeteo struct {
	baseURL  string
	httpCfg  forecast.HTTPConfig
	resolver *tz.Resolver
}

// NewOpenMeteo creates an Open-Meteo adapter. Open-Meteo requires no API
// key.
func NewOpenMeteo(client *http.Client, resolver *tz.Resolver) *OpenMeteo {
	return &OpenMeteo{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: forecast.HTTPConfig{
			Client:  client,
			Breaker: forecast.NewBreaker(openMeteoTag),
			Timeout: forecast.DefaultTimeout,
		},
		resolver: resolver,
	}
}

func (p *OpenMeteo) Tag() string { return openMeteoTag }

func (p *OpenMeteo) FetchDaily(ctx context.Context, coords core.GeoCoordinates) ([]core.ForecastDay, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Lat))
		values.Set("longitude", fmt.Sprintf("%f", coords.Lon))
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,relative_humidity_2m_mean,shortwave_radiation_sum,windspeed_10m_mean")
		values.Set("temperature_unit", "fahrenheit")
		values.Set("windspeed_unit", "mph")
		values.Set("precipitation_unit", "inch")
		values.Set("timezone", "auto")
		values.Set("forecast_days", "7")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := forecast.Do(ctx, openMeteoTag, p.httpCfg, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time             []string  `json:"time"`
			TempMax          []float64 `json:"temperature_2m_max"`
			TempMin          []float64 `json:"temperature_2m_min"`
			PrecipSum        []float64 `json:"precipitation_sum"`
			HumidityMean     []*float64 `json:"relative_humidity_2m_mean"`
			ShortwaveRadSum  []*float64 `json:"shortwave_radiation_sum"`
			WindspeedMean    []*float64 `json:"windspeed_10m_mean"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, core.ErrUpstreamTransient(openMeteoTag, err)
	}
	if len(payload.Daily.Time) == 0 {
		return nil, forecast.MissingField(openMeteoTag, "daily.time")
	}

	days := make([]core.ForecastDay, 0, len(payload.Daily.Time))
	for i, dateStr := range payload.Daily.Time {
		if i >= len(payload.Daily.TempMax) || i >= len(payload.Daily.TempMin) {
			break
		}

		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		loc := p.resolver.ZoneFor(coords)
		midnight := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)

		fd := core.ForecastDay{
			LocalMidnightEpoch: midnight.Unix(),
			MinTempF:           payload.Daily.TempMin[i],
			MaxTempF:           payload.Daily.TempMax[i],
			ProviderTag:        openMeteoTag,
		}
		if i < len(payload.Daily.PrecipSum) {
			fd.PrecipIn = payload.Daily.PrecipSum[i]
		}
		if i < len(payload.Daily.HumidityMean) && payload.Daily.HumidityMean[i] != nil {
			fd.HumidityPct = payload.Daily.HumidityMean[i]
		}
		if i < len(payload.Daily.WindspeedMean) && payload.Daily.WindspeedMean[i] != nil {
			fd.WindMPH = payload.Daily.WindspeedMean[i]
		}
		if i < len(payload.Daily.ShortwaveRadSum) && payload.Daily.ShortwaveRadSum[i] != nil {
			// MJ/m^2/day -> kWh/m^2/day.
			kwh := *payload.Daily.ShortwaveRadSum[i] * 0.277778
			fd.SolarWpm2 = &kwh
		}

		days = append(days, fd)
	}

	if len(days) == 0 {
		return nil, forecast.MissingField(openMeteoTag, "daily")
	}

	return days, nil
}
