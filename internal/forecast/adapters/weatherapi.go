// weatherapi.go fetches forecast.json's forecastday[] array from
// WeatherAPI.com. WeatherAPI stamps each day with date_epoch at local noon
// rather than local midnight, so this adapter is the one that exercises the
// composer's calendar-day comparison rather than raw epoch equality.
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
)

const weatherAPITag = "weatherapi"

// WeatherAPI implements forecast.Adapter against WeatherAPI.com's
// forecast.json endpoint.
type WeatherAPI struct {
	apiKey  string
	baseURL string
	httpCfg forecast.HTTPConfig
}

// NewWeatherAPI creates a WeatherAPI.com adapter.
func NewWeatherAPI(client *http.Client, apiKey string) *WeatherAPI {
	return &WeatherAPI{
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: forecast.HTTPConfig{
			Client:  client,
			Breaker: forecast.NewBreaker(weatherAPITag),
			Timeout: forecast.DefaultTimeout,
		},
	}
}

func (p *WeatherAPI) Tag() string { return weatherAPITag }

func (p *WeatherAPI) FetchDaily(ctx context.Context, coords core.GeoCoordinates) ([]core.ForecastDay, error) {
	if p.apiKey == "" {
		return nil, core.ErrUpstreamTransient(weatherAPITag, fmt.Errorf("weatherapi api key is not configured"))
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
		values.Set("days", "7")
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := forecast.Do(ctx, weatherAPITag, p.httpCfg, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			Forecastday []struct {
				DateEpoch int64 `json:"date_epoch"`
				Day       struct {
					MaxTempF     float64  `json:"maxtemp_f"`
					MinTempF     float64  `json:"mintemp_f"`
					TotalPrecip  float64  `json:"totalprecip_in"`
					AvgHumidity  *float64 `json:"avghumidity"`
					MaxWindMph   *float64 `json:"maxwind_mph"`
					UV           *float64 `json:"uv"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, core.ErrUpstreamTransient(weatherAPITag, err)
	}
	if len(payload.Forecast.Forecastday) == 0 {
		return nil, forecast.MissingField(weatherAPITag, "forecast.forecastday")
	}

	days := make([]core.ForecastDay, 0, len(payload.Forecast.Forecastday))
	for _, fd := range payload.Forecast.Forecastday {
		ts := time.Unix(fd.DateEpoch, 0).UTC()
		day := core.ForecastDay{
			LocalMidnightEpoch: ts.Unix(), // non-midnight mark; composer must compare by calendar day
			MinTempF:           fd.Day.MinTempF,
			MaxTempF:           fd.Day.MaxTempF,
			PrecipIn:           fd.Day.TotalPrecip,
			ProviderTag:        weatherAPITag,
			HumidityPct:        fd.Day.AvgHumidity,
			WindMPH:            fd.Day.MaxWindMph,
		}
		days = append(days, day)
	}

	return days, nil
}
