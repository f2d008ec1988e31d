// openweather.go fetches OpenWeatherMap's 5-day / 3-hour forecast endpoint,
// bucketed by UTC calendar date and collapsed to one representative reading
// per day (the 12:00 UTC entry; days without one are dropped), with units
// converted to the core's canonical °F/inch/mph.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/forecast"
)

const openWeatherTag = "openweathermap"

// OpenWeather implements forecast.Adapter against OpenWeatherMap's 5-day /
// 3-hour forecast endpoint. Entries are stamped every 3 hours, never at
// local midnight, so this adapter also exercises the composer's
// calendar-day tie-break.
type OpenWeather struct {
	apiKey  string
	baseURL string
	httpCfg forecast.HTTPConfig
}

// NewOpenWeather creates an OpenWeatherMap adapter.
func NewOpenWeather(client *http.Client, apiKey string) *OpenWeather {
	return &OpenWeather{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/forecast",
		httpCfg: forecast.HTTPConfig{
			Client:  client,
			Breaker: forecast.NewBreaker(openWeatherTag),
			Timeout: forecast.DefaultTimeout,
		},
	}
}

func (p *OpenWeather) Tag() string { return openWeatherTag }

func (p *OpenWeather) FetchDaily(ctx context.Context, coords core.GeoCoordinates) ([]core.ForecastDay, error) {
	if p.apiKey == "" {
		return nil, core.ErrUpstreamTransient(openWeatherTag, fmt.Errorf("openweather api key is not configured"))
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "imperial")
		values.Set("lat", fmt.Sprintf("%f", coords.Lat))
		values.Set("lon", fmt.Sprintf("%f", coords.Lon))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := forecast.Do(ctx, openWeatherTag, p.httpCfg, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp     float64 `json:"temp"`
				Humidity float64 `json:"humidity"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Rain struct {
				ThreeH float64 `json:"3h"`
			} `json:"rain"`
		} `json:"list"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, core.ErrUpstreamTransient(openWeatherTag, err)
	}
	if len(payload.List) == 0 {
		return nil, forecast.MissingField(openWeatherTag, "list")
	}

	type daySummary struct {
		day        core.ForecastDay
		tempMin    float64
		tempMax    float64
		precip     float64
		middaySeen bool
	}

	days := make(map[string]*daySummary)
	for _, item := range payload.List {
		ts := time.Unix(item.Dt, 0).UTC()
		key := ts.Format("2006-01-02")

		summary, ok := days[key]
		if !ok {
			summary = &daySummary{
				tempMin: item.Main.Temp,
				tempMax: item.Main.Temp,
			}
			days[key] = summary
		}
		if item.Main.Temp < summary.tempMin {
			summary.tempMin = item.Main.Temp
		}
		if item.Main.Temp > summary.tempMax {
			summary.tempMax = item.Main.Temp
		}
		summary.precip += item.Rain.ThreeH / 25.4 // mm -> in

		if !summary.middaySeen && ts.Hour() == 12 {
			humidity := item.Main.Humidity
			wind := item.Wind.Speed
			summary.day = core.ForecastDay{
				LocalMidnightEpoch: ts.Unix(), // non-midnight mark
				ProviderTag:        openWeatherTag,
				HumidityPct:        &humidity,
				WindMPH:            &wind,
			}
			summary.middaySeen = true
		}
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]core.ForecastDay, 0, len(keys))
	for _, k := range keys {
		s := days[k]
		if !s.middaySeen {
			// No 12:00 entry for this calendar day (e.g. the partial last
			// day of the 5-day window); the day is left out of the result.
			s.day.LocalMidnightEpoch = 0
			continue
		}
		s.day.MinTempF = s.tempMin
		s.day.MaxTempF = s.tempMax
		s.day.PrecipIn = s.precip
		result = append(result, s.day)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%s: %w", openWeatherTag, core.ErrMissingField("list"))
	}

	return result, nil
}
