// Package core holds the data model shared by every component of the
// hybrid composition engine: Observation, DayBucket, ForecastDay,
// CombinedSeries, CachedView and GeoCoordinates.
package core

import "time"

// SensorAbsent is the value some PWS firmwares emit to mean "no sensor
// attached" instead of omitting the field entirely.
const SensorAbsent = -9999.0

// Observation is a single raw PWS sample.
type Observation struct {
	Timestamp int64 `json:"timestamp"` // seconds since epoch, UTC

	TempF      *float64 `json:"tempF,omitempty"`
	HumidityPc *float64 `json:"humidityPct,omitempty"`
	WindMPH    *float64 `json:"windMph,omitempty"`
	SolarWpm2  *float64 `json:"solarWpm2,omitempty"`

	// DailyRainIn is the station's running daily rain total; it resets at
	// local midnight or on power-cycle. IntervalRainIn is computed at
	// ingest time from the delta against the previous sample.
	DailyRainIn    *float64 `json:"dailyRainIn,omitempty"`
	IntervalRainIn *float64 `json:"intervalRainIn,omitempty"`
}

// GeoCoordinates is an ordered (lat, lon) pair, scoped to a single request.
type GeoCoordinates struct {
	Lat float64
	Lon float64
}

// DayBucket is a per-local-day rollup derived ephemerally from raw samples.
// It is never persisted.
type DayBucket struct {
	LocalMidnightEpoch int64

	MeanTempF    float64
	MinTempF     float64
	MaxTempF     float64
	MeanHumidity float64
	MinHumidity  float64
	MaxHumidity  float64
	PrecipIn     float64

	MeanSolarWpm2 *float64
	MeanWindMPH   *float64

	SampleCount int
	Complete    bool
}

// Source distinguishes where a CombinedSeries element originated.
type Source string

const (
	SourceLocal    Source = "local"
	SourceForecast Source = "forecast"
)

// ForecastDay is a single day of upstream forecast data, already converted
// to the core's canonical units.
type ForecastDay struct {
	LocalMidnightEpoch int64

	MinTempF float64
	MaxTempF float64
	PrecipIn float64

	HumidityPct *float64
	SolarWpm2   *float64
	WindMPH     *float64

	ProviderTag string
}

// SeriesDay is the unified element shape used inside a CombinedSeries: a
// DayBucket or a ForecastDay folded into one shape and tagged with its
// origin.
type SeriesDay struct {
	LocalMidnightEpoch int64
	Source             Source

	MinTempF  float64
	MaxTempF  float64
	MeanTempF float64
	PrecipIn  float64

	HumidityPct *float64
	SolarWpm2   *float64
	WindMPH     *float64

	ProviderTag string
}

// CombinedSeries is newest-first and strictly monotonic decreasing in
// LocalMidnightEpoch.
type CombinedSeries []SeriesDay

// CachedView is a CombinedSeries plus the bookkeeping the HybridComposer
// needs to decide whether to reuse or recompose it.
type CachedView struct {
	Series    CombinedSeries
	Coords    GeoCoordinates
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the view is older than its TTL as of now.
func (v CachedView) Expired(now time.Time) bool {
	return now.Sub(v.CreatedAt) > v.TTL
}

// CurrentConditions is the LocalProvider's "right now" view: the newest
// sample's instantaneous readings plus rolling 24h precipitation.
type CurrentConditions struct {
	TempF      int64 // floored to integer °F
	Humidity   float64
	WindMPH    float64 // one decimal
	Precip24h  float64
	Raining    bool
	ObservedAt int64
}
