// Package compose implements the composer: the single piece of
// cross-request state in the core. It combines the local provider's measured
// past+today with a forecast adapter's future days into one CombinedSeries,
// caches it per (coords, providerTag) with a short TTL, and deduplicates
// concurrent composes for the same key through single-flight.
package compose

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/forecast"
	"github.com/i474232898/weather-data-aggregation/internal/tz"
)

// LocalSource is the read surface this package needs from a LocalProvider.
type LocalSource interface {
	GetWateringWindow(coords core.GeoCoordinates, now time.Time) ([]core.DayBucket, error)
	GetCurrent(coords core.GeoCoordinates, now time.Time) (core.CurrentConditions, error)
}

type cacheKey struct {
	lat, lon float64
	provider string
}

func keyFor(coords core.GeoCoordinates, provider string) cacheKey {
	return cacheKey{lat: coords.Lat, lon: coords.Lon, provider: provider}
}

// Composer combines measured local history with forecast upstreams into a
// single cached, newest-first series per location and provider.
type Composer struct {
	local    LocalSource
	registry *forecast.Registry
	resolver *tz.Resolver
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[cacheKey]core.CachedView

	group singleflight.Group
}

// New creates a Composer. ttl defaults to 5 minutes if ttl <= 0.
func New(local LocalSource, registry *forecast.Registry, resolver *tz.Resolver, ttl time.Duration) *Composer {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Composer{
		local:    local,
		registry: registry,
		resolver: resolver,
		ttl:      ttl,
		cache:    make(map[cacheKey]core.CachedView),
	}
}

// ViewForAdjustment returns the cached CombinedSeries for (coords,
// providerTag), composing if stale or missing (state machine: Empty|Stale
// -> Composing -> Fresh).
func (c *Composer) ViewForAdjustment(ctx context.Context, coords core.GeoCoordinates, providerTag string) (core.CombinedSeries, error) {
	view, err := c.getOrCompose(ctx, coords, providerTag)
	if err != nil {
		return nil, err
	}
	return view.Series, nil
}

// ViewForRainRestriction returns the local current-conditions view plus the
// forecast-day tail of the cached combined series, composing transparently
// if there is no cached series yet.
func (c *Composer) ViewForRainRestriction(ctx context.Context, coords core.GeoCoordinates, providerTag string) (core.CurrentConditions, core.CombinedSeries, error) {
	current, currentErr := c.local.GetCurrent(coords, time.Now())

	view, err := c.getOrCompose(ctx, coords, providerTag)
	if err != nil {
		if currentErr != nil {
			return core.CurrentConditions{}, nil, err
		}
		return current, nil, nil
	}

	var tail core.CombinedSeries
	for _, d := range view.Series {
		if d.Source == core.SourceForecast {
			tail = append(tail, d)
		}
	}

	return current, tail, currentErr
}

func (c *Composer) getOrCompose(ctx context.Context, coords core.GeoCoordinates, providerTag string) (core.CachedView, error) {
	key := keyFor(coords, providerTag)
	now := time.Now()

	c.mu.RLock()
	view, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && !view.Expired(now) {
		return view, nil
	}

	// Single-flight: the first caller at Empty|Stale composes; concurrent
	// callers for the same key await the same result. A failed compose is
	// not cached, so it never poisons subsequent calls.
	sfKey := fmt.Sprintf("%.6f,%.6f,%s", coords.Lat, coords.Lon, providerTag)
	result, err, _ := c.group.Do(sfKey, func() (interface{}, error) {
		return c.composeOnce(ctx, coords, providerTag)
	})
	if err != nil {
		return core.CachedView{}, err
	}
	return result.(core.CachedView), nil
}

func (c *Composer) composeOnce(ctx context.Context, coords core.GeoCoordinates, providerTag string) (core.CachedView, error) {
	requestID := uuid.NewString()
	now := time.Now()

	adapter, err := c.registry.Get(providerTag)
	if err != nil {
		// InvalidProvider is a configuration mismatch, not a degrade-able
		// upstream failure: it is returned immediately, never cached.
		return core.CachedView{}, err
	}

	today00 := c.resolver.LocalMidnight(coords, now)

	localDays, localErr := c.local.GetWateringWindow(coords, now)
	localOK := localErr == nil

	rawForecast, forecastErr := adapter.FetchDaily(ctx, coords)
	forecastOK := forecastErr == nil

	log.Printf("DEBUG: compose[%s] coords=%.4f,%.4f provider=%s localOK=%v forecastOK=%v", requestID, coords.Lat, coords.Lon, providerTag, localOK, forecastOK)

	if !localOK && !forecastOK {
		return core.CachedView{}, core.ErrInsufficientData(fmt.Sprintf("both sources failed: local=%v forecast=%v", localErr, forecastErr))
	}

	var combined core.CombinedSeries

	for _, d := range localDays {
		combined = append(combined, seriesDayFromBucket(d))
	}

	if forecastOK {
		filtered := filterForecastOverlap(rawForecast, localDays, today00, c.resolver, coords)
		for _, d := range filtered {
			combined = append(combined, seriesDayFromForecast(d))
		}
	}

	if len(combined) == 0 {
		return core.CachedView{}, core.ErrInsufficientData("no usable local or forecast days after filtering")
	}

	sort.Slice(combined, func(i, j int) bool {
		return combined[i].LocalMidnightEpoch > combined[j].LocalMidnightEpoch
	})

	ttl := c.ttl
	// Degraded "local only" results are cached under a shortened TTL rather
	// than not cached at all, so a forecast outage doesn't force every
	// request to recompose against a broken upstream every time, while
	// still converging back to a full composition quickly once the
	// upstream recovers.
	if localOK && !forecastOK {
		ttl = c.ttl / 5
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
	}

	view := core.CachedView{
		Series:    combined,
		Coords:    coords,
		CreatedAt: now,
		TTL:       ttl,
	}

	c.mu.Lock()
	c.cache[keyFor(coords, providerTag)] = view
	c.mu.Unlock()

	return view, nil
}

func seriesDayFromBucket(d core.DayBucket) core.SeriesDay {
	return core.SeriesDay{
		LocalMidnightEpoch: d.LocalMidnightEpoch,
		Source:             core.SourceLocal,
		MinTempF:           d.MinTempF,
		MaxTempF:           d.MaxTempF,
		MeanTempF:          d.MeanTempF,
		PrecipIn:           d.PrecipIn,
		SolarWpm2:          d.MeanSolarWpm2,
		WindMPH:            d.MeanWindMPH,
	}
}

func seriesDayFromForecast(d core.ForecastDay) core.SeriesDay {
	return core.SeriesDay{
		LocalMidnightEpoch: d.LocalMidnightEpoch,
		Source:             core.SourceForecast,
		MinTempF:           d.MinTempF,
		MaxTempF:           d.MaxTempF,
		MeanTempF:          (d.MinTempF + d.MaxTempF) / 2,
		PrecipIn:           d.PrecipIn,
		HumidityPct:        d.HumidityPct,
		SolarWpm2:          d.SolarWpm2,
		WindMPH:            d.WindMPH,
		ProviderTag:        d.ProviderTag,
	}
}

// filterForecastOverlap keeps forecast days whose local calendar day is
// strictly after today's, comparing by (year, month,
// day) tuple rather than raw epoch so adapters that stamp non-midnight
// marks (WeatherAPI, OpenWeatherMap) are handled identically to
// midnight-aligned ones (Open-Meteo). If local data reaches further into
// the future than the earliest remaining forecast day, that forecast day
// (and any earlier) is dropped too.
func filterForecastOverlap(raw []core.ForecastDay, localDays []core.DayBucket, today00 int64, resolver *tz.Resolver, coords core.GeoCoordinates) []core.ForecastDay {
	todayY, todayM, todayD := resolver.LocalCalendarDay(coords, time.Unix(today00, 0).UTC())

	var kept []core.ForecastDay
	for _, d := range raw {
		y, m, dd := resolver.LocalCalendarDay(coords, time.Unix(d.LocalMidnightEpoch, 0).UTC())
		if !afterDay(y, m, dd, todayY, todayM, todayD) {
			continue
		}
		kept = append(kept, d)
	}

	if len(localDays) == 0 || len(kept) == 0 {
		return kept
	}

	latest := localDays[0]
	for _, d := range localDays {
		if d.LocalMidnightEpoch > latest.LocalMidnightEpoch {
			latest = d
		}
	}
	latestY, latestM, latestD := resolver.LocalCalendarDay(coords, time.Unix(latest.LocalMidnightEpoch, 0).UTC())

	earliest := kept[0]
	for _, d := range kept {
		if d.LocalMidnightEpoch < earliest.LocalMidnightEpoch {
			earliest = d
		}
	}
	earliestY, earliestM, earliestD := resolver.LocalCalendarDay(coords, time.Unix(earliest.LocalMidnightEpoch, 0).UTC())

	if !afterDay(earliestY, earliestM, earliestD, latestY, latestM, latestD) {
		filtered := kept[:0]
		for _, d := range kept {
			y, m, dd := resolver.LocalCalendarDay(coords, time.Unix(d.LocalMidnightEpoch, 0).UTC())
			if afterDay(y, m, dd, latestY, latestM, latestD) {
				filtered = append(filtered, d)
			}
		}
		return filtered
	}

	return kept
}

func afterDay(y int, m time.Month, d int, refY int, refM time.Month, refD int) bool {
	a := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	b := time.Date(refY, refM, refD, 0, 0, 0, 0, time.UTC)
	return a.After(b)
}
