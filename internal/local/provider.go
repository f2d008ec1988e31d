// Package local surfaces the two LocalProvider views over the
// ObservationStore and DayAggregator: "current conditions" and the
// watering window (past days + partial today).
package local

import (
	"math"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/aggregate"
	"github.com/i474232898/weather-data-aggregation/internal/core"
)

// Store is the read surface this package needs from an ObservationStore.
type Store interface {
	SnapshotView(now time.Time) []core.Observation
}

// Provider implements the two local-data views: current conditions and the
// watering window.
type Provider struct {
	store      Store
	aggregator *aggregate.Aggregator
}

// New creates a Provider over store using aggregator for the watering
// window view.
func New(store Store, aggregator *aggregate.Aggregator) *Provider {
	return &Provider{store: store, aggregator: aggregator}
}

// GetCurrent scans samples within the last 24h and returns the newest
// sample's instantaneous temp/humidity/wind plus the 24h precipitation
// total. It never mutates the store. Fails InsufficientData when the
// window is empty.
func (p *Provider) GetCurrent(coords core.GeoCoordinates, now time.Time) (core.CurrentConditions, error) {
	obs := p.store.SnapshotView(now)
	cutoff := now.Add(-24 * time.Hour).Unix()

	var (
		newest     core.Observation
		haveNewest bool
		precip24h  float64
	)

	for _, o := range obs {
		if o.Timestamp < cutoff || o.Timestamp > now.Unix() {
			continue
		}
		if !haveNewest || o.Timestamp > newest.Timestamp {
			newest = o
			haveNewest = true
		}
		if o.IntervalRainIn != nil {
			precip24h += *o.IntervalRainIn
		}
	}

	if !haveNewest {
		return core.CurrentConditions{}, core.ErrInsufficientData("no samples in the last 24h")
	}

	cc := core.CurrentConditions{
		Precip24h:  roundTo(precip24h, 2),
		Raining:    precip24h > 0,
		ObservedAt: newest.Timestamp,
	}
	if newest.TempF != nil {
		cc.TempF = int64(math.Floor(*newest.TempF))
	}
	if newest.HumidityPc != nil {
		cc.Humidity = *newest.HumidityPc
	}
	if newest.WindMPH != nil {
		cc.WindMPH = roundTo(*newest.WindMPH, 1)
	}

	return cc, nil
}

// GetWateringWindow returns the aggregator's DayBucket output: up to 7 past
// days plus a partial today, newest-first.
func (p *Provider) GetWateringWindow(coords core.GeoCoordinates, now time.Time) ([]core.DayBucket, error) {
	obs := p.store.SnapshotView(now)
	return p.aggregator.Aggregate(obs, coords, now)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
