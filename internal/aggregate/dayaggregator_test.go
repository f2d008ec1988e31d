package aggregate

import (
	"testing"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/tz"
)

func f(v float64) *float64 { return &v }

var coords = core.GeoCoordinates{Lat: 40, Lon: 0}

func hourlyObs(start time.Time, hours int, tempF, humidity float64) []core.Observation {
	obs := make([]core.Observation, 0, hours)
	for i := 0; i < hours; i++ {
		obs = append(obs, core.Observation{
			Timestamp:  start.Add(time.Duration(i) * time.Hour).Unix(),
			TempF:      f(tempF),
			HumidityPc: f(humidity),
		})
	}
	return obs
}

func TestAggregateFailsOnEmptyStore(t *testing.T) {
	a := New(tz.New())
	_, err := a.Aggregate(nil, coords, time.Now())
	if err == nil {
		t.Fatal("expected InsufficientData on an empty observation slice")
	}
}

func TestAggregateFailsOnLessThan23HoursOfHistory(t *testing.T) {
	a := New(tz.New())
	now := time.Now().UTC()
	obs := hourlyObs(now.Add(-2*time.Hour), 3, 70, 50)

	_, err := a.Aggregate(obs, coords, now)
	if err == nil {
		t.Fatal("expected InsufficientData when the store spans less than 23h")
	}
}

func TestAggregateBuildsYesterdayAndTodayBuckets(t *testing.T) {
	a := New(tz.New())
	now := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)

	// Continuous hourly coverage starting at yesterday's local midnight
	// gives yesterday a full 23h span (complete) plus a partial today.
	yesterdayStart := now.Add(-39 * time.Hour)
	obs := hourlyObs(yesterdayStart, 40, 70, 55)

	buckets, err := a.Aggregate(obs, coords, now)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(buckets) < 2 {
		t.Fatalf("expected at least today's and yesterday's buckets, got %d", len(buckets))
	}
	// Newest-first.
	for i := 1; i < len(buckets); i++ {
		if buckets[i].LocalMidnightEpoch >= buckets[i-1].LocalMidnightEpoch {
			t.Fatalf("buckets are not newest-first at index %d", i)
		}
	}
}

func TestAggregateFailsWhenYesterdayIsMissing(t *testing.T) {
	a := New(tz.New())
	now := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)

	// One sample two days ago plus hourly samples since today's midnight:
	// the store spans more than 23h, but none of the samples fall in
	// yesterday's local calendar day.
	obs := hourlyObs(now.Add(-48*time.Hour), 1, 70, 55)
	obs = append(obs, hourlyObs(now.Add(-15*time.Hour), 16, 70, 55)...)

	_, err := a.Aggregate(obs, coords, now)
	if err == nil {
		t.Fatal("expected InsufficientData when yesterday's bucket cannot be built")
	}
}

func TestAggregateStopsAtFirstGapInPastDays(t *testing.T) {
	a := New(tz.New())
	now := time.Date(2026, 7, 31, 15, 0, 0, 0, time.UTC)

	// Continuous hourly coverage from July 29 00:00 through now covers
	// today, yesterday (July 30) and the day before (July 29) in full,
	// leaving the day before that (July 28) with zero samples.
	obs := hourlyObs(now.Add(-63*time.Hour), 64, 65, 60)

	buckets, err := a.Aggregate(obs, coords, now)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected the aggregate to stop at the first gap with 3 buckets, got %d", len(buckets))
	}
}
