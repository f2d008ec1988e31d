// Package aggregate turns raw Observations into per-local-day DayBuckets,
// averaging the samples inside each local calendar day and ignoring absent
// fields, repeated over a contiguous window of days.
package aggregate

import (
	"math"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/tz"
)

const day = 24 * time.Hour

// Aggregator builds DayBuckets from an ObservationStore snapshot.
type Aggregator struct {
	resolver *tz.Resolver
}

// New creates an Aggregator using resolver to compute local day boundaries.
func New(resolver *tz.Resolver) *Aggregator {
	return &Aggregator{resolver: resolver}
}

// Aggregate returns at most 8 DayBuckets: today's partial bucket plus up to
// 7 contiguous past days, newest-first. It stops at the first gap in the
// past-day window and fails if no bucket is usable.
func (a *Aggregator) Aggregate(obs []core.Observation, coords core.GeoCoordinates, now time.Time) ([]core.DayBucket, error) {
	if len(obs) == 0 {
		return nil, core.ErrInsufficientData("no observations in store")
	}

	head := obs[len(obs)-1].Timestamp // newest
	tail := obs[0].Timestamp          // oldest
	if head-tail < int64((23 * time.Hour).Seconds()) {
		return nil, core.ErrInsufficientData("fewer than 23h of samples in store")
	}

	today00 := a.resolver.LocalMidnight(coords, now)

	var buckets []core.DayBucket

	// Today's bucket is partial by construction: buildBucket's ok return
	// already enforces tempCount>0 && humidityCount>0 and finite min/max,
	// which is the full emission criterion for today (no 23h span test).
	if todayBucket, ok := buildBucket(obs, today00, now.Unix()); ok {
		buckets = append(buckets, todayBucket)
	}

	for i := 1; i <= 7; i++ {
		start := today00 - int64(i)*int64(day.Seconds())
		end := today00 - int64(i-1)*int64(day.Seconds())

		bucket, ok := buildBucket(obs, start, end-1)
		if !ok {
			if i == 1 {
				return nil, core.ErrInsufficientData("yesterday's bucket is missing or incomplete")
			}
			break
		}
		buckets = append(buckets, bucket)
	}

	if len(buckets) == 0 {
		return nil, core.ErrInsufficientData("no complete day buckets available")
	}

	return buckets, nil
}

// buildBucket aggregates every sample with start <= timestamp <= end into a
// single DayBucket. The partial "today" window passes now as end; past-day
// windows pass the next local midnight minus one second, so each past day
// covers [midnight, next midnight). ok is false when the day has no temp or
// humidity samples.
func buildBucket(obs []core.Observation, start, end int64) (core.DayBucket, bool) {
	var (
		tempSum, tempCount         float64
		humSum, humCount           float64
		solarSum, solarCount       float64
		windSum, windCount         float64
		precipSum                  float64
		minTemp, maxTemp           = math.Inf(1), math.Inf(-1)
		minHum, maxHum             = math.Inf(1), math.Inf(-1)
		sampleCount                int
		spanSeconds                float64
		firstTS, lastTS            int64
		sawAny                     bool
	)

	for _, o := range obs {
		if o.Timestamp < start || o.Timestamp > end {
			continue
		}
		sawAny = true
		sampleCount++
		if firstTS == 0 || o.Timestamp < firstTS {
			firstTS = o.Timestamp
		}
		if o.Timestamp > lastTS {
			lastTS = o.Timestamp
		}

		if o.TempF != nil {
			tempSum += *o.TempF
			tempCount++
			if *o.TempF < minTemp {
				minTemp = *o.TempF
			}
			if *o.TempF > maxTemp {
				maxTemp = *o.TempF
			}
		}
		if o.HumidityPc != nil {
			humSum += *o.HumidityPc
			humCount++
			if *o.HumidityPc < minHum {
				minHum = *o.HumidityPc
			}
			if *o.HumidityPc > maxHum {
				maxHum = *o.HumidityPc
			}
		}
		if o.SolarWpm2 != nil {
			solarSum += *o.SolarWpm2
			solarCount++
		}
		if o.WindMPH != nil {
			windSum += *o.WindMPH
			windCount++
		}
		if o.IntervalRainIn != nil {
			precipSum += *o.IntervalRainIn
		}
	}

	if !sawAny || tempCount == 0 || humCount == 0 {
		return core.DayBucket{}, false
	}
	if math.IsInf(minTemp, 0) || math.IsInf(maxTemp, 0) || math.IsInf(minHum, 0) || math.IsInf(maxHum, 0) {
		return core.DayBucket{}, false
	}
	if precipSum < 0 {
		precipSum = 0
	}

	spanSeconds = float64(lastTS - firstTS)
	complete := spanSeconds >= (23 * time.Hour).Seconds()

	bucket := core.DayBucket{
		LocalMidnightEpoch: start,
		MeanTempF:          tempSum / tempCount,
		MinTempF:           minTemp,
		MaxTempF:           maxTemp,
		MeanHumidity:       humSum / humCount,
		MinHumidity:        minHum,
		MaxHumidity:        maxHum,
		PrecipIn:           precipSum,
		SampleCount:        sampleCount,
		Complete:           complete,
	}
	if solarCount > 0 {
		v := solarSum / solarCount
		bucket.MeanSolarWpm2 = &v
	}
	if windCount > 0 {
		v := windSum / windCount
		bucket.MeanWindMPH = &v
	}

	return bucket, true
}
