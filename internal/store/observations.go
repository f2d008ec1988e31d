// Package store implements ObservationStore: a bounded, time-ordered,
// crash-safe sequence of PWS observations, and the rain-counter delta
// filter that runs inside ingest. Reads go through a copy-on-write
// atomic.Pointer swap so SnapshotView never has to take the ingest lock.
package store

import (
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

const retention = 8 * 24 * time.Hour

// ObservationStore holds the append-only ring of recent Observations.
// Ingest, trim, snapshotView and persist are linearizable: ingest holds mu
// only across the copy-and-swap of the data pointer and the update of the
// rain-counter fields; snapshotView never blocks on it.
type ObservationStore struct {
	mu   sync.Mutex
	data atomic.Pointer[[]core.Observation]

	// RainCounter state. lastDailyRain/hasLastDaily are updated under mu
	// (in Ingest and Restore); lastRainEpoch is set by NoteRainRate, which
	// does not take mu. All are atomics so LastRainEpoch can be read by
	// callers (metrics, debug endpoints) without acquiring mu.
	lastDailyRain atomic.Float64
	hasLastDaily  atomic.Bool
	lastRainEpoch atomic.Int64

	persistPath string
}

// New creates an empty ObservationStore. persistPath may be empty, in which
// case Persist/Restore are no-ops.
func New(persistPath string) *ObservationStore {
	s := &ObservationStore{persistPath: persistPath}
	empty := make([]core.Observation, 0)
	s.data.Store(&empty)
	return s
}

// Ingest appends sample to a copy of the current slice, swaps the copy in,
// and updates the rain-counter state. It never fails: absent fields are simply carried through. The
// interval-rain computation happens here, inside the same critical section
// that updates lastDailyRain/lastRainEpoch.
func (s *ObservationStore) Ingest(sample core.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample.IntervalRainIn = s.computeIntervalRainLocked(sample.DailyRainIn)

	cur := *s.data.Load()
	next := make([]core.Observation, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, sample)
	next = trimLocked(next, time.Unix(sample.Timestamp, 0).UTC())
	s.data.Store(&next)
}

// computeIntervalRainLocked derives the rain that fell since the previous
// sample from a monotonically non-decreasing daily counter, treating any
// decrease as a counter reset. Must be called with mu held.
func (s *ObservationStore) computeIntervalRainLocked(dailyRain *float64) *float64 {
	if dailyRain == nil {
		return nil
	}

	var interval float64
	if !s.hasLastDaily.Load() {
		interval = *dailyRain
	} else {
		last := s.lastDailyRain.Load()
		if *dailyRain < last {
			interval = *dailyRain
		} else {
			interval = *dailyRain - last
		}
	}

	s.lastDailyRain.Store(*dailyRain)
	s.hasLastDaily.Store(true)
	return &interval
}

// NoteRainRate updates lastRainEpoch whenever the instantaneous rain rate
// (the PWS "rainin" field) is positive. Call this from the ingest handler
// alongside Ingest when the push carries a rainin value.
func (s *ObservationStore) NoteRainRate(rateInPerHour float64, at int64) {
	if rateInPerHour > 0 {
		s.lastRainEpoch.Store(at)
	}
}

// LastRainEpoch returns the epoch of the most recent positive rain-rate
// sample, or 0 if none has been observed.
func (s *ObservationStore) LastRainEpoch() int64 {
	return s.lastRainEpoch.Load()
}

// SnapshotView returns a read-only slice reference valid for the call. It
// never blocks on ingest: the returned slice is either the prior state or
// the prior state plus zero-or-more new appends, and it is never mutated
// in place.
func (s *ObservationStore) SnapshotView(_ time.Time) []core.Observation {
	return *s.data.Load()
}

// Trim removes any observation older than the retention window as of now.
// Ingest already trims on every call; Trim exists for callers (e.g. the
// persistence ticker) that want to shed old data without waiting for the
// next push.
func (s *ObservationStore) Trim(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.data.Load()
	trimmed := trimLocked(append([]core.Observation(nil), cur...), now)
	s.data.Store(&trimmed)
}

func trimLocked(obs []core.Observation, now time.Time) []core.Observation {
	cutoff := now.Add(-retention).Unix()
	i := 0
	for ; i < len(obs); i++ {
		if obs[i].Timestamp >= cutoff {
			break
		}
	}
	if i == 0 {
		return obs
	}
	return append([]core.Observation(nil), obs[i:]...)
}
