package store

import (
	"log"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
	"github.com/i474232898/weather-data-aggregation/internal/persistence"
)

// Persist snapshots the current observations to disk via an atomic
// write-to-temp + rename. Errors are never fatal: they are returned for the
// caller (the scheduler) to log and retry on the next tick.
func (s *ObservationStore) Persist() error {
	obs := s.SnapshotView(time.Now())
	if err := persistence.Write(s.persistPath, obs); err != nil {
		log.Printf("ERROR: observation store persist failed: %v", err)
		return err
	}
	return nil
}

// Restore loads observations from disk, replacing the in-memory store. A
// missing file leaves the store empty; a corrupt file resets it to empty
// and logs the error.
func (s *ObservationStore) Restore() error {
	obs, err := persistence.Read(s.persistPath)
	if err != nil {
		log.Printf("ERROR: observation store restore failed, resetting to empty: %v", err)
		obs = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if obs == nil {
		obs = make([]core.Observation, 0)
	}
	next := append([]core.Observation(nil), obs...)
	s.data.Store(&next)

	if len(next) > 0 {
		if last := next[len(next)-1].DailyRainIn; last != nil {
			s.lastDailyRain.Store(*last)
			s.hasLastDaily.Store(true)
		}
	}
	return err
}
