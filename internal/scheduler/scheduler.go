// Package scheduler runs the single periodic worker that persists the
// ObservationStore to disk, off the request path on its own ticker, never
// blocking ingest or compose.
package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Store is the persistence surface the scheduler drives.
type Store interface {
	Persist() error
	Trim(now time.Time)
}

// Scheduler periodically persists the observation store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     Store
	interval  time.Duration
}

// New creates a Scheduler. interval defaults to 30 minutes if <= 0.
func New(store Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		interval:  interval,
	}
}

// Start schedules the periodic persistence job and starts the underlying
// gocron scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running observation store persistence tick")

		now := time.Now()
		s.store.Trim(now)

		if err := s.store.Persist(); err != nil {
			log.Printf("scheduler: persist failed, will retry next tick: %v", err)
			return
		}
		log.Println("scheduler: persistence tick completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// PersistNow triggers an out-of-band persist, used on graceful shutdown.
func (s *Scheduler) PersistNow() error {
	return s.store.Persist()
}
