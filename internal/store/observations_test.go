package store

import (
	"math"
	"testing"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

func f(v float64) *float64 { return &v }

func TestIngestFirstSampleHasNoIntervalRain(t *testing.T) {
	s := New("")
	now := time.Now().Unix()

	s.Ingest(core.Observation{Timestamp: now, DailyRainIn: f(0.5)})

	obs := s.SnapshotView(time.Now())
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if obs[0].IntervalRainIn == nil || *obs[0].IntervalRainIn != 0.5 {
		t.Fatalf("first sample's interval rain should equal its daily rain, got %v", obs[0].IntervalRainIn)
	}
}

func TestIngestComputesDeltaBetweenSamples(t *testing.T) {
	s := New("")
	base := time.Now()

	s.Ingest(core.Observation{Timestamp: base.Unix(), DailyRainIn: f(0.5)})
	s.Ingest(core.Observation{Timestamp: base.Add(time.Hour).Unix(), DailyRainIn: f(0.8)})

	obs := s.SnapshotView(time.Now())
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if math.Abs(*obs[1].IntervalRainIn-0.3) > 1e-9 {
		t.Fatalf("second sample's interval rain = %v, want 0.3", *obs[1].IntervalRainIn)
	}
}

func TestIngestHandlesDailyCounterReset(t *testing.T) {
	s := New("")
	base := time.Now()

	s.Ingest(core.Observation{Timestamp: base.Unix(), DailyRainIn: f(1.2)})
	// Next sample's daily total is lower than the last: a midnight reset.
	s.Ingest(core.Observation{Timestamp: base.Add(time.Hour).Unix(), DailyRainIn: f(0.1)})

	obs := s.SnapshotView(time.Now())
	if *obs[1].IntervalRainIn != 0.1 {
		t.Fatalf("reset sample's interval rain = %v, want 0.1 (treated as a fresh count)", *obs[1].IntervalRainIn)
	}
}

func TestIngestWithAbsentRainLeavesIntervalNil(t *testing.T) {
	s := New("")
	s.Ingest(core.Observation{Timestamp: time.Now().Unix()})

	obs := s.SnapshotView(time.Now())
	if obs[0].IntervalRainIn != nil {
		t.Fatalf("expected nil interval rain for a sample with no daily rain field, got %v", *obs[0].IntervalRainIn)
	}
}

func TestTrimRemovesOldObservations(t *testing.T) {
	s := New("")
	now := time.Now()

	s.Ingest(core.Observation{Timestamp: now.Add(-10 * 24 * time.Hour).Unix()})
	s.Ingest(core.Observation{Timestamp: now.Unix()})

	s.Trim(now)

	obs := s.SnapshotView(now)
	if len(obs) != 1 {
		t.Fatalf("expected trim to drop the 10-day-old sample, got %d remaining", len(obs))
	}
}

func TestNoteRainRateOnlyUpdatesOnPositiveRate(t *testing.T) {
	s := New("")
	s.NoteRainRate(0, 100)
	if s.LastRainEpoch() != 0 {
		t.Fatalf("a zero rain rate should not move LastRainEpoch, got %d", s.LastRainEpoch())
	}
	s.NoteRainRate(0.05, 200)
	if s.LastRainEpoch() != 200 {
		t.Fatalf("LastRainEpoch = %d, want 200", s.LastRainEpoch())
	}
}

func TestSnapshotViewIsIndependentOfFutureIngest(t *testing.T) {
	s := New("")
	now := time.Now()

	s.Ingest(core.Observation{Timestamp: now.Unix()})
	snap := s.SnapshotView(now)

	s.Ingest(core.Observation{Timestamp: now.Add(time.Minute).Unix()})

	if len(snap) != 1 {
		t.Fatalf("a snapshot taken before a later ingest should not observe it, len=%d", len(snap))
	}
}
