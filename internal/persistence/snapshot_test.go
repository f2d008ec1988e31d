package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

func f(v float64) *float64 { return &v }

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().Unix()

	obs := []core.Observation{
		{Timestamp: now, TempF: f(72.5), DailyRainIn: f(0.4)},
		{Timestamp: now + 60, TempF: f(73.0)},
	}

	if err := Write(dir, obs); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(dir)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(got))
	}
	if *got[0].TempF != 72.5 {
		t.Fatalf("TempF = %v, want 72.5", *got[0].TempF)
	}
}

func TestReadMissingFileReturnsNilNotError(t *testing.T) {
	dir := t.TempDir()

	obs, err := Read(dir)
	if err != nil {
		t.Fatalf("Read on a directory with no snapshot should not error, got %v", err)
	}
	if obs != nil {
		t.Fatalf("expected nil observations for a missing file, got %v", obs)
	}
}

func TestReadCorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, []core.Observation{{Timestamp: 1}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	path := filepath.Join(dir, "observations.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("failed to corrupt snapshot: %v", err)
	}

	if _, err := Read(dir); err == nil {
		t.Fatal("expected an error reading a corrupt snapshot file")
	}
}
