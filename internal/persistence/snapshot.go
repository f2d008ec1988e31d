// Package persistence implements the atomic JSON snapshot writer/reader
// used by the ObservationStore: write-to-temp + rename so a crash mid-write
// never leaves a corrupt file in place.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

const snapshotFile = "observations.json"

// Write atomically persists obs to dir/observations.json.
func Write(dir string, obs []core.Observation) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.ErrConfiguration("persistence directory inaccessible", err)
	}

	path := filepath.Join(dir, snapshotFile)
	tmp, err := os.CreateTemp(dir, "observations-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(obs); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename snapshot into place: %w", err)
	}
	return nil
}

// Read restores observations from dir/observations.json. A missing file is
// not an error (first run); a corrupt file resets to empty and the error is
// returned for the caller to log, not fatal.
func Read(dir string) ([]core.Observation, error) {
	if dir == "" {
		return nil, nil
	}
	path := filepath.Join(dir, snapshotFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var obs []core.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("corrupt snapshot, resetting to empty: %w", err)
	}
	return obs, nil
}
