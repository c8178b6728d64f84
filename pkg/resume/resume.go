// Package resume implements the crash-tolerant resume snapshot of spec §4.7/§6: an atomic,
// write-temp-then-rename JSON file capturing the tournament configuration and schedule, so a
// crashed or stopped run can pick back up where it left off.
package resume

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/herohde/morlock/pkg/schedule"
	"github.com/herohde/morlock/pkg/tconfig"
)

// Snapshot is the full persisted state: the tournament configuration (with its resume flag
// cleared, to avoid resume-recursion per spec §3's invariant) and the materialized schedule.
type Snapshot struct {
	Config   tconfig.TournamentConfig `json:"config"`
	Schedule []*schedule.Game         `json:"schedule"`
}

// Save atomically rewrites the snapshot file at path: write to "<path>.tmp", then rename over
// path. The persisted config always carries ResumeFromState=false (spec §3's invariant).
func Save(path string, cfg tconfig.TournamentConfig, games []*schedule.Game) error {
	cfg.ResumeFromState = false
	snap := Snapshot{Config: cfg, Schedule: games}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("resume: marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("resume: write %v: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("resume: rename %v to %v: %w", tmp, path, err)
	}
	return nil
}

// Load reads and parses a snapshot file.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resume: read %v: %w", path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("resume: parse %v: %w", path, err)
	}
	return snap, nil
}

// Delete removes the snapshot file. Called on clean tournament completion (spec §4.7); a missing
// file is not an error.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("resume: remove %v: %w", path, err)
	}
	return nil
}

// Exists reports whether a snapshot file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
