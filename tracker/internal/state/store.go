// CLAUDE:SUMMARY Three-slot on-disk state: previous/current snapshots and the change log, with atomic writes and promotion.
// Package state persists tracker state between runs. Three slots live under
// the data directory:
//
//	previous_state.json — the baseline the next run diffs against
//	current_state.json  — this run's output
//	changes_log.json    — bounded change history, oldest first
//
// Every write goes through write-temp-then-rename so a crash mid-write never
// corrupts an existing slot. The previous slot only changes through Promote,
// which the orchestrator calls as the last step of a successful run.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/legiswatch/tracker/bill"
)

const (
	previousFile = "previous_state.json"
	currentFile  = "current_state.json"
	logFile      = "changes_log.json"
)

// Store reads and writes the persisted tracker state. Single-writer: one
// run per invocation, no locking.
type Store struct {
	dir string
}

// New creates a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory the store is rooted at.
func (s *Store) Dir() string { return s.dir }

// LoadPrevious returns the previous run's snapshot. A missing file means
// first run and yields an empty snapshot, not an error.
func (s *Store) LoadPrevious() (bill.Snapshot, error) {
	return s.loadSnapshot(previousFile)
}

// LoadCurrent returns the most recently persisted current snapshot. Missing
// file yields an empty snapshot.
func (s *Store) LoadCurrent() (bill.Snapshot, error) {
	return s.loadSnapshot(currentFile)
}

// LoadLog returns the persisted change log, oldest entry first. Missing file
// yields an empty log.
func (s *Store) LoadLog() ([]bill.ChangeEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, logFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("state: read log: %w", err)
	}
	var log []bill.ChangeEntry
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("state: decode log: %w", err)
	}
	return log, nil
}

// PersistCurrent writes the current snapshot atomically. The previous slot
// is untouched.
func (s *Store) PersistCurrent(snap bill.Snapshot) error {
	return s.writeJSON(currentFile, snap)
}

// PersistLog writes the change log atomically.
func (s *Store) PersistLog(log []bill.ChangeEntry) error {
	if log == nil {
		log = []bill.ChangeEntry{}
	}
	return s.writeJSON(logFile, log)
}

// Promote makes the current snapshot the baseline for the next run. The
// current file stays in place; its content is copied into the previous slot
// via the same temp-and-rename path, so a crash mid-promote leaves the old
// previous intact.
func (s *Store) Promote() error {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if err != nil {
		return fmt.Errorf("state: promote read current: %w", err)
	}
	if err := s.writeRaw(previousFile, data); err != nil {
		return fmt.Errorf("state: promote: %w", err)
	}
	return nil
}

func (s *Store) loadSnapshot(name string) (bill.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return bill.Snapshot{}, nil
		}
		return nil, fmt.Errorf("state: read %s: %w", name, err)
	}
	var snap bill.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", name, err)
	}
	if snap == nil {
		snap = bill.Snapshot{}
	}
	return snap, nil
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal %s: %w", name, err)
	}
	if err := s.writeRaw(name, append(data, '\n')); err != nil {
		return fmt.Errorf("state: write %s: %w", name, err)
	}
	return nil
}

// writeRaw writes data to name atomically: temp file in the same directory,
// fsync, rename over the target.
func (s *Store) writeRaw(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		tmp.Close()
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return err
	}
	committed = true
	return nil
}
