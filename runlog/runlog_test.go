package runlog_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/legiswatch/dbopen"
	"github.com/hazyhaar/legiswatch/runlog"
	"github.com/hazyhaar/legiswatch/tracker/bill"
	"github.com/hazyhaar/legiswatch/tracker/run"
)

func memStore(t *testing.T) *runlog.Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(runlog.Schema()))
	return runlog.New(db)
}

func result(id string, started time.Time, state run.State) *run.Result {
	return &run.Result{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		State:      state,
		Order:      []string{"HB1", "SB2"},
		Snapshot: bill.Snapshot{
			"HB1": {Status: "Pending"},
			"SB2": {Status: "Passed"},
		},
		Changes: []bill.ChangeEntry{
			{Identifier: "HB1", Kind: bill.KindAdded, NewStatus: "Pending", DetectedAt: started},
		},
		Missing: []bill.Missing{{Identifier: "HJR5", Reason: "bill not found"}},
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	started := time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC)
	if err := s.Record(ctx, result("run_a", started, run.StateDone), nil); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}

	e := entries[0]
	if e.RunID != "run_a" {
		t.Errorf("run_id: got %q", e.RunID)
	}
	if e.State != run.StateDone {
		t.Errorf("state: got %q", e.State)
	}
	if e.BillsTracked != 2 || e.BillsFetched != 2 || e.BillsMissing != 1 || e.Changes != 1 {
		t.Errorf("counters: got tracked=%d fetched=%d missing=%d changes=%d",
			e.BillsTracked, e.BillsFetched, e.BillsMissing, e.Changes)
	}
	if !e.StartedAt.Equal(started) {
		t.Errorf("started_at: got %v, want %v", e.StartedAt, started)
	}
	if e.Error != "" {
		t.Errorf("error: got %q, want empty", e.Error)
	}
}

func TestRecordFailedRun(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	started := time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC)
	res := result("run_fail", started, run.StateFailed)
	if err := s.Record(ctx, res, errors.New("persist current state: disk full")); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].State != run.StateFailed {
		t.Errorf("state: got %q, want failed", entries[0].State)
	}
	if entries[0].Error == "" {
		t.Error("failed run recorded without error text")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		res := result(fmt.Sprintf("run_%d", i), base.Add(time.Duration(i)*time.Hour), run.StateDone)
		if err := s.Record(ctx, res, nil); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(entries))
	}
	if entries[0].RunID != "run_4" || entries[2].RunID != "run_2" {
		t.Errorf("order: got %q .. %q, want run_4 .. run_2", entries[0].RunID, entries[2].RunID)
	}
}

func TestDuplicateRunIDRejected(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	started := time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC)
	if err := s.Record(ctx, result("run_dup", started, run.StateDone), nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, result("run_dup", started, run.StateDone), nil); err == nil {
		t.Fatal("duplicate run_id should be rejected by the primary key")
	}
}

func TestRecordAppliesRetention(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(runlog.Schema()))
	s := runlog.New(db, runlog.WithRetention(3))
	ctx := context.Background()

	base := time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		res := result(fmt.Sprintf("run_%d", i), base.Add(time.Duration(i)*time.Hour), run.StateDone)
		if err := s.Record(ctx, res, nil); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries after retention: got %d, want 3", len(entries))
	}
	if entries[0].RunID != "run_4" || entries[2].RunID != "run_2" {
		t.Errorf("survivors: got %q .. %q, want run_4 .. run_2", entries[0].RunID, entries[2].RunID)
	}
}

func TestCleanup(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		res := result(fmt.Sprintf("run_%02d", i), base.Add(time.Duration(i)*time.Minute), run.StateDone)
		if err := s.Record(ctx, res, nil); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := s.Cleanup(ctx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 6 {
		t.Errorf("deleted: got %d, want 6", deleted)
	}

	entries, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("remaining: got %d, want 4", len(entries))
	}
	// The newest runs survive.
	if entries[0].RunID != "run_09" || entries[3].RunID != "run_06" {
		t.Errorf("survivors: got %q .. %q", entries[0].RunID, entries[3].RunID)
	}
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "runs.db")
	s, err := runlog.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	started := time.Date(2026, 1, 20, 6, 0, 0, 0, time.UTC)
	if err := s.Record(context.Background(), result("run_file", started, run.StateDone), nil); err != nil {
		t.Fatal(err)
	}
}
