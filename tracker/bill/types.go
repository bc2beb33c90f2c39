// CLAUDE:SUMMARY Core bill-tracking types: Record, Snapshot, ChangeEntry, ChangeKind.
// Package bill holds the core domain model of legiswatch: canonical bill
// records, point-in-time snapshots, and the diff/change-log machinery that
// compares them. Everything here is pure data and pure functions — I/O lives
// in the tracker and its internal packages.
package bill

import "time"

// RawRow is a bill row as delivered by the fetch collaborator, before
// normalization. Field content follows the LIS search API: the bill number
// may be mixed-case with stray whitespace and the summary may contain HTML.
type RawRow struct {
	BillNumber string `json:"bill_number"`
	Status     string `json:"status"`
	Summary    string `json:"summary"`
	URL        string `json:"bill_url"`
}

// Record is the canonical view of one tracked bill at one run. Records are
// immutable once written into a snapshot; a new run produces a new Record
// for the same identifier rather than mutating in place.
type Record struct {
	Status         string    `json:"status"`
	Summary        string    `json:"summary"`
	URL            string    `json:"link"`
	LastObservedAt time.Time `json:"last_observed_at"`
}

// Snapshot maps canonical bill identifiers to their records. The identifier
// is the sole join key between snapshots; ordering is supplied by the
// tracking configuration at diff time, not stored here.
type Snapshot map[string]Record

// Clone returns a shallow copy. Record fields are values, so the copy is
// independent of the original.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, rec := range s {
		out[id] = rec
	}
	return out
}

// Missing marks a tracked bill that produced no usable data this run: not in
// the session results, fetch error, or unparseable page. The run continues;
// the marker keeps a constructed detail URL so reports can still link out.
type Missing struct {
	Identifier string `json:"identifier"`
	URL        string `json:"url"`
	Reason     string `json:"reason"`
}

// ChangeKind classifies a detected difference between two snapshots.
type ChangeKind string

const (
	KindAdded          ChangeKind = "added"
	KindRemoved        ChangeKind = "removed"
	KindStatusChanged  ChangeKind = "status_changed"
	KindSummaryChanged ChangeKind = "summary_changed"
)

// ChangeEntry is a single detected difference for one bill. Entries are
// immutable and append-only. A StatusChanged entry carries the summary delta
// too when both fields moved in the same run.
type ChangeEntry struct {
	Identifier string     `json:"identifier"`
	Kind       ChangeKind `json:"change_kind"`
	OldStatus  string     `json:"old_status,omitempty"`
	NewStatus  string     `json:"new_status,omitempty"`
	OldSummary string     `json:"old_summary,omitempty"`
	NewSummary string     `json:"new_summary,omitempty"`
	DetectedAt time.Time  `json:"detected_at"`
}
