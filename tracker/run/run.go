// CLAUDE:SUMMARY Run state machine states and the Result emitted to sinks after each run.
// Package run defines the lifecycle of one tracking run and the result
// handed to output sinks. One invocation is one atomic state transition:
// a run either reaches Done or aborts to Failed with nothing promoted.
package run

import (
	"time"

	"github.com/hazyhaar/legiswatch/tracker/bill"
)

// State is a position in the run state machine. The flow is strictly linear:
//
//	Start → Normalized → Diffed → LogAppended → Promoted → Done
//
// Failed is terminal and reachable from any non-terminal state.
type State string

const (
	StateStart       State = "start"
	StateNormalized  State = "normalized"
	StateDiffed      State = "diffed"
	StateLogAppended State = "log_appended"
	StatePromoted    State = "promoted"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Result is the outcome of one completed run, exposed to sinks and to the
// dashboard. Snapshot and Changes are this run's outputs; Order carries the
// tracking-configuration ordering that produced them.
type Result struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	State      State              `json:"state"`
	Order      []string           `json:"order"`
	Snapshot   bill.Snapshot      `json:"snapshot"`
	Changes    []bill.ChangeEntry `json:"changes"`
	Missing    []bill.Missing     `json:"missing"`
}

// Tracked returns the number of configured bills this run covered.
func (r *Result) Tracked() int { return len(r.Order) }

// Fetched returns the number of bills that produced a record this run.
func (r *Result) Fetched() int { return len(r.Snapshot) }
