// Package sink defines output backends for completed tracking runs.
package sink

import (
	"context"

	"github.com/hazyhaar/legiswatch/tracker/run"
)

// Sink receives the result of a completed run. Implementations write to
// different backends (stdout, the static dashboard file). Sinks are
// best-effort: a sink error is reported but never un-promotes a run.
type Sink interface {
	SendRun(ctx context.Context, res *run.Result) error
	Close() error
}
