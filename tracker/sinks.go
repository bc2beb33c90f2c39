package tracker

import (
	"io"

	"github.com/hazyhaar/legiswatch/tracker/internal/sink"
)

// Sink receives the result of a completed run.
type Sink = sink.Sink

// NewStdoutSink returns a sink writing one JSON summary line per run.
// A nil writer defaults to os.Stdout.
func NewStdoutSink(w io.Writer) Sink { return sink.NewStdoutSink(w) }

// NewDashboardSink returns a sink rendering the static HTML dashboard into
// dir after each run.
func NewDashboardSink(dir string) Sink { return sink.NewDashboardSink(dir) }
