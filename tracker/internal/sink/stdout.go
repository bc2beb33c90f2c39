package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/hazyhaar/legiswatch/tracker/run"
)

// StdoutSink writes one JSON summary line per run. The full snapshot is
// omitted — it lives in the state files; stdout carries the counters and the
// change entries so cron logs stay reviewable.
type StdoutSink struct {
	w io.Writer
}

// NewStdoutSink creates a stdout sink. A nil writer defaults to os.Stdout.
func NewStdoutSink(w io.Writer) *StdoutSink {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutSink{w: w}
}

func (s *StdoutSink) SendRun(ctx context.Context, res *run.Result) error {
	summary := map[string]any{
		"run_id":      res.RunID,
		"state":       res.State,
		"started_at":  res.StartedAt,
		"finished_at": res.FinishedAt,
		"tracked":     res.Tracked(),
		"fetched":     res.Fetched(),
		"missing":     len(res.Missing),
		"changes":     res.Changes,
	}
	enc := json.NewEncoder(s.w)
	return enc.Encode(summary)
}

func (s *StdoutSink) Close() error { return nil }
