package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/legiswatch/dashboard"
	"github.com/hazyhaar/legiswatch/tracker/run"
)

// DashboardSink renders the static HTML dashboard into the docs directory
// after each run. The file is a publishable artifact (e.g. GitHub Pages),
// not tracker state — a write failure here is a sink error, not a run
// failure.
type DashboardSink struct {
	dir string
}

// NewDashboardSink creates a sink writing <dir>/index.html.
func NewDashboardSink(dir string) *DashboardSink {
	return &DashboardSink{dir: dir}
}

// Path returns the rendered file path.
func (d *DashboardSink) Path() string { return filepath.Join(d.dir, "index.html") }

func (d *DashboardSink) SendRun(ctx context.Context, res *run.Result) error {
	page, err := dashboard.Render(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("sink: mkdir docs: %w", err)
	}
	if err := os.WriteFile(d.Path(), page, 0o644); err != nil {
		return fmt.Errorf("sink: write dashboard: %w", err)
	}
	return nil
}

func (d *DashboardSink) Close() error { return nil }
