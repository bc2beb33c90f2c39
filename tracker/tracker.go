// CLAUDE:SUMMARY Run orchestrator: fetch, normalize, diff, append log, persist, promote, fan out to sinks.
// Package tracker runs the bill-status tracking pipeline. One Run is one
// linear pass: fetch the tracked bills, normalize them into a snapshot, diff
// against the previous baseline, append detected changes to the bounded log,
// persist, promote, and hand the result to the output sinks.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/legiswatch/idgen"
	"github.com/hazyhaar/legiswatch/tracker/bill"
	"github.com/hazyhaar/legiswatch/tracker/internal/config"
	"github.com/hazyhaar/legiswatch/tracker/internal/fetch"
	"github.com/hazyhaar/legiswatch/tracker/internal/sink"
	"github.com/hazyhaar/legiswatch/tracker/internal/state"
	"github.com/hazyhaar/legiswatch/tracker/run"
)

// Fetcher resolves tracked identifiers into raw rows. Satisfied by
// *fetch.Client; tests substitute a stub.
type Fetcher interface {
	FetchAll(ctx context.Context, tracked []string) (*fetch.Result, error)
}

// Recorder persists run history. Satisfied by *runlog.Store. Recording is
// best-effort: a recorder failure is logged, never turned into a run failure.
type Recorder interface {
	Record(ctx context.Context, res *run.Result, runErr error) error
}

// Tracker executes tracking runs. Safe for concurrent LatestResult calls
// while a run is in flight; runs themselves are not concurrent.
type Tracker struct {
	cfg      *config.Config
	logger   *slog.Logger
	fetcher  Fetcher
	store    *state.Store
	sinks    sink.Sink
	recorder Recorder
	newID    idgen.Generator
	now      func() time.Time

	mu     sync.RWMutex
	latest *run.Result
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithFetcher replaces the LIS client, for tests.
func WithFetcher(f Fetcher) Option { return func(t *Tracker) { t.fetcher = f } }

// WithSinks sets the output sinks a finished run fans out to.
func WithSinks(sinks ...Sink) Option {
	return func(t *Tracker) { t.sinks = sink.NewRouter(t.logger, sinks...) }
}

// WithRecorder sets the run-history recorder.
func WithRecorder(r Recorder) Option { return func(t *Tracker) { t.recorder = r } }

// WithIDGenerator replaces the run-ID generator, for tests.
func WithIDGenerator(gen idgen.Generator) Option { return func(t *Tracker) { t.newID = gen } }

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

// New creates a Tracker for the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		cfg:    cfg,
		logger: logger,
		store:  state.New(cfg.DataDir),
		newID:  idgen.Prefixed("run_", idgen.UUIDv7()),
		now:    time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	if t.fetcher == nil {
		t.fetcher = fetch.New(cfg.Fetch, logger)
	}
	return t
}

// Run executes one tracking run. It returns the result in every case; a
// non-nil error means the run aborted before promotion and the previous
// baseline is untouched. Sinks and the recorder run after the state machine
// settles and never change the outcome.
func (t *Tracker) Run(ctx context.Context) (*run.Result, error) {
	res := &run.Result{
		RunID:     t.newID(),
		StartedAt: t.now().UTC(),
		State:     run.StateStart,
		Order:     append([]string(nil), t.cfg.Bills...),
	}
	log := t.logger.With("run_id", res.RunID)
	log.Info("run: started", "tracked", len(res.Order))

	if len(res.Order) == 0 {
		log.Warn("run: no bills configured, snapshot will be empty")
	}

	fres, err := t.fetcher.FetchAll(ctx, res.Order)
	if err != nil {
		return t.fail(ctx, log, res, fmt.Errorf("tracker: fetch: %w", err))
	}

	observedAt := t.now().UTC()
	rows := make([]bill.RawRow, 0, len(fres.Rows))
	for _, id := range res.Order {
		if row, ok := fres.Rows[id]; ok {
			rows = append(rows, row)
		}
	}
	res.Snapshot = bill.NormalizeBatch(rows, observedAt, log)
	res.Missing = fres.Missing
	res.State = run.StateNormalized

	if len(res.Order) > 0 && len(res.Snapshot) == 0 {
		// Diffing an all-empty snapshot against a populated baseline would
		// report every bill as removed, so an empty fetch is loud.
		log.Warn("run: fetched zero bills, every tracked bill will read as missing",
			"tracked", len(res.Order))
	}

	previous, err := t.store.LoadPrevious()
	if err != nil {
		return t.fail(ctx, log, res, fmt.Errorf("tracker: load previous state: %w", err))
	}

	res.Changes = bill.Diff(previous, res.Snapshot, res.Order, observedAt)
	res.State = run.StateDiffed
	log.Info("run: diffed", "changes", len(res.Changes), "missing", len(res.Missing))

	changeLog, err := t.store.LoadLog()
	if err != nil {
		return t.fail(ctx, log, res, fmt.Errorf("tracker: load change log: %w", err))
	}
	if err := t.store.PersistLog(bill.AppendLog(changeLog, res.Changes)); err != nil {
		return t.fail(ctx, log, res, fmt.Errorf("tracker: persist change log: %w", err))
	}
	res.State = run.StateLogAppended

	if err := t.store.PersistCurrent(res.Snapshot); err != nil {
		return t.fail(ctx, log, res, fmt.Errorf("tracker: persist current state: %w", err))
	}
	if err := t.store.Promote(); err != nil {
		return t.fail(ctx, log, res, fmt.Errorf("tracker: promote: %w", err))
	}
	res.State = run.StatePromoted
	log.Debug("run: promoted", "state", res.State)

	res.State = run.StateDone
	res.FinishedAt = t.now().UTC()
	t.setLatest(res)
	t.record(ctx, log, res, nil)
	t.deliver(ctx, log, res)

	log.Info("run: done",
		"fetched", res.Fetched(),
		"changes", len(res.Changes),
		"duration", res.FinishedAt.Sub(res.StartedAt))
	return res, nil
}

// LatestResult returns the most recent run result for the dashboard. Before
// any in-process run it reconstructs a view from the persisted state, so a
// freshly started server shows the last cron run's data. The reconstructed
// Changes carry only the last run's entries — the dashboard renders them as
// "since last sync", so handing it the cumulative log would be wrong.
func (t *Tracker) LatestResult() (*run.Result, error) {
	t.mu.RLock()
	latest := t.latest
	t.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	snap, err := t.store.LoadCurrent()
	if err != nil {
		return nil, err
	}
	changeLog, err := t.store.LoadLog()
	if err != nil {
		return nil, err
	}
	return &run.Result{
		State:    run.StateDone,
		Order:    append([]string(nil), t.cfg.Bills...),
		Snapshot: snap,
		Changes:  lastRunEntries(snap, changeLog),
	}, nil
}

// lastRunEntries extracts the most recent run's changes from the persisted
// log. All entries of one run share a DetectedAt timestamp and the log is
// oldest first, so the last run is the maximal suffix carrying the final
// entry's timestamp. A snapshot record observed after that timestamp means a
// newer run completed without logging anything, so there are no changes to
// show.
func lastRunEntries(snap bill.Snapshot, log []bill.ChangeEntry) []bill.ChangeEntry {
	if len(log) == 0 {
		return nil
	}
	last := log[len(log)-1].DetectedAt
	for _, rec := range snap {
		if rec.LastObservedAt.After(last) {
			return nil
		}
	}
	i := len(log)
	for i > 0 && log[i-1].DetectedAt.Equal(last) {
		i--
	}
	return log[i:]
}

// Refresh drops the cached result so the next LatestResult re-reads the
// persisted state. Serve mode calls this when the run-history database
// signals that another process completed a run.
func (t *Tracker) Refresh() error {
	t.mu.Lock()
	t.latest = nil
	t.mu.Unlock()
	_, err := t.LatestResult()
	return err
}

func (t *Tracker) setLatest(res *run.Result) {
	t.mu.Lock()
	t.latest = res
	t.mu.Unlock()
}

func (t *Tracker) fail(ctx context.Context, log *slog.Logger, res *run.Result, err error) (*run.Result, error) {
	res.State = run.StateFailed
	res.FinishedAt = t.now().UTC()
	log.Error("run: failed", "error", err)
	t.record(ctx, log, res, err)
	return res, err
}

func (t *Tracker) record(ctx context.Context, log *slog.Logger, res *run.Result, runErr error) {
	if t.recorder == nil {
		return
	}
	if err := t.recorder.Record(ctx, res, runErr); err != nil {
		log.Warn("run: history recording failed", "error", err)
	}
}

func (t *Tracker) deliver(ctx context.Context, log *slog.Logger, res *run.Result) {
	if t.sinks == nil {
		return
	}
	if err := t.sinks.SendRun(ctx, res); err != nil {
		log.Warn("run: sink delivery failed", "error", err)
	}
}

// Close releases sink resources.
func (t *Tracker) Close() error {
	if t.sinks == nil {
		return nil
	}
	return t.sinks.Close()
}
