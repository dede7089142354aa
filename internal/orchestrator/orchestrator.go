// Package orchestrator drives one scrape run at a time: pages, listings,
// details, classification and the result sink, with cooperative
// cancellation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"go-jobfilter-automation/internal/browser"
	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/dedup"
	"go-jobfilter-automation/internal/ratelimit"
	"go-jobfilter-automation/internal/scraper"
	"go-jobfilter-automation/internal/session"
	"go-jobfilter-automation/internal/settings"
	"go-jobfilter-automation/internal/sink"
	"go-jobfilter-automation/internal/status"
)

// ErrMissingAPIKey means include keywords are set but no classifier key is.
var ErrMissingAPIKey = errors.New("classifier API key is not configured")

const finishTimeout = 30 * time.Second

// BoardOpener returns the first results page of a fresh run.
type BoardOpener func(ctx context.Context) (scraper.Board, error)

// DetailSource loads listing details; false means unavailable.
type DetailSource interface {
	FetchDetail(ctx context.Context, id string, sess session.Session) (scraper.Detail, bool)
}

// Classifier decides whether a listing matches the run's conditions. wait
// is cancelled by Stop; an error means the listing was not classified.
type Classifier interface {
	Classify(ctx, wait context.Context, l *scraper.Listing, rc config.RunConfig) (bool, error)
}

// ClassifierBuilder makes the classifier of one run. The returned func
// releases it.
type ClassifierBuilder func(ctx context.Context, rc config.RunConfig) (Classifier, func(), error)

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Settings    settings.Store
	Limits      config.Limits
	Affirmative string
	OpenBoard   BoardOpener
	Details     DetailSource
	Sessions    session.Provider
	Classifiers ClassifierBuilder
	Sink        sink.Sink
	Status      status.Channel
	Clock       ratelimit.Clock
	// Delay picks the pause between two listings.
	Delay func(min, max time.Duration) time.Duration
}

// RunStats are the counters of the current or last run.
type RunStats struct {
	PagesProcessed int `json:"pagesProcessed"`
	CurrentPage    int `json:"currentPage"`
	TotalPages     int `json:"totalPages"`
	Processed      int `json:"processed"`
	Duplicates     int `json:"duplicates"`
	Matched        int `json:"matched"`
	Skipped        int `json:"skipped"`
	DetailMisses   int `json:"detailMisses"`
	SinkErrors     int `json:"sinkErrors"`
}

// Report is the outcome of Run.
type Report struct {
	RunID       string
	State       status.State
	Stats       RunStats
	Destination string
	// Rejected is set when another run was already active.
	Rejected bool
}

// Snapshot is a read-only view for observers.
type Snapshot struct {
	RunID      string            `json:"runId"`
	State      status.State      `json:"state"`
	Stats      RunStats          `json:"stats"`
	LastError  string            `json:"lastError,omitempty"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	RateWindow *ratelimit.Window `json:"rateWindow,omitempty"` // nil without a rate-limited classifier
}

// rateWindowed is a classifier that reports its rate limit window.
type rateWindowed interface {
	RateWindow() ratelimit.Window
}

type Orchestrator struct {
	deps      Deps
	extractor *scraper.Extractor

	running   atomic.Bool
	cancelled atomic.Bool

	mu         sync.RWMutex
	state      status.State
	runID      string
	stats      RunStats
	lastErr    error
	startedAt  time.Time
	finishedAt time.Time
	stop       context.CancelFunc
	done       chan struct{}
	classifier Classifier
}

func New(deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = ratelimit.RealClock{}
	}
	if deps.Delay == nil {
		deps.Delay = browser.RandomDuration
	}
	if deps.Status == nil {
		deps.Status = status.Log{}
	}
	if deps.Sessions == nil {
		deps.Sessions = session.Static{}
	}
	done := make(chan struct{})
	close(done)
	return &Orchestrator{
		deps:      deps,
		extractor: scraper.NewExtractor(),
		state:     status.StateIdle,
		stop:      func() {},
		done:      done,
	}
}

// Start launches a run in the background. It returns false, changing
// nothing, when a run is already active.
func (o *Orchestrator) Start(ctx context.Context) bool {
	sleepCtx, ok := o.begin(ctx)
	if !ok {
		return false
	}
	go func() {
		if _, err := o.run(ctx, sleepCtx); err != nil {
			log.Printf("❌ Run failed: %v", err)
		}
	}()
	return true
}

// Run executes a run and waits for it. A call while another run is active
// returns a rejected report and no error.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	sleepCtx, ok := o.begin(ctx)
	if !ok {
		return Report{Rejected: true}, nil
	}
	return o.run(ctx, sleepCtx)
}

// Stop asks the active run to end at its next checkpoint. In-flight
// requests finish under their own timeouts.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.cancelled.Store(true)
	stop := o.stop
	o.mu.Unlock()
	stop()
}

// Done is closed when the current run, if any, has finished.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.done
}

func (o *Orchestrator) Status() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	snap := Snapshot{
		RunID:      o.runID,
		State:      o.state,
		Stats:      o.stats,
		StartedAt:  o.startedAt,
		FinishedAt: o.finishedAt,
	}
	if o.lastErr != nil {
		snap.LastError = o.lastErr.Error()
	}
	if rw, ok := o.classifier.(rateWindowed); ok {
		w := rw.RateWindow()
		snap.RateWindow = &w
	}
	return snap
}

// begin claims the orchestrator and resets the run state. It reports false
// when a run is already active. The returned context is cancelled by Stop
// and only guards waits, never network calls.
//
// Claiming and resetting happen under mu, which Stop also holds, so a Stop
// is either seen by the new run or lands before it starts.
func (o *Orchestrator) begin(ctx context.Context) (context.Context, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running.CompareAndSwap(false, true) {
		return nil, false
	}

	sleepCtx, stop := context.WithCancel(ctx)
	o.cancelled.Store(false)
	o.runID = uuid.NewString()
	o.state = status.StateRunning
	o.stats = RunStats{}
	o.lastErr = nil
	o.startedAt = o.deps.Clock.Now()
	o.finishedAt = time.Time{}
	o.stop = stop
	o.done = make(chan struct{})
	o.classifier = nil
	return sleepCtx, true
}

func (o *Orchestrator) run(ctx, sleepCtx context.Context) (Report, error) {
	o.mu.RLock()
	done, stop := o.done, o.stop
	o.mu.RUnlock()
	defer func() {
		stop()
		o.running.Store(false)
		close(done)
	}()

	log.Printf("🚀 Starting run %s", o.Status().RunID)

	st, err := o.deps.Settings.Load(ctx)
	if err != nil {
		return o.fail(ctx, "", fmt.Errorf("load settings: %w", err))
	}
	rc, err := config.BuildRunConfig(st, o.deps.Limits, o.deps.Affirmative)
	if err != nil {
		return o.fail(ctx, "", err)
	}
	if rc.NeedsClassifier() && rc.ClassifierAPIKey == "" {
		return o.fail(ctx, "", ErrMissingAPIKey)
	}

	classifier, release, err := o.deps.Classifiers(ctx, rc)
	if err != nil {
		return o.fail(ctx, "", fmt.Errorf("init classifier: %w", err))
	}
	defer release()
	o.mu.Lock()
	o.classifier = classifier
	o.mu.Unlock()

	dest := rc.DestinationID
	if dest == "" {
		if dest, err = o.deps.Sink.CreateDestination(ctx); err != nil {
			return o.fail(ctx, "", fmt.Errorf("create destination: %w", err))
		}
	}
	if err := o.deps.Sink.VerifyAccess(ctx, dest); err != nil {
		return o.fail(ctx, "", fmt.Errorf("verify destination %s: %w", dest, err))
	}
	log.Printf("💾 Writing results to %s", dest)

	board, err := o.deps.OpenBoard(ctx)
	if err != nil {
		return o.fail(ctx, dest, fmt.Errorf("open job board: %w", err))
	}

	sess, err := o.deps.Sessions.Session(ctx)
	if err != nil {
		log.Printf("⚠️ No session, details will be unavailable: %v", err)
	}

	p := &pass{o: o, ctx: ctx, sleepCtx: sleepCtx, rc: rc, board: board, classifier: classifier, sess: sess, seen: dedup.NewSet()}
	cancelled, err := p.pages()
	if err != nil {
		return o.fail(ctx, dest, err)
	}
	return o.finish(ctx, dest, cancelled)
}

func (o *Orchestrator) isCancelled(ctx context.Context) bool {
	return o.cancelled.Load() || ctx.Err() != nil
}

func (o *Orchestrator) update(fn func(*RunStats)) status.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.stats)
	return o.statusLocked("")
}

func (o *Orchestrator) statusLocked(msg string) status.Status {
	return status.Status{
		RunID:          o.runID,
		State:          o.state,
		Message:        msg,
		CurrentPage:    o.stats.CurrentPage,
		TotalPages:     o.stats.TotalPages,
		ProcessedCount: o.stats.Processed,
		MatchedCount:   o.stats.Matched,
		DuplicateCount: o.stats.Duplicates,
	}
}

func (o *Orchestrator) notify(ctx context.Context, s status.Status) {
	_ = o.deps.Status.Notify(context.WithoutCancel(ctx), s)
}

// finish ends a Completed or Cancelled run: one final status and one sink
// Finish.
func (o *Orchestrator) finish(ctx context.Context, dest string, cancelled bool) (Report, error) {
	state, msg := status.StateCompleted, status.MessageCompleted
	if cancelled {
		state, msg = status.StateCancelled, status.MessageStopped
	}

	o.mu.Lock()
	o.state = state
	o.finishedAt = o.deps.Clock.Now()
	final := o.statusLocked(msg)
	report := Report{RunID: o.runID, State: state, Stats: o.stats, Destination: dest}
	summary := o.summaryLocked(msg)
	o.mu.Unlock()

	o.finishSink(ctx, summary)
	o.notify(ctx, final)
	log.Printf("🏁 Run %s %s: %d processed, %d matched, %d duplicates", report.RunID, msg,
		report.Stats.Processed, report.Stats.Matched, report.Stats.Duplicates)
	return report, nil
}

// fail ends the run as Failed. The error is reported once to the status
// channel and returned. A destination already verified is still finished.
func (o *Orchestrator) fail(ctx context.Context, dest string, err error) (Report, error) {
	o.mu.Lock()
	o.state = status.StateFailed
	o.lastErr = err
	o.finishedAt = o.deps.Clock.Now()
	final := o.statusLocked(err.Error())
	report := Report{RunID: o.runID, State: status.StateFailed, Stats: o.stats, Destination: dest}
	summary := o.summaryLocked(err.Error())
	o.mu.Unlock()

	if dest != "" {
		o.finishSink(ctx, summary)
	}
	o.notify(ctx, final)
	return report, err
}

func (o *Orchestrator) summaryLocked(msg string) sink.Summary {
	return sink.Summary{
		RunID:      o.runID,
		State:      string(o.state),
		Message:    msg,
		Pages:      o.stats.PagesProcessed,
		Processed:  o.stats.Processed,
		Matched:    o.stats.Matched,
		Duplicates: o.stats.Duplicates,
		SinkErrors: o.stats.SinkErrors,
		StartedAt:  o.startedAt,
		FinishedAt: o.finishedAt,
	}
}

func (o *Orchestrator) finishSink(ctx context.Context, s sink.Summary) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := o.deps.Sink.Finish(fctx, s); err != nil {
		log.Printf("⚠️ Failed to finish destination: %v", err)
	}
}
