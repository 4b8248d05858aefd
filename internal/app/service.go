// Package service holds the per-session state of the medal dashboard: the
// canonical table loaded once at start, the filter domain derived from it,
// and the save path that writes edits back to the remote store.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/medalboard/internal/adapters/mq/queue"
	"github.com/okian/medalboard/internal/adapters/mq/worker"
	"github.com/okian/medalboard/internal/adapters/repository"
	"github.com/okian/medalboard/internal/domain/dedupe"
	"github.com/okian/medalboard/internal/domain/filter"
	"github.com/okian/medalboard/internal/domain/model"
	"github.com/okian/medalboard/internal/domain/normalize"
	"github.com/okian/medalboard/internal/domain/reconcile"
	"github.com/okian/medalboard/internal/domain/views"
	"github.com/okian/medalboard/pkg/logger"
	"github.com/okian/medalboard/pkg/metrics"
)

// pendingEdit is a save that failed against the store and can be retried.
type pendingEdit struct {
	key    string
	sel    filter.Selection
	edited []model.Record
	err    error
}

// Service is the session-scoped context. It fetches the remote table once in
// Start and serves every later read from memory.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	reconciler *reconcile.Reconciler
	saves      dedupe.Deduper[reconcile.Result]

	// Write-back: every save goes through jobs and is applied by writer.
	jobs        *queue.InMemoryQueue[worker.Job]
	writer      *worker.Writer
	stopWriting context.CancelFunc

	// Configuration
	saveMode        reconcile.Mode
	topN            int
	storeTimeout    time.Duration
	idempotencySize int
	queueCapacity   int

	// State
	started   bool
	sessionID string
	canonical model.Table
	domain    filter.Domain
	loadedAt  time.Time
	lastSave  *reconcile.Result
	pending   *pendingEdit

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		saveMode:        reconcile.ModeMerge,
		topN:            views.DefaultTopN,
		storeTimeout:    15 * time.Second,
		idempotencySize: 1024,
		queueCapacity:   16,
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.reconciler = reconcile.New(s.saveMode)
	s.saves = dedupe.NewInMemoryDeduper[reconcile.Result](dedupe.WithMaxSize(s.idempotencySize))
	return s
}

// Start performs the single load of the session. Any failure is a
// *normalize.LoadError and the session stays unusable.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		return normalize.NewFetchError(errors.New("no store configured"))
	}

	s.sessionID = uuid.NewString()
	s.logger.Info(ctx, "loading medal table",
		logger.String("session", s.sessionID),
		logger.String("store", s.store.Name()),
	)

	start := time.Now()
	table, err := s.load(ctx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordLoad(s.store.Name(), metrics.OutcomeFailure, elapsed)
		metrics.RecordErrorByComponent("normalize", "load")
		s.logger.Error(ctx, "medal table load failed", logger.Error(err))
		return err
	}
	metrics.RecordLoad(s.store.Name(), metrics.OutcomeSuccess, elapsed)

	s.setCanonical(table)
	s.startWriter(ctx)
	s.started = true
	s.logger.Info(ctx, "medal table loaded",
		logger.Int("records", table.Len()),
		logger.Int("countries", len(s.domain.Countries)),
		logger.Int("years", len(s.domain.Years)),
		logger.String("saveMode", string(s.saveMode)),
	)
	return nil
}

func (s *Service) load(ctx context.Context) (model.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	sheet, err := s.store.Fetch(ctx)
	if err != nil {
		return model.Table{}, normalize.NewFetchError(err)
	}
	return normalize.Normalize(sheet)
}

// setCanonical must be called with mu held.
func (s *Service) setCanonical(t model.Table) {
	s.canonical = t
	s.domain = filter.DomainOf(t)
	s.loadedAt = time.Now()
	metrics.UpdateDataset(t.Len(), len(s.domain.Countries), len(s.domain.Years))
}

// startWriter must be called with mu held. The writer outlives the Start
// context's cancellation but keeps its values.
func (s *Service) startWriter(ctx context.Context) {
	s.jobs = queue.NewInMemoryQueue[worker.Job](queue.WithCapacity(s.queueCapacity))
	s.writer = worker.NewWriter(s.jobs, s, worker.WithLogger(s.logger.Named("writer")))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopWriting = cancel
	go s.writer.Run(runCtx)
}

// Stop drains queued saves and releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	jobs, writer, cancel := s.jobs, s.writer, s.stopWriting
	s.mu.Unlock()

	// Queued saves run to completion; after the deadline they are dropped.
	ctx, done := context.WithTimeout(context.Background(), s.storeTimeout)
	defer done()
	_ = jobs.Close()
	if err := writer.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "write-back queue not drained", logger.Error(err))
	}
	cancel()

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
	}

	s.logger.Info(context.Background(), "medal session stopped", logger.String("session", s.sessionID))
}

// Options returns the filter domain of the canonical table.
func (s *Service) Options() filter.Domain {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.domain
}

// Canonical returns a copy of the full session table.
func (s *Service) Canonical() model.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canonical.Clone()
}

// Table returns the rows of the canonical table that sel matches.
func (s *Service) Table(sel filter.Selection) model.Table {
	s.mu.RLock()
	canonical := s.canonical
	s.mu.RUnlock()

	t := filter.Apply(canonical, sel)
	metrics.RecordFilteredRecords(t.Len())
	return t
}

// Views builds every chart view for sel.
func (s *Service) Views(sel filter.Selection) views.Dashboard {
	t := s.Table(sel)

	start := time.Now()
	d := views.Build(t, s.topN)
	metrics.RecordViewBuild("all", float64(time.Since(start).Microseconds())/1000)
	return d
}

// TopN is the configured number of ranked countries.
func (s *Service) TopN() int { return s.topN }

// SaveMode is the configured reconcile mode.
func (s *Service) SaveMode() reconcile.Mode { return s.saveMode }

// Save writes the edited filtered table back. A non-empty key makes the call
// idempotent: a repeated key returns the first outcome without writing.
// On a store failure the edit is kept and RetrySave can replay it. Saves
// are queued behind each other; a full queue returns worker.ErrBusy.
func (s *Service) Save(ctx context.Context, key string, sel filter.Selection, edited []model.Record) (reconcile.Result, error) {
	jobs, err := s.writeQueue()
	if err != nil {
		return reconcile.Result{}, err
	}
	return worker.Submit(ctx, jobs, worker.Job{Key: key, Sel: sel, Edited: cloneRecords(edited)})
}

// RetrySave replays the last failed save.
func (s *Service) RetrySave(ctx context.Context) (reconcile.Result, error) {
	jobs, err := s.writeQueue()
	if err != nil {
		return reconcile.Result{}, err
	}
	if !s.HasPendingEdit() {
		return reconcile.Result{}, reconcile.ErrNoPending
	}
	return worker.Submit(ctx, jobs, worker.Job{Retry: true})
}

func (s *Service) writeQueue() (*queue.InMemoryQueue[worker.Job], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.jobs, nil
}

// HandleSave applies one queued save. It runs on the writer goroutine only.
func (s *Service) HandleSave(ctx context.Context, job worker.Job) (reconcile.Result, error) {
	if !job.Retry {
		return s.save(ctx, job.Key, job.Sel, job.Edited)
	}

	s.mu.RLock()
	p := s.pending
	s.mu.RUnlock()
	if p == nil {
		return reconcile.Result{}, reconcile.ErrNoPending
	}
	s.logger.Info(ctx, "retrying pending save", logger.Int("rows", len(p.edited)))
	return s.save(ctx, p.key, p.sel, p.edited)
}

// save runs on the writer goroutine.
func (s *Service) save(ctx context.Context, key string, sel filter.Selection, edited []model.Record) (reconcile.Result, error) {
	s.mu.RLock()
	canonical := s.canonical
	s.mu.RUnlock()

	mode := string(s.reconciler.Mode())
	if key != "" {
		if prev, ok := s.saves.Seen(ctx, key); ok {
			metrics.RecordSave(s.store.Name(), mode, metrics.OutcomeReplay, 0)
			s.logger.Debug(ctx, "save replayed", logger.String("key", key))
			return prev, nil
		}
	}

	wctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	written, err := s.reconciler.Save(wctx, s.store, canonical, sel, edited)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		if errors.Is(err, reconcile.ErrPersist) {
			s.mu.Lock()
			s.pending = &pendingEdit{key: key, sel: sel, edited: cloneRecords(edited), err: err}
			s.mu.Unlock()
			metrics.RecordSave(s.store.Name(), mode, metrics.OutcomeFailure, elapsed)
			metrics.SetPendingEdit(true)
			metrics.RecordErrorByComponent("reconcile", "persist")
			s.logger.Error(ctx, "save failed, edit kept for retry",
				logger.String("store", s.store.Name()),
				logger.Error(err),
			)
		}
		return reconcile.Result{}, err
	}

	res := reconcile.Result{Rows: written.Len(), Mode: mode, SavedAt: time.Now().UTC()}
	s.mu.Lock()
	s.setCanonical(written)
	s.pending = nil
	s.lastSave = &res
	s.mu.Unlock()

	if key != "" {
		s.saves.Record(ctx, key, res)
	}
	metrics.RecordSave(s.store.Name(), mode, metrics.OutcomeSuccess, elapsed)
	metrics.UpdateSavedRows(res.Rows)
	metrics.SetPendingEdit(false)
	s.logger.Info(ctx, "medal table saved",
		logger.Int("rows", res.Rows),
		logger.String("mode", mode),
		logger.Bool("idempotent", key != ""),
	)
	return res, nil
}

// HasPendingEdit reports whether a failed save awaits retry.
func (s *Service) HasPendingEdit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending != nil
}

// GetStats returns session statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"sessionId":       s.sessionID,
		"saveMode":        string(s.saveMode),
		"topN":            s.topN,
		"idempotencySize": s.idempotencySize,
		"idempotencyKeys": s.saves.Size(),
		"pendingEdit":     s.pending != nil,
		"queueCapacity":   s.queueCapacity,
	}
	if s.store != nil {
		stats["store"] = s.store.Name()
	}

	if s.started {
		stats["records"] = s.canonical.Len()
		stats["countries"] = len(s.domain.Countries)
		stats["years"] = len(s.domain.Years)
		stats["loadedAt"] = s.loadedAt.UTC().Format(time.RFC3339)
		stats["queuedSaves"] = s.jobs.Len(context.Background())
	}
	if s.lastSave != nil {
		stats["lastSave"] = *s.lastSave
	}
	if s.pending != nil {
		stats["pendingError"] = s.pending.err.Error()
	}

	metrics.SampleRuntime()
	return stats
}

func cloneRecords(recs []model.Record) []model.Record {
	out := make([]model.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
