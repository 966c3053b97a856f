// Package service orchestrates report runs: it loads input files, prepares
// the dataset, runs the classification engine and archives results.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/forceplate/internal/adapters/mq/queue"
	"github.com/okian/forceplate/internal/adapters/mq/worker"
	"github.com/okian/forceplate/internal/adapters/repository"
	"github.com/okian/forceplate/internal/adapters/source"
	"github.com/okian/forceplate/internal/config"
	"github.com/okian/forceplate/internal/domain/engine"
	"github.com/okian/forceplate/internal/domain/prepare"
	"github.com/okian/forceplate/internal/domain/rules"
	"github.com/okian/forceplate/internal/domain/types"
	"github.com/okian/forceplate/pkg/logger"
	"github.com/okian/forceplate/pkg/metrics"
)

// Service runs classification reports and keeps recent ones in an archive.
type Service struct {
	mu sync.RWMutex

	// Core components
	preparer *prepare.Preparer
	engine   *engine.Engine
	archive  repository.Store
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	// Configuration
	teamName       string
	phase          string
	nextPhase      string
	reportHistory  int
	workerCount    int
	queueSize      int
	preparerOpts   []prepare.Option
	engineOpts     []engine.Option
	archiveOptions []repository.Option

	// State
	started bool
	runs    int
	lastRun time.Time

	// Logging
	logger logger.Logger
	now    func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTeamName sets the team printed in report headers.
func WithTeamName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.teamName = name
		}
	}
}

// WithTrainingPhase sets the current and upcoming training phases printed
// in report headers. Empty values leave the lines out.
func WithTrainingPhase(phase, next string) Option {
	return func(s *Service) {
		s.phase = phase
		s.nextPhase = next
	}
}

// WithReportHistory bounds the number of archived reports.
func WithReportHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.reportHistory = n
		}
	}
}

// WithWorkerCount sets the number of report workers in server mode.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize bounds the number of report jobs waiting for a worker.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithPreparerOptions configures ingestion.
func WithPreparerOptions(opts ...prepare.Option) Option {
	return func(s *Service) {
		s.preparerOpts = append(s.preparerOpts, opts...)
	}
}

// WithEngineOptions configures classification.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithArchive replaces the in-memory archive created by Start.
func WithArchive(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.archive = store
		}
	}
}

// WithArchiveOptions configures the archive created by Start.
func WithArchiveOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.archiveOptions = append(s.archiveOptions, opts...)
	}
}

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. Preparer and engine are built immediately so
// that one-shot CLI runs do not need Start. Without WithLogger the global
// logger must be initialized first.
func New(opts ...Option) *Service {
	s := &Service{
		teamName:      "Team",
		reportHistory: repository.DefaultCapacity,
		workerCount:   worker.DefaultWorkers,
		queueSize:     queue.DefaultCapacity,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.preparer = prepare.New(s.preparerOpts...)
	s.engine = engine.New(s.engineOpts...)
	return s
}

// FromConfig builds the service options described by cfg.
func FromConfig(cfg *config.Config) ([]Option, error) {
	popts, err := cfg.Analysis.PreparerOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	eopts, err := cfg.Analysis.EngineOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return []Option{
		WithTeamName(cfg.TeamName),
		WithTrainingPhase(cfg.TrainingPhase, cfg.NextPhase),
		WithReportHistory(cfg.ReportHistory),
		WithWorkerCount(cfg.ReportWorkers),
		WithQueueSize(cfg.QueueSize),
		WithPreparerOptions(popts...),
		WithEngineOptions(eopts...),
	}, nil
}

// Start initializes server-mode components: the archive and the report
// worker pool. Workers outlive ctx so that in-flight requests can finish
// during shutdown; Stop drains and ends them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting report service...")

	if s.archive == nil {
		opts := append([]repository.Option{repository.WithCapacity(s.reportHistory)}, s.archiveOptions...)
		s.archive = repository.NewArchive(opts...)
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.logger.Named("worker"))
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "report service started",
		logger.Int("reportHistory", s.reportHistory),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.Int("categories", s.engine.Table().Len()),
	)
	return nil
}

// Stop drains queued jobs and stops the workers. Archived reports are kept.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool := s.pool
	s.mu.Unlock()

	ctx := context.Background()
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.logger.Info(ctx, "report service stopped")
}

// TeamName returns the configured team.
func (s *Service) TeamName() string { return s.teamName }

// Header returns the configured report header.
func (s *Service) Header() repository.Header {
	return repository.Header{Team: s.teamName, Phase: s.phase, NextPhase: s.nextPhase}
}

// withDefaults fills the empty fields of h from the configured header.
func (s *Service) withDefaults(h repository.Header) repository.Header {
	def := s.Header()
	if h.Team == "" {
		h.Team = def.Team
	}
	if h.Phase == "" {
		h.Phase = def.Phase
	}
	if h.NextPhase == "" {
		h.NextPhase = def.NextPhase
	}
	return h
}

// Table returns the effective rule table.
func (s *Service) Table() *rules.Table { return s.engine.Table() }

// Load reads the present input files concurrently. A file without a
// header row is treated as absent so the run continues on the remaining
// data; if that leaves neither CMJ nor IMTP, Load fails with ErrNoTestData.
func (s *Service) Load(ctx context.Context, files source.Files) (prepare.Input, error) {
	if files.CMJ == nil && files.IMTP == nil {
		return prepare.Input{}, ErrNoTestData
	}
	var in prepare.Input
	g, gctx := errgroup.WithContext(ctx)
	read := func(f *source.File, dst **prepare.Table) {
		if f == nil {
			return
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tbl, err := f.Open()
			if errors.Is(err, source.ErrEmptyFile) {
				s.logger.Warn(gctx, "skipping empty input file", logger.String("file", f.Name))
				return nil
			}
			if err != nil {
				return err
			}
			*dst = tbl
			return nil
		})
	}
	read(files.CMJ, &in.CMJ)
	read(files.IMTP, &in.IMTP)
	read(files.Roster, &in.Roster)
	if err := g.Wait(); err != nil {
		metrics.RecordReportFailure("load")
		metrics.RecordErrorByComponent("service", "load")
		return prepare.Input{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if in.CMJ == nil && in.IMTP == nil {
		metrics.RecordReportFailure("load")
		return prepare.Input{}, fmt.Errorf("%w: %w", ErrNoTestData, source.ErrEmptyFile)
	}
	return in, nil
}

// Run prepares in and classifies the resulting dataset.
func (s *Service) Run(ctx context.Context, in prepare.Input) *types.Result {
	start := time.Now()
	ds, qc := s.preparer.Prepare(in)
	s.logger.Info(ctx, "dataset prepared",
		logger.Int("records", len(ds.Records)),
		logger.Int("athletes", len(ds.Athletes)),
		logger.Int("excludedRows", qc.Excluded()),
		logger.String("windowStart", types.FormatDate(ds.WindowStart)),
		logger.String("windowEnd", types.FormatDate(ds.WindowEnd)),
	)
	if len(qc.MissingTestTypes) > 0 {
		s.logger.Warn(ctx, "test types without data", logger.Strings("testTypes", qc.MissingTestTypes))
	}

	res := s.engine.Evaluate(ds)
	res.QC.Ingestion = qc
	elapsed := time.Since(start)

	recordRun(ds.Records, res, elapsed)
	s.mu.Lock()
	s.runs++
	s.lastRun = s.now()
	s.mu.Unlock()

	s.logger.Info(ctx, "classification finished",
		logger.Int("athletes", res.Summary.TotalAthletes),
		logger.Int("analyzed", res.Summary.AthletesAnalyzed),
		logger.Int("flagged", res.Summary.AthletesFlagged),
		logger.Int("categoriesFlagged", res.Summary.CategoriesFlagged),
		logger.Duration("elapsed", elapsed),
	)
	return res
}

// Report loads files and runs one classification.
func (s *Service) Report(ctx context.Context, files source.Files) (*types.Result, error) {
	in, err := s.Load(ctx, files)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, in), nil
}

// CreateReport queues a classification run and waits for the archived
// report. Empty header fields take the configured values. A full queue
// yields queue.ErrFull without waiting.
func (s *Service) CreateReport(ctx context.Context, h repository.Header, files source.Files) (repository.Report, error) {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started || q == nil {
		return repository.Report{}, ErrNotStarted
	}
	if files.CMJ == nil && files.IMTP == nil {
		return repository.Report{}, ErrNoTestData
	}

	job := queue.NewJob(h, files)
	if !q.Enqueue(ctx, job) {
		if q.IsClosed() {
			return repository.Report{}, ErrNotStarted
		}
		if err := ctx.Err(); err != nil {
			return repository.Report{}, err
		}
		s.logger.Warn(ctx, "report queue full", logger.Int("capacity", q.Capacity()))
		return repository.Report{}, queue.ErrFull
	}

	select {
	case out := <-job.Done():
		return out.Report, out.Err
	case <-ctx.Done():
		return repository.Report{}, ctx.Err()
	}
}

// Process runs one queued job and archives the result. It is called by
// the worker pool.
func (s *Service) Process(ctx context.Context, job *queue.Job) (repository.Report, error) {
	store, err := s.store()
	if err != nil {
		return repository.Report{}, err
	}
	res, err := s.Report(ctx, job.Files)
	if err != nil {
		return repository.Report{}, err
	}
	rep, err := store.Put(ctx, s.withDefaults(job.Header), job.Files.Labels(), res)
	if err != nil {
		metrics.RecordErrorByComponent("archive", "put")
		return repository.Report{}, err
	}
	s.logger.Info(ctx, "report archived",
		logger.String("id", rep.ID),
		logger.String("jobID", job.ID),
	)
	return rep, nil
}

// GetReport returns an archived report.
func (s *Service) GetReport(ctx context.Context, id string) (repository.Report, error) {
	store, err := s.store()
	if err != nil {
		return repository.Report{}, err
	}
	return store.Get(ctx, id)
}

// ListReports returns recent archived reports, newest first.
func (s *Service) ListReports(ctx context.Context, limit int) ([]repository.Summary, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.List(ctx, limit)
}

func (s *Service) store() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.archive == nil {
		return nil, ErrNotStarted
	}
	return s.archive, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"team":       s.teamName,
		"runs":       s.runs,
		"categories": s.engine.Table().Len(),
		"parameters": s.engine.Parameters(),
	}
	if !s.lastRun.IsZero() {
		stats["lastRun"] = s.lastRun.UTC().Format(time.RFC3339)
	}
	if s.archive != nil {
		stats["archivedReports"] = s.archive.Count(context.Background())
	}
	if s.started {
		stats["workers"] = s.pool.Size()
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["queueCapacity"] = s.queue.Capacity()
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	return stats
}
