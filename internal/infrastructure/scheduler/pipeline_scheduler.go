package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dorahyong/buyma/internal/application/reconciliation"
	"github.com/dorahyong/buyma/internal/application/registration"
)

// RegistrationRunner executes one registration batch
type RegistrationRunner interface {
	RunBatch(ctx context.Context) (*registration.BatchResult, error)
}

// ReconciliationRunner executes one reconciliation pass
type ReconciliationRunner interface {
	RunPass(ctx context.Context) (*reconciliation.PassResult, error)
}

// LoopName identifies one of the pipeline's periodic loops
type LoopName string

const (
	LoopRegistration   LoopName = "registration"
	LoopReconciliation LoopName = "reconciliation"
)

// LoopConfig holds settings for one periodic loop
type LoopConfig struct {
	Enabled  bool
	Interval time.Duration
}

// PipelineSchedulerConfig holds configuration for the pipeline scheduler
type PipelineSchedulerConfig struct {
	Registration   LoopConfig
	Reconciliation LoopConfig
	// RunTimeout bounds a single batch or pass
	RunTimeout time.Duration
}

// DefaultPipelineSchedulerConfig returns default scheduler configuration
func DefaultPipelineSchedulerConfig() PipelineSchedulerConfig {
	return PipelineSchedulerConfig{
		Registration:   LoopConfig{Enabled: true, Interval: 10 * time.Minute},
		Reconciliation: LoopConfig{Enabled: true, Interval: time.Hour},
		RunTimeout:     30 * time.Minute,
	}
}

// Validate validates the configuration
func (c *PipelineSchedulerConfig) Validate() error {
	if c.Registration.Enabled && c.Registration.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.Reconciliation.Enabled && c.Reconciliation.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// RunRecord is the stored outcome of one loop run
type RunRecord struct {
	Loop        LoopName                   `json:"loop"`
	StartedAt   time.Time                  `json:"started_at"`
	CompletedAt time.Time                  `json:"completed_at"`
	Error       string                     `json:"error,omitempty"`
	Batch       *registration.BatchResult  `json:"batch,omitempty"`
	Pass        *reconciliation.PassResult `json:"pass,omitempty"`
}

// PipelineScheduler drives the registration and reconciliation loops at
// fixed intervals. Each loop runs at most one batch or pass at a time;
// manual triggers share the same overlap guard.
type PipelineScheduler struct {
	config         PipelineSchedulerConfig
	registration   RegistrationRunner
	reconciliation ReconciliationRunner
	logger         *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	regMu   sync.Mutex
	reconMu sync.Mutex

	// Run history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*RunRecord
	maxHistory int
}

// NewPipelineScheduler creates a new pipeline scheduler
func NewPipelineScheduler(
	config PipelineSchedulerConfig,
	registrationRunner RegistrationRunner,
	reconciliationRunner ReconciliationRunner,
	logger *zap.Logger,
) (*PipelineScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineScheduler{
		config:         config,
		registration:   registrationRunner,
		reconciliation: reconciliationRunner,
		logger:         logger,
		history:        make([]*RunRecord, 0, 100),
		maxHistory:     100,
	}, nil
}

// Start starts the enabled loops
func (s *PipelineScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.config.Registration.Enabled {
		s.wg.Add(1)
		go s.runLoop(ctx, LoopRegistration, s.config.Registration.Interval, func(ctx context.Context) error {
			_, err := s.runRegistration(ctx)
			return err
		})
	}
	if s.config.Reconciliation.Enabled {
		s.wg.Add(1)
		go s.runLoop(ctx, LoopReconciliation, s.config.Reconciliation.Interval, func(ctx context.Context) error {
			_, err := s.runReconciliation(ctx)
			return err
		})
	}

	s.logger.Info("Pipeline scheduler started",
		zap.Bool("registration_enabled", s.config.Registration.Enabled),
		zap.Duration("registration_interval", s.config.Registration.Interval),
		zap.Bool("reconciliation_enabled", s.config.Reconciliation.Enabled),
		zap.Duration("reconciliation_interval", s.config.Reconciliation.Interval),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *PipelineScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	// Wait for loops to finish with timeout
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Pipeline scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Pipeline scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerRegistration runs one registration batch outside the ticker, for
// operator use
func (s *PipelineScheduler) TriggerRegistration(ctx context.Context) (*registration.BatchResult, error) {
	return s.runRegistration(ctx)
}

// TriggerReconciliation runs one reconciliation pass outside the ticker,
// for operator use
func (s *PipelineScheduler) TriggerReconciliation(ctx context.Context) (*reconciliation.PassResult, error) {
	return s.runReconciliation(ctx)
}

// RecentRuns returns recent loop outcomes, newest first
func (s *PipelineScheduler) RecentRuns(limit int) []*RunRecord {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*RunRecord, limit)
	copy(result, s.history[:limit])
	return result
}

// runLoop runs fn immediately and then on every tick until the context is
// cancelled
func (s *PipelineScheduler) runLoop(ctx context.Context, name LoopName, interval time.Duration, fn func(context.Context) error) {
	defer s.wg.Done()

	s.logger.Debug("Loop started", zap.String("loop", string(name)))
	s.runOnce(ctx, name, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Loop stopping", zap.String("loop", string(name)))
			return
		case <-ticker.C:
			s.runOnce(ctx, name, fn)
		}
	}
}

func (s *PipelineScheduler) runOnce(ctx context.Context, name LoopName, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.logger.Debug("Loop tick skipped, previous run still active",
				zap.String("loop", string(name)))
			return
		}
		s.logger.Error("Loop run failed", zap.String("loop", string(name)), zap.Error(err))
	}
}

func (s *PipelineScheduler) runRegistration(ctx context.Context) (*registration.BatchResult, error) {
	if !s.regMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.regMu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	record := &RunRecord{Loop: LoopRegistration, StartedAt: time.Now()}
	result, err := s.registration.RunBatch(runCtx)
	record.CompletedAt = time.Now()
	record.Batch = result
	if err != nil {
		record.Error = err.Error()
	}
	s.addToHistory(record)
	return result, err
}

func (s *PipelineScheduler) runReconciliation(ctx context.Context) (*reconciliation.PassResult, error) {
	if !s.reconMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.reconMu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	record := &RunRecord{Loop: LoopReconciliation, StartedAt: time.Now()}
	result, err := s.reconciliation.RunPass(runCtx)
	record.CompletedAt = time.Now()
	record.Pass = result
	if err != nil {
		record.Error = err.Error()
	}
	s.addToHistory(record)
	return result, err
}

// addToHistory adds a completed run to history
func (s *PipelineScheduler) addToHistory(record *RunRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	// Add to front
	s.history = append([]*RunRecord{record}, s.history...)

	// Trim if over limit
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}
