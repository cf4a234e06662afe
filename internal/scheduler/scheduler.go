package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fentz26/taskmaster/internal/engine"
)

// Runner runs one dispatch pass. engine.Processor satisfies it.
type Runner interface {
	Process(ctx context.Context) (engine.Result, error)
}

// Scheduler runs passes periodically. At most one pass runs at a time, whether
// started by the ticker or by RunNow.
type Scheduler struct {
	runner Runner
	config *Config
	logger *zap.Logger

	// passMu serializes passes
	passMu sync.Mutex

	mu        sync.Mutex
	passes    int
	failures  int
	fired     int
	lastRunAt time.Time
	lastError string
	running   bool

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler.
func New(r Runner, cfg *Config, logger *zap.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner: r,
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the scheduler loop.
func (sch *Scheduler) Start() {
	sch.mu.Lock()
	sch.running = true
	sch.mu.Unlock()

	sch.wg.Add(1)
	go sch.schedulerLoop()
	sch.logger.Info("scheduler started", zap.Duration("interval", sch.config.GetInterval()))
}

// Stop gracefully stops the scheduler, waiting for a pass in flight.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()

	sch.mu.Lock()
	sch.running = false
	sch.mu.Unlock()
	sch.logger.Info("scheduler stopped")
}

// schedulerLoop runs a pass on every tick.
func (sch *Scheduler) schedulerLoop() {
	defer sch.wg.Done()

	if sch.config.RunOnStart {
		sch.RunNow(sch.ctx)
	}

	ticker := time.NewTicker(sch.config.GetInterval())
	defer ticker.Stop()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			sch.RunNow(sch.ctx)
		}
	}
}

// RunNow runs a pass immediately, waiting for any pass already in progress.
// Pass errors are logged and counted, and also returned.
func (sch *Scheduler) RunNow(ctx context.Context) (engine.Result, error) {
	sch.passMu.Lock()
	defer sch.passMu.Unlock()

	// Once started, a pass runs to completion.
	res, err := sch.runner.Process(context.WithoutCancel(ctx))

	sch.mu.Lock()
	sch.passes++
	sch.fired += len(res.Firings)
	sch.lastRunAt = time.Now()
	sch.lastError = ""
	if err != nil {
		sch.failures++
		sch.lastError = err.Error()
	}
	sch.mu.Unlock()

	if err != nil {
		sch.logger.Error("pass failed", zap.String("run_id", res.RunID), zap.Error(err))
	}
	return res, err
}

// GetStats returns current scheduler statistics.
func (sch *Scheduler) GetStats() map[string]interface{} {
	sch.mu.Lock()
	defer sch.mu.Unlock()

	stats := map[string]interface{}{
		"running":    sch.running,
		"interval":   sch.config.GetInterval().String(),
		"passes":     sch.passes,
		"failures":   sch.failures,
		"fired":      sch.fired,
		"last_error": sch.lastError,
	}
	if !sch.lastRunAt.IsZero() {
		stats["last_run_at"] = sch.lastRunAt
	}
	return stats
}
