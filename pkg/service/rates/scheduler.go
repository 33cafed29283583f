package rates

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler triggers periodic update cycles. Start and Stop are
// idempotent; a tick that arrives while the previous cycle is still
// running is skipped rather than queued.
type Scheduler struct {
	aggregator *Aggregator
	interval   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running atomic.Bool // guards against overlapping cycles
}

// NewScheduler creates a scheduler driving the aggregator at the given
// interval.
func NewScheduler(aggregator *Aggregator, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		aggregator: aggregator,
		interval:   interval,
		logger:     logger,
	}
}

// Start launches the refresh loop. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.logger.Debug("scheduler already running")
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.logger.Info("scheduler started", "interval", s.interval)
	go s.loop(ctx, s.stop, s.done)
}

// Stop halts the refresh loop and waits for it to exit. Calling Stop on a
// stopped scheduler is a no-op. An in-flight cycle finishes on its own;
// Stop does not cancel it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return
	}
	stop, done := s.stop, s.done
	s.stop = nil
	s.done = nil
	s.mu.Unlock()

	close(stop)
	<-done
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one cycle unless the previous one is still in flight. Cycle
// errors are logged, never propagated; the loop keeps ticking.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous update cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	if _, err := s.aggregator.RunUpdate(ctx); err != nil {
		s.logger.Error("scheduled update cycle failed", "error", err)
	}
}
