package relq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Reclaimer is the subset of Queue a Sweeper needs: enough to find orphaned
// entries and put them back to work. Any Queue[ID] satisfies it.
type Reclaimer[ID comparable] interface {
	Orphans(ctx context.Context, threshold time.Duration) ([]*Message[ID], error)
	RequeueSilent(ctx context.Context, msg *Message[ID]) (bool, error)
}

// Sweeper periodically scans a Queue's ephemeral storage for entries taken
// longer than OrphanThreshold ago and puts them back on queue storage via
// RequeueSilent, so a consumer that crashed mid-processing does not strand
// its messages forever.
type Sweeper[ID comparable] struct {
	queue Reclaimer[ID]

	interval  time.Duration
	threshold time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopping atomic.Bool
}

// SweeperOption configures a Sweeper at construction time.
type SweeperOption[ID comparable] func(*Sweeper[ID])

// WithSweepInterval sets how often the sweeper scans for orphans. Default 30s.
func WithSweepInterval[ID comparable](d time.Duration) SweeperOption[ID] {
	return func(s *Sweeper[ID]) { s.interval = d }
}

// WithOrphanThreshold sets the minimum age an ephemeral entry must reach
// before it is reclaimed. Default 5 minutes.
func WithOrphanThreshold[ID comparable](d time.Duration) SweeperOption[ID] {
	return func(s *Sweeper[ID]) { s.threshold = d }
}

// WithSweeperLogger overrides the default slog.Default() logger.
func WithSweeperLogger[ID comparable](logger *slog.Logger) SweeperOption[ID] {
	return func(s *Sweeper[ID]) { s.logger = logger }
}

// NewSweeper builds a Sweeper for queue. It does not start scanning until
// Start is called.
func NewSweeper[ID comparable](queue Reclaimer[ID], opts ...SweeperOption[ID]) (*Sweeper[ID], error) {
	if queue == nil {
		return nil, ErrRepositoryNil
	}

	s := &Sweeper[ID]{
		queue:     queue,
		interval:  30 * time.Second,
		threshold: 5 * time.Minute,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start begins scanning in the background. Calling Start twice without an
// intervening Stop returns an error.
func (s *Sweeper[ID]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return fmt.Errorf("relq: sweeper already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.stopping.Store(false)

	s.wg.Add(1)
	go s.run(runCtx)

	s.logger.Info("sweeper started",
		slog.Duration("interval", s.interval),
		slog.Duration("orphan_threshold", s.threshold))
	return nil
}

// Stop cancels the scan loop and waits for the in-flight scan, if any, to
// finish.
func (s *Sweeper[ID]) Stop() error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return fmt.Errorf("relq: sweeper not started")
	}
	s.stopping.Store(true)
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.logger.Info("sweeper stopped")
	return nil
}

// Run adapts Start/Stop to the errgroup.Group.Go convention.
func (s *Sweeper[ID]) Run(ctx context.Context) func() error {
	return func() error {
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return s.Stop()
	}
}

func (s *Sweeper[ID]) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// sweep reclaims one batch of orphans. A queue whose orphan batch is capped
// (see DefaultOrphanBatchSize) may need several intervals to drain a large
// backlog; that is by design, to bound the work done per tick.
func (s *Sweeper[ID]) sweep(ctx context.Context) error {
	orphans, err := s.queue.Orphans(ctx, s.threshold)
	if err != nil {
		return fmt.Errorf("list orphans: %w", err)
	}

	for _, msg := range orphans {
		ok, err := s.queue.RequeueSilent(ctx, msg)
		if err != nil {
			s.logger.Error("failed to requeue orphan",
				slog.Any("id", msg.ID),
				slog.String("error", err.Error()))
			continue
		}
		if ok {
			s.logger.Debug("reclaimed orphan",
				slog.Any("id", msg.ID),
				slog.Time("timestamp", msg.Timestamp))
		}
	}
	return nil
}
