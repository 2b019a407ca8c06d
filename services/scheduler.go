package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	lockJobInterval      = time.Minute
	limiterPruneInterval = 10 * time.Minute
	limiterIdleTimeout   = 5 * time.Minute
	jobTimeout           = 30 * time.Second
)

type GameLocker interface {
	LockDueGames(ctx context.Context) (int64, error)
}

type BucketPruner interface {
	Prune(idle time.Duration) int
}

// Scheduler runs the periodic jobs: locking games ahead of tipoff and
// forgetting idle rate-limiter buckets.
type Scheduler struct {
	sched  gocron.Scheduler
	locker GameLocker
	pruner BucketPruner
	logger *slog.Logger
}

func NewScheduler(locker GameLocker, pruner BucketPruner, logger *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{sched: sched, locker: locker, pruner: pruner, logger: logger}, nil
}

// Run registers the jobs and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(lockJobInterval),
		gocron.NewTask(func() { s.lockTick(ctx) }),
		gocron.WithName("lock-due-games"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule lock job: %w", err)
	}

	_, err = s.sched.NewJob(
		gocron.DurationJob(limiterPruneInterval),
		gocron.NewTask(func() { s.pruneTick() }),
		gocron.WithName("prune-chat-limiter"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule prune job: %w", err)
	}

	s.sched.Start()
	s.logger.Info("scheduler started", slog.Duration("lock_interval", lockJobInterval))

	<-ctx.Done()
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) lockTick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	if _, err := s.locker.LockDueGames(ctx); err != nil {
		s.logger.Error("scheduler: lock job failed", slog.Any("error", err))
	}
}

func (s *Scheduler) pruneTick() {
	if n := s.pruner.Prune(limiterIdleTimeout); n > 0 {
		s.logger.Debug("scheduler: pruned idle limiter buckets", slog.Int("count", n))
	}
}
