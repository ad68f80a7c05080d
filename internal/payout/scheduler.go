package payout

import (
	"context"
	"sync"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

//go:generate mockgen -source=scheduler.go -destination=mock_scheduler.go -package=payout

const jobName = "payout-cycle"

// CycleRunner is satisfied by *Engine.
type CycleRunner interface {
	RunPayoutCycle(ctx context.Context, now time.Time) ([]domain.Payout, error)
}

type Scheduler struct {
	runner    CycleRunner
	interval  time.Duration
	scheduler gocron.Scheduler
	now       func() time.Time
	stopOnce  sync.Once
}

func NewScheduler(runner CycleRunner, interval time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(gocronLogger{zap.S()}),
	)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		runner:    runner,
		interval:  interval,
		scheduler: sched,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start runs a cycle right away and then every interval until ctx is done.
// A cycle still running when the next one is due delays it.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.runCycle(ctx) }),
		gocron.WithName(jobName),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		zap.L().Error("failed to register payout job", zap.Error(err))
		return err
	}

	s.scheduler.Start()
	zap.L().Info("payout scheduler started", zap.Duration("interval", s.interval))

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			zap.L().Error("failed to stop payout scheduler", zap.Error(err))
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	var err error
	s.stopOnce.Do(func() {
		err = s.scheduler.Shutdown()
		zap.L().Info("payout scheduler stopped")
	})
	return err
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := s.now()
	payouts, err := s.runner.RunPayoutCycle(ctx, start)
	if err != nil {
		zap.L().Error("payout cycle failed", zap.Error(err))
		return
	}
	zap.L().Info("payout cycle completed",
		zap.Int("payouts", len(payouts)),
		zap.Duration("took", time.Since(start)),
	)
}

type gocronLogger struct {
	log *zap.SugaredLogger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.log.Infow(msg, args...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.log.Warnw(msg, args...) }
func (l gocronLogger) Error(msg string, args ...any) { l.log.Errorw(msg, args...) }
