package payout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/heistledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func newTestScheduler(t *testing.T, interval time.Duration) (*Scheduler, *MockCycleRunner) {
	ctrl := gomock.NewController(t)
	runner := NewMockCycleRunner(ctrl)
	s, err := NewScheduler(runner, interval)
	require.NoError(t, err)
	return s, runner
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	s, runner := newTestScheduler(t, time.Hour)
	ran := make(chan struct{}, 1)

	runner.EXPECT().RunPayoutCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) ([]domain.Payout, error) {
			signal(ran)
			return nil, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("payout cycle did not run after start")
	}
	assert.NoError(t, s.Shutdown())
}

func TestScheduler_RepeatsEveryInterval(t *testing.T) {
	s, runner := newTestScheduler(t, 50*time.Millisecond)
	ran := make(chan struct{}, 8)

	runner.EXPECT().RunPayoutCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, now time.Time) ([]domain.Payout, error) {
			assert.Equal(t, time.UTC, now.Location())
			signal(ran)
			return []domain.Payout{{ID: 1}}, nil
		}).MinTimes(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("payout cycle %d did not run", i+1)
		}
	}
	require.NoError(t, s.Shutdown())
}

func TestScheduler_StopsWithContext(t *testing.T) {
	s, runner := newTestScheduler(t, time.Hour)
	ran := make(chan struct{}, 1)

	runner.EXPECT().RunPayoutCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) ([]domain.Payout, error) {
			signal(ran)
			return nil, errors.New("db error")
		})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	<-ran
	cancel()

	// the second call is a no-op once the context watcher has shut it down
	assert.Eventually(t, func() bool { return s.Shutdown() == nil }, time.Second, 10*time.Millisecond)
}

func TestScheduler_runCycleSkipsCanceledContext(t *testing.T) {
	s, _ := newTestScheduler(t, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.runCycle(ctx)
}
