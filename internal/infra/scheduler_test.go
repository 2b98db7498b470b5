package infra

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipaura/internal/domain"
)

type stubSweeper struct {
	calls    atomic.Int32
	err      error
	deadline bool
}

func (s *stubSweeper) SyncAll(ctx context.Context) (*domain.SweepResult, error) {
	s.calls.Add(1)
	_, s.deadline = ctx.Deadline()
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SweepResult{
		TotalImported: 3,
		UsersSynced:   2,
		Results:       []domain.SyncResult{{Imported: 3, Accounts: 1}, {Error: "login failed"}},
	}, nil
}

func TestScheduler_DisabledWithoutSchedule(t *testing.T) {
	s := NewScheduler(&stubSweeper{}, "", 0, zerolog.Nop())

	assert.False(t, s.Enabled())
	require.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
	s.Stop(context.Background())
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&stubSweeper{}, "every tuesday", 0, zerolog.Nop())

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sweep schedule")
}

func TestScheduler_StartRegistersJob(t *testing.T) {
	s := NewScheduler(&stubSweeper{}, "0 0 */6 * * *", 0, zerolog.Nop())

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_RunNow(t *testing.T) {
	sweeper := &stubSweeper{}
	s := NewScheduler(sweeper, "", time.Minute, zerolog.Nop())

	result, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalImported)
	assert.Equal(t, int32(1), sweeper.calls.Load())
	assert.True(t, sweeper.deadline)
}

func TestScheduler_RunNowError(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("database down")}
	s := NewScheduler(sweeper, "", 0, zerolog.Nop())

	result, err := s.RunNow(context.Background())
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, sweeper.deadline)
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	sweeper := &stubSweeper{}
	s := NewScheduler(sweeper, "* * * * * *", 0, zerolog.Nop())

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
