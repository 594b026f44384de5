package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReaper struct{ idle []time.Duration }

func (f *fakeReaper) Reap(idle time.Duration) int {
	f.idle = append(f.idle, idle)
	return 1
}

type fakePruner struct {
	before []time.Time
	err    error
}

func (f *fakePruner) PruneActivities(ctx context.Context, before time.Time) (int64, error) {
	f.before = append(f.before, before)
	return 3, f.err
}

type fakeLimiter struct{ calls int }

func (f *fakeLimiter) Cleanup() int {
	f.calls++
	return 0
}

func TestNewRegistersConfiguredTasks(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	assert.Zero(t, s.Tasks())

	s, err = New(Config{
		Sessions:          &fakeReaper{},
		SessionIdle:       0,
		Activities:        &fakePruner{},
		ActivityRetention: 24 * time.Hour,
		Limiter:           &fakeLimiter{},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Tasks(), "reaping disabled with a zero idle window")

	s, err = New(Config{
		Sessions:          &fakeReaper{},
		SessionIdle:       time.Hour,
		Activities:        &fakePruner{},
		ActivityRetention: 24 * time.Hour,
		Limiter:           &fakeLimiter{},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Tasks())

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestTasksCallCollaborators(t *testing.T) {
	reaper, pruner, limiter := &fakeReaper{}, &fakePruner{}, &fakeLimiter{}
	s, err := New(Config{
		Sessions:          reaper,
		SessionIdle:       30 * time.Minute,
		Activities:        pruner,
		ActivityRetention: 7 * 24 * time.Hour,
		Limiter:           limiter,
	})
	require.NoError(t, err)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.ReapSessions()
	s.PruneActivities(context.Background())
	s.CleanupLimiter()

	assert.Equal(t, []time.Duration{30 * time.Minute}, reaper.idle)
	assert.Equal(t, []time.Time{time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)}, pruner.before)
	assert.Equal(t, 1, limiter.calls)

	pruner.err = errors.New("locked")
	assert.NotPanics(t, func() { s.PruneActivities(context.Background()) })
}
