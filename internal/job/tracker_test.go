package job

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehub/backoffice/internal/db"
)

func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	d, err := db.NewSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestTrackerLifecycle(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(newTestDB(t).DB())

	j := &Job{AdminID: 1, Engine: "mock", SourceLang: "en", TargetLang: "vi", InputLines: 8}
	require.NoError(t, tr.Create(ctx, j))
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, StatusRunning, j.Status)

	tr.UpdateProgress(ctx, j.ID, 0.4)
	got, err := tr.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.4, got.Progress)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, tr.MarkCompleted(ctx, j.ID))
	got, err = tr.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 1.0, got.Progress)
	assert.NotNil(t, got.CompletedAt)
	assert.True(t, got.Status.Terminal())

	// Only one terminal transition per job.
	assert.ErrorIs(t, tr.MarkFailed(ctx, j.ID, "late"), ErrNotFound)
	got, err = tr.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.Error)
}

func TestTrackerFailedKeepsProgress(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(newTestDB(t).DB())

	j := &Job{AdminID: 1, SourceLang: "en", TargetLang: "ja"}
	require.NoError(t, tr.Create(ctx, j))
	tr.UpdateProgress(ctx, j.ID, 0.6)
	require.NoError(t, tr.MarkFailed(ctx, j.ID, "context canceled"))

	got, err := tr.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "context canceled", got.Error)
	assert.Equal(t, 0.6, got.Progress)
}

func TestTrackerGetMissing(t *testing.T) {
	tr := NewTracker(newTestDB(t).DB())
	_, err := tr.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, tr.MarkCompleted(context.Background(), "nope"), ErrNotFound)
}

func TestTrackerList(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(newTestDB(t).DB())
	for _, admin := range []int64{1, 1, 2} {
		require.NoError(t, tr.Create(ctx, &Job{AdminID: admin, SourceLang: "en", TargetLang: "vi"}))
	}

	mine, err := tr.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := tr.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := tr.List(ctx, 0, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestNewTrackerFailsInterruptedJobs(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	tr := NewTracker(d.DB())
	j := &Job{AdminID: 1, SourceLang: "en", TargetLang: "vi"}
	require.NoError(t, tr.Create(ctx, j))

	restarted := NewTracker(d.DB())
	got, err := restarted.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "interrupted by restart", got.Error)
}
