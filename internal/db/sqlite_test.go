package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinehub/backoffice/internal/auth"
	"github.com/cinehub/backoffice/internal/db/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func createUser(t *testing.T, d *Database, username, role string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "hash", Role: role, IsActive: true}
	require.NoError(t, d.CreateUser(context.Background(), u))
	return u
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	created, err := d.EnsureAdmin(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = d.EnsureAdmin(ctx, "admin", "secret")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := d.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, u.IsActive)
	assert.True(t, auth.CheckPassword("secret", u.Password))
}

func TestUserCRUD(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	u := createUser(t, d, "alice", models.RoleEditor)
	assert.NotZero(t, u.ID)

	dup := &models.User{Username: "alice", Password: "x", Role: models.RoleViewer}
	assert.ErrorIs(t, d.CreateUser(ctx, dup), ErrDuplicate)

	byLogin, err := d.GetUserByLogin(ctx, " alice@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byLogin.ID)

	roles, err := d.GetUserRoles(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleEditor}, roles)

	first, role := "Alice", models.RoleAdmin
	updated, err := d.UpdateUser(ctx, u.ID, models.UserUpdate{FirstName: &first, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "alice@example.com", updated.Email)

	admins, err := d.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, admins)

	last, hash := "Nguyen", "newhash"
	updated, err = d.UpdateUser(ctx, u.ID, models.UserUpdate{LastName: &last, PasswordHash: &hash})
	require.NoError(t, err)
	got, err := d.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.Password)
	assert.Equal(t, "Nguyen", got.LastName)
	assert.Equal(t, "Alice", got.FirstName, "fields left nil keep their value")

	require.NoError(t, d.DeleteUser(ctx, u.ID))
	_, err = d.GetUserByID(ctx, u.ID)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, d.DeleteUser(ctx, u.ID), ErrNotFound)
	_, err = d.UpdateUser(ctx, u.ID, models.UserUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountAdminsIgnoresInactive(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	u := createUser(t, d, "root", models.RoleAdmin)
	createUser(t, d, "bob", models.RoleViewer)

	inactive := false
	_, err := d.UpdateUser(ctx, u.ID, models.UserUpdate{IsActive: &inactive})
	require.NoError(t, err)

	n, err := d.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, err := d.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	users, err := d.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "root", users[0].Username)
}

func TestMovieCRUD(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	m := &models.Movie{Title: "Arrival", Genre: "Sci-Fi", ReleaseYear: 2016, VideoPath: "/uploads/movies/a.mp4", Duration: 6960}
	require.NoError(t, d.CreateMovie(ctx, m))
	assert.NotZero(t, m.ID)

	got, err := d.GetMovie(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", got.Title)
	assert.Equal(t, 6960.0, got.Duration)

	got.Title = "Arrival (2016)"
	require.NoError(t, d.UpdateMovie(ctx, got))

	list, err := d.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Arrival (2016)", list[0].Title)

	n, err := d.CountMovies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, d.DeleteMovie(ctx, m.ID))
	_, err = d.GetMovie(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, d.UpdateMovie(ctx, got), ErrNotFound)
}

func TestActivities(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.InsertActivity(ctx, 1, "Admin Access", "Accessed Analytics", "127.0.0.1"))
	}
	require.NoError(t, d.InsertActivity(ctx, 2, "Movie Upload", "other", ""))

	list, err := d.ListActivities(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Greater(t, list[0].ID, list[1].ID)
	assert.Equal(t, "Accessed Analytics", list[0].Description)

	n, err := d.CountActivities(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = d.CountActivities(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	pruned, err := d.PruneActivities(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, pruned)

	pruned, err = d.PruneActivities(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(4), pruned)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)

	assert.Equal(t, "fallback", d.GetSetting(ctx, "k", "fallback"))
	_, ok, err := d.LookupSetting(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.SetSetting(ctx, "k", "v1"))
	require.NoError(t, d.SetSetting(ctx, "k", "v2"))
	assert.Equal(t, "v2", d.GetSetting(ctx, "k", ""))

	require.NoError(t, d.DeleteSetting(ctx, "k"))
	require.NoError(t, d.DeleteSetting(ctx, "k"))
	_, ok, err = d.LookupSetting(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
