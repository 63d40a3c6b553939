package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referearn/internal/referral/models"
)

// setupTestStore opens a store in a per-test temporary directory.
func setupTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "referrals.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func newReferral(course string) models.NewReferral {
	return models.NewReferral{
		ReferrerName:  "Alice",
		ReferrerEmail: "alice@x.com",
		RefereeName:   "Bob",
		RefereeEmail:  "bob@x.com",
		Course:        course,
		Status:        models.StatusPending,
	}
}

func TestCreateAndList(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 10, 30, 0, 123456789, time.UTC)
	store := setupTestStore(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	record, err := store.Create(ctx, newReferral("Go101"))
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Equal(t, fixed, record.CreatedAt)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, record, list[0])
}

func TestListNewestFirst(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	i := 0
	store := setupTestStore(t, WithClock(func() time.Time { ts := times[i]; i++; return ts }))
	ctx := context.Background()

	for _, c := range []string{"b", "a", "c", "d"} {
		_, err := store.Create(ctx, newReferral(c))
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	var courses []string
	for _, r := range list {
		courses = append(courses, r.Course)
	}
	// d and c share a timestamp; the later insert comes first.
	assert.Equal(t, []string{"d", "c", "b", "a"}, courses)

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestEmptyListIsNotNil(t *testing.T) {
	store := setupTestStore(t)
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "referrals.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = first.Create(ctx, newReferral("Go101"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	list, err := second.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, path, second.Path())

	var versions int
	require.NoError(t, second.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestPingAfterClose(t *testing.T) {
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "referrals.db"))
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(context.Background()))
}
