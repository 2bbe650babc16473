package state

import (
	"path/filepath"
	"testing"

	"github.com/careweather/oneil/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr(f float64) *float64 { return &f }

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	assert.Error(t, store.Migrate())
	_, err := store.CreateRun("eval", "cart", "default")
	assert.Error(t, err)
	_, err = store.ListRuns("", 0)
	assert.Error(t, err)
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Re-running is a no-op.
	require.NoError(t, store.Migrate())
}

func TestSQLiteStore_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	run, err := store.CreateRun("eval", "cart", "default")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()
	require.NoError(t, reopened.Migrate())

	got, err := reopened.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "cart", got.Model)
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name       string
		status     RunStatus
		passed     int
		total      int
		errMsg     string
		wantStatus RunStatus
	}{
		{name: "completed", status: RunStatusCompleted, passed: 3, total: 3, wantStatus: RunStatusCompleted},
		{name: "failed", status: RunStatusFailed, passed: 1, total: 2, errMsg: "Circular dependency found in path: a=>b=>a", wantStatus: RunStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)

			run, err := store.CreateRun("test", "cart", "heavy@default")
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, RunStatusRunning, run.Status)
			assert.Nil(t, run.CompletedAt)

			require.NoError(t, store.CompleteRun(run.ID, tt.status, tt.passed, tt.total, tt.errMsg))

			got, err := store.GetRun(run.ID)
			require.NoError(t, err)
			assert.Equal(t, "test", got.Command)
			assert.Equal(t, "heavy@default", got.Design)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.passed, got.TestsPassed)
			assert.Equal(t, tt.total, got.TestsTotal)
			assert.Equal(t, tt.errMsg, got.Error)
			assert.True(t, run.StartedAt.Equal(got.StartedAt))
			require.NotNil(t, got.CompletedAt)
			assert.False(t, got.CompletedAt.Before(got.StartedAt))
		})
	}
}

func TestSQLiteStore_Errors(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun("missing")
	assert.ErrorContains(t, err, "run not found")

	err = store.CompleteRun("missing", RunStatusCompleted, 0, 0, "")
	assert.ErrorContains(t, err, "run not found")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	var ids []string
	for _, model := range []string{"cart", "battery", "cart"} {
		run, err := store.CreateRun("eval", model, "default")
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	all, err := store.ListRuns("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)

	carts, err := store.ListRuns("cart", 0)
	require.NoError(t, err)
	require.Len(t, carts, 2)
	assert.Equal(t, ids[2], carts[0].ID)
	assert.Equal(t, ids[0], carts[1].ID)

	limited, err := store.ListRuns("", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ids[2], limited[0].ID)

	none, err := store.ListRuns("rocket", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_Values(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun("eval", "cart", "default")
	require.NoError(t, err)

	values := []Value{
		{Ref: "m", Name: "Mass", Display: "10 kg", Min: ptr(10), Max: ptr(10)},
		{Ref: "F", Name: "Force", Display: "18 | 22 N", Min: ptr(18), Max: ptr(22)},
		{Ref: "mode", Name: "Mode", Display: "'cruise'"},
	}
	require.NoError(t, store.RecordValues(run.ID, values))

	got, err := store.GetRunValues(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Ordered by ref; SQLite compares text bytewise.
	assert.Equal(t, "F", got[0].Ref)
	assert.Equal(t, 18.0, *got[0].Min)
	assert.Equal(t, 22.0, *got[0].Max)
	assert.Equal(t, "m", got[1].Ref)
	assert.Equal(t, "mode", got[2].Ref)
	assert.Nil(t, got[2].Min)
	assert.Nil(t, got[2].Max)

	// Recording again replaces by ref.
	require.NoError(t, store.RecordValues(run.ID, []Value{{Ref: "m", Display: "12 kg", Min: ptr(12), Max: ptr(12)}}))
	got, err = store.GetRunValues(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "12 kg", got[1].Display)

	err = store.RecordValues("missing", values)
	assert.Error(t, err, "foreign key")
}
