package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetItem(ctx, "authToken")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SetItem(ctx, "authToken", "first"))
	require.NoError(t, store.SetItem(ctx, "authToken", "second"))

	value, err := store.GetItem(ctx, "authToken")
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestSetItemRequiresKey(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.SetItem(context.Background(), "  ", "value"))
}

func TestRemoveItemAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"authToken", "currentUser", "edu_user", "theme"} {
		require.NoError(t, store.SetItem(ctx, key, "v"))
	}

	require.NoError(t, store.RemoveItem(ctx, "authToken", "currentUser", "missing"))
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"edu_user", "theme"}, keys)

	require.NoError(t, store.Clear(ctx))
	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetItem(ctx, "theme", "dark"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.GetItem(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
}
