package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(t *testing.T, maxSize int) *HistoryStore {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	store, err := NewHistoryStore(maxSize)
	require.NoError(t, err)
	return store
}

func TestHistoryStore_AppendAndLoad(t *testing.T) {
	store := newTestHistory(t, 0)

	require.NoError(t, store.Append("first"))
	require.NoError(t, store.Append("second"))

	entries, err := store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Prompt)
}

func TestHistoryStore_SkipsConsecutiveDuplicates(t *testing.T) {
	store := newTestHistory(t, 0)

	require.NoError(t, store.Append("same"))
	require.NoError(t, store.Append("same"))
	require.NoError(t, store.Append("different"))
	require.NoError(t, store.Append("same"))

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestHistoryStore_TrimsToMaxSize(t *testing.T) {
	store := newTestHistory(t, 3)

	for _, prompt := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Append(prompt))
	}

	entries, err := store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Prompt)
	assert.Equal(t, "e", entries[2].Prompt)
}

func TestHistoryStore_Clear(t *testing.T) {
	store := newTestHistory(t, 0)

	require.NoError(t, store.Append("gone soon"))
	require.NoError(t, store.Clear())

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Clearing twice is fine.
	require.NoError(t, store.Clear())
}
