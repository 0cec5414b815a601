package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paladin223/mit-service/internal/stats"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndList(t *testing.T) {
	store := openTestStore(t)

	first := NewEntry("read", "http://localhost:8080", stats.Summary{Issued: 10, Success: 8, NotFound: 2})
	require.NoError(t, store.Save(first))

	time.Sleep(5 * time.Millisecond)
	second := NewEntry("populate", "http://localhost:8080", stats.Summary{Issued: 100, Success: 100})
	require.NoError(t, store.Save(second))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, "read", entries[1].Kind)
	assert.Equal(t, uint64(8), entries[1].Summary.Success)
}

func TestListEmpty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryIDsAreUnique(t *testing.T) {
	a := NewEntry("write", "u", stats.Summary{})
	b := NewEntry("write", "u", stats.Summary{})
	assert.NotEqual(t, a.ID, b.ID)
}
