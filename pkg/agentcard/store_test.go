package agentcard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	return store
}

func TestFileStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	card := &Card{
		Name:    "weather-agent",
		Version: "1.0.0",
		Lineage: &Lineage{Dependencies: []Dependency{{ID: "get_current_time", Version: "2"}}},
	}

	require.NoError(t, store.Save(card))

	got, err := store.Get("weather-agent", "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "weather-agent", got.Name)
	assert.Equal(t, "1.0.0", got.Version)
	require.NotNil(t, got.Lineage)
	assert.Equal(t, "get_current_time", got.Lineage.Dependencies[0].ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestFileStore_SaveSetsCreatedAtWhenZero(t *testing.T) {
	store := newTestStore(t)
	before := time.Now().UTC()
	require.NoError(t, store.Save(&Card{Name: "a", Version: "1"}))

	got, err := store.Get("a", "1")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.Before(before.Add(-time.Second)))
}

func TestFileStore_GetMissingReturnsNilNil(t *testing.T) {
	store := newTestStore(t)
	got, err := store.Get("nope", "1.0.0")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Card{Name: "a", Version: "1", Description: "first"}))
	require.NoError(t, store.Save(&Card{Name: "a", Version: "1", Description: "second"}))

	got, err := store.Get("a", "1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Description)
}

func TestFileStore_List(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Card{Name: "a", Version: "1"}))
	require.NoError(t, store.Save(&Card{Name: "a", Version: "2"}))
	require.NoError(t, store.Save(&Card{Name: "b", Version: "1"}))

	all, err := store.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := store.List("a")
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)
}

func TestFileStore_ListSkipsMalformedFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&Card{Name: "a", Version: "1"}))

	badDir := filepath.Join(store.root, "a")
	require.NoError(t, os.WriteFile(filepath.Join(badDir, "broken.json"), []byte("{not json"), 0o644))

	all, err := store.List("a")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
