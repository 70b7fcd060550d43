package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "snapshots")

	_, err := NewStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_AbsentKey(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	data, err := store.Load(context.Background(), "medications")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	payload := []byte(`[{"name":"Aspirin"}]`)
	require.NoError(t, store.Save(ctx, "medications", payload))

	got, err := store.Load(ctx, "medications")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSave_Overwrite(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "medications", []byte("old")))
	require.NoError(t, store.Save(ctx, "medications", []byte("new")))

	got, err := store.Load(ctx, "medications")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "medications", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "medications.json", entries[0].Name())
}

func TestStores_AreKeyedSeparately(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", []byte("one")))
	require.NoError(t, store.Save(ctx, "b", []byte("two")))

	got, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)
}
