package policystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/wassette/internal/domain/policy"
)

func TestStoreLoadMissingReturnsNil(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	doc, err := store.Load("unknown")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestStoreSaveThenLoadRoundTrips(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	doc := &policy.Document{
		Version: policy.CurrentVersion,
		Storage: policy.Storage{
			Allow: []policy.StorageRule{{URI: "fs:///data/**", Access: []string{"read"}}},
		},
	}
	require.NoError(t, store.Save("comp-a", doc))

	got, err := store.Load("comp-a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, policy.CurrentVersion, got.Version)
	require.Len(t, got.Storage.Allow, 1)
	assert.Equal(t, "fs:///data/**", got.Storage.Allow[0].URI)
}

func TestStoreSaveReplacesWholesale(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	require.NoError(t, store.Save("comp-a", &policy.Document{
		Version: policy.CurrentVersion,
		Network: policy.Network{Allow: []policy.NetworkRule{{Host: "api.example.com"}}},
	}))
	require.NoError(t, store.Save("comp-a", &policy.Document{Version: policy.CurrentVersion}))

	got, err := store.Load("comp-a")
	require.NoError(t, err)
	assert.Empty(t, got.Network.Allow)
}

func TestStoreSaveCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "policies")
	store := New(dir)
	require.NoError(t, store.Save("comp-a", &policy.Document{Version: policy.CurrentVersion}))

	_, err := os.Stat(dir)
	assert.False(t, os.IsNotExist(err))
}

func TestStoreDeleteRemovesFile(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	require.NoError(t, store.Save("comp-a", &policy.Document{Version: policy.CurrentVersion}))
	require.NoError(t, store.Delete("comp-a"))

	doc, err := store.Load("comp-a")
	require.NoError(t, err)
	assert.Nil(t, doc)

	// Deleting an already-absent document is not an error.
	require.NoError(t, store.Delete("comp-a"))
}

func TestStoreListComponents(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	require.NoError(t, store.Save("comp-a", &policy.Document{Version: policy.CurrentVersion}))
	require.NoError(t, store.Save("comp-b", &policy.Document{Version: policy.CurrentVersion}))

	components, err := store.ListComponents()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"comp-a", "comp-b"}, components)
}
