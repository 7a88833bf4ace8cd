package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, 4)
	require.NoError(t, err)

	data := []byte("hello component")
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	require.NoError(t, c.Put(digest, data))

	got, ok := c.Get(digest)
	require.True(t, ok)
	require.Equal(t, data, got)
}

func TestCacheMissReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, 4)
	require.NoError(t, err)
	_, ok := c.Get("nonexistent")
	require.False(t, ok)
}

func TestCachePutRejectsDigestMismatch(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, 4)
	require.NoError(t, err)
	err = c.Put("not-the-real-digest", []byte("data"))
	require.Error(t, err)
}

func TestCacheSurvivesFreshInstance(t *testing.T) {
	dir := t.TempDir()
	data := []byte("persisted")
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	c1, err := NewCache(dir, 4)
	require.NoError(t, err)
	require.NoError(t, c1.Put(digest, data))

	c2, err := NewCache(dir, 4)
	require.NoError(t, err)
	got, ok := c2.Get(digest)
	require.True(t, ok)
	require.Equal(t, data, got)
}
