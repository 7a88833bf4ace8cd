package secretstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeComponentID(t *testing.T) {
	require.Equal(t, "simple", sanitizeComponentID("simple"))
	require.Equal(t, "my-component.v1", sanitizeComponentID("my-component.v1"))
	require.Equal(t, "invalid_chars_here", sanitizeComponentID("invalid/chars:here"))
	require.Equal(t, "multiple_underscores", sanitizeComponentID("multiple___underscores"))
}

func TestSanitizeComponentIDTruncatesTo128(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	got := sanitizeComponentID(string(long))
	require.LessOrEqual(t, len(got), 128)
}

func TestStoreGetOnMissingComponentReturnsEmpty(t *testing.T) {
	s := New(t.TempDir())
	secrets, err := s.Get("nonexistent")
	require.NoError(t, err)
	require.Empty(t, secrets)
}

func TestStoreSetThenGetRoundTrips(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("comp", map[string]string{"API_KEY": "secret123", "REGION": "us-west-2"}))

	got, err := s.Get("comp")
	require.NoError(t, err)
	require.Equal(t, "secret123", got["API_KEY"])
	require.Equal(t, "us-west-2", got["REGION"])
}

func TestStoreUpdateMergesAndDeleteKeysRemoves(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("comp", map[string]string{"KEY1": "value1", "KEY2": "value2"}))
	require.NoError(t, s.Update("comp", map[string]string{"KEY2": "updated", "KEY3": "value3"}))

	got, err := s.Get("comp")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "updated", got["KEY2"])

	deleted, err := s.DeleteKeys("comp", []string{"KEY1", "NONEXISTENT"})
	require.NoError(t, err)
	require.Equal(t, []string{"KEY1"}, deleted)

	got, err = s.Get("comp")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotContains(t, got, "KEY1")
}

func TestStoreDeleteKeysRemovesFileWhenEmpty(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("comp", map[string]string{"ONLY": "value"}))

	deleted, err := s.DeleteKeys("comp", []string{"ONLY"})
	require.NoError(t, err)
	require.Equal(t, []string{"ONLY"}, deleted)

	components, err := s.ListComponents()
	require.NoError(t, err)
	require.Empty(t, components)
}

func TestStoreListComponents(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("comp-a", map[string]string{"K": "V"}))
	require.NoError(t, s.Set("comp-b", map[string]string{"K": "V"}))

	components, err := s.ListComponents()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"comp-a", "comp-b"}, components)
}
