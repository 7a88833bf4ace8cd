package sandbox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathTrieDenyOverridesAllowOnSamePrefix(t *testing.T) {
	trie := NewPathTrie()
	trie.AddRule("/tmp/**", []string{"read", "write"}, true)
	trie.AddRule("/tmp/**", []string{"read", "write"}, false)

	d := trie.Decide("/tmp/x", "read")
	require.False(t, d.Allowed)
}

func TestPathTrieMostSpecificPrefixWins(t *testing.T) {
	trie := NewPathTrie()
	trie.AddRule("/tmp/**", []string{"read"}, true)
	trie.AddRule("/tmp/secret/**", []string{"read"}, false)

	require.True(t, trie.Decide("/tmp/ok", "read").Allowed)
	require.False(t, trie.Decide("/tmp/secret/x", "read").Allowed)
}

func TestPathTrieDefaultDeny(t *testing.T) {
	trie := NewPathTrie()
	require.False(t, trie.Decide("/anything", "read").Allowed)
}

func TestPathTrieAccessAtomIsolation(t *testing.T) {
	trie := NewPathTrie()
	trie.AddRule("/data/**", []string{"read"}, true)
	require.True(t, trie.Decide("/data/f", "read").Allowed)
	require.False(t, trie.Decide("/data/f", "write").Allowed)
}

func TestNetMatcherWildcardHost(t *testing.T) {
	m := NewNetMatcher()
	m.AddRule("*.example.com", []int{443}, "https", true)
	require.True(t, m.Decide("api.example.com", 443, "https").Allowed)
	require.False(t, m.Decide("api.example.com", 8080, "https").Allowed)
	require.False(t, m.Decide("evil.com", 443, "https").Allowed)
}

func TestNetMatcherExactHostBeatsWildcard(t *testing.T) {
	m := NewNetMatcher()
	m.AddRule("*.example.com", nil, "", true)
	m.AddRule("internal.example.com", nil, "", false)
	require.False(t, m.Decide("internal.example.com", 443, "https").Allowed)
	require.True(t, m.Decide("api.example.com", 443, "https").Allowed)
}

func TestEnvSetAbsentVsEmpty(t *testing.T) {
	set := NewEnvSet([]string{"FOO"}, map[string]string{"FOO": "", "BAR": "x"})
	v, ok := set.Lookup("FOO")
	require.True(t, ok)
	require.Equal(t, "", v)

	_, ok = set.Lookup("BAR")
	require.False(t, ok)
}

func TestDefaultDenyTemplate(t *testing.T) {
	tpl := DefaultDenyTemplate()
	require.False(t, tpl.CheckStorage("/etc/passwd", "read").Allowed)
	require.False(t, tpl.CheckNetwork("example.com", 443, "https").Allowed)
	_, ok := tpl.CheckEnv("PATH")
	require.False(t, ok)
}
