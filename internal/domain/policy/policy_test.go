package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRequiresVersion(t *testing.T) {
	diags := Validate(&Document{})
	require.NotEmpty(t, diags)
}

func TestValidateStorageRuleMustUseFSScheme(t *testing.T) {
	doc := &Document{Version: "v1", Storage: Storage{Allow: []StorageRule{
		{URI: "/tmp/x", Access: []string{"read"}},
	}}}
	diags := Validate(doc)
	require.NotEmpty(t, diags)
}

func TestValidateNetworkRulePortRange(t *testing.T) {
	doc := &Document{Version: "v1", Network: Network{Allow: []NetworkRule{
		{Host: "example.com", Ports: []int{70000}},
	}}}
	diags := Validate(doc)
	require.NotEmpty(t, diags)
}

func TestValidateMemoryQuantity(t *testing.T) {
	doc := &Document{Version: "v1", Resources: Resources{Limits: Limits{Memory: "not-a-quantity"}}}
	diags := Validate(doc)
	require.NotEmpty(t, diags)
}

func TestValidateClean(t *testing.T) {
	doc := &Document{
		Version: "v1",
		Storage: Storage{Allow: []StorageRule{{URI: "fs:///tmp/**", Access: []string{"read"}}}},
		Network: Network{Allow: []NetworkRule{{Host: "*.example.com", Ports: []int{443}, Protocol: "https"}}},
		Resources: Resources{Limits: Limits{Memory: "512Mi", CPU: "500m"}},
	}
	diags := Validate(doc)
	require.Empty(t, diags)
}

func TestParseMemoryQuantity(t *testing.T) {
	cases := map[string]int64{
		"512Mi": 512 * (1 << 20),
		"1Gi":   1 << 30,
		"2048":  2048,
	}
	for in, want := range cases {
		got, err := ParseMemoryQuantity(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestParseCPUQuantity(t *testing.T) {
	fuel, err := ParseCPUQuantity("500m", 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(500), fuel)

	fuel, err = ParseCPUQuantity("1", 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), fuel)
}

func TestCompileDenyOnExactSameURI(t *testing.T) {
	doc := &Document{
		Version: "v1",
		Storage: Storage{
			Allow: []StorageRule{{URI: "fs:///tmp/x", Access: []string{"read"}}},
			Deny:  []StorageRule{{URI: "fs:///tmp/x", Access: []string{"read"}}},
		},
	}
	tpl := Compile(doc, nil, nil, nil)
	require.False(t, tpl.CheckStorage("/tmp/x", "read").Allowed)
}

func TestOverlayGrantThenRevoke(t *testing.T) {
	base := &Document{Version: "v1"}
	overlay := NewOverlay()
	overlay.GrantNetwork(NetworkRule{Host: "api.example.com", Ports: []int{443}})

	tpl := Compile(base, overlay, nil, nil)
	require.True(t, tpl.CheckNetwork("api.example.com", 443, "").Allowed)

	overlay.RevokeNetwork(NetworkRule{Host: "api.example.com"})
	tpl2 := Compile(base, overlay, nil, nil)
	require.False(t, tpl2.CheckNetwork("api.example.com", 443, "").Allowed)
}

func TestOverlayResetClearsGrants(t *testing.T) {
	overlay := NewOverlay()
	overlay.GrantEnv("FOO")
	overlay.Reset()
	require.Empty(t, overlay.Granted.Environment.Allow)
}

func TestEffectiveMemoryBytesLegacyFallback(t *testing.T) {
	r := Resources{Memory: 256}
	bytes, explicit, err := r.EffectiveMemoryBytes()
	require.NoError(t, err)
	require.True(t, explicit)
	require.Equal(t, int64(256<<20), bytes)
}
