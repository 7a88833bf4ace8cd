package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/wassette/internal/domain/component"
	"github.com/microsoft/wassette/internal/domain/ifacetype"
	"github.com/microsoft/wassette/internal/domain/policy"
	"github.com/microsoft/wassette/internal/domain/wassette"
	"github.com/microsoft/wassette/internal/infrastructure/policystore"
)

type fakeImage struct{ closed bool }

func (f *fakeImage) Close() error {
	f.closed = true
	return nil
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(Config{PolicyStore: policystore.New(t.TempDir()), UnloadGrace: 50 * time.Millisecond})
}

func installRecord(m *Manager, id string, funcName string) *component.Record {
	funcs := []ifacetype.Func{{Name: funcName}}
	rec := component.NewRecord(id, &fakeImage{}, funcs, component.Provenance{
		Origin: component.Origin{Scheme: component.SchemeFile, Raw: "file:///tmp/" + id + ".wasm"},
	}, 1)

	m.regMu.Lock()
	m.records[id] = rec
	for _, td := range component.DescribeFuncs(id, funcs) {
		m.tools[td.Name] = td
	}
	m.regMu.Unlock()
	return rec
}

func TestDeriveComponentIDFile(t *testing.T) {
	id := deriveComponentID(component.Provenance{Origin: component.Origin{Scheme: component.SchemeFile, Path: "/home/user/tools/calc.wasm"}})
	assert.Equal(t, "calc", id)
}

func TestDeriveComponentIDHTTPS(t *testing.T) {
	id := deriveComponentID(component.Provenance{Origin: component.Origin{Scheme: component.SchemeHTTPS, URL: "https://example.com/dist/weather.wasm"}})
	assert.Equal(t, "weather", id)
}

func TestDeriveComponentIDOCI(t *testing.T) {
	id := deriveComponentID(component.Provenance{Origin: component.Origin{Scheme: component.SchemeOCI, Repository: "ghcr.io/acme/translator", Tag: "v2"}})
	assert.Equal(t, "translator-v2", id)
}

func TestDeriveComponentIDOCIWithoutTag(t *testing.T) {
	id := deriveComponentID(component.Provenance{Origin: component.Origin{Scheme: component.SchemeOCI, Repository: "ghcr.io/acme/translator"}})
	assert.Equal(t, "translator", id)
}

func TestManagerListReflectsInstalledRecords(t *testing.T) {
	m := newTestManager(t)
	installRecord(m, "comp-a", "add")

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, "comp-a", list[0].ID)
	assert.Equal(t, 1, list[0].ToolCount)
	assert.False(t, list[0].PolicyAttached)
}

func TestManagerAttachPolicyUnknownComponent(t *testing.T) {
	m := newTestManager(t)
	err := m.AttachPolicy("missing", &policy.Document{Version: policy.CurrentVersion})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestManagerAttachPolicyRejectsInvalidDocument(t *testing.T) {
	m := newTestManager(t)
	installRecord(m, "comp-a", "add")

	err := m.AttachPolicy("comp-a", &policy.Document{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrValidation)
}

func TestManagerAttachPolicyThenGetPolicyReflectsGrants(t *testing.T) {
	m := newTestManager(t)
	installRecord(m, "comp-a", "add")

	doc := &policy.Document{
		Version: policy.CurrentVersion,
		Storage: policy.Storage{Allow: []policy.StorageRule{{URI: "fs:///data/**", Access: []string{"read"}}}},
	}
	require.NoError(t, m.AttachPolicy("comp-a", doc))

	got, err := m.GetPolicy("comp-a")
	require.NoError(t, err)
	require.Len(t, got.Storage.Allow, 1)

	require.NoError(t, m.GrantNetwork("comp-a", policy.NetworkRule{Host: "api.example.com"}))
	got, err = m.GetPolicy("comp-a")
	require.NoError(t, err)
	require.Len(t, got.Network.Allow, 1)
	assert.Equal(t, "api.example.com", got.Network.Allow[0].Host)
}

func TestManagerResetPolicyClearsOverlay(t *testing.T) {
	m := newTestManager(t)
	installRecord(m, "comp-a", "add")
	require.NoError(t, m.AttachPolicy("comp-a", &policy.Document{Version: policy.CurrentVersion}))
	require.NoError(t, m.GrantEnv("comp-a", "API_KEY"))

	got, err := m.GetPolicy("comp-a")
	require.NoError(t, err)
	require.Len(t, got.Environment.Allow, 1)

	require.NoError(t, m.ResetPolicy("comp-a"))
	got, err = m.GetPolicy("comp-a")
	require.NoError(t, err)
	assert.Empty(t, got.Environment.Allow)
}

func TestManagerUnloadRemovesRecordAndTools(t *testing.T) {
	m := newTestManager(t)
	rec := installRecord(m, "comp-a", "add")

	require.NoError(t, m.Unload(context.Background(), "comp-a"))

	assert.Empty(t, m.List())
	assert.True(t, rec.Image.(*fakeImage).closed)
}

func TestManagerUnloadUnknownComponent(t *testing.T) {
	m := newTestManager(t)
	err := m.Unload(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestManagerDispatchUnknownTool(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Dispatch(context.Background(), "missing.tool", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestManagerLoadRejectsCollidingComponentID(t *testing.T) {
	m := newTestManager(t)
	installRecord(m, "calc", "add")

	m.regMu.RLock()
	_, collides := m.records["calc"]
	m.regMu.RUnlock()
	assert.True(t, collides)
}
