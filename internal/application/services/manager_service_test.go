package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/wassette/internal/domain/wassette"
	"github.com/microsoft/wassette/internal/infrastructure/policystore"
	"github.com/microsoft/wassette/internal/infrastructure/schemabridge"
	"github.com/microsoft/wassette/internal/lifecycle"
)

func newTestService(t *testing.T) *ManagerService {
	t.Helper()
	mgr := lifecycle.New(lifecycle.Config{
		PolicyStore: policystore.New(t.TempDir()),
		UnloadGrace: 50 * time.Millisecond,
	})
	return NewManagerService(mgr, nil)
}

func TestLoadComponentRejectsInvalidSource(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.LoadComponent(context.Background(), schemabridge.LoadComponentRequest{Source: "not-a-uri"})
	require.Error(t, err)
}

func TestUnloadComponentRejectsMissingID(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.UnloadComponent(context.Background(), schemabridge.UnloadComponentRequest{})
	require.Error(t, err)
}

func TestUnloadComponentUnknownComponentWraps(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.UnloadComponent(context.Background(), schemabridge.UnloadComponentRequest{ID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestListComponentsEmptyManager(t *testing.T) {
	svc := newTestService(t)
	list, err := svc.ListComponents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetPolicyUnknownComponentWraps(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetPolicy(context.Background(), schemabridge.GetPolicyRequest{ID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestGrantStoragePermissionRejectsBadAccess(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GrantStoragePermission(context.Background(), schemabridge.GrantStorageRequest{
		ID: "comp-a", URI: "fs:///data/**", Access: []string{"execute"},
	})
	require.Error(t, err)
}

func TestGrantStoragePermissionUnknownComponentWraps(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GrantStoragePermission(context.Background(), schemabridge.GrantStorageRequest{
		ID: "missing", URI: "fs:///data/**", Access: []string{"read"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestGrantNetworkPermissionUnknownComponentWraps(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GrantNetworkPermission(context.Background(), schemabridge.GrantNetworkRequest{
		ID: "missing", Host: "api.example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestGrantEnvironmentVariablePermissionUnknownComponentWraps(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GrantEnvironmentVariablePermission(context.Background(), schemabridge.GrantEnvRequest{
		ID: "missing", Key: "API_KEY",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}

func TestRevokeStoragePermissionRejectsMissingFields(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.RevokeStoragePermission(context.Background(), schemabridge.RevokeStorageRequest{})
	require.Error(t, err)
}

func TestResetPermissionUnknownComponentWraps(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ResetPermission(context.Background(), schemabridge.ResetPermissionRequest{ID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, wassette.ErrNotFound)
}
