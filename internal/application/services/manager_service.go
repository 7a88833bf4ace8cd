// Package services orchestrates the Lifecycle Manager's use cases behind
// the MCP tool I/O contracts of spec.md §6, mirroring the teacher's own
// internal/application/services: thin methods that validate a DTO,
// translate it into domain calls, and translate the result (or error)
// back into a DTO, wrapping every boundary error with fmt.Errorf.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/microsoft/wassette/internal/domain/policy"
	"github.com/microsoft/wassette/internal/infrastructure/schemabridge"
	"github.com/microsoft/wassette/internal/lifecycle"
)

// ManagerService adapts the Lifecycle Manager to the Manager's own MCP
// tool surface (spec.md §6's load/unload/list/get-policy/grant/revoke/
// reset tools), the application-layer counterpart of the teacher's
// PluginService.
type ManagerService struct {
	manager *lifecycle.Manager
	logger  *slog.Logger
}

// NewManagerService constructs a ManagerService over manager.
func NewManagerService(manager *lifecycle.Manager, logger *slog.Logger) *ManagerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManagerService{manager: manager, logger: logger}
}

// LoadComponent implements the `load-component` tool.
func (s *ManagerService) LoadComponent(ctx context.Context, req schemabridge.LoadComponentRequest) (*schemabridge.LoadComponentResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("load-component: invalid request: %w", err)
	}

	id, tools, err := s.manager.Load(ctx, req.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("load-component: %w", err)
	}
	s.logger.Info("component loaded", "component_id", id, "tool_count", len(tools))
	return &schemabridge.LoadComponentResponse{ComponentID: id, Tools: tools}, nil
}

// UnloadComponent implements the `unload-component` tool.
func (s *ManagerService) UnloadComponent(ctx context.Context, req schemabridge.UnloadComponentRequest) (*schemabridge.UnloadComponentResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("unload-component: invalid request: %w", err)
	}

	if err := s.manager.Unload(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("unload-component: %w", err)
	}
	return &schemabridge.UnloadComponentResponse{ID: req.ID, UnloadedAt: timeNowRFC3339()}, nil
}

// ListComponents implements the `list-components` tool.
func (s *ManagerService) ListComponents(ctx context.Context) ([]schemabridge.ComponentSummaryResponse, error) {
	summaries := s.manager.List()
	out := make([]schemabridge.ComponentSummaryResponse, len(summaries))
	for i, c := range summaries {
		out[i] = schemabridge.ComponentSummaryResponse{
			ID:             c.ID,
			ToolCount:      c.ToolCount,
			PolicyAttached: c.PolicyAttached,
		}
	}
	return out, nil
}

// GetPolicy implements the `get-policy` tool.
func (s *ManagerService) GetPolicy(ctx context.Context, req schemabridge.GetPolicyRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("get-policy: invalid request: %w", err)
	}

	doc, err := s.manager.GetPolicy(req.ID)
	if err != nil {
		return nil, fmt.Errorf("get-policy: %w", err)
	}
	source := "attached"
	if doc == nil {
		source = "default-deny"
	}
	return &schemabridge.PolicyResponse{ID: req.ID, Policy: doc, Source: source}, nil
}

// GrantStoragePermission implements `grant-storage-permission`.
func (s *ManagerService) GrantStoragePermission(ctx context.Context, req schemabridge.GrantStorageRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("grant-storage-permission: invalid request: %w", err)
	}
	if err := s.manager.GrantStorage(req.ID, policy.StorageRule{URI: req.URI, Access: req.Access}); err != nil {
		return nil, fmt.Errorf("grant-storage-permission: %w", err)
	}
	return s.currentPolicy(req.ID, "grant-storage-permission")
}

// RevokeStoragePermission implements `revoke-storage-permission`.
func (s *ManagerService) RevokeStoragePermission(ctx context.Context, req schemabridge.RevokeStorageRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("revoke-storage-permission: invalid request: %w", err)
	}
	if err := s.manager.RevokeStorage(req.ID, policy.StorageRule{URI: req.URI, Access: req.Access}); err != nil {
		return nil, fmt.Errorf("revoke-storage-permission: %w", err)
	}
	return s.currentPolicy(req.ID, "revoke-storage-permission")
}

// GrantNetworkPermission implements `grant-network-permission`.
func (s *ManagerService) GrantNetworkPermission(ctx context.Context, req schemabridge.GrantNetworkRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("grant-network-permission: invalid request: %w", err)
	}
	rule := policy.NetworkRule{Host: req.Host, Ports: req.Ports, Protocol: req.Protocol}
	if err := s.manager.GrantNetwork(req.ID, rule); err != nil {
		return nil, fmt.Errorf("grant-network-permission: %w", err)
	}
	return s.currentPolicy(req.ID, "grant-network-permission")
}

// RevokeNetworkPermission implements `revoke-network-permission`.
func (s *ManagerService) RevokeNetworkPermission(ctx context.Context, req schemabridge.RevokeNetworkRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("revoke-network-permission: invalid request: %w", err)
	}
	if err := s.manager.RevokeNetwork(req.ID, policy.NetworkRule{Host: req.Host}); err != nil {
		return nil, fmt.Errorf("revoke-network-permission: %w", err)
	}
	return s.currentPolicy(req.ID, "revoke-network-permission")
}

// GrantEnvironmentVariablePermission implements
// `grant-environment-variable-permission`.
func (s *ManagerService) GrantEnvironmentVariablePermission(ctx context.Context, req schemabridge.GrantEnvRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("grant-environment-variable-permission: invalid request: %w", err)
	}
	if err := s.manager.GrantEnv(req.ID, req.Key); err != nil {
		return nil, fmt.Errorf("grant-environment-variable-permission: %w", err)
	}
	return s.currentPolicy(req.ID, "grant-environment-variable-permission")
}

// RevokeEnvironmentVariablePermission implements
// `revoke-environment-variable-permission`.
func (s *ManagerService) RevokeEnvironmentVariablePermission(ctx context.Context, req schemabridge.RevokeEnvRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("revoke-environment-variable-permission: invalid request: %w", err)
	}
	if err := s.manager.RevokeEnv(req.ID, req.Key); err != nil {
		return nil, fmt.Errorf("revoke-environment-variable-permission: %w", err)
	}
	return s.currentPolicy(req.ID, "revoke-environment-variable-permission")
}

// ResetPermission implements the `reset-permission` tool.
func (s *ManagerService) ResetPermission(ctx context.Context, req schemabridge.ResetPermissionRequest) (*schemabridge.PolicyResponse, error) {
	if err := schemabridge.ValidateDTO(req); err != nil {
		return nil, fmt.Errorf("reset-permission: invalid request: %w", err)
	}
	if err := s.manager.ResetPolicy(req.ID); err != nil {
		return nil, fmt.Errorf("reset-permission: %w", err)
	}
	return s.currentPolicy(req.ID, "reset-permission")
}

func (s *ManagerService) currentPolicy(id, op string) (*schemabridge.PolicyResponse, error) {
	doc, err := s.manager.GetPolicy(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	source := "attached"
	if doc == nil {
		source = "default-deny"
	}
	return &schemabridge.PolicyResponse{ID: id, Policy: doc, Source: source}, nil
}

func timeNowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
