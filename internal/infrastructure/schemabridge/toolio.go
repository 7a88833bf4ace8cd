package schemabridge

import (
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// The Lifecycle Manager's own MCP tool I/O contracts (spec.md §6) are
// plain Go structs whose JSON Schema is generated by reflection, rather
// than hand-built like a component's argument schema — these are the
// host's tools, not a component's, so invopop/jsonschema's struct
// reflection is the natural fit (mirrored from sdk/go's own use of the
// library for its request/response DTOs).

// LoadComponentRequest is the input of the `load-component` tool.
type LoadComponentRequest struct {
	Source string `json:"source" validate:"required,uri" jsonschema:"description=file/https/oci origin reference"`
}

// LoadComponentResponse is the output of the `load-component` tool.
type LoadComponentResponse struct {
	ComponentID string   `json:"component_id"`
	Tools       []string `json:"tools"`
}

// UnloadComponentRequest is the input of the `unload-component` tool.
type UnloadComponentRequest struct {
	ID string `json:"id" validate:"required"`
}

// GrantStorageRequest is the input of `grant-storage-permission`.
type GrantStorageRequest struct {
	ID     string   `json:"id" validate:"required"`
	URI    string   `json:"uri" validate:"required"`
	Access []string `json:"access" validate:"required,dive,oneof=read write"`
}

// GrantNetworkRequest is the input of `grant-network-permission`.
type GrantNetworkRequest struct {
	ID       string `json:"id" validate:"required"`
	Host     string `json:"host" validate:"required"`
	Ports    []int  `json:"ports,omitempty" validate:"dive,min=1,max=65535"`
	Protocol string `json:"protocol,omitempty"`
}

// GrantEnvRequest is the input of `grant-environment-variable-permission`.
type GrantEnvRequest struct {
	ID  string `json:"id" validate:"required"`
	Key string `json:"key" validate:"required"`
}

// RevokeStorageRequest is the input of `revoke-storage-permission`.
type RevokeStorageRequest struct {
	ID     string   `json:"id" validate:"required"`
	URI    string   `json:"uri" validate:"required"`
	Access []string `json:"access,omitempty" validate:"dive,oneof=read write"`
}

// RevokeNetworkRequest is the input of `revoke-network-permission`.
type RevokeNetworkRequest struct {
	ID   string `json:"id" validate:"required"`
	Host string `json:"host" validate:"required"`
}

// RevokeEnvRequest is the input of `revoke-environment-variable-permission`.
type RevokeEnvRequest struct {
	ID  string `json:"id" validate:"required"`
	Key string `json:"key" validate:"required"`
}

// UnloadComponentResponse is the output of `unload-component`.
type UnloadComponentResponse struct {
	ID         string `json:"id"`
	UnloadedAt string `json:"unloaded_at"`
}

// ComponentSummaryResponse is one entry of `list-components`' output.
type ComponentSummaryResponse struct {
	ID             string `json:"id"`
	ToolCount      int    `json:"tool_count"`
	PolicyAttached bool   `json:"policy_attached"`
}

// GetPolicyRequest is the input of `get-policy`.
type GetPolicyRequest struct {
	ID string `json:"id" validate:"required"`
}

// PolicyResponse wraps a component's effective policy document with
// where it came from, per spec.md §6's "policy document + source
// (embedded / attached)" output contract.
type PolicyResponse struct {
	ID     string      `json:"id"`
	Policy interface{} `json:"policy"`
	Source string      `json:"source"` // "attached" or "default-deny"
}

// ResetPermissionRequest is the input of `reset-permission`.
type ResetPermissionRequest struct {
	ID string `json:"id" validate:"required"`
}

// toolioValidator is shared process-wide; go-playground/validator's
// *Validate is safe for concurrent use once built, same as the teacher's
// own sdk/go usage.
var toolioValidator = validator.New()

// ValidateDTO runs struct-tag validation beyond what a hand-rolled JSON
// Schema would naturally express (the "oneof", "uri", and "dive" rules
// above), per SPEC_FULL.md §11's binding of go-playground/validator/v10.
func ValidateDTO(v interface{}) error {
	return toolioValidator.Struct(v)
}

// ReflectSchema generates a JSON Schema document for a Manager DTO type,
// used to advertise the Manager's own tool surface the same way a
// component's functions are advertised.
func ReflectSchema(v interface{}) *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(v)
}
