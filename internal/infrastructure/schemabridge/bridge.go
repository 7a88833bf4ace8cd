// Package schemabridge implements the Schema Bridge of spec.md §4.B: it
// compiles a component's exported function signatures into JSON Schema,
// validates and lowers JSON tool-call arguments into typed values, and
// lifts typed results back into JSON.
package schemabridge

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/microsoft/wassette/internal/domain/ifacetype"
)

// Bridge caches compiled argument-schema validators per tool so dispatch
// never recompiles a JSON Schema on the hot path.
type Bridge struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// New returns an empty Bridge.
func New() *Bridge {
	return &Bridge{compiled: make(map[string]*jsonschema.Schema)}
}

// Register compiles toolName's argument schema and caches the validator.
// Called once at load time by the Lifecycle Manager for every Tool
// Descriptor it installs.
func (b *Bridge) Register(toolName string, argsSchema ifacetype.JSONSchema) error {
	raw, err := json.Marshal(argsSchema)
	if err != nil {
		return fmt.Errorf("schemabridge: marshal schema for %q: %w", toolName, err)
	}

	compiler := jsonschema.NewCompiler()
	url := "wassette://tool/" + toolName
	if err := compiler.AddResource(url, bytesReader(raw)); err != nil {
		return fmt.Errorf("schemabridge: add schema resource for %q: %w", toolName, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("schemabridge: compile schema for %q: %w", toolName, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.compiled[toolName] = schema
	return nil
}

// Unregister drops toolName's compiled schema, called on unload.
func (b *Bridge) Unregister(toolName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.compiled, toolName)
}

// Validate checks rawArgs against toolName's compiled argument schema,
// returning a ValidationError carrying JSON-pointer-style paths for every
// violation (spec.md §4.B Direction 2).
func (b *Bridge) Validate(toolName string, rawArgs []byte) error {
	b.mu.RLock()
	schema, ok := b.compiled[toolName]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("schemabridge: no schema registered for tool %q", toolName)
	}

	var v interface{}
	if err := json.Unmarshal(rawArgs, &v); err != nil {
		return fmt.Errorf("schemabridge: invalid JSON arguments for %q: %w", toolName, err)
	}
	if err := schema.Validate(v); err != nil {
		return ValidationErrorFrom(toolName, err)
	}
	return nil
}
