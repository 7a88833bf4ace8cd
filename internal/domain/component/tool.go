package component

import "github.com/microsoft/wassette/internal/domain/ifacetype"

// ToolDescriptor is the derived view of one exported function, per
// spec.md §3. It carries only the owning Record's ID, not a pointer to
// the Record itself — the Lifecycle Manager's Tool Index looks the Record
// up by ID on dispatch, which is the Go-idiomatic analogue of spec.md §9's
// "weak reference from Tool Descriptor to the Component's mutable
// metadata": nothing here keeps a Record alive past unload.
type ToolDescriptor struct {
	Name         string // component_id + "." + function_name
	ComponentID  string
	FuncName     string
	ArgsSchema   ifacetype.JSONSchema
	ResultSchema ifacetype.JSONSchema // nil if the function has no results
	Description  string
	Func         ifacetype.Func
}

// ToolName joins a component ID and function name per the binding
// resolution of SPEC_FULL.md §13: a dot, not a colon, because component
// IDs derived from OCI references already contain colons.
func ToolName(componentID, funcName string) string {
	return componentID + "." + funcName
}

// DescribeFuncs converts a component's extracted function signatures into
// Tool Descriptors, skipping any function whose signature mentions a
// resource type (spec.md §9: resources have no JSON representation and
// are filtered out of the public tool surface).
func DescribeFuncs(componentID string, funcs []ifacetype.Func) []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(funcs))
	for _, f := range funcs {
		if f.MentionsResource() {
			continue
		}
		out = append(out, ToolDescriptor{
			Name:         ToolName(componentID, f.Name),
			ComponentID:  componentID,
			FuncName:     f.Name,
			ArgsSchema:   ifacetype.ArgsSchema(&f),
			ResultSchema: ifacetype.ResultSchema(&f),
			Description:  f.Doc,
			Func:         f,
		})
	}
	return out
}
