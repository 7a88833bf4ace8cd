// Package ifacetype models the component interface-type algebra: the typed
// parameter and result shapes a component's exports are described in, and
// the concrete values that flow across the Schema Bridge and Executor ABI.
//
// wazero, the only WebAssembly runtime in the dependency surface this
// project draws on, does not parse the WebAssembly Component Model binary
// format — it is a core-module engine. Components loaded by this host
// export a describe() function returning a JSON encoding of this algebra
// (see internal/infrastructure/wasmrt/abi.go), rather than having their
// interface types recovered from the component binary itself.
package ifacetype

import "fmt"

// Kind identifies one node of the interface-type algebra.
type Kind string

const (
	KindBool     Kind = "bool"
	KindS8       Kind = "s8"
	KindS16      Kind = "s16"
	KindS32      Kind = "s32"
	KindS64      Kind = "s64"
	KindU8       Kind = "u8"
	KindU16      Kind = "u16"
	KindU32      Kind = "u32"
	KindU64      Kind = "u64"
	KindFloat32  Kind = "float32"
	KindFloat64  Kind = "float64"
	KindString   Kind = "string"
	KindList     Kind = "list"
	KindRecord   Kind = "record"
	KindVariant  Kind = "variant"
	KindOption   Kind = "option"
	KindResult   Kind = "result"
	KindResource Kind = "resource"
)

// IntBounds reports the inclusive [min, max] range of an integer Kind.
// Unsigned kinds report min=0; Go's int64/uint64 cannot both hold the full
// u64 range in one field, so callers that need the u64 upper bound use Max
// only for display/schema purposes (JSON Schema maximum is a float anyway).
func IntBounds(k Kind) (min, max int64, unsigned bool, ok bool) {
	switch k {
	case KindS8:
		return -1 << 7, 1<<7 - 1, false, true
	case KindS16:
		return -1 << 15, 1<<15 - 1, false, true
	case KindS32:
		return -1 << 31, 1<<31 - 1, false, true
	case KindS64:
		return -1 << 63, 1<<63 - 1, false, true
	case KindU8:
		return 0, 1<<8 - 1, true, true
	case KindU16:
		return 0, 1<<16 - 1, true, true
	case KindU32:
		return 0, 1<<32 - 1, true, true
	case KindU64:
		return 0, -1, true, true // max overflows int64; callers use math.MaxUint64 directly
	default:
		return 0, 0, false, false
	}
}

// IsInteger reports whether k is one of the fixed-width integer kinds.
func IsInteger(k Kind) bool {
	_, _, _, ok := IntBounds(k)
	return ok
}

// Field is a named, typed member of a Record, or a named parameter of a Func.
type Field struct {
	Name string `json:"name"`
	Type *Type  `json:"type"`
}

// Case is one arm of a Variant. Type is nil for a unit case (no payload).
type Case struct {
	Name string `json:"name"`
	Type *Type  `json:"type,omitempty"`
}

// Type is one node of the interface-type tree. Only the fields relevant to
// Kind are populated; others are left zero.
type Type struct {
	Kind Kind `json:"kind"`

	// Elem is the element type for List and the payload type for Option.
	Elem *Type `json:"elem,omitempty"`

	// Fields is the member list for Record.
	Fields []Field `json:"fields,omitempty"`

	// Cases is the arm list for Variant.
	Cases []Case `json:"cases,omitempty"`

	// Ok and Err are the two branches of Result.
	Ok  *Type `json:"ok,omitempty"`
	Err *Type `json:"err,omitempty"`
}

// MentionsResource reports whether t, anywhere in its structure, carries a
// resource type. Functions whose signature mentions a resource are filtered
// out of the public tool surface during extraction.
func (t *Type) MentionsResource() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindResource:
		return true
	case KindList, KindOption:
		return t.Elem.MentionsResource()
	case KindRecord:
		for _, f := range t.Fields {
			if f.Type.MentionsResource() {
				return true
			}
		}
		return false
	case KindVariant:
		for _, c := range t.Cases {
			if c.Type.MentionsResource() {
				return true
			}
		}
		return false
	case KindResult:
		return t.Ok.MentionsResource() || t.Err.MentionsResource()
	default:
		return false
	}
}

// Func is one exported function's full signature as recovered from a
// component's describe() output.
type Func struct {
	Name    string  `json:"name"`
	Doc     string  `json:"doc,omitempty"`
	Params  []Field `json:"params"`
	Results []Field `json:"results"`
}

// MentionsResource reports whether any parameter or result of f carries a
// resource type.
func (f *Func) MentionsResource() bool {
	for _, p := range f.Params {
		if p.Type.MentionsResource() {
			return true
		}
	}
	for _, r := range f.Results {
		if r.Type.MentionsResource() {
			return true
		}
	}
	return false
}

// Validate checks structural well-formedness: Record field names are
// unique, Variant case names are unique, and every referenced subtype is
// non-nil where the Kind requires it.
func (t *Type) Validate() error {
	if t == nil {
		return fmt.Errorf("ifacetype: nil type")
	}
	switch t.Kind {
	case KindList:
		if t.Elem == nil {
			return fmt.Errorf("ifacetype: list missing elem type")
		}
		return t.Elem.Validate()
	case KindOption:
		if t.Elem == nil {
			return fmt.Errorf("ifacetype: option missing elem type")
		}
		return t.Elem.Validate()
	case KindRecord:
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if seen[f.Name] {
				return fmt.Errorf("ifacetype: record field %q duplicated", f.Name)
			}
			seen[f.Name] = true
			if err := f.Type.Validate(); err != nil {
				return fmt.Errorf("ifacetype: field %q: %w", f.Name, err)
			}
		}
		return nil
	case KindVariant:
		if len(t.Cases) == 0 {
			return fmt.Errorf("ifacetype: variant with no cases")
		}
		seen := make(map[string]bool, len(t.Cases))
		for _, c := range t.Cases {
			if seen[c.Name] {
				return fmt.Errorf("ifacetype: variant case %q duplicated", c.Name)
			}
			seen[c.Name] = true
			if c.Type != nil {
				if err := c.Type.Validate(); err != nil {
					return fmt.Errorf("ifacetype: case %q: %w", c.Name, err)
				}
			}
		}
		return nil
	case KindResult:
		if t.Ok != nil {
			if err := t.Ok.Validate(); err != nil {
				return fmt.Errorf("ifacetype: result ok: %w", err)
			}
		}
		if t.Err != nil {
			if err := t.Err.Validate(); err != nil {
				return fmt.Errorf("ifacetype: result err: %w", err)
			}
		}
		return nil
	case KindBool, KindS8, KindS16, KindS32, KindS64,
		KindU8, KindU16, KindU32, KindU64,
		KindFloat32, KindFloat64, KindString, KindResource:
		return nil
	default:
		return fmt.Errorf("ifacetype: unknown kind %q", t.Kind)
	}
}
