package ifacetype

import "fmt"

// Value is a typed value conforming to some Type. Only the field matching
// the Type's Kind is meaningful; it is the component-level analogue of
// wasm/plugin.go's raw packed ptr+len payloads, but already decoded.
type Value struct {
	Kind Kind

	Bool bool
	Int  int64  // populated for signed integer kinds
	Uint uint64 // populated for unsigned integer kinds
	F32  float32
	F64  float64
	Str  string

	List []Value

	// Record holds field values in declaration order, parallel to the
	// owning Type's Fields.
	Record []Value

	// VariantCase is the chosen case name; VariantVal is its payload (nil
	// for a unit case).
	VariantCase string
	VariantVal  *Value

	// OptionVal is nil for "none", non-nil for "some".
	OptionVal *Value

	// ResultOk xor ResultErr is set, never both.
	ResultOk  *Value
	ResultErr *Value
}

// CheckType reports whether v structurally conforms to t: correct Kind,
// integers within bounds, record arity matching, and a variant case that
// exists in t's Cases.
func CheckType(v Value, t *Type) error {
	if t == nil {
		return fmt.Errorf("ifacetype: nil type")
	}
	if v.Kind != t.Kind {
		return fmt.Errorf("ifacetype: expected kind %s, got %s", t.Kind, v.Kind)
	}
	switch t.Kind {
	case KindBool, KindString, KindFloat32, KindFloat64, KindResource:
		return nil
	case KindS8, KindS16, KindS32, KindS64:
		min, max, _, _ := IntBounds(t.Kind)
		if v.Int < min || v.Int > max {
			return fmt.Errorf("ifacetype: %d out of range for %s [%d,%d]", v.Int, t.Kind, min, max)
		}
		return nil
	case KindU8, KindU16, KindU32:
		_, max, _, _ := IntBounds(t.Kind)
		if int64(v.Uint) > max {
			return fmt.Errorf("ifacetype: %d out of range for %s [0,%d]", v.Uint, t.Kind, max)
		}
		return nil
	case KindU64:
		return nil
	case KindList:
		for i, e := range v.List {
			if err := CheckType(e, t.Elem); err != nil {
				return fmt.Errorf("ifacetype: list[%d]: %w", i, err)
			}
		}
		return nil
	case KindRecord:
		if len(v.Record) != len(t.Fields) {
			return fmt.Errorf("ifacetype: record arity mismatch: have %d, want %d", len(v.Record), len(t.Fields))
		}
		for i, f := range t.Fields {
			if err := CheckType(v.Record[i], f.Type); err != nil {
				return fmt.Errorf("ifacetype: field %q: %w", f.Name, err)
			}
		}
		return nil
	case KindVariant:
		for _, c := range t.Cases {
			if c.Name != v.VariantCase {
				continue
			}
			if c.Type == nil {
				if v.VariantVal != nil {
					return fmt.Errorf("ifacetype: variant case %q is unit but carries a payload", c.Name)
				}
				return nil
			}
			if v.VariantVal == nil {
				return fmt.Errorf("ifacetype: variant case %q requires a payload", c.Name)
			}
			return CheckType(*v.VariantVal, c.Type)
		}
		return fmt.Errorf("ifacetype: unknown variant case %q", v.VariantCase)
	case KindOption:
		if v.OptionVal == nil {
			return nil
		}
		return CheckType(*v.OptionVal, t.Elem)
	case KindResult:
		switch {
		case v.ResultOk != nil && v.ResultErr != nil:
			return fmt.Errorf("ifacetype: result carries both ok and err")
		case v.ResultOk != nil:
			if t.Ok == nil {
				return fmt.Errorf("ifacetype: result has no ok branch")
			}
			return CheckType(*v.ResultOk, t.Ok)
		case v.ResultErr != nil:
			if t.Err == nil {
				return fmt.Errorf("ifacetype: result has no err branch")
			}
			return CheckType(*v.ResultErr, t.Err)
		default:
			return fmt.Errorf("ifacetype: result carries neither ok nor err")
		}
	default:
		return fmt.Errorf("ifacetype: unchecked kind %q", t.Kind)
	}
}
