package schemabridge

import (
	"encoding/json"
	"fmt"

	"github.com/microsoft/wassette/internal/domain/ifacetype"
)

// LiftResult converts a function's typed results back to the tool's JSON
// success payload, per spec.md §4.B Direction 3. A single `result<ok,err>`
// result unwraps so an err branch surfaces as a structured tool error
// rather than a nested {"ok":...}; any other shape marshals directly.
func LiftResult(results []ifacetype.Field, values []ifacetype.Value) (json.RawMessage, bool, error) {
	if len(results) == 0 {
		return json.RawMessage(`null`), true, nil
	}
	if len(results) == 1 && results[0].Type.Kind == ifacetype.KindResult {
		return liftResultType(values[0], results[0].Type)
	}

	obj := make(map[string]interface{}, len(results))
	for i, r := range results {
		v, err := liftValue(values[i], r.Type)
		if err != nil {
			return nil, false, err
		}
		obj[r.Name] = v
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, false, fmt.Errorf("schemabridge: marshal result: %w", err)
	}
	return raw, true, nil
}

// liftResultType unwraps a result<ok,err> value: ok=true means the tool
// succeeded with the ok payload, ok=false means the component itself
// reported a typed failure (not an Executor-level error) whose payload is
// the lifted err value.
func liftResultType(v ifacetype.Value, t *ifacetype.Type) (json.RawMessage, bool, error) {
	switch {
	case v.ResultOk != nil:
		payload, err := liftValue(*v.ResultOk, t.Ok)
		if err != nil {
			return nil, false, err
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, false, err
		}
		return raw, true, nil
	case v.ResultErr != nil:
		payload, err := liftValue(*v.ResultErr, t.Err)
		if err != nil {
			return nil, false, err
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, false, err
		}
		return raw, false, nil
	default:
		return nil, false, fmt.Errorf("schemabridge: result value carries neither ok nor err")
	}
}

// liftValue converts one typed value to a JSON-compatible Go value,
// following t's shape so record fields and variant cases carry their
// declared names rather than positional placeholders — the property
// round-trip LowerArgs' decodeValue depends on for idempotence.
func liftValue(v ifacetype.Value, t *ifacetype.Type) (interface{}, error) {
	switch v.Kind {
	case ifacetype.KindBool:
		return v.Bool, nil
	case ifacetype.KindS8, ifacetype.KindS16, ifacetype.KindS32, ifacetype.KindS64:
		return v.Int, nil
	case ifacetype.KindU8, ifacetype.KindU16, ifacetype.KindU32, ifacetype.KindU64:
		return v.Uint, nil
	case ifacetype.KindFloat32:
		return v.F32, nil
	case ifacetype.KindFloat64:
		return v.F64, nil
	case ifacetype.KindString:
		return v.Str, nil
	case ifacetype.KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			lv, err := liftValue(e, t.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = lv
		}
		return out, nil
	case ifacetype.KindRecord:
		out := make(map[string]interface{}, len(v.Record))
		for i, fv := range v.Record {
			name := fmt.Sprintf("field%d", i)
			var fieldType *ifacetype.Type
			if t != nil && i < len(t.Fields) {
				name = t.Fields[i].Name
				fieldType = t.Fields[i].Type
			}
			lv, err := liftValue(fv, fieldType)
			if err != nil {
				return nil, err
			}
			out[name] = lv
		}
		return out, nil
	case ifacetype.KindVariant:
		out := map[string]interface{}{"case": v.VariantCase}
		if v.VariantVal != nil {
			var caseType *ifacetype.Type
			if t != nil {
				for _, c := range t.Cases {
					if c.Name == v.VariantCase {
						caseType = c.Type
						break
					}
				}
			}
			lv, err := liftValue(*v.VariantVal, caseType)
			if err != nil {
				return nil, err
			}
			out["value"] = lv
		}
		return out, nil
	case ifacetype.KindOption:
		if v.OptionVal == nil {
			return nil, nil
		}
		var elemType *ifacetype.Type
		if t != nil {
			elemType = t.Elem
		}
		return liftValue(*v.OptionVal, elemType)
	case ifacetype.KindResult:
		raw, ok, err := liftResultType(v, t)
		if err != nil {
			return nil, err
		}
		var payload interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		if ok {
			return map[string]interface{}{"ok": payload}, nil
		}
		return map[string]interface{}{"err": payload}, nil
	default:
		return nil, fmt.Errorf("schemabridge: cannot lift kind %q", v.Kind)
	}
}
