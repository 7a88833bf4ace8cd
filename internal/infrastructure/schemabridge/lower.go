package schemabridge

import (
	"encoding/json"
	"fmt"

	"github.com/microsoft/wassette/internal/domain/ifacetype"
)

// LowerArgs validates rawArgs against toolName's compiled schema, then
// decodes each parameter into a typed ifacetype.Value, per spec.md §4.B
// Direction 2.
func (b *Bridge) LowerArgs(toolName string, rawArgs []byte, params []ifacetype.Field) (map[string]ifacetype.Value, error) {
	if err := b.Validate(toolName, rawArgs); err != nil {
		return nil, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(rawArgs, &obj); err != nil {
		return nil, fmt.Errorf("schemabridge: decode arguments for %q: %w", toolName, err)
	}
	out := make(map[string]ifacetype.Value, len(params))
	for _, p := range params {
		raw, ok := obj[p.Name]
		if !ok {
			return nil, fmt.Errorf("schemabridge: missing parameter %q for %q", p.Name, toolName)
		}
		v, err := decodeValue(raw, p.Type)
		if err != nil {
			return nil, fmt.Errorf("schemabridge: parameter %q for %q: %w", p.Name, toolName, err)
		}
		out[p.Name] = v
	}
	return out, nil
}

// decodeValue decodes one JSON value into an ifacetype.Value following t's
// shape. The compiled schema has already rejected out-of-range integers
// and malformed variants, so this pass assumes a conforming document.
func decodeValue(raw json.RawMessage, t *ifacetype.Type) (ifacetype.Value, error) {
	switch t.Kind {
	case ifacetype.KindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return ifacetype.Value{}, err
		}
		return ifacetype.Value{Kind: t.Kind, Bool: v}, nil

	case ifacetype.KindS8, ifacetype.KindS16, ifacetype.KindS32, ifacetype.KindS64:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return ifacetype.Value{}, err
		}
		return ifacetype.Value{Kind: t.Kind, Int: v}, nil

	case ifacetype.KindU8, ifacetype.KindU16, ifacetype.KindU32, ifacetype.KindU64:
		var v uint64
		if err := json.Unmarshal(raw, &v); err != nil {
			return ifacetype.Value{}, err
		}
		return ifacetype.Value{Kind: t.Kind, Uint: v}, nil

	case ifacetype.KindFloat32:
		var v float32
		if err := json.Unmarshal(raw, &v); err != nil {
			return ifacetype.Value{}, err
		}
		return ifacetype.Value{Kind: t.Kind, F32: v}, nil

	case ifacetype.KindFloat64:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return ifacetype.Value{}, err
		}
		return ifacetype.Value{Kind: t.Kind, F64: v}, nil

	case ifacetype.KindString:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return ifacetype.Value{}, err
		}
		return ifacetype.Value{Kind: t.Kind, Str: v}, nil

	case ifacetype.KindList:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return ifacetype.Value{}, err
		}
		list := make([]ifacetype.Value, len(items))
		for i, item := range items {
			v, err := decodeValue(item, t.Elem)
			if err != nil {
				return ifacetype.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = v
		}
		return ifacetype.Value{Kind: t.Kind, List: list}, nil

	case ifacetype.KindRecord:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ifacetype.Value{}, err
		}
		fields := make([]ifacetype.Value, len(t.Fields))
		for i, f := range t.Fields {
			fv, err := decodeValue(obj[f.Name], f.Type)
			if err != nil {
				return ifacetype.Value{}, fmt.Errorf(".%s: %w", f.Name, err)
			}
			fields[i] = fv
		}
		return ifacetype.Value{Kind: t.Kind, Record: fields}, nil

	case ifacetype.KindVariant:
		var obj struct {
			Case  string          `json:"case"`
			Value json.RawMessage `json:"value,omitempty"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ifacetype.Value{}, err
		}
		for _, c := range t.Cases {
			if c.Name != obj.Case {
				continue
			}
			if c.Type == nil {
				return ifacetype.Value{Kind: t.Kind, VariantCase: obj.Case}, nil
			}
			v, err := decodeValue(obj.Value, c.Type)
			if err != nil {
				return ifacetype.Value{}, fmt.Errorf(".value: %w", err)
			}
			return ifacetype.Value{Kind: t.Kind, VariantCase: obj.Case, VariantVal: &v}, nil
		}
		return ifacetype.Value{}, fmt.Errorf("unknown variant case %q", obj.Case)

	case ifacetype.KindOption:
		if string(raw) == "null" || len(raw) == 0 {
			return ifacetype.Value{Kind: t.Kind}, nil
		}
		v, err := decodeValue(raw, t.Elem)
		if err != nil {
			return ifacetype.Value{}, err
		}
		return ifacetype.Value{Kind: t.Kind, OptionVal: &v}, nil

	case ifacetype.KindResult:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ifacetype.Value{}, err
		}
		if okRaw, ok := obj["ok"]; ok {
			v, err := decodeValue(okRaw, t.Ok)
			if err != nil {
				return ifacetype.Value{}, fmt.Errorf(".ok: %w", err)
			}
			return ifacetype.Value{Kind: t.Kind, ResultOk: &v}, nil
		}
		if errRaw, ok := obj["err"]; ok {
			v, err := decodeValue(errRaw, t.Err)
			if err != nil {
				return ifacetype.Value{}, fmt.Errorf(".err: %w", err)
			}
			return ifacetype.Value{Kind: t.Kind, ResultErr: &v}, nil
		}
		return ifacetype.Value{}, fmt.Errorf("result object has neither ok nor err")

	default:
		return ifacetype.Value{}, fmt.Errorf("unsupported kind %q", t.Kind)
	}
}
