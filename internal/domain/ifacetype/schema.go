package ifacetype

import "math"

// JSONSchema is a JSON Schema document represented as a plain map so it can
// be marshaled directly or handed to santhosh-tekuri/jsonschema/v5 for
// compilation without an intermediate struct tree.
type JSONSchema = map[string]interface{}

// ToJSONSchema renders t as a JSON Schema node per the type mapping in
// spec.md §4.B: fixed-width integers carry minimum/maximum, lists become
// array, records become object with every field required, variants become
// oneOf tagged on a "case" discriminator, options become a nullable schema,
// and results become a two-branch oneOf over {ok:...} / {err:...}.
func ToJSONSchema(t *Type) JSONSchema {
	if t == nil {
		return JSONSchema{}
	}
	switch t.Kind {
	case KindBool:
		return JSONSchema{"type": "boolean"}
	case KindString:
		return JSONSchema{"type": "string"}
	case KindFloat32, KindFloat64:
		return JSONSchema{"type": "number"}
	case KindS8, KindS16, KindS32, KindS64:
		min, max, _, _ := IntBounds(t.Kind)
		return JSONSchema{"type": "integer", "minimum": min, "maximum": max}
	case KindU8, KindU16, KindU32:
		_, max, _, _ := IntBounds(t.Kind)
		return JSONSchema{"type": "integer", "minimum": 0, "maximum": max}
	case KindU64:
		return JSONSchema{"type": "integer", "minimum": 0, "maximum": float64(math.MaxUint64)}
	case KindList:
		return JSONSchema{"type": "array", "items": ToJSONSchema(t.Elem)}
	case KindRecord:
		props := JSONSchema{}
		required := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			props[f.Name] = ToJSONSchema(f.Type)
			required = append(required, f.Name)
		}
		return JSONSchema{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		}
	case KindVariant:
		branches := make([]JSONSchema, 0, len(t.Cases))
		for _, c := range t.Cases {
			props := JSONSchema{"case": JSONSchema{"type": "string", "const": c.Name}}
			required := []string{"case"}
			if c.Type != nil {
				props["value"] = ToJSONSchema(c.Type)
				required = append(required, "value")
			}
			branches = append(branches, JSONSchema{
				"type":                 "object",
				"properties":           props,
				"required":             required,
				"additionalProperties": false,
			})
		}
		return JSONSchema{"oneOf": branches}
	case KindOption:
		return JSONSchema{"anyOf": []JSONSchema{{"type": "null"}, ToJSONSchema(t.Elem)}}
	case KindResult:
		branches := make([]JSONSchema, 0, 2)
		if t.Ok != nil {
			branches = append(branches, JSONSchema{
				"type":                 "object",
				"properties":           JSONSchema{"ok": ToJSONSchema(t.Ok)},
				"required":             []string{"ok"},
				"additionalProperties": false,
			})
		}
		if t.Err != nil {
			branches = append(branches, JSONSchema{
				"type":                 "object",
				"properties":           JSONSchema{"err": ToJSONSchema(t.Err)},
				"required":             []string{"err"},
				"additionalProperties": false,
			})
		}
		return JSONSchema{"oneOf": branches}
	case KindResource:
		// Never reached: functions mentioning a resource are filtered out
		// before a schema is requested for them.
		return JSONSchema{}
	default:
		return JSONSchema{}
	}
}

// ArgsSchema builds the argument JSON Schema for a function: an object with
// one required property per parameter.
func ArgsSchema(f *Func) JSONSchema {
	props := JSONSchema{}
	required := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		props[p.Name] = ToJSONSchema(p.Type)
		required = append(required, p.Name)
	}
	return JSONSchema{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// ResultSchema builds the structured-output JSON Schema for a function, or
// nil if the function has no results (a void export has no structured
// output schema).
func ResultSchema(f *Func) JSONSchema {
	switch len(f.Results) {
	case 0:
		return nil
	case 1:
		return ToJSONSchema(f.Results[0].Type)
	default:
		// Multiple named results behave like a record.
		fields := make([]Field, len(f.Results))
		copy(fields, f.Results)
		return ToJSONSchema(&Type{Kind: KindRecord, Fields: fields})
	}
}
