package ifacetype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeValidate(t *testing.T) {
	cases := []struct {
		name    string
		typ     *Type
		wantErr bool
	}{
		{"bool ok", &Type{Kind: KindBool}, false},
		{"list missing elem", &Type{Kind: KindList}, true},
		{"record dup field", &Type{Kind: KindRecord, Fields: []Field{
			{Name: "x", Type: &Type{Kind: KindU32}},
			{Name: "x", Type: &Type{Kind: KindString}},
		}}, true},
		{"variant no cases", &Type{Kind: KindVariant}, true},
		{"variant dup case", &Type{Kind: KindVariant, Cases: []Case{
			{Name: "a"}, {Name: "a"},
		}}, true},
		{"result ok/err", &Type{Kind: KindResult,
			Ok:  &Type{Kind: KindString},
			Err: &Type{Kind: KindString},
		}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.typ.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMentionsResource(t *testing.T) {
	plain := &Func{Params: []Field{{Name: "x", Type: &Type{Kind: KindU32}}}}
	require.False(t, plain.MentionsResource())

	withRes := &Func{Params: []Field{{Name: "h", Type: &Type{Kind: KindResource}}}}
	require.True(t, withRes.MentionsResource())

	nested := &Func{Results: []Field{{Name: "r", Type: &Type{
		Kind: KindList,
		Elem: &Type{Kind: KindResource},
	}}}}
	require.True(t, nested.MentionsResource())
}

func TestCheckTypeIntBounds(t *testing.T) {
	u8 := &Type{Kind: KindU8}
	require.NoError(t, CheckType(Value{Kind: KindU8, Uint: 255}, u8))
	require.Error(t, CheckType(Value{Kind: KindU8, Uint: 256}, u8))

	s8 := &Type{Kind: KindS8}
	require.NoError(t, CheckType(Value{Kind: KindS8, Int: -128}, s8))
	require.Error(t, CheckType(Value{Kind: KindS8, Int: -129}, s8))
}

func TestCheckTypeVariant(t *testing.T) {
	variant := &Type{Kind: KindVariant, Cases: []Case{
		{Name: "unit"},
		{Name: "payload", Type: &Type{Kind: KindString}},
	}}
	require.NoError(t, CheckType(Value{Kind: KindVariant, VariantCase: "unit"}, variant))
	require.Error(t, CheckType(Value{Kind: KindVariant, VariantCase: "unknown"}, variant))

	str := Value{Kind: KindString, Str: "x"}
	require.NoError(t, CheckType(Value{Kind: KindVariant, VariantCase: "payload", VariantVal: &str}, variant))
}

func TestToJSONSchemaResult(t *testing.T) {
	fn := &Func{
		Name:   "compute",
		Params: []Field{{Name: "x", Type: &Type{Kind: KindU32}}, {Name: "y", Type: &Type{Kind: KindList, Elem: &Type{Kind: KindString}}}},
		Results: []Field{{Name: "r", Type: &Type{
			Kind: KindResult,
			Ok: &Type{Kind: KindRecord, Fields: []Field{
				{Name: "sum", Type: &Type{Kind: KindU32}},
				{Name: "names", Type: &Type{Kind: KindString}},
			}},
			Err: &Type{Kind: KindString},
		}}},
	}
	args := ArgsSchema(fn)
	require.Equal(t, "object", args["type"])
	props := args["properties"].(JSONSchema)
	require.Contains(t, props, "x")
	require.Contains(t, props, "y")

	out := ResultSchema(fn)
	require.Contains(t, out, "oneOf")
}
