package schemabridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microsoft/wassette/internal/domain/ifacetype"
)

func computeFunc() *ifacetype.Func {
	return &ifacetype.Func{
		Name: "compute",
		Params: []ifacetype.Field{
			{Name: "x", Type: &ifacetype.Type{Kind: ifacetype.KindU32}},
			{Name: "y", Type: &ifacetype.Type{Kind: ifacetype.KindList, Elem: &ifacetype.Type{Kind: ifacetype.KindString}}},
		},
		Results: []ifacetype.Field{{Name: "r", Type: &ifacetype.Type{
			Kind: ifacetype.KindResult,
			Ok: &ifacetype.Type{Kind: ifacetype.KindRecord, Fields: []ifacetype.Field{
				{Name: "sum", Type: &ifacetype.Type{Kind: ifacetype.KindU32}},
				{Name: "names", Type: &ifacetype.Type{Kind: ifacetype.KindString}},
			}},
			Err: &ifacetype.Type{Kind: ifacetype.KindString},
		}}},
	}
}

func TestBridgeValidateRejectsExtraProperty(t *testing.T) {
	fn := computeFunc()
	b := New()
	require.NoError(t, b.Register("comp.compute", ifacetype.ArgsSchema(fn)))

	err := b.Validate("comp.compute", []byte(`{"x":1,"y":[],"z":"extra"}`))
	require.Error(t, err)
}

func TestBridgeValidateRejectsOutOfRangeInt(t *testing.T) {
	fn := computeFunc()
	b := New()
	require.NoError(t, b.Register("comp.compute", ifacetype.ArgsSchema(fn)))

	err := b.Validate("comp.compute", []byte(`{"x":-1,"y":[]}`))
	require.Error(t, err)
}

func TestBridgeLowerArgsRoundtrip(t *testing.T) {
	fn := computeFunc()
	b := New()
	require.NoError(t, b.Register("comp.compute", ifacetype.ArgsSchema(fn)))

	args, err := b.LowerArgs("comp.compute", []byte(`{"x":7,"y":["a","b"]}`), fn.Params)
	require.NoError(t, err)
	require.Equal(t, uint64(7), args["x"].Uint)
	require.Len(t, args["y"].List, 2)
}

func TestLiftResultOkBranch(t *testing.T) {
	fn := computeFunc()
	sum := ifacetype.Value{Kind: ifacetype.KindU32, Uint: 3}
	names := ifacetype.Value{Kind: ifacetype.KindString, Str: "a,b"}
	rec := ifacetype.Value{Kind: ifacetype.KindRecord, Record: []ifacetype.Value{sum, names}}
	result := ifacetype.Value{Kind: ifacetype.KindResult, ResultOk: &rec}

	raw, ok, err := LiftResult(fn.Results, []ifacetype.Value{result})
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"sum":3,"names":"a,b"}`, string(raw))
}

func TestLiftResultErrBranch(t *testing.T) {
	fn := computeFunc()
	errVal := ifacetype.Value{Kind: ifacetype.KindString, Str: "boom"}
	result := ifacetype.Value{Kind: ifacetype.KindResult, ResultErr: &errVal}

	raw, ok, err := LiftResult(fn.Results, []ifacetype.Value{result})
	require.NoError(t, err)
	require.False(t, ok)
	require.JSONEq(t, `"boom"`, string(raw))
}

func TestValidateDTORejectsMissingRequired(t *testing.T) {
	err := ValidateDTO(&LoadComponentRequest{})
	require.Error(t, err)
}

func TestValidateDTOAcceptsValid(t *testing.T) {
	err := ValidateDTO(&LoadComponentRequest{Source: "file:///tmp/x.wasm"})
	require.NoError(t, err)
}
