package wasmrt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microsoft/wassette/internal/domain/ifacetype"
)

func TestOrderArgsProjectsByDeclaredParamOrder(t *testing.T) {
	params := []ifacetype.Field{
		{Name: "b", Type: &ifacetype.Type{Kind: ifacetype.KindU32}},
		{Name: "a", Type: &ifacetype.Type{Kind: ifacetype.KindString}},
	}
	args := map[string]ifacetype.Value{
		"a": {Kind: ifacetype.KindString, Str: "x"},
		"b": {Kind: ifacetype.KindU32, Uint: 7},
	}

	out := orderArgs(params, args)
	require.Len(t, out, 2)
	require.EqualValues(t, 7, out[0].Uint)
	require.Equal(t, "x", out[1].Str)
}

func TestOrderArgsMissingKeyYieldsZeroValue(t *testing.T) {
	params := []ifacetype.Field{{Name: "missing", Type: &ifacetype.Type{Kind: ifacetype.KindBool}}}
	out := orderArgs(params, map[string]ifacetype.Value{})
	require.Len(t, out, 1)
	require.False(t, out[0].Bool)
}

func TestUnpackRoundTripsPtrAndSize(t *testing.T) {
	ptr, size := unpack(uint64(12)<<32 | uint64(34))
	require.EqualValues(t, 12, ptr)
	require.EqualValues(t, 34, size)
}
