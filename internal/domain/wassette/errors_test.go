package wassette

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	err := NotFoundf("unload", "comp-1")
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrCollision))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Originf("load", "file:///x.wasm", cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrOrigin)
}

func TestErrorDiagnostics(t *testing.T) {
	err := Validationf("attach_policy", "comp-1", "version missing", "bad uri")
	require.Contains(t, err.Error(), "version missing")
	require.Contains(t, err.Error(), "bad uri")
}
