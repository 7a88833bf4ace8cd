package loader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microsoft/wassette/internal/domain/component"
)

func TestParseOriginFile(t *testing.T) {
	o, err := ParseOrigin("file:///tmp/x.wasm")
	require.NoError(t, err)
	require.Equal(t, component.SchemeFile, o.Scheme)
	require.Equal(t, "/tmp/x.wasm", o.Path)
}

func TestParseOriginFileRejectsRelative(t *testing.T) {
	_, err := ParseOrigin("file://./x.wasm")
	require.Error(t, err)
}

func TestParseOriginFileRejectsNonWasm(t *testing.T) {
	_, err := ParseOrigin("file:///tmp/x.txt")
	require.Error(t, err)
}

func TestParseOriginHTTPS(t *testing.T) {
	o, err := ParseOrigin("https://example.com/x.wasm")
	require.NoError(t, err)
	require.Equal(t, component.SchemeHTTPS, o.Scheme)
}

func TestParseOriginRejectsPlainHTTP(t *testing.T) {
	_, err := ParseOrigin("http://example.com/x.wasm")
	require.Error(t, err)
}

func TestParseOriginOCITag(t *testing.T) {
	o, err := ParseOrigin("oci://ghcr.io/acme/widget:1.0")
	require.NoError(t, err)
	require.Equal(t, "ghcr.io", o.Registry)
	require.Equal(t, "acme/widget", o.Repository)
	require.Equal(t, "1.0", o.Tag)
}

func TestParseOriginOCIDigest(t *testing.T) {
	o, err := ParseOrigin("oci://ghcr.io/acme/widget@sha256:deadbeef")
	require.NoError(t, err)
	require.Equal(t, "sha256:deadbeef", o.Digest)
}

func TestParseOriginUnsupportedScheme(t *testing.T) {
	_, err := ParseOrigin("ftp://example.com/x.wasm")
	require.Error(t, err)
}
