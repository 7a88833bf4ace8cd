package hostfuncs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRequestRoundTrips(t *testing.T) {
	req := OpenRequest{Path: "/data/out.txt", Access: "write"}
	data, err := json.Marshal(req)
	require.NoError(t, err)

	var got OpenRequest
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, req, got)
}

func TestConnectResponseOmitsEmptyReason(t *testing.T) {
	data, err := json.Marshal(ConnectResponse{Allowed: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"allowed":true}`, string(data))
}

func TestEnvResponseOmitsEmptyValue(t *testing.T) {
	data, err := json.Marshal(EnvResponse{Allowed: false})
	require.NoError(t, err)
	require.JSONEq(t, `{"allowed":false}`, string(data))
}
