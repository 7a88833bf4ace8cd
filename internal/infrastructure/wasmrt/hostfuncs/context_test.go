package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microsoft/wassette/internal/domain/sandbox"
)

func TestTemplateFromContextDefaultsToDefaultDeny(t *testing.T) {
	tpl := TemplateFromContext(context.Background())
	require.NotNil(t, tpl)
	d := tpl.CheckStorage("/etc/passwd", "read")
	require.False(t, d.Allowed)
}

func TestTemplateFromContextReturnsAttached(t *testing.T) {
	tpl := sandbox.DefaultDenyTemplate()
	tpl.Storage.AddRule("/data", []string{"read"}, true)

	ctx := WithTemplate(context.Background(), tpl)
	got := TemplateFromContext(ctx)
	require.True(t, got.CheckStorage("/data/x.txt", "read").Allowed)
}

func TestDenyHookFromContextDefaultsToNoOp(t *testing.T) {
	fn := denyHookFromContext(context.Background())
	require.NotPanics(t, func() { fn("open_path", "denied") })
}

func TestDenyHookFromContextReturnsAttached(t *testing.T) {
	var gotFn, gotReason string
	ctx := WithDenyHook(context.Background(), func(hostFn, reason string) {
		gotFn, gotReason = hostFn, reason
	})

	denyHookFromContext(ctx)("connect_net", "host not allowed")
	require.Equal(t, "connect_net", gotFn)
	require.Equal(t, "host not allowed", gotReason)
}
