package hostfuncs

import (
	"context"

	"github.com/microsoft/wassette/internal/domain/sandbox"
)

// contextKey mirrors the teacher's hostfuncs.contextKey: an unexported
// type so no other package can collide with this context value.
type contextKey struct {
	name string
}

var templateKey = contextKey{name: "sandbox-template"}
var denyHookKey = contextKey{name: "deny-hook"}

// WithTemplate attaches the calling component's Sandbox Template to ctx,
// the same pattern the teacher uses for WithPluginName — the template
// travels with the call through the Executor into every host function
// invocation that call triggers.
func WithTemplate(ctx context.Context, tpl *sandbox.Template) context.Context {
	return context.WithValue(ctx, templateKey, tpl)
}

// TemplateFromContext retrieves the active Sandbox Template, falling back
// to an all-deny template if none was attached — a host function invoked
// without a Template denies by construction rather than panicking.
func TemplateFromContext(ctx context.Context) *sandbox.Template {
	if tpl, ok := ctx.Value(templateKey).(*sandbox.Template); ok && tpl != nil {
		return tpl
	}
	return sandbox.DefaultDenyTemplate()
}

// DenyFunc is notified every time a host function's Template check
// denies a call, carrying which host function denied it and the
// Decision's reason, so a caller can surface the denial as a Lifecycle
// Event (spec.md §4.D's "permission denial is observable in events").
type DenyFunc func(hostFn, reason string)

// WithDenyHook attaches fn to ctx; a nil fn is a valid no-op hook.
func WithDenyHook(ctx context.Context, fn DenyFunc) context.Context {
	return context.WithValue(ctx, denyHookKey, fn)
}

// denyHookFromContext retrieves the attached DenyFunc, or a no-op if
// none was attached.
func denyHookFromContext(ctx context.Context) DenyFunc {
	if fn, ok := ctx.Value(denyHookKey).(DenyFunc); ok && fn != nil {
		return fn
	}
	return func(string, string) {}
}
