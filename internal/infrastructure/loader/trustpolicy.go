package loader

import (
	"context"

	"github.com/microsoft/wassette/internal/domain/component"
)

// TrustPolicy is the explicit, currently-unpopulated extension point for
// signature/provenance verification (spec.md §9's open question: left out
// of this core, reserved as a post-fetch, fail-closed gate for a future
// verification framework). NoopTrustPolicy is the default and the only
// implementation this core ships.
type TrustPolicy interface {
	// Verify is called after bytes are fetched (cache hit or miss) and
	// before they are handed to the Manager for validation. A non-nil
	// error fails the load exactly as any other OriginError would.
	Verify(ctx context.Context, data []byte, prov component.Provenance) error
}

// NoopTrustPolicy performs no verification. This is intentional: signature
// verification is out of scope for this core.
type NoopTrustPolicy struct{}

func (NoopTrustPolicy) Verify(context.Context, []byte, component.Provenance) error { return nil }
