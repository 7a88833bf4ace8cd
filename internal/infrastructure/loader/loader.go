package loader

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/microsoft/wassette/internal/domain/component"
)

// Config configures a Loader.
type Config struct {
	CacheDir        string
	MemCacheEntries int
	MaxBodyBytes    int64
	Trust           TrustPolicy
}

// DefaultMaxBodyBytes bounds an https fetch's response body, per spec.md
// §4.A's "enforce a configurable maximum body size".
const DefaultMaxBodyBytes = 64 << 20

// Loader implements spec.md §4.A: resolve an origin reference, fetch
// bytes, and return them with provenance. It never validates that the
// bytes form a well-formed component — that is the Manager's job.
type Loader struct {
	cache        *Cache
	httpClient   *http.Client
	maxBodyBytes int64
	trust        TrustPolicy

	// inflight collapses concurrent fetches of the same oci digest into
	// one network round-trip, satisfying the "cache hit" scenario of
	// spec.md §8 even when two loads race before the first populates the
	// cache.
	inflight singleflight.Group
}

// New builds a Loader, creating its on-disk cache directory if needed.
func New(cfg Config) (*Loader, error) {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Trust == nil {
		cfg.Trust = NoopTrustPolicy{}
	}
	cache, err := NewCache(cfg.CacheDir, cfg.MemCacheEntries)
	if err != nil {
		return nil, err
	}
	return &Loader{
		cache:        cache,
		httpClient:   newHTTPSClient(cfg.MaxBodyBytes),
		maxBodyBytes: cfg.MaxBodyBytes,
		trust:        cfg.Trust,
	}, nil
}

// result bundles what singleflight needs to pass through a single
// interface{} return value.
type result struct {
	data []byte
	prov component.Provenance
}

// Load resolves raw against the origin grammar and fetches its bytes.
func (l *Loader) Load(ctx context.Context, raw string) ([]byte, component.Provenance, error) {
	origin, err := ParseOrigin(raw)
	if err != nil {
		return nil, component.Provenance{}, err
	}

	switch origin.Scheme {
	case component.SchemeFile:
		data, prov, err := loadFile(origin)
		if err != nil {
			return nil, component.Provenance{}, err
		}
		return l.verify(ctx, data, prov)

	case component.SchemeHTTPS:
		data, prov, err := loadHTTPS(ctx, l.httpClient, origin, l.maxBodyBytes)
		if err != nil {
			return nil, component.Provenance{}, err
		}
		return l.verify(ctx, data, prov)

	case component.SchemeOCI:
		return l.loadOCICached(ctx, origin)

	default:
		return nil, component.Provenance{}, fmt.Errorf("loader: unsupported scheme %q", origin.Scheme)
	}
}

func (l *Loader) loadOCICached(ctx context.Context, origin component.Origin) ([]byte, component.Provenance, error) {
	key := origin.Registry + "/" + origin.Repository + "@" + firstNonEmpty(origin.Digest, origin.Tag)

	v, err, _ := l.inflight.Do(key, func() (interface{}, error) {
		// A digest-pinned reference can be served straight from cache
		// without contacting the registry at all.
		if origin.Digest != "" {
			if data, ok := l.cache.Get(origin.Digest); ok {
				return result{data: data, prov: component.Provenance{Origin: origin, Digest: origin.Digest, FromCache: true}}, nil
			}
		}

		data, prov, err := loadOCI(ctx, origin)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Put(prov.Digest, data); err != nil {
			return nil, fmt.Errorf("loader: populate cache: %w", err)
		}
		return result{data: data, prov: prov}, nil
	})
	if err != nil {
		return nil, component.Provenance{}, err
	}
	r := v.(result)
	return l.verify(ctx, r.data, r.prov)
}

func (l *Loader) verify(ctx context.Context, data []byte, prov component.Provenance) ([]byte, component.Provenance, error) {
	if err := l.trust.Verify(ctx, data, prov); err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: trust policy rejected artifact: %w", err)
	}
	return data, prov, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
