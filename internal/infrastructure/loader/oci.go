package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/microsoft/wassette/internal/domain/component"
)

// wasmComponentMediaType is the media type the OCI distribution ecosystem
// uses for a packaged WebAssembly component layer, following the
// convention the wasm-pkg tooling has established for component registries.
const wasmComponentMediaType = "application/vnd.wasm.content.layer.v1+wasm"

func loadOCI(ctx context.Context, origin component.Origin) ([]byte, component.Provenance, error) {
	repo, err := remote.NewRepository(origin.Registry + "/" + origin.Repository)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: open oci repository %q: %w", origin.Registry+"/"+origin.Repository, err)
	}

	ref := origin.Tag
	if origin.Digest != "" {
		ref = origin.Digest
	}

	dst := memory.New()
	manifestDesc, err := oras.Copy(ctx, repo, ref, dst, ref, oras.DefaultCopyOptions)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: pull %q: %w", origin.Raw, err)
	}

	manifestBytes, err := content.FetchAll(ctx, dst, manifestDesc)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: fetch manifest for %q: %w", origin.Raw, err)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: parse manifest for %q: %w", origin.Raw, err)
	}

	var layerDesc ocispec.Descriptor
	found := false
	for _, l := range manifest.Layers {
		if l.MediaType == wasmComponentMediaType || l.MediaType == "application/wasm" {
			layerDesc = l
			found = true
			break
		}
	}
	if !found {
		return nil, component.Provenance{}, fmt.Errorf("loader: %q has no WebAssembly component layer", origin.Raw)
	}

	data, err := content.FetchAll(ctx, dst, layerDesc)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: fetch component layer for %q: %w", origin.Raw, err)
	}

	sum := sha256.Sum256(data)
	return data, component.Provenance{
		Origin:    origin,
		Digest:    hex.EncodeToString(sum[:]),
		FetchedAt: time.Now(),
	}, nil
}
