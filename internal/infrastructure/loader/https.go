package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/microsoft/wassette/internal/domain/component"
)

// maxRedirects bounds the redirect chain an https fetch will follow.
const maxRedirects = 5

func newHTTPSClient(maxBodyBytes int64) *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("loader: too many redirects (>%d)", maxRedirects)
			}
			if req.URL.Scheme != "https" {
				return fmt.Errorf("loader: redirect to non-https URL rejected: %s", req.URL)
			}
			return nil
		},
	}
}

func loadHTTPS(ctx context.Context, client *http.Client, origin component.Origin, maxBodyBytes int64) ([]byte, component.Provenance, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin.URL, nil)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: fetch %q: %w", origin.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, component.Provenance{}, fmt.Errorf("loader: fetch %q: unexpected status %s", origin.URL, resp.Status)
	}

	limited := io.LimitReader(resp.Body, maxBodyBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: read body of %q: %w", origin.URL, err)
	}
	if int64(len(data)) > maxBodyBytes {
		return nil, component.Provenance{}, fmt.Errorf("loader: body of %q exceeds %d bytes", origin.URL, maxBodyBytes)
	}

	digest := sha256.Sum256(data)
	return data, component.Provenance{
		Origin:    origin,
		Digest:    hex.EncodeToString(digest[:]),
		FetchedAt: time.Now(),
	}, nil
}
