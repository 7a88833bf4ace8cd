package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/microsoft/wassette/internal/domain/component"
)

func loadFile(origin component.Origin) ([]byte, component.Provenance, error) {
	clean := filepath.Clean(origin.Path)
	if strings.Contains(clean, "..") {
		return nil, component.Provenance{}, fmt.Errorf("loader: path escapes root after canonicalization: %q", origin.Path)
	}
	bytes, err := os.ReadFile(clean)
	if err != nil {
		return nil, component.Provenance{}, fmt.Errorf("loader: read %q: %w", clean, err)
	}
	digest := sha256.Sum256(bytes)
	return bytes, component.Provenance{
		Origin:    origin,
		Digest:    hex.EncodeToString(digest[:]),
		FetchedAt: time.Now(),
	}, nil
}
