// Package policystore provides file-based persistence for the base
// Policy Record attached to each component: one YAML file per
// component under a policies directory. It owns only the base
// document — the grant/revoke overlay (policy.Overlay) stays in
// memory and is never written here, per spec.md §9's rule that
// runtime grant/revoke must not rewrite the on-disk policy file.
package policystore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/microsoft/wassette/internal/domain/policy"
)

// Store persists one policy.Document per component under dir.
type Store struct {
	dir string
}

// New constructs a Store rooted at dir. dir is created lazily on first
// Save, mirroring the teacher's FileStore, which defers creating
// ~/.reglet until a config write actually happens.
func New(dir string) *Store {
	return &Store{dir: dir}
}

var unsafeComponentIDChar = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeComponentID(id string) string {
	s := unsafeComponentIDChar.ReplaceAllString(id, "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	if len(s) > 128 {
		s = s[:128]
	}
	return s
}

func (s *Store) path(componentID string) string {
	return filepath.Join(s.dir, sanitizeComponentID(componentID)+".yaml")
}

// Load reads componentID's base policy document. A component with no
// attached policy file returns (nil, nil) — callers fall back to
// sandbox.DefaultDenyTemplate(), not to a zero-value Document.
func (s *Store) Load(componentID string) (*policy.Document, error) {
	path := s.path(componentID)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("policystore: read %s: %w", path, err)
	}

	var doc policy.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("policystore: parse %s: %w", path, err)
	}
	return &doc, nil
}

// Save writes doc as componentID's base policy document, replacing any
// prior document wholesale — spec.md §4.C's "new policy fully replaces
// the old one on that component" rule applies at this layer, not just
// in memory.
func (s *Store) Save(componentID string, doc *policy.Document) error {
	//nolint:gosec // G301: 0o755 matches the teacher's config-directory mode.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("policystore: create dir %s: %w", s.dir, err)
	}

	data, err := yaml.MarshalWithOptions(doc, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("policystore: marshal policy: %w", err)
	}

	path := s.path(componentID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("policystore: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("policystore: rename temp file: %w", err)
	}
	return nil
}

// Delete removes componentID's base policy document, if any. Called on
// unload so a stale policy file does not silently reattach if the same
// component_id is reused by a later load.
func (s *Store) Delete(componentID string) error {
	if err := os.Remove(s.path(componentID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("policystore: remove %s: %w", s.path(componentID), err)
	}
	return nil
}

// ListComponents returns every component ID with a persisted policy
// file.
func (s *Store) ListComponents() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("policystore: read dir %s: %w", s.dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return out, nil
}
