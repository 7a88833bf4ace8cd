// Package secretstore supplements spec.md's Policy Compiler with a
// per-component secret store: a YAML file per component, lazily loaded
// and mtime-cached, feeding the environment-capture step of
// policy.Compile alongside the frozen host environment. This is not
// named by spec.md or SPEC_FULL.md's core modules; it is carried over
// from the original Rust implementation's secrets.rs (SPEC_FULL.md §12
// supplemented features).
package secretstore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-yaml"
)

// Store manages per-component secret files under dir, one YAML document
// per component, cached with mtime-based invalidation exactly as
// secrets.rs's SecretManager does.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	secrets map[string]string
	mtime   time.Time
}

// New constructs a Store rooted at dir. dir is created lazily on first
// write, not at construction, mirroring ensure_secrets_dir's on-demand
// behavior.
func New(dir string) *Store {
	return &Store{dir: dir, cache: make(map[string]cached)}
}

var unsafeComponentIDChar = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeComponentID maps a component ID to a safe filename stem:
// non-alphanumeric/._- characters become underscores, runs of
// underscores collapse to one, and the result is capped at 128 bytes —
// the exact rule secrets.rs::sanitize_component_id applies so the same
// component ID always resolves to the same file across implementations.
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

// Get returns the secrets currently on disk for componentID, using the
// in-memory cache when the file's mtime has not advanced since the last
// load. A component with no secrets file returns an empty, non-nil map.
func (s *Store) Get(componentID string) (map[string]string, error) {
	path := s.path(componentID)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("secretstore: stat %s: %w", path, err)
	}
	mtime := info.ModTime()

	s.mu.Lock()
	if c, ok := s.cache[componentID]; ok && !c.mtime.Before(mtime) {
		s.mu.Unlock()
		return cloneMap(c.secrets), nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secretstore: read %s: %w", path, err)
	}
	secrets := make(map[string]string)
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("secretstore: parse %s: %w", path, err)
	}

	s.mu.Lock()
	s.cache[componentID] = cached{secrets: cloneMap(secrets), mtime: mtime}
	s.mu.Unlock()

	return secrets, nil
}

// Set atomically replaces componentID's entire secret set, per
// set_secrets's write-temp-then-rename discipline, and invalidates the
// cache entry so the next Get re-reads the new mtime.
func (s *Store) Set(componentID string, secrets map[string]string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("secretstore: create dir %s: %w", s.dir, err)
	}

	data, err := yaml.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("secretstore: marshal secrets: %w", err)
	}

	path := s.path(componentID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("secretstore: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("secretstore: rename temp file: %w", err)
	}

	s.mu.Lock()
	delete(s.cache, componentID)
	s.mu.Unlock()
	return nil
}

// Update merges updates into componentID's existing secrets (insert or
// overwrite per key) and persists the result.
func (s *Store) Update(componentID string, updates map[string]string) error {
	secrets, err := s.Get(componentID)
	if err != nil {
		return err
	}
	for k, v := range updates {
		secrets[k] = v
	}
	return s.Set(componentID, secrets)
}

// DeleteKeys removes keys from componentID's secrets, deleting the file
// entirely if nothing remains, and returns which keys actually existed.
func (s *Store) DeleteKeys(componentID string, keys []string) ([]string, error) {
	secrets, err := s.Get(componentID)
	if err != nil {
		return nil, err
	}
	var deleted []string
	for _, k := range keys {
		if _, ok := secrets[k]; ok {
			delete(secrets, k)
			deleted = append(deleted, k)
		}
	}
	if len(deleted) == 0 {
		return nil, nil
	}
	if len(secrets) == 0 {
		return deleted, s.deleteFile(componentID)
	}
	return deleted, s.Set(componentID, secrets)
}

func (s *Store) deleteFile(componentID string) error {
	path := s.path(componentID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("secretstore: remove %s: %w", path, err)
	}
	s.mu.Lock()
	delete(s.cache, componentID)
	s.mu.Unlock()
	return nil
}

// ListComponents returns every component ID with a persisted secrets
// file (the sanitized stem, not necessarily the original ID if it
// contained characters sanitizeComponentID had to rewrite).
func (s *Store) ListComponents() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("secretstore: read dir %s: %w", s.dir, err)
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

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
