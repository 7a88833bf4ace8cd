package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is the content-addressed on-disk component cache of spec.md §6
// ("Component cache layout"), fronted by an in-process LRU of recently
// used bytes so a hot digest never touches the filesystem twice in a row —
// the same two-tier shape the teacher uses wherever it fronts a slow
// resolve with golang-lru (oras-go digest resolution in this project's
// case, rather than the teacher's own use of the library).
type Cache struct {
	dir string
	mem *lru.Cache[string, []byte]
}

// NewCache opens (creating if necessary) a content-addressed cache rooted
// at dir, fronted by an in-memory LRU holding up to memEntries digests.
func NewCache(dir string, memEntries int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("loader: create cache dir %q: %w", dir, err)
	}
	mem, err := lru.New[string, []byte](memEntries)
	if err != nil {
		return nil, fmt.Errorf("loader: create memory cache: %w", err)
	}
	return &Cache{dir: dir, mem: mem}, nil
}

func (c *Cache) path(digest string) string {
	return filepath.Join(c.dir, digest)
}

// Get returns the cached bytes for digest, or (nil, false) on a miss.
func (c *Cache) Get(digest string) ([]byte, bool) {
	if b, ok := c.mem.Get(digest); ok {
		return b, true
	}
	b, err := os.ReadFile(c.path(digest))
	if err != nil {
		return nil, false
	}
	c.mem.Add(digest, b)
	return b, true
}

// Put populates the cache for digest, writing the on-disk entry with
// write-temp-then-rename semantics so concurrent readers never observe a
// partial file (spec.md §4.A, §5).
func (c *Cache) Put(digest string, data []byte) error {
	c.mem.Add(digest, data)

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != digest {
		return fmt.Errorf("loader: digest mismatch: computed %x, want %s", sum, digest)
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("loader: create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("loader: write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("loader: close temp cache file: %w", err)
	}

	dst := c.path(digest)
	if err := os.Rename(tmpPath, dst); err != nil {
		if errors.Is(err, os.ErrExist) || isCrossDevice(err) {
			if cerr := copyThenRename(tmpPath, dst); cerr != nil {
				os.Remove(tmpPath)
				return fmt.Errorf("loader: fall back to copy-then-rename: %w", cerr)
			}
			return nil
		}
		os.Remove(tmpPath)
		return fmt.Errorf("loader: rename temp cache file into place: %w", err)
	}
	return nil
}

// copyThenRename is the cross-device fallback: copy into a temp file on
// the destination's own filesystem, then rename (now same-device).
func copyThenRename(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	defer os.Remove(src)

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, dst)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
