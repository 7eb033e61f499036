// Package cache provides incremental build support for pdmake.
//
// The cache maps each source file, keyed by its forward-slash relative path,
// to a CRC-32 fingerprint of its contents as of the last successful build.
// A file is considered unchanged only when an entry exists and the
// fingerprint of the file currently on disk matches it exactly; missing
// entries and read errors always mean "rebuild".
//
// Persistence is delegated to a Store. A missing store is an empty cache,
// and a corrupted one only costs a full rebuild.
package cache

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Norgate-AV/pdmake/internal/utils"
)

// Cache tracks file fingerprints for one build invocation
type Cache struct {
	mu    sync.RWMutex
	files map[string]uint32
	store Store

	// root makes keys relative to the project directory
	root string

	// inputs fingerprints the settings every recorded output was built with
	inputs    uint32
	hasInputs bool
}

// InputsKey is the reserved store entry holding the inputs fingerprint. The
// leading colon keeps it apart from relative file paths.
const InputsKey = ":inputs"

// ParseError reports a persisted cache that exists but cannot be decoded
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed cache %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// New creates an empty cache keyed relative to root. A nil store makes Save a no-op.
func New(store Store, root string) *Cache {
	return &Cache{
		files: make(map[string]uint32),
		store: store,
		root:  root,
	}
}

// Load reads the persisted fingerprints from store
func Load(store Store, root string) (*Cache, error) {
	files, err := store.Load()
	if err != nil {
		return nil, err
	}

	c := New(store, root)
	for k, v := range files {
		if k == InputsKey {
			c.inputs, c.hasInputs = v, true
			continue
		}

		c.files[utils.NormalizeKey(k)] = v
	}

	return c, nil
}

// Check reports whether the file at path is unchanged since it was last recorded
func (c *Cache) Check(path string) bool {
	key := c.key(path)

	c.mu.RLock()
	stored, ok := c.files[key]
	c.mu.RUnlock()

	if !ok {
		return false
	}

	current, err := Fingerprint(path)
	if err != nil {
		return false
	}

	return current == stored
}

// Update records the current fingerprint of the file at path
func (c *Cache) Update(path string) error {
	sum, err := Fingerprint(path)
	if err != nil {
		return fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}

	c.mu.Lock()
	c.files[c.key(path)] = sum
	c.mu.Unlock()

	return nil
}

// Remove forgets the entry for key
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	delete(c.files, key)
	c.mu.Unlock()
}

// Bind records the fingerprint of the settings outputs depend on. When it
// differs from the recorded one every entry is dropped, and Bind reports
// whether anything was invalidated.
func (c *Cache) Bind(inputs uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	stale := (!c.hasInputs || c.inputs != inputs) && len(c.files) > 0
	if stale {
		c.files = make(map[string]uint32)
	}

	c.inputs, c.hasInputs = inputs, true

	return stale
}

func (c *Cache) key(path string) string {
	if c.root != "" {
		if rel, err := filepath.Rel(c.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}

	return utils.NormalizeKey(path)
}

// Len returns the number of recorded files
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.files)
}

// Keys returns the recorded paths in sorted order
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.files))
	for k := range c.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Save persists the full mapping to the store
func (c *Cache) Save() error {
	if c.store == nil {
		return nil
	}

	c.mu.RLock()
	snapshot := make(map[string]uint32, len(c.files)+1)
	for k, v := range c.files {
		snapshot[k] = v
	}
	if c.hasInputs {
		snapshot[InputsKey] = c.inputs
	}
	c.mu.RUnlock()

	if err := c.store.Save(snapshot); err != nil {
		return fmt.Errorf("failed to save cache: %w", err)
	}

	return nil
}

// Close releases the underlying store
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}

	return c.store.Close()
}
