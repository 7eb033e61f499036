package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Supported store backends
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// Store persists a fingerprint mapping
type Store interface {
	// Load returns the persisted mapping, or an empty one if nothing was saved yet
	Load() (map[string]uint32, error)
	Save(files map[string]uint32) error
	Close() error
}

// StorePath returns the location of the cache store for a build mode inside dir
func StorePath(dir, mode, backend string) string {
	name := "." + mode + ".pdcache"
	if backend == BackendBolt {
		name += ".db"
	}

	return filepath.Join(dir, name)
}

// OpenStore opens the store for the given backend at path
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendBolt:
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// FileStore keeps the mapping in a TOML document, one sorted key per line
type FileStore struct {
	path string
}

type fileDocument struct {
	Files map[string]uint32 `toml:"files"`
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (map[string]uint32, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]uint32{}, nil
		}

		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var doc fileDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}

	if doc.Files == nil {
		doc.Files = map[string]uint32{}
	}

	return doc.Files, nil
}

// Save writes to a temporary sibling and renames it into place
func (s *FileStore) Save(files map[string]uint32) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(fileDocument{Files: files}); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Close() error {
	return nil
}
