package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// bucketName is the BoltDB bucket holding fingerprints
const bucketName = "fingerprints"

// BoltStore keeps the mapping in a BoltDB file
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// NewBoltStore opens (or creates) the database at path
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

func (s *BoltStore) Load() (map[string]uint32, error) {
	files := make(map[string]uint32)

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		return b.ForEach(func(k, v []byte) error {
			if len(v) != 4 {
				return &ParseError{Path: s.path, Err: fmt.Errorf("entry %q has %d bytes, want 4", k, len(v))}
			}

			files[string(k)] = binary.BigEndian.Uint32(v)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Save replaces the bucket contents in a single transaction
func (s *BoltStore) Save(files map[string]uint32) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}

		b, err := tx.CreateBucket([]byte(bucketName))
		if err != nil {
			return err
		}

		for k, v := range files {
			var buf [4]byte
			binary.BigEndian.PutUint32(buf[:], v)

			if err := b.Put([]byte(k), buf[:]); err != nil {
				return err
			}
		}

		return nil
	})
}

// Close closes the cache database
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}
