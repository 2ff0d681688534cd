package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelStore is a BlobStore backed by an embedded LevelDB database, so the
// server can run durably without an external object store.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (or creates) the LevelDB database at path.
func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open blob database %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}

func (s *LevelStore) Put(_ context.Context, data []byte) (string, error) {
	if err := validate(data); err != nil {
		return "", err
	}
	hash := Hash(data)

	ok, err := s.db.Has([]byte(hash), nil)
	if err != nil {
		return "", fmt.Errorf("check blob %s: %w", hash, err)
	}
	if ok {
		// Content-addressed: same bytes, same key, nothing to write.
		return hash, nil
	}
	if err := s.db.Put([]byte(hash), data, nil); err != nil {
		return "", fmt.Errorf("store blob %s: %w", hash, err)
	}
	return hash, nil
}

func (s *LevelStore) Get(_ context.Context, hash string) ([]byte, error) {
	data, err := s.db.Get([]byte(hash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("load blob %s: %w", hash, err)
	}
	return data, nil
}

func (s *LevelStore) Exists(_ context.Context, hash string) (bool, error) {
	ok, err := s.db.Has([]byte(hash), nil)
	if err != nil {
		return false, fmt.Errorf("check blob %s: %w", hash, err)
	}
	return ok, nil
}
