// Package blobstore provides content-addressed document storage. Blobs are
// keyed by the sha256 of their content; the hash doubles as the record
// ledger's opaque content reference. There is no overwrite: re-putting the
// same bytes yields the same hash and is a no-op.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrBlobTooLarge = errors.New("blob exceeds maximum allowed size")
	ErrEmptyBlob    = errors.New("blob is empty")
)

// MaxBlobSize is the maximum accepted blob size in bytes (100 MB).
const MaxBlobSize = 100 * 1024 * 1024

// BlobStore stores document bytes under their content hash.
type BlobStore interface {
	// Put stores data and returns its content hash.
	Put(ctx context.Context, data []byte) (string, error)
	// Get retrieves the bytes for a content hash.
	Get(ctx context.Context, hash string) ([]byte, error)
	// Exists reports whether the hash is stored.
	Exists(ctx context.Context, hash string) (bool, error)
}

// Hash computes the content hash used as the blob key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func validate(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyBlob
	}
	if len(data) > MaxBlobSize {
		return fmt.Errorf("%w: %d bytes", ErrBlobTooLarge, len(data))
	}
	return nil
}

// MemoryStore is an in-memory BlobStore for tests and development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, data []byte) (string, error) {
	if err := validate(data); err != nil {
		return "", err
	}
	hash := Hash(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[hash]; !ok {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.blobs[hash] = buf
	}
	return hash, nil
}

func (s *MemoryStore) Get(_ context.Context, hash string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[hash]
	if !ok {
		return nil, ErrBlobNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (s *MemoryStore) Exists(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[hash]
	return ok, nil
}
