package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	appexpense "github.com/gestionale/backend/internal/application/expense"
)

// Ensure MemoryAttachmentStorage implements AttachmentStorage
var _ appexpense.AttachmentStorage = (*MemoryAttachmentStorage)(nil)

// MemoryAttachmentStorage keeps attachment blobs in memory. Used in local
// development when no S3-compatible backend is configured, and in tests.
type MemoryAttachmentStorage struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	baseURL string
}

// NewMemoryAttachmentStorage creates an empty in-memory store.
func NewMemoryAttachmentStorage() *MemoryAttachmentStorage {
	return &MemoryAttachmentStorage{
		blobs:   make(map[string][]byte),
		baseURL: "https://storage.local",
	}
}

// Put stores the body under a tenant-prefixed key.
func (s *MemoryAttachmentStorage) Put(ctx context.Context, tenantID, fileName, contentType string, body io.Reader) (string, error) {
	if tenantID == "" {
		return "", errors.New("tenant ID is required")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	storagePath := path.Join("claims", tenantID, uuid.NewString()+"-"+sanitizeFileName(fileName))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[storagePath] = data

	return storagePath, nil
}

// PresignGet returns a fake download URL for a stored blob.
func (s *MemoryAttachmentStorage) PresignGet(ctx context.Context, storagePath string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[storagePath]; !ok {
		return "", errors.New("attachment not found: " + storagePath)
	}
	return s.baseURL + "/" + storagePath, nil
}

// Delete removes a stored blob. Missing keys are ignored.
func (s *MemoryAttachmentStorage) Delete(ctx context.Context, storagePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, storagePath)
	return nil
}

// Get returns a stored blob. Test helper.
func (s *MemoryAttachmentStorage) Get(storagePath string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[storagePath]
	return data, ok
}

// Len returns the number of stored blobs. Test helper.
func (s *MemoryAttachmentStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
