package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockFileHost is an in-memory implementation of FileHost for testing and
// local development. Each upload is kept as a single rendition.
type MockFileHost struct {
	mu      sync.RWMutex
	files   map[string][]byte
	baseURL string
	closed  bool
}

// NewMockFileHost creates a new MockFileHost instance
func NewMockFileHost(baseURL string) *MockFileHost {
	if baseURL == "" {
		baseURL = "mock://files"
	}
	return &MockFileHost{
		files:   make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Upload implements FileHost.Upload
func (m *MockFileHost) Upload(ctx context.Context, data []byte, opts *UploadOptions) (*UploadedFile, error) {
	if len(data) == 0 {
		return nil, NewStorageError("Upload", "", ErrInvalidData)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, NewStorageError("Upload", "", ErrStorageUnavailable)
	}

	id := uuid.NewString()
	m.files[id] = append([]byte(nil), data...)

	return &UploadedFile{FileIDs: []string{id}}, nil
}

// ResolveURL implements FileHost.ResolveURL
func (m *MockFileHost) ResolveURL(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", NewStorageError("ResolveURL", fileID, ErrInvalidKey)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.files[fileID]; !ok {
		return "", NewStorageError("ResolveURL", fileID, ErrFileNotFound)
	}
	return fmt.Sprintf("%s/%s", m.baseURL, fileID), nil
}

// Data returns a copy of an uploaded file
func (m *MockFileHost) Data(fileID string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[fileID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Count returns the number of uploaded files
func (m *MockFileHost) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// Close implements FileHost.Close
func (m *MockFileHost) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
