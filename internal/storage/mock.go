package storage

import (
	"context"
	"sync"
)

// MockStorage is a test implementation of the Storage interface.
type MockStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
	baseURL string
}

// NewMockStorage creates a MockStorage serving URLs under baseURL.
func NewMockStorage(baseURL string) *MockStorage {
	return &MockStorage{
		uploads: make(map[string][]byte),
		baseURL: baseURL,
	}
}

// SetError makes subsequent uploads fail with err.
func (m *MockStorage) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Upload records the bytes and returns a synthetic public URL.
func (m *MockStorage) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	m.uploads[filename] = data
	return m.PublicURL(filename), nil
}

// PublicURL returns the synthetic public URL for filename.
func (m *MockStorage) PublicURL(filename string) string {
	return m.baseURL + "/" + filename
}

// Uploaded returns the bytes stored under filename, if any.
func (m *MockStorage) Uploaded(filename string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.uploads[filename]
	return data, ok
}

// Count returns the number of uploads recorded.
func (m *MockStorage) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}
