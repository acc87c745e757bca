package blob

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps blobs in a map. Used by tests and local runs without storage.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// FailPuts makes every subsequent Put return err.
func (m *Memory) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut = err
}

func (m *Memory) Put(_ context.Context, upload Upload) (Image, error) {
	m.mu.Lock()
	failPut := m.failPut
	m.mu.Unlock()
	if failPut != nil {
		return Image{}, failPut
	}
	body, err := io.ReadAll(upload.Body)
	if err != nil {
		return Image{}, err
	}
	handle := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[handle] = body
	return Image{URL: "memory://" + handle, Handle: handle}, nil
}

func (m *Memory) Delete(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, handle)
	return nil
}

// Has reports whether handle is stored.
func (m *Memory) Has(handle string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[handle]
	return ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
