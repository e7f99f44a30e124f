package documents

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/dmitrijs2005/bidmarket/internal/common"
)

type object struct {
	contentType string
	body        []byte
}

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]object)}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{contentType: contentType, body: bytes.Clone(body)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	if !ok {
		return nil, "", common.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(o.body)), o.contentType, nil
}
