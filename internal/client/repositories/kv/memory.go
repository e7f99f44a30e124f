package kv

import (
	"context"
	"maps"
	"sync"
)

// MemoryRepository keeps pairs in process memory. Sharing one instance
// between several session stores models several windows over one storage.
type MemoryRepository struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (r *MemoryRepository) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = append([]byte(nil), value...)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.data)
	return nil
}

func (r *MemoryRepository) List(_ context.Context) (map[string][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]byte, len(r.data))
	for k, v := range r.data {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

// WithinTx stages writes on a copy and swaps it in only when fn succeeds.
func (r *MemoryRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	staged := &MemoryRepository{data: maps.Clone(r.data)}
	r.mu.RUnlock()

	if err := fn(ctx, staged); err != nil {
		return err
	}

	r.mu.Lock()
	r.data = staged.data
	r.mu.Unlock()
	return nil
}
