package session

import (
	"context"
	"sync"
)

// Notifier carries "the session changed" signals between stores that share
// one storage. The payload is the origin id of the store that wrote.
type Notifier interface {
	Publish(ctx context.Context, origin string) error
	Subscribe(ctx context.Context, fn func(origin string)) (cancel func(), err error)
	Close() error
}

// Hub is an in-process Notifier. Publish delivers synchronously, so a store
// observing a Hub sees the change before Publish returns.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]func(string)
	nextID int
}

var _ Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(string))}
}

func (h *Hub) Publish(_ context.Context, origin string) error {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(origin)
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, fn func(origin string)) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}, nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	clear(h.subs)
	h.mu.Unlock()
	return nil
}

// nopNotifier is used when a store has no peers.
type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, string) error { return nil }
func (nopNotifier) Subscribe(context.Context, func(string)) (func(), error) {
	return func() {}, nil
}
func (nopNotifier) Close() error { return nil }
