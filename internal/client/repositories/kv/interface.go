// Package kv is the local key/value storage behind the persisted session.
// It plays the part a browser's local storage plays for a web client: a flat
// map of string keys to opaque values, shared by every process that opens the
// same database file.
package kv

import "context"

// Repository is a flat key/value store. Get returns (nil, nil) for a key that
// does not exist.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// TxRepository can apply several writes atomically. Readers observe either
// none or all of the writes made inside fn.
type TxRepository interface {
	Repository
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error
}
