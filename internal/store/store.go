// Package store keeps client side state (session, favorites, cached profile edits,
// notification backlog) in a key-value store with a typed schema per namespace.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("key not found")

const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Store is a flat string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Backend string       `mapstructure:"backend"`
	Path    string       `mapstructure:"path"`
	Redis   RedisOptions `mapstructure:"redis"`
}

// Open builds the configured backend. The file backend is the default.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			var err error
			if path, err = DefaultPath(); err != nil {
				return nil, err
			}
		}
		return NewFileStore(path)
	case BackendRedis:
		return NewRedisStore(cfg.Redis), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// DefaultPath is ~/.worker-finder/store.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".worker-finder", "store.json"), nil
}

// Namespace binds a value type to a key prefix so call sites never touch raw JSON.
type Namespace[T any] struct {
	store  Store
	prefix string
}

func NewNamespace[T any](s Store, prefix string) *Namespace[T] {
	return &Namespace[T]{store: s, prefix: prefix}
}

// Key returns prefix_id, or the bare prefix for singleton namespaces.
func (n *Namespace[T]) Key(id string) string {
	if id == "" {
		return n.prefix
	}
	return n.prefix + "_" + id
}

func (n *Namespace[T]) Load(ctx context.Context, id string) (T, error) {
	var value T

	data, err := n.store.Get(ctx, n.Key(id))
	if err != nil {
		return value, err
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("decoding %s: %w", n.Key(id), err)
	}

	return value, nil
}

// LoadOr returns fallback when nothing is stored under id.
func (n *Namespace[T]) LoadOr(ctx context.Context, id string, fallback T) (T, error) {
	value, err := n.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	return value, err
}

func (n *Namespace[T]) Save(ctx context.Context, id string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", n.Key(id), err)
	}

	return n.store.Set(ctx, n.Key(id), data)
}

func (n *Namespace[T]) Delete(ctx context.Context, id string) error {
	return n.store.Delete(ctx, n.Key(id))
}

// Update applies fn to the stored value (zero value when missing) and saves the result.
func (n *Namespace[T]) Update(ctx context.Context, id string, fn func(T) (T, error)) (T, error) {
	var zero T

	current, err := n.LoadOr(ctx, id, zero)
	if err != nil {
		return zero, err
	}

	next, err := fn(current)
	if err != nil {
		return zero, err
	}

	if err := n.Save(ctx, id, next); err != nil {
		return zero, err
	}

	return next, nil
}
