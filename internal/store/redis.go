package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "worker-finder:"

type RedisOptions struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password" json:"-"`
	DB       int    `mapstructure:"db"`
	// Prefix is prepended to every key, default "worker-finder:".
	Prefix string `mapstructure:"prefix"`
}

// RedisStore shares client state between machines through a redis server.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(opts RedisOptions) *RedisStore {
	if opts.Address == "" {
		opts.Address = "localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = defaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return &RedisStore{client: client, prefix: opts.Prefix}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, err
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
