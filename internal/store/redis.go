package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/weather-tracker/internal/user"
)

const defaultRedisPrefix = "weather-app-users:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string

	// Password is the Redis password (empty if no auth)
	Password string

	// DB is the Redis database number
	DB int

	// KeyPrefix is prepended to every user id
	KeyPrefix string
}

// RedisStore keeps each user record as a JSON document under prefix+id.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore with its own client.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewRedisStoreFromClient(client, cfg.KeyPrefix)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: keyPrefix,
	}
}

// Name identifies the backend in health output.
func (s *RedisStore) Name() string { return BackendRedis }

// Get loads the record for id.
func (s *RedisStore) Get(ctx context.Context, id string) (user.Record, error) {
	return s.load(ctx, s.client, id)
}

// Put overwrites the record.
func (s *RedisStore) Put(ctx context.Context, rec user.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	if err := s.client.Set(ctx, s.key(rec.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// PutIfUnchanged writes inside WATCH/MULTI so a concurrent change to the key
// aborts the transaction.
func (s *RedisStore) PutIfUnchanged(ctx context.Context, rec user.Record, prev *time.Time) error {
	key := s.key(rec.ID)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		var current *time.Time
		cur, err := s.load(ctx, tx, rec.ID)
		switch {
		case errors.Is(err, user.ErrNotFound):
		case err != nil:
			return err
		default:
			current = cur.LastPush
		}
		if !user.SameInstant(current, prev) {
			return user.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, key)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return user.ErrConflict
	case errors.Is(err, user.ErrConflict):
		return err
	case err != nil:
		return fmt.Errorf("redis watch error: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, c getter, id string) (user.Record, error) {
	data, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return user.Record{}, user.ErrNotFound
	}
	if err != nil {
		return user.Record{}, fmt.Errorf("redis get error: %w", err)
	}

	var rec user.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return user.Record{}, fmt.Errorf("json unmarshal error: %w", err)
	}
	rec.ID = id
	return rec, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}
