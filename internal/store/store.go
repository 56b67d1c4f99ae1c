// Package store holds the user.Store backends: in-memory, Redis and DynamoDB.
package store

import (
	"context"
	"errors"

	"github.com/i474232898/weather-tracker/internal/user"
)

// Backend names accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// Backend is what the server wires: a conditional record store that can be
// probed and closed.
type Backend interface {
	user.ConditionalStore
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*MemoryStore)(nil)
	_ Backend = (*RedisStore)(nil)
	_ Backend = (*DynamoStore)(nil)
)

// ProbeID is read by health probes. It is never written.
const ProbeID = "__healthcheck__"

// Probe returns a health check that performs the same read the gate does.
// A missing record is healthy.
func Probe(s user.Store) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.Get(ctx, ProbeID)
		if err == nil || errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return err
	}
}
