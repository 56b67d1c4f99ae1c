package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Store.Get when no record exists for the id.
	ErrNotFound = errors.New("user record not found")

	// ErrConflict is returned by ConditionalStore.PutIfUnchanged when the stored
	// last_push no longer matches the expected value.
	ErrConflict = errors.New("user record changed since read")
)

// Store is the contract every record backend (memory, redis, dynamodb) must satisfy.
// Put overwrites the whole item; last writer wins.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Put(ctx context.Context, rec Record) error
}

// ConditionalStore is implemented by backends that can guard a write on the
// last_push value observed at read time. prev == nil means "no last_push stored".
type ConditionalStore interface {
	Store
	PutIfUnchanged(ctx context.Context, rec Record, prev *time.Time) error
}

// SameInstant reports whether two optional timestamps are equal at the
// precision records are stored with.
func SameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(time.Millisecond).Equal(b.Truncate(time.Millisecond))
}
