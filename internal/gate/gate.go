// Package gate decides, per user, whether enough time has passed since the last
// push to hand out tracking commands again, and records the push when it does.
//
// A grant only counts once the new last_push is persisted. Callers must treat
// any error as "do not push".
package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-tracker/internal/user"
)

var (
	// ErrInvalidInput is returned before any store access for an empty id or a negative cooldown.
	ErrInvalidInput = errors.New("invalid gate input")

	// ErrStoreUnavailable means the record could not be read. Nothing was granted.
	ErrStoreUnavailable = errors.New("user store unavailable")

	// ErrStoreWriteFailure means the cooldown had elapsed but the new last_push
	// could not be saved. The grant must not be acted on.
	ErrStoreWriteFailure = errors.New("user store write failed")
)

// Result is the outcome of one evaluation.
type Result struct {
	// Allowed is the cooldown decision.
	Allowed bool

	// Persisted is true when the new last_push was saved. Only meaningful when Allowed.
	Persisted bool

	// HasHistory reports whether a previous last_push existed.
	HasHistory bool

	// ElapsedMinutes is |now - last_push| in minutes, 0 without history.
	ElapsedMinutes float64

	// Contended is set when a conditional write lost to a concurrent grant.
	Contended bool
}

// Granted reports whether the caller may perform the dependent side effect.
func (r Result) Granted() bool {
	return r.Allowed && r.Persisted
}

// Gate evaluates the push cooldown against a user.Store.
type Gate struct {
	store       user.Store
	conditional bool
	logger      *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithConditionalWrites makes the Gate use user.ConditionalStore.PutIfUnchanged
// when the store supports it, so two racing requests cannot both be granted.
func WithConditionalWrites(enabled bool) Option {
	return func(g *Gate) { g.conditional = enabled }
}

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a Gate backed by store.
func New(store user.Store, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if _, ok := store.(user.ConditionalStore); g.conditional && !ok {
		g.logger.Warn("store has no conditional put; concurrent requests for one user may both be granted")
		g.conditional = false
	}
	return g
}

// Evaluate performs one read and, when the cooldown has elapsed, one write.
// Elapsed exactly equal to the cooldown is a denial.
func (g *Gate) Evaluate(ctx context.Context, id string, now time.Time, cooldown time.Duration) (Result, error) {
	if strings.TrimSpace(id) == "" {
		return Result{}, fmt.Errorf("%w: empty identifier", ErrInvalidInput)
	}
	if cooldown < 0 {
		return Result{}, fmt.Errorf("%w: negative cooldown %s", ErrInvalidInput, cooldown)
	}

	rec, err := g.store.Get(ctx, id)
	switch {
	case errors.Is(err, user.ErrNotFound):
		rec = user.New(id)
	case err != nil:
		return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	rec.ID = id

	var res Result
	if rec.LastPush != nil {
		res.HasHistory = true
		res.ElapsedMinutes = ElapsedMinutes(*rec.LastPush, now)
		if !Elapsed(res.ElapsedMinutes, cooldown) {
			g.logger.Debug("push denied",
				zap.String("id", id),
				zap.Float64("elapsed_minutes", res.ElapsedMinutes),
				zap.Duration("cooldown", cooldown))
			return res, nil
		}
	}
	res.Allowed = true

	next := rec.WithLastPush(now)
	if err := g.put(ctx, next, rec.LastPush); err != nil {
		if errors.Is(err, user.ErrConflict) {
			g.logger.Info("push lost to a concurrent grant", zap.String("id", id))
			return Result{HasHistory: res.HasHistory, ElapsedMinutes: res.ElapsedMinutes, Contended: true}, nil
		}
		return res, fmt.Errorf("%w: %v", ErrStoreWriteFailure, err)
	}
	res.Persisted = true

	g.logger.Debug("push granted",
		zap.String("id", id),
		zap.Bool("has_history", res.HasHistory),
		zap.Float64("elapsed_minutes", res.ElapsedMinutes))
	return res, nil
}

func (g *Gate) put(ctx context.Context, rec user.Record, prev *time.Time) error {
	if g.conditional {
		return g.store.(user.ConditionalStore).PutIfUnchanged(ctx, rec, prev)
	}
	return g.store.Put(ctx, rec)
}
