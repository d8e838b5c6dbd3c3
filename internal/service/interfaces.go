// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/desiyatra/bargainer/internal/model"
)

// SessionStore is the contract for per-call negotiation state persistence.
// Implementations must make each individual operation atomic per session key;
// the backing technology is swappable (in-memory map, distributed cache,
// database) as long as that holds.
//
// Get returns an error wrapping common.ErrSessionNotFound when no session
// exists for the key. Delete of a missing key is not an error.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*model.NegotiationSession, error)
	Put(ctx context.Context, session *model.NegotiationSession) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
