// Package storage provides SessionStore implementations for per-call
// negotiation state.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/desiyatra/bargainer/internal/common"
	"github.com/desiyatra/bargainer/internal/model"
)

// MemoryStore implements service.SessionStore using in-memory storage.
// This is a simple implementation suitable for single-instance deployments.
// Sessions are copied on the way in and out, so callers can never mutate
// stored state behind the store's back.
type MemoryStore struct {
	sessions map[string]*model.NegotiationSession
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.NegotiationSession),
	}
}

// Get retrieves a session by ID.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*model.NegotiationSession, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionID)
	}

	return session.Clone(), nil
}

// Put stores a session, replacing any existing state for the same ID.
func (s *MemoryStore) Put(ctx context.Context, session *model.NegotiationSession) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if err := validateString(session.ID, "session.ID"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session.Clone()

	return nil
}

// Delete removes a session. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)

	return nil
}

// Close releases the store. No-op for the in-memory implementation.
func (s *MemoryStore) Close() error {
	return nil
}

// Len reports the number of stored sessions. Used by callers to detect
// sessions left open after a run.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
