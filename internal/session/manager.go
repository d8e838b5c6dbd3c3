// Package session implements the negotiation session lifecycle state machine.
//
// A session moves OPEN -> DEAL_SUCCESS or OPEN -> ENDED; both are terminal.
// The Manager is the only component that mutates session state, and it
// serializes mutations per session key so concurrent calls against the same
// session observe either the pre- or post-state, never a partial write.
// Operations on different session keys proceed without blocking each other.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/desiyatra/bargainer/internal/common"
	"github.com/desiyatra/bargainer/internal/model"
	"github.com/desiyatra/bargainer/internal/service"
)

// Manager owns all state transitions for negotiation sessions.
type Manager struct {
	store service.SessionStore
	locks sync.Map // session id -> *sync.Mutex
}

// NewManager creates a session manager backed by the given store. The store
// is constructed by the caller and injected; the manager never retries store
// operations (retry policy belongs to the store adapter).
func NewManager(store service.SessionStore) *Manager {
	return &Manager{store: store}
}

// SessionID derives the stable session key for a vendor contact address.
// One contact address maps to exactly one active session.
func SessionID(contact string) string {
	return "call:" + strings.TrimSpace(contact)
}

// lock acquires the per-key mutex for a session and returns its release func.
func (m *Manager) lock(sessionID string) func() {
	v, _ := m.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// releaseLock drops the per-key mutex for a session that reached a terminal
// state, so the map does not grow with every vendor ever contacted. Must be
// called with the key lock held: stragglers blocked on the old mutex find the
// session gone, and a later StartSession for the same contact mints a fresh
// mutex via LoadOrStore.
func (m *Manager) releaseLock(sessionID string) {
	m.locks.Delete(sessionID)
}

// StartSession creates a new OPEN session for the vendor contact. It fails
// with common.ErrDuplicateSession if an open session already exists for the
// same contact key, and with common.ErrMissingContext if required negotiation
// parameters are absent.
func (m *Manager) StartSession(ctx context.Context, vendor model.Vendor, trip model.TripContext, profile *model.VendorProfile) (*model.NegotiationSession, error) {
	if err := validateTrip(vendor, trip); err != nil {
		return nil, err
	}

	id := SessionID(vendor.Contact)
	unlock := m.lock(id)
	defer unlock()

	existing, err := m.store.Get(ctx, id)
	if err != nil && !errors.Is(err, common.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check for open session: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: contact %s already has session %s", common.ErrDuplicateSession, vendor.Contact, id)
	}

	sess := &model.NegotiationSession{
		ID:        id,
		Vendor:    vendor,
		Trip:      trip,
		Profile:   profile,
		Status:    model.StatusOpen,
		History:   []model.Utterance{},
		StartedAt: time.Now(),
	}

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	slog.Info("Negotiation session started",
		"session_id", id,
		"vendor", vendor.Name,
		"category", vendor.Category,
		"market_rate", trip.MarketRate,
		"budget_max", trip.BudgetMax)

	return sess.Clone(), nil
}

// RecordVendorUtterance appends the vendor's line to the session history,
// increments the round counter by exactly one, and updates the current quote
// when the transcription layer extracted a price from the utterance.
func (m *Manager) RecordVendorUtterance(ctx context.Context, sessionID, utterance string, extractedOffer *float64) (*model.NegotiationSession, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	sess, err := m.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.History = append(sess.History, model.Utterance{
		Speaker: model.SpeakerVendor,
		Text:    utterance,
	})
	sess.Round++

	if extractedOffer != nil {
		offer := *extractedOffer
		sess.CurrentQuote = &offer
		slog.Debug("Vendor quoted a price",
			"session_id", sessionID,
			"round", sess.Round,
			"quote", offer)
	}

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return sess.Clone(), nil
}

// RecordAgentUtterance appends the agent's own line to the session history.
// Agent turns do not advance the round counter.
func (m *Manager) RecordAgentUtterance(ctx context.Context, sessionID, utterance string) (*model.NegotiationSession, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	sess, err := m.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.History = append(sess.History, model.Utterance{
		Speaker: model.SpeakerAgent,
		Text:    utterance,
	})

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return sess.Clone(), nil
}

// AcceptDeal transitions the session to DEAL_SUCCESS at the given final
// price, removes it from active storage, and returns the outcome record.
func (m *Manager) AcceptDeal(ctx context.Context, sessionID string, finalPrice float64) (*model.Outcome, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	sess, err := m.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Status = model.StatusDealSuccess
	sess.FinalPrice = &finalPrice

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to remove terminal session: %w", err)
	}
	m.releaseLock(sessionID)

	slog.Info("Deal closed",
		"session_id", sessionID,
		"vendor", sess.Vendor.Name,
		"final_price", finalPrice,
		"rounds_used", sess.Round)

	return newOutcome(sess), nil
}

// EndSession transitions the session to ENDED with the given reason, removes
// it from active storage, and returns the outcome record. The outcome's
// Escalate flag is set when the reason indicates budget failure or max-rounds
// exhaustion, surfacing the session for human follow-up.
func (m *Manager) EndSession(ctx context.Context, sessionID string, reason model.EndReason) (*model.Outcome, error) {
	unlock := m.lock(sessionID)
	defer unlock()

	sess, err := m.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Status = model.StatusEnded
	sess.EndReason = reason

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to remove terminal session: %w", err)
	}
	m.releaseLock(sessionID)

	slog.Info("Negotiation ended without deal",
		"session_id", sessionID,
		"vendor", sess.Vendor.Name,
		"reason", reason,
		"rounds_used", sess.Round,
		"escalate", reason.Escalate())

	return newOutcome(sess), nil
}

// Get returns a copy of the current session state.
func (m *Manager) Get(ctx context.Context, sessionID string) (*model.NegotiationSession, error) {
	return m.store.Get(ctx, sessionID)
}

// openSession loads a session and verifies it still accepts mutation.
// Must be called with the session's key lock held.
func (m *Manager) openSession(ctx context.Context, sessionID string) (*model.NegotiationSession, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", common.ErrSessionTerminal, sessionID, sess.Status)
	}
	return sess, nil
}

func newOutcome(sess *model.NegotiationSession) *model.Outcome {
	outcome := &model.Outcome{
		ID:         uuid.NewString(),
		SessionID:  sess.ID,
		VendorName: sess.Vendor.Name,
		Status:     sess.Status,
		RoundsUsed: sess.Round,
	}
	if sess.Status == model.StatusDealSuccess {
		outcome.NegotiatedPrice = sess.FinalPrice
	} else {
		outcome.EndReason = sess.EndReason
		outcome.Escalate = sess.EndReason.Escalate()
	}
	return outcome
}

// validateTrip checks the parameters the decision policy cannot work without.
func validateTrip(vendor model.Vendor, trip model.TripContext) error {
	var missing []string
	if strings.TrimSpace(vendor.Contact) == "" {
		missing = append(missing, "vendor contact")
	}
	if strings.TrimSpace(vendor.Category) == "" {
		missing = append(missing, "vendor category")
	}
	if strings.TrimSpace(trip.Destination) == "" {
		missing = append(missing, "destination")
	}
	if trip.MarketRate <= 0 {
		missing = append(missing, "market rate")
	}
	if trip.BudgetMax <= 0 {
		missing = append(missing, "budget max")
	}
	if trip.PartySize <= 0 {
		missing = append(missing, "party size")
	}
	if len(missing) > 0 {
		return common.NewMissingContextError(missing...)
	}
	return nil
}
