// Package engine implements the call engine that orchestrates vendor
// selection, safety vetting, and concurrent price negotiations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/desiyatra/bargainer/internal/common"
	"github.com/desiyatra/bargainer/internal/dialogue"
	"github.com/desiyatra/bargainer/internal/model"
	"github.com/desiyatra/bargainer/internal/policy"
	"github.com/desiyatra/bargainer/internal/service"
	"github.com/desiyatra/bargainer/internal/session"
)

// ErrDuplicateContact indicates two prospects share a contact address. One
// contact maps to one session, so the caller must deduplicate first.
var ErrDuplicateContact = errors.New("duplicate vendor contact")

// Prospect bundles a discovered vendor with the scouting metadata used to
// vet and negotiate with it.
type Prospect struct {
	Profile      *model.VendorProfile
	FraudSignals []string
	Candidate    model.VendorCandidate
	History      model.VendorHistory
}

// CallEngine drives negotiations: it ranks candidates, risk-gates each one,
// opens a session per approved vendor, and runs the decide-speak-listen loop
// concurrently across vendors until every session reaches a terminal state.
type CallEngine struct {
	manager   *session.Manager
	generator dialogue.Generator
	dialer    LineDialer
	config    Config
}

// Config holds configuration options for the call engine.
type Config struct {
	MaxRounds          int
	MaxConcurrentCalls int
	Retry              service.RetryOptions
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxRounds:          policy.DefaultMaxRounds,
		MaxConcurrentCalls: 3,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// New creates a call engine with the given dependencies.
func New(manager *session.Manager, generator dialogue.Generator, dialer LineDialer) *CallEngine {
	return NewWithConfig(manager, generator, dialer, DefaultConfig())
}

// NewWithConfig creates a call engine with custom configuration.
func NewWithConfig(manager *session.Manager, generator dialogue.Generator, dialer LineDialer, config Config) *CallEngine {
	if config.MaxRounds <= 0 {
		config.MaxRounds = policy.DefaultMaxRounds
	}
	if config.MaxConcurrentCalls <= 0 {
		config.MaxConcurrentCalls = 1
	}
	return &CallEngine{
		manager:   manager,
		generator: generator,
		dialer:    dialer,
		config:    config,
	}
}

// Negotiate contacts the best-ranked safe vendors for the trip and negotiates
// with each concurrently. It returns one outcome per vendor that was actually
// called, in ranking order. Vendors blocked by the safety policy or whose
// line could not be opened are skipped and logged, not failed.
func (e *CallEngine) Negotiate(ctx context.Context, trip model.TripContext, prospects []Prospect) ([]model.Outcome, error) {
	candidates := make([]model.VendorCandidate, len(prospects))
	byContact := make(map[string]Prospect, len(prospects))
	for i, p := range prospects {
		if _, seen := byContact[p.Candidate.Contact]; seen {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateContact, p.Candidate.Contact)
		}
		candidates[i] = p.Candidate
		byContact[p.Candidate.Contact] = p
	}

	ranked, err := policy.RankVendors(candidates)
	if err != nil {
		return nil, fmt.Errorf("vendor ranking failed: %w", err)
	}

	slog.Info("Ranked vendor candidates",
		"total", len(prospects),
		"selected", len(ranked))

	approved := make([]Prospect, 0, len(ranked))
	for _, rv := range ranked {
		prospect := byContact[rv.Candidate.Contact]
		assessment := policy.AssessRisk(prospect.Candidate, prospect.FraudSignals, prospect.History)

		switch assessment.Decision {
		case model.RiskRed:
			slog.Warn("Vendor blocked by safety policy",
				"vendor", prospect.Candidate.Name,
				"risk_score", assessment.RiskScore,
				"reasons", assessment.Reasons)
			continue
		case model.RiskYellow:
			slog.Info("Vendor approved with monitoring",
				"vendor", prospect.Candidate.Name,
				"risk_score", assessment.RiskScore,
				"reasons", assessment.Reasons)
		case model.RiskGreen:
			slog.Debug("Vendor approved",
				"vendor", prospect.Candidate.Name,
				"risk_score", assessment.RiskScore)
		}

		approved = append(approved, prospect)
	}

	outcomes := make([]*model.Outcome, len(approved))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxConcurrentCalls)

	for i, prospect := range approved {
		i, prospect := i, prospect
		g.Go(func() error {
			outcome, callErr := e.negotiateVendor(gctx, trip, prospect)
			if callErr != nil {
				return callErr
			}
			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			return nil
		})
	}

	waitErr := g.Wait()

	results := make([]model.Outcome, 0, len(approved))
	for _, outcome := range outcomes {
		if outcome != nil {
			results = append(results, *outcome)
		}
	}

	return results, waitErr
}

// negotiateVendor runs one full negotiation call. It returns a nil outcome
// (and nil error) when the vendor could not be reached; it returns an error
// only for cancellation, after moving the session to a terminal state.
func (e *CallEngine) negotiateVendor(ctx context.Context, trip model.TripContext, prospect Prospect) (*model.Outcome, error) {
	vendor := model.Vendor{
		Name:     prospect.Candidate.Name,
		Contact:  prospect.Candidate.Contact,
		Category: trip.VendorType,
	}

	line, err := e.dialer.Dial(ctx, vendor.Contact)
	if err != nil {
		slog.Warn("Failed to reach vendor, skipping",
			"vendor", vendor.Name,
			"error", err)
		return nil, nil
	}
	defer func() {
		if hangupErr := line.Hangup(); hangupErr != nil {
			slog.Warn("Failed to hang up line", "vendor", vendor.Name, "error", hangupErr)
		}
	}()

	sess, err := e.manager.StartSession(ctx, vendor, trip, prospect.Profile)
	if err != nil {
		slog.Error("Failed to start session, skipping vendor",
			"vendor", vendor.Name,
			"error", err)
		return nil, nil
	}

	for {
		decision := policy.NextMove(policy.Snapshot{
			CurrentQuote: sess.CurrentQuote,
			MarketRate:   trip.MarketRate,
			BudgetMax:    trip.BudgetMax,
			Round:        sess.Round,
			Style:        sess.Style(),
		}, e.config.MaxRounds)

		slog.Info("Negotiation move",
			"session_id", sess.ID,
			"round", sess.Round,
			"action", decision.Action,
			"reasoning", decision.Reasoning)

		switch decision.Action {
		case policy.ActionAccept:
			e.speakClosing(ctx, line, sess, decision)
			if ctx.Err() != nil {
				return e.cancelSession(ctx, sess)
			}
			// The transition must complete even if cancellation lands now.
			return e.manager.AcceptDeal(context.WithoutCancel(ctx), sess.ID, *sess.CurrentQuote)

		case policy.ActionEndCall:
			e.speakClosing(ctx, line, sess, decision)
			if ctx.Err() != nil {
				return e.cancelSession(ctx, sess)
			}
			return e.manager.EndSession(context.WithoutCancel(ctx), sess.ID, model.EndReasonMaxRounds)

		case policy.ActionAskPrice, policy.ActionCounter:
			text, genErr := e.generate(ctx, sess, decision)
			if genErr != nil {
				slog.Error("Response generation failed, ending call",
					"session_id", sess.ID,
					"error", genErr)
				return e.endSession(ctx, sess.ID, model.EndReasonGenerationFailed)
			}

			if sayErr := line.Say(ctx, text); sayErr != nil {
				return e.lineLost(ctx, sess, sayErr)
			}
			if sess, err = e.manager.RecordAgentUtterance(ctx, sess.ID, text); err != nil {
				return nil, fmt.Errorf("failed to record agent turn: %w", err)
			}

			turn, listenErr := line.Listen(ctx)
			if listenErr != nil {
				return e.lineLost(ctx, sess, listenErr)
			}

			if turn.HungUp {
				return e.manager.EndSession(ctx, sess.ID, declineReason(sess, trip))
			}

			if sess, err = e.manager.RecordVendorUtterance(ctx, sess.ID, turn.Transcript, turn.Offer); err != nil {
				return nil, fmt.Errorf("failed to record vendor turn: %w", err)
			}
		}
	}
}

// generate realizes a decision as spoken text, retrying transient generation
// failures. Store operations are never retried here; only the generator call.
func (e *CallEngine) generate(ctx context.Context, sess *model.NegotiationSession, decision policy.Decision) (string, error) {
	req := dialogue.Request{
		History:  sess.History,
		Vendor:   sess.Vendor,
		Trip:     sess.Trip,
		Decision: decision,
	}
	if last := lastVendorLine(sess.History); last != "" {
		req.LatestVendorUtterance = last
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		var genErr error
		text, genErr = e.generator.Generate(ctx, req)
		if genErr != nil {
			return &common.RetryableError{Err: genErr, Retryable: true}
		}
		return nil
	}, e.config.Retry)

	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrGenerationFailed, err)
	}

	return text, nil
}

// speakClosing delivers the closing line for accept/end decisions.
// Best-effort: a generation or transport failure must not prevent the
// terminal transition that follows.
func (e *CallEngine) speakClosing(ctx context.Context, line VendorLine, sess *model.NegotiationSession, decision policy.Decision) {
	text, err := e.generate(ctx, sess, decision)
	if err != nil {
		slog.Warn("Failed to generate closing line",
			"session_id", sess.ID,
			"action", decision.Action,
			"error", err)
		return
	}
	if err := line.Say(ctx, text); err != nil {
		slog.Warn("Failed to deliver closing line",
			"session_id", sess.ID,
			"error", err)
	}
}

// lineLost terminates a session whose voice line failed mid-call. When the
// failure came from cancellation the session is still moved to a terminal
// state before the cancellation is propagated.
func (e *CallEngine) lineLost(ctx context.Context, sess *model.NegotiationSession, cause error) (*model.Outcome, error) {
	if ctx.Err() != nil {
		return e.cancelSession(ctx, sess)
	}

	slog.Warn("Voice line lost mid-call",
		"session_id", sess.ID,
		"error", cause)
	return e.endSession(ctx, sess.ID, model.EndReasonVendorDeclined)
}

// cancelSession moves a session to ENDED/cancelled on a non-cancellable
// context, then propagates the cancellation. No session may be left OPEN in
// the store because its worker was cancelled, whatever the worker was doing
// at the time.
func (e *CallEngine) cancelSession(ctx context.Context, sess *model.NegotiationSession) (*model.Outcome, error) {
	cleanupCtx := context.WithoutCancel(ctx)
	if _, endErr := e.manager.EndSession(cleanupCtx, sess.ID, model.EndReasonCancelled); endErr != nil {
		slog.Error("Failed to end session after cancellation",
			"session_id", sess.ID,
			"error", endErr)
	}
	return nil, ctx.Err()
}

func (e *CallEngine) endSession(ctx context.Context, sessionID string, reason model.EndReason) (*model.Outcome, error) {
	outcome, err := e.manager.EndSession(ctx, sessionID, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to end session %s: %w", sessionID, err)
	}
	return outcome, nil
}

// declineReason distinguishes a vendor who hung up while their price was
// still above budget (needs human follow-up) from one who declined before
// any real quote stuck.
func declineReason(sess *model.NegotiationSession, trip model.TripContext) model.EndReason {
	if sess.CurrentQuote != nil && *sess.CurrentQuote > trip.BudgetMax {
		return model.EndReasonOverBudget
	}
	return model.EndReasonVendorDeclined
}

func lastVendorLine(history []model.Utterance) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Speaker == model.SpeakerVendor {
			return history[i].Text
		}
	}
	return ""
}
