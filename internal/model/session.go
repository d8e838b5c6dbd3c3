// Package model defines the core domain types shared across the negotiation engine.
package model

import "time"

// Status represents the lifecycle state of a negotiation session.
type Status string

const (
	// StatusOpen indicates the negotiation is still in progress.
	StatusOpen Status = "OPEN"
	// StatusDealSuccess indicates the negotiation closed at an agreed price.
	StatusDealSuccess Status = "DEAL_SUCCESS"
	// StatusEnded indicates the negotiation terminated without a deal.
	StatusEnded Status = "ENDED"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDealSuccess || s == StatusEnded
}

// Speaker identifies who produced an utterance in the call transcript.
type Speaker string

const (
	// SpeakerAgent marks lines spoken by the negotiating agent.
	SpeakerAgent Speaker = "agent"
	// SpeakerVendor marks lines spoken by the vendor on the other end.
	SpeakerVendor Speaker = "vendor"
)

// Utterance is one turn of the call transcript. History is append-only and
// insertion order is significant: it is replayed verbatim as generation context.
type Utterance struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// EndReason records why a session terminated without a deal.
type EndReason string

const (
	// EndReasonOverBudget means the vendor refused and their price stayed above budget.
	EndReasonOverBudget EndReason = "over_budget"
	// EndReasonMaxRounds means the round limit was hit without agreement.
	EndReasonMaxRounds EndReason = "max_rounds"
	// EndReasonVendorDeclined means the vendor hung up or declined before any quote stuck.
	EndReasonVendorDeclined EndReason = "vendor_declined"
	// EndReasonGenerationFailed means response generation failed after retries.
	EndReasonGenerationFailed EndReason = "generation_failed"
	// EndReasonCancelled means the owning caller was cancelled mid-negotiation.
	EndReasonCancelled EndReason = "cancelled"
)

// Escalate reports whether a termination reason needs human follow-up.
func (r EndReason) Escalate() bool {
	return r == EndReasonOverBudget || r == EndReasonMaxRounds
}

// TripContext carries the negotiation bounds and requirements supplied by the
// caller at session start. MarketRate is the floor for counter-offers;
// BudgetMax is the acceptance ceiling.
type TripContext struct {
	Destination  string  `json:"destination"`
	VendorType   string  `json:"vendor_type"`
	Requirements string  `json:"requirements,omitempty"`
	MarketRate   float64 `json:"market_rate"`
	BudgetMax    float64 `json:"budget_max"`
	PartySize    int     `json:"party_size"`
}

// NegotiationSession tracks one in-progress negotiation with a single vendor
// contact. It is mutated exclusively by the session manager.
type NegotiationSession struct {
	StartedAt    time.Time      `json:"started_at"`
	CurrentQuote *float64       `json:"current_quote,omitempty"`
	FinalPrice   *float64       `json:"final_price,omitempty"`
	Profile      *VendorProfile `json:"vendor_profile,omitempty"`
	ID           string         `json:"id"`
	Status       Status         `json:"status"`
	EndReason    EndReason      `json:"end_reason,omitempty"`
	Vendor       Vendor         `json:"vendor"`
	Trip         TripContext    `json:"trip"`
	History      []Utterance    `json:"history"`
	Round        int            `json:"round"`
}

// Style returns the vendor's negotiation style, or StyleUnknown when no
// profile was captured.
func (s *NegotiationSession) Style() NegotiationStyle {
	if s.Profile == nil || s.Profile.Style == "" {
		return StyleUnknown
	}
	return s.Profile.Style
}

// Clone returns a deep copy safe to hand outside the owning store or manager.
func (s *NegotiationSession) Clone() *NegotiationSession {
	if s == nil {
		return nil
	}
	clone := *s
	if s.CurrentQuote != nil {
		quote := *s.CurrentQuote
		clone.CurrentQuote = &quote
	}
	if s.FinalPrice != nil {
		price := *s.FinalPrice
		clone.FinalPrice = &price
	}
	if s.Profile != nil {
		profile := *s.Profile
		clone.Profile = &profile
	}
	if s.History != nil {
		clone.History = make([]Utterance, len(s.History))
		copy(clone.History, s.History)
	}
	return &clone
}

// Outcome is the structured record produced by every terminal transition,
// suitable for downstream persistence or notification.
type Outcome struct {
	NegotiatedPrice *float64  `json:"negotiated_price,omitempty"`
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	VendorName      string    `json:"vendor_name"`
	Status          Status    `json:"status"`
	EndReason       EndReason `json:"end_reason,omitempty"`
	RoundsUsed      int       `json:"rounds_used"`
	Escalate        bool      `json:"escalate"`
}
