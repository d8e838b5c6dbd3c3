package policy

import (
	"fmt"

	"github.com/desiyatra/bargainer/internal/model"
)

// Action is the negotiation move the decision policy selects for a turn.
type Action string

const (
	// ActionAskPrice requests an initial quote from the vendor.
	ActionAskPrice Action = "ask_price"
	// ActionAccept closes the deal at the vendor's current quote.
	ActionAccept Action = "accept"
	// ActionCounter proposes a lower price back to the vendor.
	ActionCounter Action = "counter"
	// ActionEndCall gives up on this vendor.
	ActionEndCall Action = "end_call"
)

// DefaultMaxRounds bounds how many vendor turns a session may take before
// the policy gives up.
const DefaultMaxRounds = 6

// Concession factors applied to the vendor's quote by negotiation style.
const (
	stubbornConcession = 0.95
	flexibleConcession = 0.90
)

// Snapshot is the read-only view of session state the policy decides from.
type Snapshot struct {
	CurrentQuote *float64
	MarketRate   float64
	BudgetMax    float64
	Round        int
	Style        model.NegotiationStyle
}

// Decision is the policy's output for a single turn. Reasoning is always set
// and feeds the audit log.
type Decision struct {
	Action    Action
	Reasoning string
	Offer     float64 // proposed price, set only for ActionCounter
}

// NextMove returns the next negotiation action for the given session state.
// Rules apply in order, first match wins: no quote yet asks for one; a quote
// within budget is accepted; an exhausted round budget ends the call;
// otherwise the policy counters by style, never below the market rate.
func NextMove(snap Snapshot, maxRounds int) Decision {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	if snap.CurrentQuote == nil {
		return Decision{
			Action:    ActionAskPrice,
			Reasoning: "No quote received yet, need to ask for initial price",
		}
	}

	quote := *snap.CurrentQuote

	if quote <= snap.BudgetMax {
		return Decision{
			Action:    ActionAccept,
			Reasoning: fmt.Sprintf("Quote %.0f is within budget %.0f", quote, snap.BudgetMax),
		}
	}

	if snap.Round >= maxRounds {
		return Decision{
			Action:    ActionEndCall,
			Reasoning: fmt.Sprintf("Max rounds (%d) reached without agreement", maxRounds),
		}
	}

	var offer float64
	var reasoning string
	switch snap.Style {
	case model.StyleStubborn:
		offer = quote * stubbornConcession
		reasoning = "Vendor is stubborn, making small 5% reduction request"
	case model.StyleFlexible:
		offer = quote * flexibleConcession
		reasoning = "Vendor is flexible, trying 10% reduction"
	default:
		offer = snap.MarketRate
		reasoning = fmt.Sprintf("Aiming for market rate of %.0f", snap.MarketRate)
	}

	// Floor rule: never propose below the known market rate.
	if offer < snap.MarketRate {
		offer = snap.MarketRate
	}

	return Decision{
		Action:    ActionCounter,
		Offer:     offer,
		Reasoning: reasoning,
	}
}
