package policy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desiyatra/bargainer/internal/model"
)

func quote(v float64) *float64 {
	return &v
}

func TestNextMove(t *testing.T) {
	tests := []struct {
		snap          Snapshot
		name          string
		wantAction    Action
		wantOffer     float64
		maxRounds     int
		wantHasOffer  bool
	}{
		{
			name: "no quote yet asks for price",
			snap: Snapshot{
				MarketRate: 2000,
				BudgetMax:  2500,
			},
			wantAction: ActionAskPrice,
		},
		{
			name: "quote within budget is accepted",
			snap: Snapshot{
				CurrentQuote: quote(2400),
				MarketRate:   2000,
				BudgetMax:    2500,
			},
			wantAction: ActionAccept,
		},
		{
			name: "quote equal to budget is accepted",
			snap: Snapshot{
				CurrentQuote: quote(2500),
				MarketRate:   2000,
				BudgetMax:    2500,
			},
			wantAction: ActionAccept,
		},
		{
			name: "stubborn vendor gets small concession request",
			snap: Snapshot{
				CurrentQuote: quote(4000),
				MarketRate:   2500,
				BudgetMax:    3000,
				Style:        model.StyleStubborn,
			},
			wantAction:   ActionCounter,
			wantHasOffer: true,
			wantOffer:    3800.0,
		},
		{
			name: "flexible vendor gets larger concession request",
			snap: Snapshot{
				CurrentQuote: quote(4000),
				MarketRate:   2500,
				BudgetMax:    3000,
				Style:        model.StyleFlexible,
			},
			wantAction:   ActionCounter,
			wantHasOffer: true,
			wantOffer:    3600.0,
		},
		{
			name: "unknown style counters at market rate",
			snap: Snapshot{
				CurrentQuote: quote(4000),
				MarketRate:   2500,
				BudgetMax:    3000,
			},
			wantAction:   ActionCounter,
			wantHasOffer: true,
			wantOffer:    2500.0,
		},
		{
			name: "floor applies when style arithmetic dips below market rate",
			snap: Snapshot{
				CurrentQuote: quote(2600),
				MarketRate:   2500,
				BudgetMax:    2400,
				Style:        model.StyleFlexible,
			},
			wantAction:   ActionCounter,
			wantHasOffer: true,
			wantOffer:    2500.0, // raw 10%-off would be 2340
		},
		{
			name: "max rounds reached ends the call",
			snap: Snapshot{
				CurrentQuote: quote(4000),
				MarketRate:   2500,
				BudgetMax:    3000,
				Round:        6,
			},
			maxRounds:  6,
			wantAction: ActionEndCall,
		},
		{
			name: "budget check wins over round limit",
			snap: Snapshot{
				CurrentQuote: quote(2900),
				MarketRate:   2500,
				BudgetMax:    3000,
				Round:        6,
			},
			maxRounds:  6,
			wantAction: ActionAccept,
		},
		{
			name: "zero maxRounds falls back to default",
			snap: Snapshot{
				CurrentQuote: quote(4000),
				MarketRate:   2500,
				BudgetMax:    3000,
				Round:        DefaultMaxRounds,
			},
			wantAction: ActionEndCall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := NextMove(tt.snap, tt.maxRounds)

			assert.Equal(t, tt.wantAction, decision.Action)
			assert.NotEmpty(t, decision.Reasoning, "every decision must carry reasoning for the audit log")

			if tt.wantHasOffer {
				assert.InDelta(t, tt.wantOffer, decision.Offer, 1e-9)
			}
		})
	}
}

func TestNextMove_AcceptIffWithinBudget(t *testing.T) {
	// Property: accept is returned if and only if the quote is within budget.
	for q := 100.0; q <= 5000; q += 137 {
		for b := 100.0; b <= 5000; b += 251 {
			decision := NextMove(Snapshot{
				CurrentQuote: quote(q),
				MarketRate:   50,
				BudgetMax:    b,
			}, DefaultMaxRounds)

			if q <= b {
				require.Equal(t, ActionAccept, decision.Action, "quote=%v budget=%v", q, b)
			} else {
				require.NotEqual(t, ActionAccept, decision.Action, "quote=%v budget=%v", q, b)
			}
		}
	}
}

func TestNextMove_CounterNeverBelowMarketRate(t *testing.T) {
	styles := []model.NegotiationStyle{model.StyleStubborn, model.StyleFlexible, model.StyleUnknown}

	for _, style := range styles {
		for q := 500.0; q <= 6000; q += 173 {
			for m := 400.0; m <= 5000; m += 311 {
				decision := NextMove(Snapshot{
					CurrentQuote: quote(q),
					MarketRate:   m,
					BudgetMax:    1, // force the counter branch
					Style:        style,
				}, DefaultMaxRounds)

				if decision.Action != ActionCounter {
					continue
				}
				require.GreaterOrEqual(t, decision.Offer, m,
					"style=%s quote=%v market=%v", style, q, m)
			}
		}
	}
}

func TestNextMove_Deterministic(t *testing.T) {
	snap := Snapshot{
		CurrentQuote: quote(4000),
		MarketRate:   2500,
		BudgetMax:    3000,
		Round:        2,
		Style:        model.StyleStubborn,
	}

	first := NextMove(snap, DefaultMaxRounds)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, NextMove(snap, DefaultMaxRounds), "iteration %d", i)
	}
}

func ExampleNextMove() {
	q := 4000.0
	decision := NextMove(Snapshot{
		CurrentQuote: &q,
		MarketRate:   2500,
		BudgetMax:    3000,
	}, DefaultMaxRounds)

	fmt.Println(decision.Action, decision.Offer)
	// Output: counter 2500
}
