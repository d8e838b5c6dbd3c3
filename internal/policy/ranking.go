// Package policy implements the pure decision policies that drive vendor
// selection, safety vetting, and round-by-round negotiation moves. Every
// function here is side-effect-free: identical inputs always produce
// identical outputs, so policies are safe to call from any number of
// concurrent call workers.
package policy

import (
	"errors"
	"sort"
	"strings"

	"github.com/desiyatra/bargainer/internal/model"
)

// ErrNoCandidates indicates ranking was asked to order an empty candidate
// set. Callers use it to distinguish "nothing to rank" from "ranked to empty".
var ErrNoCandidates = errors.New("no vendor candidates to rank")

// MaxContacts caps how many ranked vendors are returned for calling.
const MaxContacts = 5

// Source bonuses. Mapping-service listings are vetted hardest upstream, so
// they earn the largest bonus; directory listings sit in between.
const (
	mapsSourceBonus      = 20.0
	directorySourceBonus = 15.0
	defaultSourceBonus   = 10.0
)

// Candidate score weights.
const (
	trustWeight  = 40.0
	ratingWeight = 20.0
	ratingScale  = 5.0
)

// RankVendors scores and orders candidates best-first, truncated to
// MaxContacts. The sort is stable: candidates with equal scores keep their
// input order, so repeated runs over the same set produce identical call lists.
func RankVendors(candidates []model.VendorCandidate) ([]model.RankedVendor, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	ranked := make([]model.RankedVendor, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = model.RankedVendor{
			Candidate: candidate,
			Score:     candidateScore(candidate),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > MaxContacts {
		ranked = ranked[:MaxContacts]
	}

	return ranked, nil
}

func candidateScore(candidate model.VendorCandidate) float64 {
	score := candidate.TrustScore * trustWeight
	score += candidate.Rating / ratingScale * ratingWeight

	switch {
	case strings.Contains(candidate.Source, model.SourceGoogleMaps):
		score += mapsSourceBonus
	case strings.Contains(candidate.Source, model.SourceJustDial):
		score += directorySourceBonus
	default:
		score += defaultSourceBonus
	}

	return score
}
