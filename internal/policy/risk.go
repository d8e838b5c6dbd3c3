package policy

import (
	"fmt"

	"github.com/desiyatra/bargainer/internal/model"
)

// Additive risk contributions. Scoring is order-independent: each factor
// contributes the same amount regardless of evaluation order.
const (
	highSignalWeight   = 50
	mediumSignalWeight = 20
	fraudReportWeight  = 30
	lowTrustWeight     = 30
)

// lowTrustThreshold is the trust score below which a flat penalty applies.
const lowTrustThreshold = 0.3

// Risk decision thresholds.
const (
	blockThreshold   = 70
	cautionThreshold = 30
)

var highRiskSignals = map[string]bool{
	model.SignalKnownScammer:    true,
	model.SignalFakeListing:     true,
	model.SignalMultipleReports: true,
}

var mediumRiskSignals = map[string]bool{
	model.SignalNewVendor:         true,
	model.SignalNoReviews:         true,
	model.SignalSuspiciousPricing: true,
}

// AssessRisk scores a single vendor's contact risk from fraud signals, past
// fraud reports, and the candidate's trust score. The returned assessment
// enumerates every contributing factor so the verdict can be audited.
func AssessRisk(candidate model.VendorCandidate, fraudSignals []string, history model.VendorHistory) model.RiskAssessment {
	var score int
	var reasons []string

	for _, signal := range fraudSignals {
		switch {
		case highRiskSignals[signal]:
			score += highSignalWeight
			reasons = append(reasons, fmt.Sprintf("High risk: %s", signal))
		case mediumRiskSignals[signal]:
			score += mediumSignalWeight
			reasons = append(reasons, fmt.Sprintf("Medium risk: %s", signal))
		}
		// Unrecognized tags are ignored: the signal vocabulary grows upstream first.
	}

	if history.FraudReports > 0 {
		score += history.FraudReports * fraudReportWeight
		reasons = append(reasons, fmt.Sprintf("%d past fraud reports", history.FraudReports))
	}

	if candidate.TrustScore < lowTrustThreshold {
		score += lowTrustWeight
		reasons = append(reasons, fmt.Sprintf("Low trust score: %.2f", candidate.TrustScore))
	}

	assessment := model.RiskAssessment{
		RiskScore: score,
		Reasons:   reasons,
	}

	switch {
	case score >= blockThreshold:
		assessment.Decision = model.RiskRed
	case score >= cautionThreshold:
		assessment.Decision = model.RiskYellow
		assessment.MonitoringRequired = true
	default:
		assessment.Decision = model.RiskGreen
	}

	return assessment
}
