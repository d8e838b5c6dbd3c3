package model

// RiskDecision buckets a risk score into a contact-eligibility verdict.
type RiskDecision string

const (
	// RiskGreen approves the vendor for contact.
	RiskGreen RiskDecision = "GREEN"
	// RiskYellow approves with monitoring required.
	RiskYellow RiskDecision = "YELLOW"
	// RiskRed blocks the vendor from being contacted.
	RiskRed RiskDecision = "RED"
)

// Fraud-signal tags recognized by the risk policy. Unrecognized tags are
// ignored so new signal vocabularies can roll out upstream first.
const (
	SignalKnownScammer      = "known_scammer"
	SignalFakeListing       = "fake_listing"
	SignalMultipleReports   = "multiple_reports"
	SignalNewVendor         = "new_vendor"
	SignalNoReviews         = "no_reviews"
	SignalSuspiciousPricing = "suspicious_pricing"
)

// RiskAssessment is the result of vetting a single vendor. Reasons enumerate
// every contributing factor for auditability.
type RiskAssessment struct {
	Decision           RiskDecision
	Reasons            []string
	RiskScore          int
	MonitoringRequired bool
}
