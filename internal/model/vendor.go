package model

// Vendor is the immutable vendor snapshot captured at session start.
type Vendor struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Category string `json:"category"`
}

// Known candidate sources, best-trusted first. Source strings from upstream
// scouting may carry suffixes (e.g. "google_maps_api"), so matching is by
// substring rather than equality.
const (
	SourceGoogleMaps = "google_maps"
	SourceJustDial   = "justdial"
)

// VendorCandidate is a discovered vendor considered for contact. Candidates
// are transient inputs to the ranking and risk policies and are never mutated.
type VendorCandidate struct {
	Name       string
	Contact    string
	Source     string
	TrustScore float64 // 0..1
	Rating     float64 // 0..5
}

// RankedVendor pairs a candidate with its selection score.
type RankedVendor struct {
	Candidate VendorCandidate
	Score     float64
}

// NegotiationStyle classifies how a vendor bargains. Unknown is a distinct
// style, not a fallback to either named one.
type NegotiationStyle string

const (
	// StyleStubborn vendors concede slowly; counter close to their quote.
	StyleStubborn NegotiationStyle = "stubborn"
	// StyleFlexible vendors concede readily; push harder on the counter.
	StyleFlexible NegotiationStyle = "flexible"
	// StyleUnknown vendors get a counter pinned at the market rate.
	StyleUnknown NegotiationStyle = "unknown"
)

// VendorProfile carries optional behavioral metadata about a vendor.
type VendorProfile struct {
	Style NegotiationStyle `json:"negotiation_style,omitempty"`
}

// VendorHistory summarizes prior interactions with a vendor, used by the
// safety risk policy.
type VendorHistory struct {
	FraudReports int
}
