package engine

import (
	"context"
)

// VendorTurn is one vendor reply coming off the line, with any price the
// transcription layer extracted from it. Extraction happens outside the core;
// the engine only consumes the structured result.
type VendorTurn struct {
	Offer      *float64
	Transcript string
	HungUp     bool
}

// VendorLine is the telephony seam for one live call. Say speaks a line to
// the vendor; Listen blocks until the vendor's next turn. Implementations
// wrap the outbound call transport and the transcription pipeline.
type VendorLine interface {
	Say(ctx context.Context, text string) error
	Listen(ctx context.Context) (VendorTurn, error)
	Hangup() error
}

// LineDialer opens a voice line to a vendor contact address.
type LineDialer interface {
	Dial(ctx context.Context, contact string) (VendorLine, error)
}
