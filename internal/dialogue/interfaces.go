// Package dialogue is the seam between negotiation decisions and their
// natural-language realization. The core decides what move to make and what
// numeric terms to propose; a Generator turns that into the words spoken on
// the call. Generated text is opaque to the core and never feeds back into
// decision logic except through the structured extracted-offer field.
package dialogue

import (
	"context"

	"github.com/desiyatra/bargainer/internal/model"
	"github.com/desiyatra/bargainer/internal/policy"
)

// Request carries everything the generator needs to realize one turn: the
// full ordered history, the session bounds, the vendor's latest line, and the
// decision to express.
type Request struct {
	History               []model.Utterance
	Vendor                model.Vendor
	Trip                  model.TripContext
	Decision              policy.Decision
	LatestVendorUtterance string
}

// Generator produces the next line the agent speaks to the vendor.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
