// Package scrape defines the vendor adapter contract and the closed
// dispatch table the orchestrator selects adapters from.
package scrape

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/normalize"
	"jobdetector/internal/scrape/util"
)

// Scraper is implemented once per ATS vendor. A board that cannot be
// resolved or holds zero postings yields an empty slice, not an error.
type Scraper interface {
	Vendor() domain.Vendor
	Scrape(ctx context.Context, co domain.Company) ([]domain.Job, error)
}

// Deps are the collaborators every adapter shares.
type Deps struct {
	Client  *http.Client
	Limiter *util.HostLimiter
	Norm    *normalize.Normalizer
	Log     *zap.Logger
}

// Registry maps each supported vendor to its adapter. Lookup is the only
// dispatch mechanism; there is no string-keyed fan-out at call sites.
type Registry map[domain.Vendor]Scraper

func (r Registry) For(v domain.Vendor) (Scraper, bool) {
	s, ok := r[v]
	return s, ok
}
