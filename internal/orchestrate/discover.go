package orchestrate

import (
	"context"

	"go.uber.org/zap"

	"jobdetector/internal/domain"
)

// DiscoveryResult reports one company's discovery attempt.
type DiscoveryResult struct {
	Company  string
	BoardURL string
	Vendor   domain.Vendor
	Resolved bool
	Err      error
}

// DiscoverAll resolves the ATS for every company still marked unknown and
// persists what it finds. Companies are handled one at a time: the probe
// stage hits shared vendor hosts, so fanning out here would just trade
// politeness for rate-limit errors. An input that is already a board URL
// is recorded with full confidence; anything found by probing or link
// scanning gets half.
func (o *Orchestrator) DiscoverAll(ctx context.Context) ([]DiscoveryResult, error) {
	companies, err := o.DB.ListUnresolved(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DiscoveryResult, 0, len(companies))
	for _, co := range companies {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		input := co.ATSURL
		if input == "" {
			input = co.Domain
		}

		res := DiscoveryResult{Company: co.Name}
		boardURL, vendor := o.Disc.Discover(ctx, input)
		if vendor == domain.VendorUnknown {
			o.Log.Info("discovery miss", zap.String("company", co.Name), zap.String("input", input))
			out = append(out, res)
			continue
		}

		confidence := 0.5
		if domain.IdentifyVendor(input) == vendor {
			confidence = 1.0
		}
		if err := o.DB.SetDiscovery(ctx, co.ID, boardURL, vendor, confidence); err != nil {
			res.Err = err
			o.Log.Warn("discovery persist failed", zap.String("company", co.Name), zap.Error(err))
			out = append(out, res)
			continue
		}

		res.BoardURL = boardURL
		res.Vendor = vendor
		res.Resolved = true
		o.Log.Info("discovery hit",
			zap.String("company", co.Name),
			zap.String("vendor", string(vendor)),
			zap.String("board_url", boardURL),
			zap.Float64("confidence", confidence))
		out = append(out, res)
	}
	return out, nil
}
