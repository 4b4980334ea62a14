package scrape

import (
	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/ashby"
	"jobdetector/internal/scrape/greenhouse"
	"jobdetector/internal/scrape/lever"
	"jobdetector/internal/scrape/workable"
	"jobdetector/internal/scrape/workday"
)

// NewRegistry wires one adapter per supported vendor.
func NewRegistry(d Deps) Registry {
	return Registry{
		domain.VendorGreenhouse: greenhouse.New(d.Client, d.Limiter, d.Norm, d.Log.Named("greenhouse")),
		domain.VendorLever:      lever.New(d.Client, d.Limiter, d.Norm, d.Log.Named("lever")),
		domain.VendorAshby:      ashby.New(d.Client, d.Limiter, d.Norm, d.Log.Named("ashby")),
		domain.VendorWorkable:   workable.New(d.Client, d.Limiter, d.Norm, d.Log.Named("workable")),
		domain.VendorWorkday:    workday.New(d.Client, d.Limiter, d.Norm, d.Log.Named("workday")),
	}
}
