package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Vendor is the closed set of ATS platforms the engine knows how to talk to.
type Vendor string

const (
	VendorGreenhouse Vendor = "greenhouse"
	VendorLever      Vendor = "lever"
	VendorAshby      Vendor = "ashby"
	VendorWorkable   Vendor = "workable"
	VendorWorkday    Vendor = "workday"
	VendorUnknown    Vendor = "unknown"
)

// vendorURLPatterns match the hostnames each vendor serves boards from.
var vendorURLPatterns = map[Vendor]*regexp.Regexp{
	VendorGreenhouse: regexp.MustCompile(`boards?\.greenhouse\.io`),
	VendorLever:      regexp.MustCompile(`jobs\.lever\.co`),
	VendorAshby:      regexp.MustCompile(`jobs\.ashbyhq\.com`),
	VendorWorkable:   regexp.MustCompile(`apply\.workable\.com`),
	VendorWorkday:    regexp.MustCompile(`myworkdayjobs\.com`),
}

// Vendors lists the supported vendors in probe order.
func Vendors() []Vendor {
	return []Vendor{VendorAshby, VendorGreenhouse, VendorLever, VendorWorkable, VendorWorkday}
}

// IdentifyVendor returns the vendor whose URL pattern matches u, or VendorUnknown.
func IdentifyVendor(u string) Vendor {
	for _, v := range Vendors() {
		if vendorURLPatterns[v].MatchString(u) {
			return v
		}
	}
	return VendorUnknown
}

// MatchesVendorURL reports whether u looks like a board URL for vendor v.
func MatchesVendorURL(v Vendor, u string) bool {
	re, ok := vendorURLPatterns[v]
	return ok && re.MatchString(u)
}

func ParseVendor(s string) Vendor {
	v := Vendor(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case VendorGreenhouse, VendorLever, VendorAshby, VendorWorkable, VendorWorkday:
		return v
	default:
		return VendorUnknown
	}
}

// Company is the crawl configuration for one employer. It is created by
// onboarding, enriched in place by discovery, and read-only to adapters.
type Company struct {
	ID           int64
	Name         string
	Domain       string
	Location     string // declared home location, may be empty
	ATSURL       string // resolved or hinted board URL
	ATSType      Vendor
	Confidence   float64
	DiscoveredAt *time.Time
	Active       bool
}

// Validate enforces the record invariant: a resolved vendor type must carry
// a board URL matching that vendor's URL pattern.
func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("company: name is required")
	}
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("company %q: domain is required", c.Name)
	}
	if c.ATSType != VendorUnknown && c.ATSType != "" {
		if c.ATSURL == "" {
			return fmt.Errorf("company %q: ats_type %q set without ats_url", c.Name, c.ATSType)
		}
		if !MatchesVendorURL(c.ATSType, c.ATSURL) {
			return fmt.Errorf("company %q: ats_url %q does not match vendor %q", c.Name, c.ATSURL, c.ATSType)
		}
	}
	return nil
}
