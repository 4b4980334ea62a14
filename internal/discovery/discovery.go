// Package discovery resolves which ATS vendor a company uses from nothing
// but its domain. Four stages run in strict order, short-circuiting on the
// first hit: pattern-match the input, probe well-known board URLs with a
// domain-derived slug, scan the homepage's anchors, then follow a careers
// link one hop and scan again. Failure at any stage falls through to the
// next; a total miss is a normal outcome, not an error.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/util"
)

// careerKeywords flag anchors that likely lead to the careers page.
var careerKeywords = []string{
	"careers", "jobs", "join us", "hiring", "work with us", "open positions", "openings", "team",
}

type probe struct {
	Template string // fmt template taking the slug
	Vendor   domain.Vendor
	Verify   func(body string) bool // nil means a 200 on the vendor host is enough
}

// Vendors that return a generic 200 for nonexistent boards need a
// secondary content check before a probe counts as a hit.
func defaultProbes() []probe {
	return []probe{
		{Template: "https://jobs.ashbyhq.com/%s", Vendor: domain.VendorAshby,
			Verify: func(body string) bool { return !strings.Contains(body, `"jobBoard":null`) }},
		{Template: "https://boards.greenhouse.io/%s", Vendor: domain.VendorGreenhouse},
		{Template: "https://jobs.lever.co/%s", Vendor: domain.VendorLever},
		{Template: "https://apply.workable.com/%s", Vendor: domain.VendorWorkable,
			Verify: func(body string) bool { return !strings.Contains(body, `name="account" content=""`) }},
	}
}

type Service struct {
	hc      *http.Client
	limiter *util.HostLimiter
	log     *zap.Logger

	probes       []probe
	probeTimeout time.Duration
	probeDelay   time.Duration
	fetchTimeout time.Duration
}

type Options struct {
	ProbeTimeout time.Duration
	ProbeDelay   time.Duration
	FetchTimeout time.Duration
}

func New(hc *http.Client, limiter *util.HostLimiter, log *zap.Logger, opts Options) *Service {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	return &Service{
		hc:           hc,
		limiter:      limiter,
		log:          log,
		probes:       defaultProbes(),
		probeTimeout: opts.ProbeTimeout,
		probeDelay:   opts.ProbeDelay,
		fetchTimeout: opts.FetchTimeout,
	}
}

// Discover returns the board URL and vendor for a domain or URL, or
// ("", VendorUnknown) when no ATS could be identified.
func (s *Service) Discover(ctx context.Context, domainOrURL string) (string, domain.Vendor) {
	startURL := strings.TrimSpace(domainOrURL)
	if startURL == "" {
		return "", domain.VendorUnknown
	}
	if !strings.HasPrefix(startURL, "http") {
		startURL = "https://" + startURL
	}

	// Stage 1: the input itself is already a board URL.
	if v := domain.IdentifyVendor(startURL); v != domain.VendorUnknown {
		return startURL, v
	}

	// Stage 2: active probing with the domain-derived slug.
	slug := Slug(startURL)
	if slug != "" {
		if boardURL, v := s.probeKnownPatterns(ctx, slug); v != domain.VendorUnknown {
			s.log.Info("discovery probe hit",
				zap.String("slug", slug), zap.String("board_url", boardURL), zap.String("vendor", string(v)))
			return boardURL, v
		}
	}

	// Stage 3: scan the homepage's anchors.
	html, finalURL, err := s.fetchPage(ctx, startURL)
	if err != nil {
		// Some apex domains only answer on www.
		if !strings.Contains(startURL, "www.") {
			html, finalURL, err = s.fetchPage(ctx, strings.Replace(startURL, "https://", "https://www.", 1))
		}
		if err != nil {
			s.log.Debug("discovery homepage fetch failed", zap.String("url", startURL), zap.Error(err))
			return "", domain.VendorUnknown
		}
	}
	if boardURL, v := findVendorLink(html, finalURL); v != domain.VendorUnknown {
		return boardURL, v
	}

	// Stage 4: follow the careers link one hop and rescan. Boards are
	// frequently reached via redirect, so the landed URL counts too.
	careerURL := findCareerLink(html, finalURL)
	if careerURL == "" {
		return "", domain.VendorUnknown
	}
	careerHTML, landedURL, err := s.fetchPage(ctx, careerURL)
	if err != nil {
		s.log.Debug("discovery careers fetch failed", zap.String("url", careerURL), zap.Error(err))
		return "", domain.VendorUnknown
	}
	if v := domain.IdentifyVendor(landedURL); v != domain.VendorUnknown {
		return landedURL, v
	}
	if boardURL, v := findVendorLink(careerHTML, landedURL); v != domain.VendorUnknown {
		return boardURL, v
	}

	return "", domain.VendorUnknown
}

func (s *Service) probeKnownPatterns(ctx context.Context, slug string) (string, domain.Vendor) {
	for i, p := range s.probes {
		if i > 0 && s.probeDelay > 0 {
			// Fixed pause between probes; vendors rate-limit guessers.
			select {
			case <-ctx.Done():
				return "", domain.VendorUnknown
			case <-time.After(s.probeDelay):
			}
		}

		target := fmt.Sprintf(p.Template, slug)
		pctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
		body, finalURL, err := s.get(pctx, target)
		cancel()
		if err != nil {
			continue
		}
		// A redirect off the vendor host means the board does not exist.
		if !sameHost(target, finalURL) {
			continue
		}
		if p.Verify != nil && !p.Verify(body) {
			continue
		}
		return finalURL, p.Vendor
	}
	return "", domain.VendorUnknown
}

func (s *Service) fetchPage(ctx context.Context, target string) (html, finalURL string, err error) {
	fctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.get(fctx, target)
}

func (s *Service) get(ctx context.Context, target string) (body, finalURL string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", util.UserAgent)

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, target); err != nil {
			return "", "", err
		}
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return "", "", err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", "", fmt.Errorf("status %d", res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, 2<<20))
	if err != nil {
		return "", "", err
	}
	return string(b), res.Request.URL.String(), nil
}

// findVendorLink returns the first anchor target matching a vendor URL
// pattern, with relative hrefs resolved against the page URL.
func findVendorLink(html, baseURL string) (string, domain.Vendor) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", domain.VendorUnknown
	}

	var foundURL string
	found := domain.VendorUnknown
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		full := resolveURL(baseURL, href)
		if full == "" {
			return true
		}
		if v := domain.IdentifyVendor(full); v != domain.VendorUnknown {
			foundURL, found = full, v
			return false
		}
		return true
	})
	return foundURL, found
}

// findCareerLink returns the first internal link that looks like the
// careers page, by anchor text keyword or by the href itself.
func findCareerLink(html, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			return true
		}

		text := strings.ToLower(util.CleanText(a.Text()))
		for _, kw := range careerKeywords {
			if strings.Contains(text, kw) {
				link = resolveURL(baseURL, href)
				return link == ""
			}
		}

		low := strings.ToLower(href)
		if strings.Contains(low, "careers") || strings.Contains(low, "jobs") {
			link = resolveURL(baseURL, href)
			return link == ""
		}
		return true
	})
	return link
}

func sameHost(a, b string) bool {
	ua, erra := url.Parse(a)
	ub, errb := url.Parse(b)
	return erra == nil && errb == nil && ua.Host == ub.Host
}

func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
