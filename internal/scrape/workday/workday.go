// Package workday talks to the Workday CXS job API. Boards live at
// https://{tenant}.wdN.myworkdayjobs.com/{site}; when only a domain is
// known the adapter guesses the tenant against the common hostname
// templates and falls back to the conventional "External" site name.
package workday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/normalize"
	"jobdetector/internal/scrape/util"
)

const (
	pageLimit       = 50
	maxOffset       = 5000
	fallbackBoard   = "External"
	defaultUserLang = "en-US"
)

var defaultHostTemplates = []string{
	"https://%s.myworkdayjobs.com",
	"https://%s.wd1.myworkdayjobs.com",
	"https://%s.wd5.myworkdayjobs.com",
}

type Scraper struct {
	hc      *http.Client
	limiter *util.HostLimiter
	norm    *normalize.Normalizer
	log     *zap.Logger

	hostTemplates []string
}

func New(hc *http.Client, limiter *util.HostLimiter, norm *normalize.Normalizer, log *zap.Logger) *Scraper {
	return &Scraper{
		hc:            hc,
		limiter:       limiter,
		norm:          norm,
		log:           log,
		hostTemplates: defaultHostTemplates,
	}
}

func (s *Scraper) Vendor() domain.Vendor { return domain.VendorWorkday }

type board struct {
	BaseURL string // scheme://host
	Tenant  string
	Site    string
}

func (b board) jobsEndpoint() string {
	return fmt.Sprintf("%s/wday/cxs/%s/%s/jobs", b.BaseURL, b.Tenant, b.Site)
}

type listRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type listResponse struct {
	Total       int       `json:"total"`
	JobPostings []posting `json:"jobPostings"`
}

type posting struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOnDate  string   `json:"postedOnDate"`
	BulletFields  []string `json:"bulletFields"`
}

func (s *Scraper) Scrape(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	b, err := s.resolveBoard(ctx, co)
	if err != nil {
		return nil, err
	}
	if b == nil {
		s.log.Warn("workday board not resolved", zap.String("company", co.Name))
		return nil, nil
	}
	return s.scrapeBoard(ctx, co, *b)
}

func (s *Scraper) scrapeBoard(ctx context.Context, co domain.Company, b board) ([]domain.Job, error) {
	postings, err := s.fetchAll(ctx, b)
	if err != nil && b.Site != fallbackBoard {
		// Many tenants publish under the conventional "External" site.
		retry := b
		retry.Site = fallbackBoard
		if ps, rerr := s.fetchAll(ctx, retry); rerr == nil {
			postings, err, b = ps, nil, retry
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.Job, 0, len(postings))
	for _, p := range postings {
		title := strings.TrimSpace(p.Title)
		path := strings.TrimSpace(p.ExternalPath)
		if title == "" || path == "" {
			continue
		}

		id := path
		if i := strings.LastIndexAny(path, "_/"); i >= 0 && i+1 < len(path) {
			id = path[i+1:]
		}

		out = append(out, s.norm.Build(normalize.Raw{
			Vendor:          domain.VendorWorkday,
			VendorID:        id,
			Title:           title,
			Location:        p.LocationsText,
			URL:             b.BaseURL + path,
			DescriptionHTML: strings.Join(p.BulletFields, "\n"),
			PostedAt:        parseDate(p.PostedOnDate),
		}, co))
	}
	return out, nil
}

// resolveBoard parses tenant and site from the ats_url when present, else
// probes the hostname templates with the domain-derived tenant guess.
func (s *Scraper) resolveBoard(ctx context.Context, co domain.Company) (*board, error) {
	if co.ATSURL != "" && strings.Contains(co.ATSURL, "myworkdayjobs.com") {
		if b := parseBoardURL(co.ATSURL); b != nil {
			return b, nil
		}
	}

	tenant := strings.ToLower(strings.Split(co.Domain, ".")[0])
	if tenant == "" {
		return nil, nil
	}
	for _, tmpl := range s.hostTemplates {
		host := fmt.Sprintf(tmpl, tenant)
		ok, err := s.probeHost(ctx, host)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if ok {
			return &board{BaseURL: host, Tenant: tenant, Site: fallbackBoard}, nil
		}
	}
	return nil, nil
}

func (s *Scraper) probeHost(ctx context.Context, host string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", util.UserAgent)

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, host); err != nil {
			return false, err
		}
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return false, err
	}
	res.Body.Close()
	return res.StatusCode == http.StatusOK, nil
}

func (s *Scraper) fetchAll(ctx context.Context, b board) ([]posting, error) {
	endpoint := b.jobsEndpoint()
	var out []posting

	for offset := 0; offset <= maxOffset; offset += pageLimit {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		payload, _ := json.Marshal(listRequest{
			AppliedFacets: map[string]any{},
			Limit:         pageLimit,
			Offset:        offset,
			SearchText:    "",
		})

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return out, err
		}
		req.Header.Set("User-Agent", util.UserAgent)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", defaultUserLang)

		if s.limiter != nil {
			if err := s.limiter.WaitURL(ctx, endpoint); err != nil {
				return out, err
			}
		}
		res, err := s.hc.Do(req)
		if err != nil {
			return out, fmt.Errorf("workday post jobs: %w", err)
		}
		var lr listResponse
		derr := json.NewDecoder(res.Body).Decode(&lr)
		res.Body.Close()

		if res.StatusCode >= 400 {
			return out, fmt.Errorf("workday status %d", res.StatusCode)
		}
		if derr != nil {
			return out, fmt.Errorf("workday decode: %w", derr)
		}

		if len(lr.JobPostings) == 0 {
			break
		}
		out = append(out, lr.JobPostings...)

		if lr.Total > 0 && offset+pageLimit >= lr.Total {
			break
		}
	}
	return out, nil
}

func parseBoardURL(raw string) *board {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	parts := strings.Split(u.Host, ".")
	if len(parts) < 3 {
		return nil
	}
	tenant := parts[0]

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	site := tenant
	if len(segs) > 0 && segs[len(segs)-1] != "" {
		site = segs[len(segs)-1]
	}

	return &board{
		BaseURL: u.Scheme + "://" + u.Host,
		Tenant:  tenant,
		Site:    site,
	}
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}
