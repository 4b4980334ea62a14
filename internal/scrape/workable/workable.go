// Package workable reads the Workable v3 accounts API. The list call is a
// POST with an empty filter payload; an empty query returns every
// published posting for the account.
package workable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/normalize"
	"jobdetector/internal/scrape/util"
)

const defaultAPIBase = "https://apply.workable.com/api/v3/accounts"

type Scraper struct {
	hc      *http.Client
	limiter *util.HostLimiter
	norm    *normalize.Normalizer
	log     *zap.Logger

	apiBase string
}

func New(hc *http.Client, limiter *util.HostLimiter, norm *normalize.Normalizer, log *zap.Logger) *Scraper {
	return &Scraper{
		hc:      hc,
		limiter: limiter,
		norm:    norm,
		log:     log,
		apiBase: defaultAPIBase,
	}
}

func (s *Scraper) Vendor() domain.Vendor { return domain.VendorWorkable }

type listRequest struct {
	Query      string   `json:"query"`
	Location   []string `json:"location"`
	Department []string `json:"department"`
	Workplace  []string `json:"workplace"`
	Worktype   []string `json:"worktype"`
}

type listResponse struct {
	Results []posting `json:"results"`
}

type posting struct {
	Shortcode   string `json:"shortcode"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Published   string `json:"published"`
	Type        string `json:"type"`
	Workplace   string `json:"workplace"`
	Location    struct {
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"location"`
}

func (s *Scraper) Scrape(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	slug := resolveSlug(co)
	if slug == "" {
		s.log.Warn("workable account slug not resolved", zap.String("company", co.Name))
		return nil, nil
	}

	u := fmt.Sprintf("%s/%s/jobs", s.apiBase, slug)
	payload, _ := json.Marshal(listRequest{
		Location:   []string{},
		Department: []string{},
		Workplace:  []string{},
		Worktype:   []string{},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", util.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, u); err != nil {
			return nil, err
		}
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workable post: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("workable status %d", res.StatusCode)
	}

	var lr listResponse
	if err := json.NewDecoder(res.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("workable decode: %w", err)
	}

	out := make([]domain.Job, 0, len(lr.Results))
	for _, p := range lr.Results {
		if p.Shortcode == "" || strings.TrimSpace(p.Title) == "" {
			continue
		}

		loc := strings.Trim(strings.Join(nonEmpty(p.Location.City, p.Location.Country), ", "), ", ")
		isRemote := strings.EqualFold(p.Workplace, "remote")

		out = append(out, s.norm.Build(normalize.Raw{
			Vendor:          domain.VendorWorkable,
			VendorID:        p.Shortcode,
			Title:           p.Title,
			Location:        loc,
			URL:             fmt.Sprintf("https://apply.workable.com/%s/j/%s/", slug, p.Shortcode),
			DescriptionHTML: util.FirstNonEmpty(p.Description, p.Title),
			PostedAt:        parseISO(p.Published),
			EmploymentType:  p.Type,
			IsRemote:        isRemote,
		}, co))
	}
	return out, nil
}

func resolveSlug(co domain.Company) string {
	if i := strings.Index(co.ATSURL, "workable.com/"); i >= 0 {
		rest := strings.Trim(co.ATSURL[i+len("workable.com/"):], "/")
		if rest != "" {
			return strings.Split(rest, "/")[0]
		}
	}
	return strings.Split(co.Domain, ".")[0]
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseISO(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
