// Package lever reads the public Lever postings API. Descriptions arrive
// split into a lead-in plus list sections; both are concatenated before
// HTML stripping so the stored text matches what the board shows.
package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/normalize"
	"jobdetector/internal/scrape/util"
)

const defaultAPIBase = "https://api.lever.co/v0/postings"

var boardTokenPattern = regexp.MustCompile(`jobs\.lever\.co/([^/?&]+)`)

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

func (s *Scraper) Vendor() domain.Vendor { return domain.VendorLever }

type posting struct {
	ID               string `json:"id"`
	Text             string `json:"text"` // title
	HostedURL        string `json:"hostedUrl"`
	CreatedAt        int64  `json:"createdAt"` // ms epoch
	Description      string `json:"description"`
	DescriptionPlain string `json:"descriptionPlain"`
	Categories       struct {
		Location   string `json:"location"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	Lists []struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	} `json:"lists"`
}

func (s *Scraper) Scrape(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	token := ResolveBoardToken(co)
	if token == "" {
		s.log.Warn("lever board token not resolved", zap.String("company", co.Name))
		return nil, nil
	}

	u := fmt.Sprintf("%s/%s?mode=json", s.apiBase, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", util.UserAgent)

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, u); err != nil {
			return nil, err
		}
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("lever status %d", res.StatusCode)
	}

	var postings []posting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}

	out := make([]domain.Job, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}

		url := p.HostedURL
		if url == "" {
			url = fmt.Sprintf("https://jobs.lever.co/%s/%s", token, p.ID)
		}

		var posted time.Time
		if p.CreatedAt > 0 {
			posted = time.UnixMilli(p.CreatedAt).UTC()
		}

		descHTML := assembleDescription(p)
		if normalize.StripHTML(descHTML) == "" {
			descHTML = p.DescriptionPlain
		}

		out = append(out, s.norm.Build(normalize.Raw{
			Vendor:          domain.VendorLever,
			VendorID:        p.ID,
			Title:           p.Text,
			Location:        p.Categories.Location,
			URL:             url,
			DescriptionHTML: descHTML,
			PostedAt:        posted,
			Commitment:      p.Categories.Commitment,
		}, co))
	}
	return out, nil
}

// assembleDescription concatenates the lead-in description with every
// titled list section, mirroring the hosted board's layout.
func assembleDescription(p posting) string {
	var b strings.Builder
	b.WriteString(p.Description)
	for _, l := range p.Lists {
		if l.Text == "" || l.Content == "" {
			continue
		}
		b.WriteString("<h3>")
		b.WriteString(l.Text)
		b.WriteString("</h3>")
		b.WriteString(l.Content)
	}
	return b.String()
}

// ResolveBoardToken extracts the board token from the company's ats_url
// without touching the network; a domain-derived guess is the fallback.
func ResolveBoardToken(co domain.Company) string {
	if m := boardTokenPattern.FindStringSubmatch(co.ATSURL); m != nil {
		return m[1]
	}
	d := strings.ReplaceAll(strings.TrimSuffix(co.Domain, ".com"), ".", "")
	if d != "" {
		return d
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(co.Name)), " ", "")
}
