// Package ashby scrapes Ashby boards. The board page embeds its data as
// JSON for client hydration; when that payload is missing or empty the
// adapter falls back to the public posting API, keyed by the slug parsed
// out of the board URL.
package ashby

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/normalize"
	"jobdetector/internal/scrape/util"
)

const (
	defaultBoardBase = "https://jobs.ashbyhq.com"
	defaultAPIBase   = "https://api.ashbyhq.com/posting-api/job-board"
)

var slugPattern = regexp.MustCompile(`jobs\.ashbyhq\.com/([^/?&]+)`)

type Scraper struct {
	hc      *http.Client
	limiter *util.HostLimiter
	norm    *normalize.Normalizer
	log     *zap.Logger

	boardBase string
	apiBase   string
}

func New(hc *http.Client, limiter *util.HostLimiter, norm *normalize.Normalizer, log *zap.Logger) *Scraper {
	return &Scraper{
		hc:        hc,
		limiter:   limiter,
		norm:      norm,
		log:       log,
		boardBase: defaultBoardBase,
		apiBase:   defaultAPIBase,
	}
}

func (s *Scraper) Vendor() domain.Vendor { return domain.VendorAshby }

type rawJob struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DescriptionHTML string `json:"descriptionHtml"`
	JobURL          string `json:"jobUrl"`
	PublishedAt     string `json:"publishedAt"`
	EmploymentType  string `json:"employmentType"`
	IsRemote        bool   `json:"isRemote"`
	Location        string `json:"location"`
	Address         struct {
		PostalAddress struct {
			AddressLocality string `json:"addressLocality"`
			AddressRegion   string `json:"addressRegion"`
			AddressCountry  string `json:"addressCountry"`
		} `json:"postalAddress"`
	} `json:"address"`
	Compensation *struct {
		Min      int    `json:"min"`
		Max      int    `json:"max"`
		Currency string `json:"currency"`
	} `json:"compensation"`
}

type jobBoard struct {
	Jobs []rawJob `json:"jobs"`
}

// appDataPattern grabs the JSON object assigned to window.__appData in the
// board page's bootstrap script.
var appDataPattern = regexp.MustCompile(`(?s)window\.__appData\s*=\s*(\{.*?\})\s*;?\s*(?:</script>|window\.|$)`)

func (s *Scraper) Scrape(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	slug, boardURL := s.resolveBoard(co)
	if slug == "" {
		s.log.Warn("ashby board slug not resolved", zap.String("company", co.Name))
		return nil, nil
	}

	jobs, err := s.scrapeEmbedded(ctx, boardURL)
	if err != nil {
		s.log.Warn("ashby embedded payload unavailable, falling back to API",
			zap.String("company", co.Name), zap.Error(err))
	}
	if len(jobs) == 0 {
		jobs, err = s.scrapeAPI(ctx, slug)
		if err != nil {
			return nil, err
		}
	}

	out := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.ID == "" || strings.TrimSpace(j.Title) == "" {
			continue
		}

		url := j.JobURL
		if url == "" {
			url = fmt.Sprintf("%s/%s/%s", s.boardBase, slug, j.ID)
		}

		var salary *domain.Salary
		if j.Compensation != nil && j.Compensation.Min > 0 {
			cur := j.Compensation.Currency
			if cur == "" {
				cur = "USD"
			}
			salary = &domain.Salary{Min: j.Compensation.Min, Max: j.Compensation.Max, Currency: cur}
		}

		out = append(out, s.norm.Build(normalize.Raw{
			Vendor:          domain.VendorAshby,
			VendorID:        j.ID,
			Title:           j.Title,
			Location:        j.locationText(),
			URL:             url,
			DescriptionHTML: j.DescriptionHTML,
			PostedAt:        parseISO(j.PublishedAt),
			EmploymentType:  j.EmploymentType,
			IsRemote:        j.IsRemote,
			Salary:          salary,
		}, co))
	}
	return out, nil
}

func (j rawJob) locationText() string {
	if j.Location != "" {
		return j.Location
	}
	pa := j.Address.PostalAddress
	var parts []string
	for _, p := range []string{pa.AddressLocality, pa.AddressRegion, pa.AddressCountry} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if j.IsRemote {
		return "Remote"
	}
	return ""
}

func (s *Scraper) resolveBoard(co domain.Company) (slug, boardURL string) {
	if m := slugPattern.FindStringSubmatch(co.ATSURL); m != nil {
		return m[1], co.ATSURL
	}
	slug = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(co.Name)), " ", "")
	if slug == "" {
		return "", ""
	}
	return slug, fmt.Sprintf("%s/%s", s.boardBase, slug)
}

// scrapeEmbedded fetches the board page and pulls jobs out of the
// hydration payload. Boards ship it in one of two forms: a Next.js
// script#__NEXT_DATA__ document (jobs under props.pageProps.jobBoard) or
// a window.__appData bootstrap assignment. A present payload with
// "jobBoard":null means the board does not exist; that is a miss, not an
// error.
func (s *Scraper) scrapeEmbedded(ctx context.Context, boardURL string) ([]rawJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", util.UserAgent)

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, boardURL); err != nil {
			return nil, err
		}
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("ashby board status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, err
	}

	if text := doc.Find("script#__NEXT_DATA__").Text(); strings.TrimSpace(text) != "" {
		var next struct {
			Props struct {
				PageProps struct {
					JobBoard *jobBoard `json:"jobBoard"`
				} `json:"pageProps"`
			} `json:"props"`
		}
		if err := json.Unmarshal([]byte(text), &next); err != nil {
			return nil, fmt.Errorf("ashby next data decode: %w", err)
		}
		if next.Props.PageProps.JobBoard == nil {
			return nil, nil
		}
		return next.Props.PageProps.JobBoard.Jobs, nil
	}

	var payload string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if m := appDataPattern.FindStringSubmatch(text); m != nil {
			payload = m[1]
			return false
		}
		return true
	})
	if payload == "" {
		return nil, fmt.Errorf("ashby app data script not found")
	}

	var app struct {
		JobBoard *jobBoard `json:"jobBoard"`
	}
	if err := json.Unmarshal([]byte(payload), &app); err != nil {
		return nil, fmt.Errorf("ashby app data decode: %w", err)
	}
	if app.JobBoard == nil {
		// Generic 200 for a nonexistent board.
		return nil, nil
	}
	return app.JobBoard.Jobs, nil
}

func (s *Scraper) scrapeAPI(ctx context.Context, slug string) ([]rawJob, error) {
	u := fmt.Sprintf("%s/%s", s.apiBase, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", util.UserAgent)
	req.Header.Set("Accept", "application/json")

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, u); err != nil {
			return nil, err
		}
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ashby api get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("ashby api status %d", res.StatusCode)
	}

	var board jobBoard
	if err := json.NewDecoder(res.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("ashby api decode: %w", err)
	}
	return board.Jobs, nil
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
