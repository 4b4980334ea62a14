// Package greenhouse talks to the Greenhouse job-board API. The list
// endpoint omits full descriptions, so every posting costs a second
// detail fetch.
package greenhouse

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

const defaultAPIBase = "https://boards-api.greenhouse.io/v1/boards"

// boardTokenPattern matches boards.greenhouse.io/<token> and the embedded
// form boards.greenhouse.io/embed/job_board?for=<token>.
var boardTokenPattern = regexp.MustCompile(`greenhouse\.io/(?:embed/job_board\?for=)?([^/?&]+)`)

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

func (s *Scraper) Vendor() domain.Vendor { return domain.VendorGreenhouse }

type listResponse struct {
	Jobs []posting `json:"jobs"`
}

type posting struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	UpdatedAt   string `json:"updated_at"`
	CreatedAt   string `json:"created_at"`
	Content     string `json:"content"` // only present on the detail endpoint
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

func (s *Scraper) Scrape(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	token, err := s.resolveBoardToken(ctx, co)
	if err != nil {
		return nil, err
	}
	if token == "" {
		s.log.Warn("greenhouse board token not resolved", zap.String("company", co.Name))
		return nil, nil
	}

	list, err := s.fetchList(ctx, token)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Job, 0, len(list))
	for _, p := range list {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}

		// The list payload carries no description; hydrate from the
		// detail endpoint. A failed detail fetch keeps the posting with
		// whatever the list gave us.
		if detail, derr := s.fetchDetail(ctx, token, p.ID); derr != nil {
			s.log.Warn("greenhouse detail fetch failed",
				zap.String("company", co.Name), zap.Int64("job_id", p.ID), zap.Error(derr))
		} else if detail != nil {
			p.Content = detail.Content
			if detail.Location.Name != "" {
				p.Location.Name = detail.Location.Name
			}
		}

		url := p.AbsoluteURL
		if url == "" {
			url = fmt.Sprintf("https://boards.greenhouse.io/%s/jobs/%d", token, p.ID)
		}

		out = append(out, s.norm.Build(normalize.Raw{
			Vendor:          domain.VendorGreenhouse,
			VendorID:        fmt.Sprintf("%d", p.ID),
			Title:           p.Title,
			Location:        p.Location.Name,
			URL:             url,
			DescriptionHTML: p.Content,
			PostedAt:        parseTime(util.FirstNonEmpty(p.UpdatedAt, p.CreatedAt)),
		}, co))
	}
	return out, nil
}

// resolveBoardToken prefers the ats_url, then live-tests token guesses
// derived from the company's domain and name.
func (s *Scraper) resolveBoardToken(ctx context.Context, co domain.Company) (string, error) {
	if m := boardTokenPattern.FindStringSubmatch(co.ATSURL); m != nil {
		return m[1], nil
	}

	nameLow := strings.ToLower(strings.TrimSpace(co.Name))
	guesses := []string{
		strings.ReplaceAll(strings.TrimSuffix(co.Domain, ".com"), ".", ""),
		strings.ReplaceAll(nameLow, " ", ""),
		strings.ReplaceAll(nameLow, " ", "-"),
	}

	for _, g := range guesses {
		if g == "" {
			continue
		}
		ok, err := s.testBoardToken(ctx, g)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if ok {
			return g, nil
		}
	}
	return "", nil
}

func (s *Scraper) testBoardToken(ctx context.Context, token string) (bool, error) {
	u := fmt.Sprintf("%s/%s/jobs", s.apiBase, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", util.UserAgent)

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, u); err != nil {
			return false, err
		}
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return false, nil
	}

	var lr listResponse
	if err := json.NewDecoder(res.Body).Decode(&lr); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *Scraper) fetchList(ctx context.Context, token string) ([]posting, error) {
	u := fmt.Sprintf("%s/%s/jobs", s.apiBase, token)
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
		return nil, fmt.Errorf("greenhouse list: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("greenhouse list status %d", res.StatusCode)
	}

	var lr listResponse
	if err := json.NewDecoder(res.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("greenhouse decode: %w", err)
	}
	return lr.Jobs, nil
}

func (s *Scraper) fetchDetail(ctx context.Context, token string, id int64) (*posting, error) {
	u := fmt.Sprintf("%s/%s/jobs/%d", s.apiBase, token, id)
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
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("greenhouse detail status %d", res.StatusCode)
	}

	var p posting
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func parseTime(s string) time.Time {
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
