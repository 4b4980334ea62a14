package lever

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/normalize"
)

func TestResolveBoardToken(t *testing.T) {
	tests := []struct {
		name string
		co   domain.Company
		want string
	}{
		{
			name: "from ats url",
			co:   domain.Company{Name: "Acme", Domain: "acme.com", ATSURL: "https://jobs.lever.co/acme-inc?commitment=Full-time"},
			want: "acme-inc",
		},
		{
			name: "from domain",
			co:   domain.Company{Name: "Acme", Domain: "acme.com"},
			want: "acme",
		},
		{
			name: "from name when domain empty",
			co:   domain.Company{Name: "Acme Robotics"},
			want: "acmerobotics",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBoardToken(tt.co))
		})
	}
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acme", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("mode"))
		fmt.Fprint(w, `[
			{
				"id": "uuid-1",
				"text": "Backend Engineer",
				"hostedUrl": "https://jobs.lever.co/acme/uuid-1",
				"createdAt": 1704067200000,
				"description": "<p>Build APIs.</p>",
				"categories": {"location": "Tokyo", "commitment": "Full-time"},
				"lists": [
					{"text": "Requirements", "content": "<li>Go experience</li>"}
				]
			},
			{"id": "", "text": "ignored, no id"},
			{
				"id": "uuid-2",
				"text": "Plain Fallback",
				"description": "",
				"descriptionPlain": "Plain text only.",
				"categories": {"location": "Osaka"}
			}
		]`)
	}))
	defer srv.Close()

	s := New(srv.Client(), nil, normalize.New(nil), zap.NewNop())
	s.apiBase = srv.URL

	co := domain.Company{Name: "Acme", Domain: "acme.com", ATSURL: "https://jobs.lever.co/acme"}
	jobs, err := s.Scrape(context.Background(), co)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	first := jobs[0]
	assert.Equal(t, "lever_uuid-1", first.JobID)
	assert.Equal(t, "Backend Engineer", first.Title)
	assert.Equal(t, "Tokyo", first.Location)
	assert.Equal(t, domain.VendorLever, first.Source)
	assert.Equal(t, "Full-time", first.JobType)
	assert.Contains(t, first.Description, "Build APIs.")
	assert.Contains(t, first.Description, "Requirements")
	assert.Contains(t, first.Description, "Go experience")
	assert.Equal(t, 2024, first.PostedAt.Year())
	assert.NotEmpty(t, first.ContentHash)

	second := jobs[1]
	assert.Equal(t, "Plain text only.", second.Description)
	assert.Equal(t, "https://jobs.lever.co/acme/uuid-2", second.URL)
}

func TestScrapeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(srv.Client(), nil, normalize.New(nil), zap.NewNop())
	s.apiBase = srv.URL

	_, err := s.Scrape(context.Background(), domain.Company{Name: "Acme", Domain: "acme.com"})
	require.Error(t, err)
}
