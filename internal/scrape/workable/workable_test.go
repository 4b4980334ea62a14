package workable

import (
	"context"
	"encoding/json"
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

func TestResolveSlug(t *testing.T) {
	tests := []struct {
		name string
		co   domain.Company
		want string
	}{
		{"from ats url", domain.Company{ATSURL: "https://apply.workable.com/acme-inc/"}, "acme-inc"},
		{"from ats url with path", domain.Company{ATSURL: "https://apply.workable.com/acme/j/ABC123/"}, "acme"},
		{"from domain", domain.Company{Domain: "acme.co.jp"}, "acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveSlug(tt.co))
		})
	}
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/acme/jobs", r.URL.Path)

		var req listRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Empty(t, req.Query, "empty filter returns all published postings")

		fmt.Fprint(w, `{"results":[
			{"shortcode":"AB12CD","title":"DevOps Engineer","description":"<p>Automate deploys.</p>",
			 "published":"2024-06-10T09:00:00Z","type":"full_time","workplace":"remote",
			 "location":{"city":"Tokyo","country":"Japan"}},
			{"shortcode":"","title":"dropped, no shortcode"}
		]}`)
	}))
	defer srv.Close()

	s := New(srv.Client(), nil, normalize.New(nil), zap.NewNop())
	s.apiBase = srv.URL

	co := domain.Company{Name: "Acme", Domain: "acme.com", ATSURL: "https://apply.workable.com/acme/"}
	jobs, err := s.Scrape(context.Background(), co)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "workable_AB12CD", j.JobID)
	assert.Equal(t, "DevOps Engineer", j.Title)
	assert.Equal(t, "Tokyo, Japan", j.Location)
	assert.Equal(t, "https://apply.workable.com/acme/j/AB12CD/", j.URL)
	assert.Equal(t, "Remote", j.RemoteType)
	assert.Contains(t, j.Description, "Automate deploys.")
	assert.Equal(t, 2024, j.PostedAt.Year())
}
