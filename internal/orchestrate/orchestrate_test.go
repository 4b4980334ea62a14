package orchestrate

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobdetector/internal/classify"
	"jobdetector/internal/config"
	"jobdetector/internal/domain"
	"jobdetector/internal/scrape"
	"jobdetector/internal/store"
)

type fakeScraper struct {
	vendor domain.Vendor
	fn     func(ctx context.Context, co domain.Company) ([]domain.Job, error)
}

func (f *fakeScraper) Vendor() domain.Vendor { return f.vendor }
func (f *fakeScraper) Scrape(ctx context.Context, co domain.Company) ([]domain.Job, error) {
	return f.fn(ctx, co)
}

func newTestOrchestrator(t *testing.T, registry scrape.Registry) (*Orchestrator, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	classifier, err := classify.New(config.Default().Rules)
	require.NoError(t, err)

	return &Orchestrator{
		DB:             db,
		Registry:       registry,
		Classifier:     classifier,
		Log:            zap.NewNop(),
		Concurrency:    2,
		CompanyTimeout: 200 * time.Millisecond,
	}, db
}

func addLeverCompany(t *testing.T, db *store.DB, name string) {
	t.Helper()
	_, err := db.AddCompany(context.Background(), domain.Company{
		Name:    name,
		Domain:  name + ".com",
		ATSURL:  "https://jobs.lever.co/" + name,
		ATSType: domain.VendorLever,
		Active:  true,
	})
	require.NoError(t, err)
}

func makeJob(company, id, title string) domain.Job {
	now := time.Now().UTC()
	return domain.Job{
		JobID:       "lever_" + id,
		Title:       title,
		Company:     company,
		Location:    "Tokyo",
		Description: "Ship software.",
		Source:      domain.VendorLever,
		PostedAt:    now,
		ScrapedAt:   now,
		LastSeenAt:  now,
		ContentHash: domain.ContentHash(title, "Ship software.", "Tokyo"),
		Active:      true,
	}
}

func TestScrapeAllBoundedAndTimed(t *testing.T) {
	slow := "company3"
	registry := scrape.Registry{
		domain.VendorLever: &fakeScraper{
			vendor: domain.VendorLever,
			fn: func(ctx context.Context, co domain.Company) ([]domain.Job, error) {
				if co.Name == slow {
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(2 * time.Second):
						return nil, nil
					}
				}
				return []domain.Job{makeJob(co.Name, co.Name+"-1", "Backend Engineer")}, nil
			},
		},
	}

	orch, db := newTestOrchestrator(t, registry)
	for i := 1; i <= 5; i++ {
		addLeverCompany(t, db, fmt.Sprintf("company%d", i))
	}

	sum, err := orch.ScrapeAll(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Results, 5)

	counts := sum.Counts()
	assert.Equal(t, 4, counts[OutcomeOK])
	assert.Equal(t, 1, counts[OutcomeTimedOut])

	for _, r := range sum.Results {
		if r.Company == slow {
			assert.Equal(t, OutcomeTimedOut, r.Outcome)
		} else {
			assert.Equal(t, OutcomeOK, r.Outcome)
			assert.Equal(t, 1, r.Inserted)
		}
	}
}

func TestScrapeAllOutcomes(t *testing.T) {
	registry := scrape.Registry{
		domain.VendorLever: &fakeScraper{
			vendor: domain.VendorLever,
			fn: func(ctx context.Context, co domain.Company) ([]domain.Job, error) {
				return nil, fmt.Errorf("board unreachable")
			},
		},
	}
	orch, db := newTestOrchestrator(t, registry)
	ctx := context.Background()

	addLeverCompany(t, db, "broken")
	_, err := db.AddCompany(ctx, domain.Company{Name: "Mystery", Domain: "mystery.com", Active: true})
	require.NoError(t, err)
	_, err = db.AddCompany(ctx, domain.Company{
		Name: "NoAdapter", Domain: "noadapter.com",
		ATSURL: "https://acme.myworkdayjobs.com/wd1/External", ATSType: domain.VendorWorkday, Active: true,
	})
	require.NoError(t, err)

	sum, err := orch.ScrapeAll(ctx)
	require.NoError(t, err)

	counts := sum.Counts()
	assert.Equal(t, 1, counts[OutcomeFetchFailed])
	assert.Equal(t, 1, counts[OutcomeUnresolved])
	assert.Equal(t, 1, counts[OutcomeUnsupported])
}

func TestReconcileInsertTouchReplace(t *testing.T) {
	title := "Backend Engineer"
	registry := scrape.Registry{
		domain.VendorLever: &fakeScraper{
			vendor: domain.VendorLever,
			fn: func(ctx context.Context, co domain.Company) ([]domain.Job, error) {
				return []domain.Job{makeJob(co.Name, "stable", title)}, nil
			},
		},
	}
	orch, db := newTestOrchestrator(t, registry)
	addLeverCompany(t, db, "acme")
	ctx := context.Background()

	// First pass inserts.
	sum, err := orch.ScrapeAll(ctx)
	require.NoError(t, err)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, 1, sum.Results[0].Inserted)

	// Second pass with identical content only touches.
	sum, err = orch.ScrapeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Results[0].Inserted)
	assert.Equal(t, 1, sum.Results[0].Unchanged)

	// Changed content replaces in place.
	title = "Staff Backend Engineer"
	sum, err = orch.ScrapeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Results[0].Updated)

	jobs, err := db.ListJobs(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Staff Backend Engineer", jobs[0].Title)
}

func TestReconcileRejectsAndSkips(t *testing.T) {
	registry := scrape.Registry{
		domain.VendorLever: &fakeScraper{
			vendor: domain.VendorLever,
			fn: func(ctx context.Context, co domain.Company) ([]domain.Job, error) {
				return []domain.Job{
					makeJob(co.Name, "good", "Backend Engineer"),
					makeJob(co.Name, "bad", "Recruiting Coordinator"),
				}, nil
			},
		},
	}
	orch, db := newTestOrchestrator(t, registry)
	addLeverCompany(t, db, "acme")
	ctx := context.Background()

	sum, err := orch.ScrapeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Results[0].Inserted)
	assert.Equal(t, 1, sum.Results[0].Rejected)

	// The rejected hash short-circuits before classification next time.
	sum, err = orch.ScrapeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Results[0].Unchanged)
	assert.Equal(t, 1, sum.Results[0].Skipped)
	assert.Equal(t, 0, sum.Results[0].Rejected)

	jobs, err := db.ListJobs(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, jobs, 1, "rejected posting never lands in jobs")
}

func TestScrapeAllLeavesUnseenRowsActive(t *testing.T) {
	includeSecond := true
	registry := scrape.Registry{
		domain.VendorLever: &fakeScraper{
			vendor: domain.VendorLever,
			fn: func(ctx context.Context, co domain.Company) ([]domain.Job, error) {
				jobs := []domain.Job{makeJob(co.Name, "keeper", "Backend Engineer")}
				if includeSecond {
					jobs = append(jobs, makeJob(co.Name, "flaky", "Data Engineer"))
				}
				return jobs, nil
			},
		},
	}
	orch, db := newTestOrchestrator(t, registry)
	addLeverCompany(t, db, "acme")
	ctx := context.Background()

	_, err := orch.ScrapeAll(ctx)
	require.NoError(t, err)

	// A posting can drop out of one fetch for transient reasons (listing
	// parse failure, detail fetch hiccup). The crawl pass must not touch
	// it; retirement belongs to the sweep alone.
	includeSecond = false
	time.Sleep(1100 * time.Millisecond) // RFC3339 storage is second-granular
	_, err = orch.ScrapeAll(ctx)
	require.NoError(t, err)

	jobs, err := db.ListJobs(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.True(t, j.Active, "%s must stay active after the crawl pass", j.JobID)
	}
}

func TestSweepStaleRetiresOldSightings(t *testing.T) {
	orch, db := newTestOrchestrator(t, scrape.Registry{})
	addLeverCompany(t, db, "acme")
	ctx := context.Background()

	fresh := makeJob("acme", "fresh", "Backend Engineer")
	old := makeJob("acme", "gone", "Data Engineer")
	old.LastSeenAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.InsertJob(ctx, fresh))
	require.NoError(t, db.InsertJob(ctx, old))

	retired, err := orch.SweepStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), retired)

	jobs, err := db.ListJobs(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, jobs, 2, "the sweep retires, never deletes")
	for _, j := range jobs {
		if j.JobID == "lever_gone" {
			assert.False(t, j.Active)
		} else {
			assert.True(t, j.Active)
		}
	}
}
