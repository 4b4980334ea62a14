package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdetector/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAddCompanyAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	added, err := db.AddCompany(ctx, domain.Company{Name: "Acme", Domain: "acme.com", Active: true})
	require.NoError(t, err)
	assert.True(t, added)

	// Same domain again is a no-op.
	added, err = db.AddCompany(ctx, domain.Company{Name: "Acme Again", Domain: "acme.com", Active: true})
	require.NoError(t, err)
	assert.False(t, added)

	unresolved, err := db.ListUnresolved(ctx)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "Acme", unresolved[0].Name)
	assert.Equal(t, domain.VendorUnknown, unresolved[0].ATSType)

	got, ok, err := db.GetByName(ctx, "Acme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "acme.com", got.Domain)

	_, ok, err = db.GetByName(ctx, "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddCompanyValidates(t *testing.T) {
	db := openTestDB(t)

	_, err := db.AddCompany(context.Background(), domain.Company{
		Name:    "Broken",
		Domain:  "broken.com",
		ATSType: domain.VendorLever,
		ATSURL:  "https://boards.greenhouse.io/broken", // wrong vendor host
		Active:  true,
	})
	require.Error(t, err)
}

func TestSetDiscovery(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.AddCompany(ctx, domain.Company{Name: "Acme", Domain: "acme.com", Active: true})
	require.NoError(t, err)
	companies, err := db.ListUnresolved(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	id := companies[0].ID

	// A vendor type with a mismatched board URL must never land.
	err = db.SetDiscovery(ctx, id, "https://example.com/jobs", domain.VendorLever, 0.5)
	require.Error(t, err)

	err = db.SetDiscovery(ctx, id, "https://jobs.lever.co/acme", domain.VendorLever, 0.5)
	require.NoError(t, err)

	unresolved, err := db.ListUnresolved(ctx)
	require.NoError(t, err)
	assert.Empty(t, unresolved)

	active, err := db.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, domain.VendorLever, active[0].ATSType)
	assert.Equal(t, 0.5, active[0].Confidence)
	require.NotNil(t, active[0].DiscoveredAt)
}

func testJob(id, title string) domain.Job {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Job{
		JobID:       id,
		Title:       title,
		Company:     "Acme",
		Location:    "Tokyo",
		Description: "Build things.",
		Skills:      []string{"Go"},
		Source:      domain.VendorLever,
		URL:         "https://jobs.lever.co/acme/" + id,
		PostedAt:    now,
		ScrapedAt:   now,
		LastSeenAt:  now,
		ContentHash: domain.ContentHash(title, "Build things.", "Tokyo"),
		Active:      true,
	}
}

func TestJobInsertTouchReplace(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	j := testJob("lever_1", "Backend Engineer")
	_, ok, err := db.GetJobMeta(ctx, j.JobID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.InsertJob(ctx, j))

	meta, ok, err := db.GetJobMeta(ctx, j.JobID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, j.ContentHash, meta.ContentHash)
	assert.True(t, meta.Active)

	// Touch only moves last_seen.
	later := j.LastSeenAt.Add(time.Hour)
	require.NoError(t, db.TouchJob(ctx, j.JobID, later))
	jobs, err := db.ListJobs(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, later.Truncate(time.Second), jobs[0].LastSeenAt)
	assert.Equal(t, j.PostedAt, jobs[0].PostedAt, "touch must not disturb posted_at")

	// Replace rewrites the row under the same id.
	changed := testJob("lever_1", "Senior Backend Engineer")
	require.NoError(t, db.ReplaceJob(ctx, changed))
	jobs, err = db.ListJobs(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Senior Backend Engineer", jobs[0].Title)
	assert.Equal(t, changed.ContentHash, jobs[0].ContentHash)
	assert.Equal(t, []string{"Go"}, jobs[0].Skills)
}

func TestMarkStale(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := testJob("lever_old", "Old Role")
	old.LastSeenAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.InsertJob(ctx, old))

	fresh := testJob("lever_fresh", "Fresh Role")
	require.NoError(t, db.InsertJob(ctx, fresh))

	n, err := db.MarkStale(ctx, "Acme", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	jobs, err := db.ListJobs(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	byID := map[string]domain.Job{}
	for _, j := range jobs {
		byID[j.JobID] = j
	}
	assert.False(t, byID["lever_old"].Active, "unseen posting flips inactive")
	assert.True(t, byID["lever_fresh"].Active)
}

func TestRejected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	hash := domain.ContentHash("Recruiting Coordinator", "desc", "Tokyo")
	rejected, err := db.IsRejected(ctx, hash)
	require.NoError(t, err)
	assert.False(t, rejected)

	require.NoError(t, db.MarkRejected(ctx, domain.Rejected{ContentHash: hash, Reason: "non-tech title"}))
	rejected, err = db.IsRejected(ctx, hash)
	require.NoError(t, err)
	assert.True(t, rejected)

	// Re-marking keeps the first reason and does not error.
	require.NoError(t, db.MarkRejected(ctx, domain.Rejected{ContentHash: hash, Reason: "other"}))
}
