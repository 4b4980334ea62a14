package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobdetector/internal/domain"
)

// JobMeta is the slice of a stored job the reconciler needs to decide
// between touch and replace without loading the whole row.
type JobMeta struct {
	ContentHash string
	Active      bool
}

// GetJobMeta reports the stored hash for a job id, with ok=false when the
// posting has never been seen.
func (d *DB) GetJobMeta(ctx context.Context, jobID string) (JobMeta, bool, error) {
	var m JobMeta
	var active int
	err := d.Pool.QueryRowContext(ctx,
		`SELECT content_hash, is_active FROM jobs WHERE job_id = ?;`, jobID).
		Scan(&m.ContentHash, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return JobMeta{}, false, nil
	}
	if err != nil {
		return JobMeta{}, false, err
	}
	m.Active = active != 0
	return m, true, nil
}

// InsertJob stores a brand-new posting.
func (d *DB) InsertJob(ctx context.Context, j domain.Job) error {
	skills, salary := encodeJob(j)
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO jobs (job_id, title, company, location, company_location, salary, job_type, remote_type,
                  description, skills, source, url, posted_at, scraped_at, last_seen_at, content_hash, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		j.JobID, j.Title, j.Company, j.Location, j.CompanyLocation, salary, j.JobType, j.RemoteType,
		j.Description, skills, string(j.Source), j.URL,
		fmtTime(j.PostedAt), fmtTime(j.ScrapedAt), fmtTime(j.LastSeenAt), j.ContentHash, boolInt(j.Active),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", j.JobID, err)
	}
	return nil
}

// TouchJob refreshes last-seen on an unchanged posting. Nothing else
// moves, so stored timestamps like posted_at keep their original values.
func (d *DB) TouchJob(ctx context.Context, jobID string, lastSeen time.Time) error {
	_, err := d.Pool.ExecContext(ctx,
		`UPDATE jobs SET last_seen_at = ?, is_active = 1 WHERE job_id = ?;`,
		fmtTime(lastSeen), jobID)
	if err != nil {
		return fmt.Errorf("touch job %s: %w", jobID, err)
	}
	return nil
}

// ReplaceJob overwrites a posting whose content hash changed.
func (d *DB) ReplaceJob(ctx context.Context, j domain.Job) error {
	skills, salary := encodeJob(j)
	_, err := d.Pool.ExecContext(ctx, `
UPDATE jobs
SET title = ?, company = ?, location = ?, company_location = ?, salary = ?, job_type = ?, remote_type = ?,
    description = ?, skills = ?, source = ?, url = ?, posted_at = ?, scraped_at = ?, last_seen_at = ?,
    content_hash = ?, is_active = ?
WHERE job_id = ?;`,
		j.Title, j.Company, j.Location, j.CompanyLocation, salary, j.JobType, j.RemoteType,
		j.Description, skills, string(j.Source), j.URL,
		fmtTime(j.PostedAt), fmtTime(j.ScrapedAt), fmtTime(j.LastSeenAt), j.ContentHash, boolInt(j.Active),
		j.JobID,
	)
	if err != nil {
		return fmt.Errorf("replace job %s: %w", j.JobID, err)
	}
	return nil
}

// MarkStale flips postings for a company to inactive when they were not
// seen in the latest crawl. Rows are never deleted.
func (d *DB) MarkStale(ctx context.Context, company string, seenSince time.Time) (int64, error) {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE jobs SET is_active = 0 WHERE company = ? AND last_seen_at < ?;`,
		company, fmtTime(seenSince))
	if err != nil {
		return 0, fmt.Errorf("mark stale for %s: %w", company, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListJobs returns postings for a company, active first, newest first.
// An empty company returns everything.
func (d *DB) ListJobs(ctx context.Context, company string) ([]domain.Job, error) {
	query := `
SELECT job_id, title, company, location, company_location, salary, job_type, remote_type,
       description, skills, source, url, posted_at, scraped_at, last_seen_at, content_hash, is_active
FROM jobs`
	var args []any
	if company != "" {
		query += ` WHERE company = ?`
		args = append(args, company)
	}
	query += ` ORDER BY is_active DESC, posted_at DESC;`

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		var j domain.Job
		var salary, skills, source, posted, scraped, lastSeen string
		var active int
		if err := rows.Scan(&j.JobID, &j.Title, &j.Company, &j.Location, &j.CompanyLocation,
			&salary, &j.JobType, &j.RemoteType, &j.Description, &skills, &source, &j.URL,
			&posted, &scraped, &lastSeen, &j.ContentHash, &active); err != nil {
			return nil, err
		}
		j.Source = domain.ParseVendor(source)
		j.Active = active != 0
		if salary != "" {
			var s domain.Salary
			if json.Unmarshal([]byte(salary), &s) == nil {
				j.Salary = &s
			}
		}
		_ = json.Unmarshal([]byte(skills), &j.Skills)
		j.PostedAt, _ = time.Parse(time.RFC3339, posted)
		j.ScrapedAt, _ = time.Parse(time.RFC3339, scraped)
		j.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
		out = append(out, j)
	}
	return out, rows.Err()
}

func encodeJob(j domain.Job) (skillsJSON, salaryJSON string) {
	sb, _ := json.Marshal(j.Skills)
	if j.Skills == nil {
		sb = []byte("[]")
	}
	skillsJSON = string(sb)
	if j.Salary != nil {
		b, _ := json.Marshal(j.Salary)
		salaryJSON = string(b)
	}
	return skillsJSON, salaryJSON
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
