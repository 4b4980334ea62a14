package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobdetector/internal/domain"
)

// AddCompany inserts a company, keyed by domain; re-adding an existing
// domain is a no-op. Records are validated before they touch the table.
func (d *DB) AddCompany(ctx context.Context, c domain.Company) (added bool, err error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	if c.ATSType == "" {
		c.ATSType = domain.VendorUnknown
	}

	res, err := d.Pool.ExecContext(ctx, `
INSERT OR IGNORE INTO companies (name, domain, location, ats_url, ats_type, confidence, discovered_at, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		c.Name, c.Domain, c.Location, c.ATSURL, string(c.ATSType), c.Confidence, timePtr(c.DiscoveredAt), boolInt(c.Active),
	)
	if err != nil {
		return false, fmt.Errorf("add company: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListActive returns companies eligible for scraping.
func (d *DB) ListActive(ctx context.Context) ([]domain.Company, error) {
	return d.listCompanies(ctx, `WHERE is_active = 1`)
}

// ListUnresolved returns active companies whose ATS is still unknown,
// the input set for discovery.
func (d *DB) ListUnresolved(ctx context.Context) ([]domain.Company, error) {
	return d.listCompanies(ctx, `WHERE is_active = 1 AND (ats_type = 'unknown' OR ats_url = '')`)
}

func (d *DB) listCompanies(ctx context.Context, where string, args ...any) ([]domain.Company, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, name, domain, location, ats_url, ats_type, confidence, discovered_at, is_active
FROM companies
`+where+`
ORDER BY name;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		var c domain.Company
		var atsType string
		var discovered sql.NullString
		var active int
		if err := rows.Scan(&c.ID, &c.Name, &c.Domain, &c.Location, &c.ATSURL, &atsType, &c.Confidence, &discovered, &active); err != nil {
			return nil, err
		}
		c.ATSType = domain.ParseVendor(atsType)
		c.Active = active != 0
		if discovered.Valid && discovered.String != "" {
			if t, err := time.Parse(time.RFC3339, discovered.String); err == nil {
				c.DiscoveredAt = &t
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByName returns one company by its display name.
func (d *DB) GetByName(ctx context.Context, name string) (domain.Company, bool, error) {
	out, err := d.listCompanies(ctx, `WHERE name = ?`, name)
	if err != nil {
		return domain.Company{}, false, err
	}
	if len(out) == 0 {
		return domain.Company{}, false, nil
	}
	return out[0], true, nil
}

// SetDiscovery records a discovery result on a company. The updated record
// is validated before the write, so a vendor type can never land with a
// mismatched board URL.
func (d *DB) SetDiscovery(ctx context.Context, id int64, atsURL string, vendor domain.Vendor, confidence float64) error {
	var c domain.Company
	var active int
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, name, domain, location, is_active FROM companies WHERE id = ?;`, id).
		Scan(&c.ID, &c.Name, &c.Domain, &c.Location, &active)
	if err != nil {
		return fmt.Errorf("set discovery: load company %d: %w", id, err)
	}
	c.Active = active != 0
	c.ATSURL = atsURL
	c.ATSType = vendor
	c.Confidence = confidence
	now := time.Now().UTC()
	c.DiscoveredAt = &now
	if err := c.Validate(); err != nil {
		return err
	}

	_, err = d.Pool.ExecContext(ctx, `
UPDATE companies
SET ats_url = ?, ats_type = ?, confidence = ?, discovered_at = ?
WHERE id = ?;`,
		c.ATSURL, string(c.ATSType), c.Confidence, now.Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("set discovery: %w", err)
	}
	return nil
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
