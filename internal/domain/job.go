package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type Salary struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Currency string `json:"currency"`
}

// Job is the canonical posting record shared by every vendor adapter.
type Job struct {
	JobID           string // vendor-prefixed, e.g. "lever:acme:uuid"
	Title           string
	Company         string
	Location        string // free text as the vendor reported it
	CompanyLocation string // the company's declared home location, kept separate
	Salary          *Salary
	JobType         string // Full-time / Part-time / Contract / Internship
	RemoteType      string // Remote / Hybrid / On-site
	Description     string // cleaned plain text
	Skills          []string
	Source          Vendor
	URL             string
	PostedAt        time.Time
	ScrapedAt       time.Time
	LastSeenAt      time.Time
	ContentHash     string
	Active          bool
}

// ContentHash digests the fields that define "the same posting". Any field
// outside (title, description, location) must not influence the result.
func ContentHash(title, description, location string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(description))
	h.Write([]byte{0})
	h.Write([]byte(location))
	return hex.EncodeToString(h.Sum(nil))
}

// Rejected records a posting excluded by the classification filter, keyed
// by content hash so identical postings are not re-evaluated.
type Rejected struct {
	ContentHash string
	Reason      string
	RejectedAt  time.Time
}
