package util

import (
	"crypto/tls"
	"net/http"
	"time"
)

const UserAgent = "JobDetector/1.0 (+local)"

// NewClient builds the HTTP client the adapters and discovery share.
// Certificate validation stays strict unless insecure is set, which is a
// development-only escape hatch. Every request carries a timeout; no
// unbounded call is permitted.
func NewClient(timeout time.Duration, insecure bool) *http.Client {
	c := &http.Client{Timeout: timeout}
	if insecure {
		c.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return c
}
