package discovery

import (
	"net/url"
	"strings"
)

// tld-like host segments to drop when deriving an account slug from a
// domain. "co" and "ne" cover the co.jp / ne.jp style second levels.
var tldLike = map[string]bool{
	"com": true, "co": true, "jp": true, "net": true,
	"org": true, "ai": true, "io": true, "ne": true,
}

// badSlugs are extractions that mean the derivation grabbed a hosting
// artifact instead of the company name.
var badSlugs = map[string]bool{"www": true, "careers": true, "jobs": true}

// Slug derives the probable ATS account name from a domain or URL:
// "https://www.example.co.jp/about" becomes "example".
func Slug(domainOrURL string) string {
	host := strings.TrimSpace(domainOrURL)
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil && u.Host != "" {
			host = u.Host
		}
	}
	host = strings.ToLower(host)
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	host = strings.TrimPrefix(host, "www.")

	parts := strings.Split(host, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || tldLike[p] {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return ""
	}

	slug := kept[0]
	if badSlugs[slug] && len(kept) > 1 {
		slug = kept[1]
	}
	if badSlugs[slug] {
		return ""
	}
	return slug
}
