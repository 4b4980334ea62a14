package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.Scrape.Concurrency < 1 || cfg.Scrape.Concurrency > 64 {
		errs = append(errs, "scrape.concurrency must be 1..64")
	}
	if cfg.Scrape.CompanyTimeout.Duration() < time.Second {
		errs = append(errs, "scrape.company_timeout must be >= 1s")
	}
	if cfg.Scrape.HostReqPerSec <= 0 {
		errs = append(errs, "scrape.host_req_per_sec must be > 0")
	}

	checkPatterns := func(name string, pats []string) {
		for i, p := range pats {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d] cannot be empty", name, i))
				continue
			}
			if _, err := regexp.Compile(`(?i)` + p); err != nil {
				errs = append(errs, fmt.Sprintf("%s[%d] is not a valid regex: %v", name, i, err))
			}
		}
	}

	checkPatterns("rules.tech_roles", cfg.Rules.TechRoles)
	checkPatterns("rules.nontech_titles", cfg.Rules.NonTechTitles)
	checkPatterns("rules.language.required_markers", cfg.Rules.Language.RequiredMarkers)
	checkPatterns("rules.language.not_required_markers", cfg.Rules.Language.NotRequiredMarkers)

	for i, s := range cfg.Rules.Skills {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Sprintf("rules.skills[%d] cannot be empty", i))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
