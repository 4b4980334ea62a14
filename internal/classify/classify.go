// Package classify decides whether a posting is worth keeping: a role
// check on the title and a language-requirement check on the description.
// Both are rule tables of case-insensitive patterns, configurable at
// startup and compiled once.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"jobdetector/internal/config"
	"jobdetector/internal/domain"
)

// Result reports a classification decision with the rule that made it.
type Result struct {
	Accept bool
	Reason string
}

type Classifier struct {
	techRoles  []*regexp.Regexp
	nonTech    []*regexp.Regexp
	langReq    []*regexp.Regexp
	langWaived []*regexp.Regexp
}

// New compiles the configured rule tables, falling back to the built-in
// defaults for any table left empty.
func New(rules config.Rules) (*Classifier, error) {
	c := &Classifier{}
	var err error
	if c.techRoles, err = compile(orDefault(rules.TechRoles, config.DefaultTechRoles())); err != nil {
		return nil, fmt.Errorf("tech_roles: %w", err)
	}
	if c.nonTech, err = compile(orDefault(rules.NonTechTitles, config.DefaultNonTechTitles())); err != nil {
		return nil, fmt.Errorf("nontech_titles: %w", err)
	}
	if c.langReq, err = compile(orDefault(rules.Language.RequiredMarkers, config.DefaultLanguageRequiredMarkers())); err != nil {
		return nil, fmt.Errorf("language.required_markers: %w", err)
	}
	if c.langWaived, err = compile(orDefault(rules.Language.NotRequiredMarkers, config.DefaultLanguageNotRequiredMarkers())); err != nil {
		return nil, fmt.Errorf("language.not_required_markers: %w", err)
	}
	return c, nil
}

// Classify runs the role check then the language check; the first reject
// wins. An accepted job reports the accepting rule of the role check.
func (c *Classifier) Classify(job domain.Job) Result {
	if r := c.ClassifyRole(job.Title, job.Description); !r.Accept {
		return r
	}
	if r := c.ClassifyLanguage(job.Description); !r.Accept {
		return r
	}
	return Result{Accept: true, Reason: "tech role, no language bar"}
}

// ClassifyRole rejects titles that match a non-tech pattern, unless a
// tech pattern also matches: "Sales Engineer" stays, "Recruiting
// Coordinator" goes. The non-tech table is a title-only deal breaker.
// When the title alone matches neither table, the tech patterns get a
// second look at the combined title+description, so a fancifully named
// posting with a plainly technical description still passes.
func (c *Classifier) ClassifyRole(title, description string) Result {
	t := strings.ToLower(title)
	tech := firstMatch(c.techRoles, t)
	if nt := firstMatch(c.nonTech, t); nt != "" && tech == "" {
		return Result{Accept: false, Reason: "non-tech title: " + nt}
	}
	if tech != "" {
		return Result{Accept: true, Reason: "tech role: " + tech}
	}
	if m := firstMatch(c.techRoles, t+" "+strings.ToLower(description)); m != "" {
		return Result{Accept: true, Reason: "tech role in description: " + m}
	}
	return Result{Accept: false, Reason: "no tech role keyword in title or description"}
}

// ClassifyLanguage accepts by default. A Japanese-requirement marker in
// the description rejects, unless a not-required marker is also present;
// the waiver always wins over the requirement.
func (c *Classifier) ClassifyLanguage(description string) Result {
	d := strings.ToLower(description)
	req := firstMatch(c.langReq, d)
	if req == "" {
		return Result{Accept: true, Reason: "no language requirement found"}
	}
	if waiver := firstMatch(c.langWaived, d); waiver != "" {
		return Result{Accept: true, Reason: "language requirement waived: " + waiver}
	}
	return Result{Accept: false, Reason: "japanese required: " + req}
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func orDefault(configured, fallback []string) []string {
	if len(configured) > 0 {
		return configured
	}
	return fallback
}

func firstMatch(res []*regexp.Regexp, s string) string {
	for _, re := range res {
		if m := re.FindString(s); m != "" {
			return m
		}
	}
	return ""
}
