// Package normalize turns vendor-native postings into canonical job
// records: HTML cleanup, type inference, salary and skill extraction, and
// the content fingerprint reconciliation depends on.
package normalize

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobdetector/internal/domain"
	"jobdetector/internal/scrape/util"
)

type Normalizer struct {
	skills []string
}

func New(skills []string) *Normalizer {
	return &Normalizer{skills: skills}
}

// Raw is what an adapter hands over per posting. Vendor-specific hints
// (commitment, isRemote, structured compensation) refine the inference.
type Raw struct {
	Vendor          domain.Vendor
	VendorID        string
	Title           string
	Location        string
	URL             string
	DescriptionHTML string
	PostedAt        time.Time
	Commitment      string // e.g. Lever "Full-time"
	EmploymentType  string // e.g. Ashby "FullTime"
	IsRemote        bool
	Salary          *domain.Salary // structured comp when the vendor has it
}

// Build maps a raw posting onto the canonical schema. The content hash is
// computed over (title, description, location) only.
func (n *Normalizer) Build(raw Raw, co domain.Company) domain.Job {
	title := util.CleanText(raw.Title)
	loc := util.NormalizeLocation(raw.Location)
	desc := StripHTML(raw.DescriptionHTML)

	posted := raw.PostedAt
	if posted.IsZero() {
		posted = time.Now().UTC()
	}

	salary := raw.Salary
	if salary == nil {
		salary = ExtractSalary(desc)
	}

	remote := InferRemoteType(loc, desc)
	if raw.IsRemote && remote == "On-site" {
		remote = "Remote"
	}

	now := time.Now().UTC()
	return domain.Job{
		JobID:           fmt.Sprintf("%s_%s", raw.Vendor, strings.TrimSpace(raw.VendorID)),
		Title:           title,
		Company:         co.Name,
		Location:        loc,
		CompanyLocation: co.Location,
		Salary:          salary,
		JobType:         InferJobType(title, raw.Commitment, raw.EmploymentType, desc),
		RemoteType:      remote,
		Description:     desc,
		Skills:          n.ExtractSkills(desc),
		Source:          raw.Vendor,
		URL:             strings.TrimSpace(raw.URL),
		PostedAt:        posted,
		ScrapedAt:       now,
		LastSeenAt:      now,
		ContentHash:     domain.ContentHash(title, desc, loc),
		Active:          true,
	}
}

// StripHTML unescapes entities, drops script/style subtrees, and returns
// the remaining text one trimmed line per block.
func StripHTML(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	h = html.UnescapeString(h)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(h))
	if err != nil {
		return util.CleanText(h)
	}
	doc.Find("script, style").Remove()

	var lines []string
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	for _, line := range strings.Split(text, "\n") {
		line = util.CleanText(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func InferJobType(title, commitment, employmentType, desc string) string {
	text := strings.ToLower(strings.Join([]string{title, commitment, employmentType, desc}, " "))

	switch {
	case strings.Contains(text, "intern"):
		return "Internship"
	case strings.Contains(text, "contract"):
		return "Contract"
	case strings.Contains(text, "part-time") || strings.Contains(text, "part time"):
		return "Part-time"
	default:
		return "Full-time"
	}
}

func InferRemoteType(location, desc string) string {
	text := strings.ToLower(location + " " + desc)
	if strings.Contains(text, "remote") {
		if strings.Contains(text, "hybrid") {
			return "Hybrid"
		}
		return "Remote"
	}
	if strings.Contains(text, "hybrid") {
		return "Hybrid"
	}
	return "On-site"
}

// salaryPattern matches "$100,000 - $150,000" and "$100k - $150K".
var salaryPattern = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*|\d+)(k|K)?\s*-\s*\$(\d{1,3}(?:,\d{3})*|\d+)(k|K)?`)

func ExtractSalary(text string) *domain.Salary {
	m := salaryPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	parse := func(num, suffix string) int {
		v, err := strconv.Atoi(strings.ReplaceAll(num, ",", ""))
		if err != nil {
			return 0
		}
		if strings.EqualFold(suffix, "k") {
			v *= 1000
		}
		return v
	}

	min := parse(m[1], m[2])
	max := parse(m[3], m[4])
	if min == 0 || max == 0 {
		return nil
	}
	return &domain.Salary{Min: min, Max: max, Currency: "USD"}
}

// ExtractSkills scans the description for the configured technology
// keywords. Output is title-cased, de-duplicated, and sorted so equal
// descriptions always yield equal tag lists.
func (n *Normalizer) ExtractSkills(description string) []string {
	low := strings.ToLower(description)
	seen := map[string]bool{}
	var out []string
	for _, skill := range n.skills {
		if strings.Contains(low, strings.ToLower(skill)) {
			t := titleCase(skill)
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] -= 'a' - 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
