package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Scrape struct {
		Concurrency    int     `yaml:"concurrency"`     // companies crawled at once
		CompanyTimeout Seconds `yaml:"company_timeout"` // hard cap per company pipeline
		HostReqPerSec  float64 `yaml:"host_req_per_sec"`
		HostBurst      int     `yaml:"host_burst"`
		InsecureTLS    bool    `yaml:"insecure_tls"` // dev only; default strict
	} `yaml:"scrape"`

	Discovery struct {
		ProbeTimeout Seconds `yaml:"probe_timeout"`
		ProbeDelay   Seconds `yaml:"probe_delay"` // pause between probes to one vendor host
		FetchTimeout Seconds `yaml:"fetch_timeout"`
	} `yaml:"discovery"`

	Rules Rules `yaml:"rules"`
}

// Rules holds the classifier and extraction keyword tables. Empty lists
// fall back to the compiled-in defaults so a minimal config still works.
type Rules struct {
	TechRoles     []string `yaml:"tech_roles"`     // regexes; any match marks a technical role
	NonTechTitles []string `yaml:"nontech_titles"` // regexes; title-only deal breakers
	Language      struct {
		RequiredMarkers    []string `yaml:"required_markers"`     // regexes meaning local-language fluency needed
		NotRequiredMarkers []string `yaml:"not_required_markers"` // explicit override, wins over the above
	} `yaml:"language"`
	Skills []string `yaml:"skills"` // plain substrings matched against descriptions
}

// Seconds is a duration expressed as a plain number of seconds in YAML.
type Seconds time.Duration

func (s *Seconds) UnmarshalYAML(value *yaml.Node) error {
	var n float64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*s = Seconds(time.Duration(n * float64(time.Second)))
	return nil
}

func (s Seconds) Duration() time.Duration { return time.Duration(s) }

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = "."
	}
	if cfg.Scrape.Concurrency <= 0 {
		cfg.Scrape.Concurrency = 5
	}
	if cfg.Scrape.CompanyTimeout <= 0 {
		cfg.Scrape.CompanyTimeout = Seconds(45 * time.Second)
	}
	if cfg.Scrape.HostReqPerSec <= 0 {
		cfg.Scrape.HostReqPerSec = 2
	}
	if cfg.Scrape.HostBurst <= 0 {
		cfg.Scrape.HostBurst = 4
	}
	if cfg.Discovery.ProbeTimeout <= 0 {
		cfg.Discovery.ProbeTimeout = Seconds(5 * time.Second)
	}
	if cfg.Discovery.ProbeDelay < 0 {
		cfg.Discovery.ProbeDelay = 0
	}
	if cfg.Discovery.ProbeDelay == 0 {
		cfg.Discovery.ProbeDelay = Seconds(500 * time.Millisecond)
	}
	if cfg.Discovery.FetchTimeout <= 0 {
		cfg.Discovery.FetchTimeout = Seconds(10 * time.Second)
	}
	if len(cfg.Rules.TechRoles) == 0 {
		cfg.Rules.TechRoles = DefaultTechRoles()
	}
	if len(cfg.Rules.NonTechTitles) == 0 {
		cfg.Rules.NonTechTitles = DefaultNonTechTitles()
	}
	if len(cfg.Rules.Language.RequiredMarkers) == 0 {
		cfg.Rules.Language.RequiredMarkers = DefaultLanguageRequiredMarkers()
	}
	if len(cfg.Rules.Language.NotRequiredMarkers) == 0 {
		cfg.Rules.Language.NotRequiredMarkers = DefaultLanguageNotRequiredMarkers()
	}
	if len(cfg.Rules.Skills) == 0 {
		cfg.Rules.Skills = DefaultSkills()
	}
}

// Default returns a fully-defaulted config without reading any file.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}
