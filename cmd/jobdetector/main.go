package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"jobdetector/internal/classify"
	"jobdetector/internal/config"
	"jobdetector/internal/discovery"
	"jobdetector/internal/domain"
	"jobdetector/internal/logging"
	"jobdetector/internal/orchestrate"
	"jobdetector/internal/scheduler"
	"jobdetector/internal/scrape"
	"jobdetector/internal/scrape/normalize"
	"jobdetector/internal/scrape/util"
	"jobdetector/internal/store"
)

func main() {
	var (
		cfgFlag  = flag.String("config", "", "path to config.yml (default: bootstrapped into the data dir)")
		addFlag  = flag.String("add", "", "onboard companies, comma-separated Name=domain pairs")
		discover = flag.Bool("discover", false, "resolve the ATS for companies still marked unknown")
		doScrape = flag.Bool("scrape", false, "crawl all resolved boards once")
		every    = flag.Duration("every", 0, "keep running, repeating discovery+scrape at this interval")
		sweep    = flag.Duration("sweep-stale", 0, "retire postings not seen within this window (separate from scraping)")
		logLevel = flag.String("log-level", "info", "zap level: debug, info, warn, error")
	)
	flag.Parse()

	log := logging.New(*logLevel)
	defer func() { _ = log.Sync() }()

	dataDir := os.Getenv("JOBDETECTOR_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal("data dir", zap.Error(err))
	}

	// One process per data dir; two writers on the same sqlite file would
	// fight over the lock anyway.
	lock := flock.New(filepath.Join(dataDir, "jobdetector.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatal("instance lock", zap.Error(err))
	}
	if !locked {
		log.Fatal("another instance is already running", zap.String("data_dir", dataDir))
	}
	defer func() { _ = lock.Unlock() }()

	cfgPath := *cfgFlag
	if cfgPath == "" {
		cfgPath, err = config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			log.Fatal("config bootstrap failed", zap.Error(err))
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("config load failed", zap.String("path", cfgPath), zap.Error(err))
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal("config invalid", zap.String("path", cfgPath), zap.Error(err))
	}
	if cfg.App.DataDir == "." {
		cfg.App.DataDir = dataDir
	}

	db, err := store.Open(filepath.Join(cfg.App.DataDir, "jobdetector.db"))
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *addFlag != "" {
		if err := addCompanies(ctx, db, *addFlag); err != nil {
			log.Fatal("add companies", zap.Error(err))
		}
	}

	orch := buildOrchestrator(cfg, db, log)
	if orch == nil {
		os.Exit(1)
	}

	runOnce := func(ctx context.Context) error {
		if *discover || *every > 0 {
			if _, err := orch.DiscoverAll(ctx); err != nil {
				return err
			}
		}
		if *doScrape || *every > 0 {
			sum, err := orch.ScrapeAll(ctx)
			if err != nil {
				return err
			}
			printSummary(log, sum)
		}
		if *sweep > 0 {
			retired, err := orch.SweepStale(ctx, *sweep)
			if err != nil {
				return err
			}
			log.Info("stale sweep finished", zap.Duration("older_than", *sweep), zap.Int64("retired", retired))
		}
		return nil
	}

	switch {
	case *every > 0:
		log.Info("running on a schedule", zap.Duration("interval", *every))
		scheduler.Every(ctx, log, *every, "discover+scrape", runOnce)
	case *discover || *doScrape || *sweep > 0:
		if err := runOnce(ctx); err != nil && ctx.Err() == nil {
			log.Fatal("run failed", zap.Error(err))
		}
	case *addFlag != "":
		// onboarding only; nothing else to do
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func buildOrchestrator(cfg config.Config, db *store.DB, log *zap.Logger) *orchestrate.Orchestrator {
	classifier, err := classify.New(cfg.Rules)
	if err != nil {
		log.Error("rules invalid", zap.Error(err))
		return nil
	}

	client := util.NewClient(30*time.Second, cfg.Scrape.InsecureTLS)
	limiter := util.NewHostLimiter(cfg.Scrape.HostReqPerSec, cfg.Scrape.HostBurst)
	norm := normalize.New(cfg.Rules.Skills)

	registry := scrape.NewRegistry(scrape.Deps{
		Client:  client,
		Limiter: limiter,
		Norm:    norm,
		Log:     log.Named("scrape"),
	})

	disc := discovery.New(client, limiter, log.Named("discovery"), discovery.Options{
		ProbeTimeout: cfg.Discovery.ProbeTimeout.Duration(),
		ProbeDelay:   cfg.Discovery.ProbeDelay.Duration(),
		FetchTimeout: cfg.Discovery.FetchTimeout.Duration(),
	})

	return &orchestrate.Orchestrator{
		DB:             db,
		Registry:       registry,
		Classifier:     classifier,
		Disc:           disc,
		Log:            log.Named("orchestrate"),
		Concurrency:    cfg.Scrape.Concurrency,
		CompanyTimeout: cfg.Scrape.CompanyTimeout.Duration(),
	}
}

// addCompanies parses "Acme=acme.com,Globex=globex.jp" and onboards each
// pair. A pair may also carry a board hint: "Acme=acme.com=https://jobs.lever.co/acme".
func addCompanies(ctx context.Context, db *store.DB, pairs string) error {
	for _, pair := range strings.Split(pairs, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("bad company entry %q, want Name=domain", pair)
		}
		c := domain.Company{
			Name:    parts[0],
			Domain:  parts[1],
			ATSType: domain.VendorUnknown,
			Active:  true,
		}
		if len(parts) == 3 {
			c.ATSURL = parts[2]
			if v := domain.IdentifyVendor(parts[2]); v != domain.VendorUnknown {
				c.ATSType = v
				c.Confidence = 1.0
			}
		}
		if _, err := db.AddCompany(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(log *zap.Logger, sum orchestrate.Summary) {
	counts := sum.Counts()
	fields := []zap.Field{
		zap.Int("companies", len(sum.Results)),
		zap.Duration("elapsed", sum.Elapsed),
	}
	for outcome, n := range counts {
		fields = append(fields, zap.Int(string(outcome), n))
	}
	log.Info("scrape pass finished", fields...)
}
