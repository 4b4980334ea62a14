// Package orchestrate drives the two batch passes: resolving unknown ATS
// vendors for onboarded companies, and crawling every resolved board with
// bounded concurrency, classifying and reconciling what comes back.
package orchestrate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"jobdetector/internal/classify"
	"jobdetector/internal/discovery"
	"jobdetector/internal/domain"
	"jobdetector/internal/scrape"
	"jobdetector/internal/store"
)

// Outcome labels how one company's crawl ended.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeUnresolved  Outcome = "unresolved"   // no known ATS; discovery has not succeeded
	OutcomeUnsupported Outcome = "unsupported"  // vendor has no adapter
	OutcomeFetchFailed Outcome = "fetch-failed" // adapter error talking to the vendor
	OutcomeTimedOut    Outcome = "timed-out"    // per-company deadline hit
	OutcomeStoreFailed Outcome = "store-failed" // postings fetched but persisting them failed
)

// CompanyResult is the structured report for one company in a scrape pass.
type CompanyResult struct {
	Company   string
	Outcome   Outcome
	Found     int // postings the adapter returned
	Inserted  int
	Updated   int
	Unchanged int
	Rejected  int // newly rejected by the classifier this pass
	Skipped   int // hash already on the rejected list
	Err       error
	Elapsed   time.Duration
}

// Summary aggregates a whole pass.
type Summary struct {
	Results []CompanyResult
	Started time.Time
	Elapsed time.Duration
}

// Counts tallies results per outcome.
func (s Summary) Counts() map[Outcome]int {
	m := make(map[Outcome]int)
	for _, r := range s.Results {
		m[r.Outcome]++
	}
	return m
}

type Orchestrator struct {
	DB         *store.DB
	Registry   scrape.Registry
	Classifier *classify.Classifier
	Disc       *discovery.Service
	Log        *zap.Logger

	Concurrency    int
	CompanyTimeout time.Duration
}

// ScrapeAll crawls every active company. At most Concurrency companies are
// in flight at once and each gets CompanyTimeout end to end; one slow or
// broken board never sinks the pass.
func (o *Orchestrator) ScrapeAll(ctx context.Context) (Summary, error) {
	companies, err := o.DB.ListActive(ctx)
	if err != nil {
		return Summary{}, err
	}

	k := int64(o.Concurrency)
	if k <= 0 {
		k = 5
	}
	perCompany := o.CompanyTimeout
	if perCompany <= 0 {
		perCompany = 45 * time.Second
	}

	sum := Summary{Started: time.Now().UTC(), Results: make([]CompanyResult, len(companies))}
	sem := semaphore.NewWeighted(k)
	var wg sync.WaitGroup

	for i, co := range companies {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Parent cancelled; everything not yet started is abandoned.
			sum.Results = sum.Results[:i]
			break
		}
		wg.Add(1)
		go func(i int, co domain.Company) {
			defer wg.Done()
			defer sem.Release(1)

			cctx, cancel := context.WithTimeout(ctx, perCompany)
			defer cancel()

			start := time.Now()
			res := o.scrapeCompany(cctx, co)
			res.Elapsed = time.Since(start)
			sum.Results[i] = res

			o.Log.Info("company done",
				zap.String("company", co.Name),
				zap.String("outcome", string(res.Outcome)),
				zap.Int("found", res.Found),
				zap.Int("inserted", res.Inserted),
				zap.Int("updated", res.Updated),
				zap.Duration("elapsed", res.Elapsed),
				zap.Error(res.Err))
		}(i, co)
	}

	wg.Wait()
	sum.Elapsed = time.Since(sum.Started)
	return sum, ctx.Err()
}

func (o *Orchestrator) scrapeCompany(ctx context.Context, co domain.Company) CompanyResult {
	res := CompanyResult{Company: co.Name}

	if co.ATSType == domain.VendorUnknown || co.ATSType == "" || co.ATSURL == "" {
		res.Outcome = OutcomeUnresolved
		return res
	}
	scraper, ok := o.Registry.For(co.ATSType)
	if !ok {
		res.Outcome = OutcomeUnsupported
		return res
	}

	jobs, err := scraper.Scrape(ctx, co)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.Outcome = OutcomeTimedOut
		} else {
			res.Outcome = OutcomeFetchFailed
		}
		res.Err = err
		return res
	}
	res.Found = len(jobs)

	if err := o.reconcile(ctx, co, jobs, &res); err != nil {
		res.Outcome = OutcomeStoreFailed
		res.Err = err
		return res
	}

	res.Outcome = OutcomeOK
	return res
}

// SweepStale retires postings not sighted within the given window: their
// is_active flag is cleared, nothing is deleted. It runs over every active
// company and is never part of a scrape pass, so a posting skipped by one
// flaky crawl is not retired by that same crawl.
func (o *Orchestrator) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	companies, err := o.DB.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-olderThan)

	var total int64
	for _, co := range companies {
		n, err := o.DB.MarkStale(ctx, co.Name, cutoff)
		if err != nil {
			return total, err
		}
		if n > 0 {
			o.Log.Info("stale postings retired",
				zap.String("company", co.Name),
				zap.Int64("retired", n),
				zap.Time("cutoff", cutoff))
		}
		total += n
	}
	return total, nil
}

// reconcile applies the hash-gated upsert for one company's crawl:
// previously rejected hashes are skipped, new rejects are remembered, and
// stored rows are inserted, touched, or replaced depending on whether the
// content hash moved. Rows are never deleted here.
func (o *Orchestrator) reconcile(ctx context.Context, co domain.Company, jobs []domain.Job, res *CompanyResult) error {
	now := time.Now().UTC()
	for _, job := range jobs {
		rejected, err := o.DB.IsRejected(ctx, job.ContentHash)
		if err != nil {
			return err
		}
		if rejected {
			res.Skipped++
			continue
		}

		if verdict := o.Classifier.Classify(job); !verdict.Accept {
			if err := o.DB.MarkRejected(ctx, domain.Rejected{
				ContentHash: job.ContentHash,
				Reason:      verdict.Reason,
				RejectedAt:  now,
			}); err != nil {
				return err
			}
			o.Log.Debug("posting rejected",
				zap.String("company", co.Name),
				zap.String("title", job.Title),
				zap.String("reason", verdict.Reason))
			res.Rejected++
			continue
		}

		meta, exists, err := o.DB.GetJobMeta(ctx, job.JobID)
		if err != nil {
			return err
		}
		job.LastSeenAt = now
		job.Active = true
		switch {
		case !exists:
			if err := o.DB.InsertJob(ctx, job); err != nil {
				return err
			}
			res.Inserted++
		case meta.ContentHash == job.ContentHash:
			if err := o.DB.TouchJob(ctx, job.JobID, now); err != nil {
				return err
			}
			res.Unchanged++
		default:
			if err := o.DB.ReplaceJob(ctx, job); err != nil {
				return err
			}
			res.Updated++
		}
	}
	return nil
}
