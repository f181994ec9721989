// Package sweep reconciles the version ledger against the filesystem
// repositories. The import path can leave relational rows without a
// body file behind, so a periodic sweep walks the ledger and reports
// every snapshot whose recorded path does not resolve to a file.
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/metrics"
)

// DocumentLister pages over document ids.
type DocumentLister interface {
	ListIDs(after string, limit int) ([]string, error)
}

// VersionLister returns every ledger snapshot of a document.
type VersionLister interface {
	ListVersions(doi string) ([]document.Version, error)
}

// BodyChecker reports whether a version body file is present.
type BodyChecker interface {
	VersionBodyExists(repoID, doi string, version int) (bool, error)
}

// Finding is one ledger snapshot whose body could not be located.
type Finding struct {
	DOI     string
	Version int
	Path    string
	Reason  string
	Err     error
}

// Report summarizes one sweep run.
type Report struct {
	Documents int
	Versions  int
	Findings  []Finding
}

const (
	defaultBatchSize  = 500
	defaultMaxRetries = 3
)

// Options tunes a sweeper. Zero values fall back to defaults.
type Options struct {
	// BatchSize is the keyset page size over document ids.
	BatchSize int
	// MaxRetries bounds the retry attempts per filesystem check.
	MaxRetries uint64
	// RetryInterval is the initial backoff interval. Zero keeps the
	// backoff default.
	RetryInterval time.Duration
}

// Sweeper walks the ledger and verifies every snapshot's body file.
type Sweeper struct {
	docs     DocumentLister
	versions VersionLister
	bodies   BodyChecker
	opts     Options
	log      hclog.Logger
	metrics  *metrics.Store
}

// New returns a sweeper over the given stores.
func New(docs DocumentLister, versions VersionLister, bodies BodyChecker,
	opts Options, log hclog.Logger, m *metrics.Store) *Sweeper {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	return &Sweeper{
		docs:     docs,
		versions: versions,
		bodies:   bodies,
		opts:     opts,
		log:      log.Named("sweep"),
		metrics:  m,
	}
}

// Run sweeps the whole ledger. Findings are collected, not fatal;
// the returned error aggregates store failures that prevented checks.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	var errs *multierror.Error

	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ids, err := s.docs.ListIDs(after, s.opts.BatchSize)
		if err != nil {
			return report, err
		}
		if len(ids) == 0 {
			break
		}

		for _, doi := range ids {
			if err := s.sweepDocument(ctx, doi, report); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		after = ids[len(ids)-1]
	}

	s.log.Info("sweep finished",
		"documents", report.Documents,
		"versions", report.Versions,
		"findings", len(report.Findings))
	return report, errs.ErrorOrNil()
}

func (s *Sweeper) sweepDocument(ctx context.Context, doi string, report *Report) error {
	versions, err := s.versions.ListVersions(doi)
	if err != nil {
		return err
	}
	report.Documents++

	for _, v := range versions {
		report.Versions++

		ok, err := s.checkBody(ctx, v)
		if err != nil {
			if errors.Is(err, document.ErrUnknownRepository) {
				s.record(report, v, "unknown_repository", err)
				continue
			}
			return err
		}
		if !ok {
			s.record(report, v, "missing_body", nil)
		}
	}
	return nil
}

// checkBody retries transient filesystem errors before giving up; an
// unknown repository is permanent and not worth retrying.
func (s *Sweeper) checkBody(ctx context.Context, v document.Version) (bool, error) {
	var ok bool
	op := func() error {
		var err error
		ok, err = s.bodies.VersionBodyExists(v.RepositoryID, v.DOI, v.Number)
		if err != nil {
			if errors.Is(err, document.ErrUnknownRepository) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	if s.opts.RetryInterval > 0 {
		bo.InitialInterval = s.opts.RetryInterval
	}
	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(bo, s.opts.MaxRetries), ctx))
	return ok, err
}

func (s *Sweeper) record(report *Report, v document.Version, reason string, cause error) {
	finding := Finding{
		DOI:     v.DOI,
		Version: v.Number,
		Path:    v.Path,
		Reason:  reason,
		Err: document.NewError("Sweep", document.ErrInconsistentStore,
			v.DOI+": "+reason),
	}
	if cause != nil {
		finding.Err = cause
	}
	report.Findings = append(report.Findings, finding)

	s.metrics.SweepFinding()
	s.metrics.StoreInconsistency(reason)
	s.log.Warn("ledger entry without body",
		"doi", v.DOI, "version", v.Number, "path", v.Path, "reason", reason)
}
