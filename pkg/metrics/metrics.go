// Package metrics exposes the prometheus instrumentation for the
// repository core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Store holds the counters the storage layers report into. Numeric
// coercion failures are a metric, not an error: the lenient-ingest
// policy stores NULL and moves on, but operators still want to see the
// rate.
type Store struct {
	registry *prometheus.Registry

	numericCoercionsSkipped *prometheus.CounterVec
	missingSourceRecords    prometheus.Counter
	storeInconsistencies    *prometheus.CounterVec
	sweepRepairs            prometheus.Counter
	blobWriteFailures       prometheus.Counter
}

// New builds the counter set on a fresh registry.
func New() *Store {
	registry := prometheus.NewRegistry()

	numericCoercionsSkipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperbase",
			Subsystem: "metadata",
			Name:      "numeric_coercions_skipped_total",
			Help:      "Numeric fields stored as NULL because the value failed to parse.",
		},
		[]string{"field"},
	)
	missingSourceRecords := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperbase",
			Subsystem: "metadata",
			Name:      "missing_source_records_total",
			Help:      "Documents loaded with source data requested but no shadow record present.",
		},
	)
	storeInconsistencies := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperbase",
			Subsystem: "store",
			Name:      "inconsistencies_total",
			Help:      "Ledger entries whose repository or path did not resolve to a stored file.",
		},
		[]string{"kind"},
	)
	sweepRepairs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperbase",
			Subsystem: "sweep",
			Name:      "findings_total",
			Help:      "Findings reported by the reconciliation sweep.",
		},
	)
	blobWriteFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperbase",
			Subsystem: "blob",
			Name:      "write_failures_total",
			Help:      "Filesystem writes that failed after metadata was already persisted.",
		},
	)

	registry.MustRegister(
		numericCoercionsSkipped,
		missingSourceRecords,
		storeInconsistencies,
		sweepRepairs,
		blobWriteFailures,
	)

	return &Store{
		registry:                registry,
		numericCoercionsSkipped: numericCoercionsSkipped,
		missingSourceRecords:    missingSourceRecords,
		storeInconsistencies:    storeInconsistencies,
		sweepRepairs:            sweepRepairs,
		blobWriteFailures:       blobWriteFailures,
	}
}

// Registry returns the underlying registry for scrape handlers.
func (s *Store) Registry() *prometheus.Registry {
	return s.registry
}

// NumericCoercionSkipped records a field stored as NULL.
func (s *Store) NumericCoercionSkipped(field string) {
	s.numericCoercionsSkipped.WithLabelValues(field).Inc()
}

// MissingSourceRecord records a tolerated missing shadow record.
func (s *Store) MissingSourceRecord() {
	s.missingSourceRecords.Inc()
}

// StoreInconsistency records a detected cross-store divergence.
func (s *Store) StoreInconsistency(kind string) {
	s.storeInconsistencies.WithLabelValues(kind).Inc()
}

// SweepFinding records one reconciliation finding.
func (s *Store) SweepFinding() {
	s.sweepRepairs.Inc()
}

// BlobWriteFailure records a filesystem write failing after metadata
// was persisted.
func (s *Store) BlobWriteFailure() {
	s.blobWriteFailures.Inc()
}
