package sweep

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/docpath"
	"github.com/paperbase/paperbase/pkg/metrics"
)

// fakeStores backs the sweeper with in-memory ledger state and a set
// of paths that "exist" on disk.
type fakeStores struct {
	versions map[string][]document.Version
	present  map[string]bool
	failures map[string]int // doi -> transient errors before success
}

func (f *fakeStores) ListIDs(after string, limit int) ([]string, error) {
	var ids []string
	for doi := range f.versions {
		if doi > after {
			ids = append(ids, doi)
		}
	}
	// Keyset contract: ascending, bounded.
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStores) ListVersions(doi string) ([]document.Version, error) {
	return f.versions[doi], nil
}

func (f *fakeStores) VersionBodyExists(repoID, doi string, version int) (bool, error) {
	if repoID == "" {
		return false, document.NewError("VersionBodyExists", document.ErrUnknownRepository, repoID)
	}
	if n := f.failures[doi]; n > 0 {
		f.failures[doi] = n - 1
		return false, errors.New("transient io error")
	}
	key := doi + "#" + strconv.Itoa(version)
	return f.present[key], nil
}

func version(doi string, n int, repoID string) document.Version {
	path := docpath.XMLPath(doi)
	if n > 0 {
		path = docpath.VersionPath(doi, n)
	}
	return document.Version{DOI: doi, Number: n, RepositoryID: repoID, Path: path}
}

func newTestSweeper(f *fakeStores, opts Options) *Sweeper {
	return New(f, f, f, opts, hclog.NewNullLogger(), metrics.New())
}

func TestSweepCleanLedger(t *testing.T) {
	f := &fakeStores{
		versions: map[string][]document.Version{
			"10.1.1.1.1": {version("10.1.1.1.1", 0, "rep1"), version("10.1.1.1.1", 1, "rep1")},
			"10.1.1.1.2": {version("10.1.1.1.2", 0, "rep1")},
		},
		present: map[string]bool{
			"10.1.1.1.1#0": true,
			"10.1.1.1.1#1": true,
			"10.1.1.1.2#0": true,
		},
	}

	report, err := newTestSweeper(f, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 3, report.Versions)
	assert.Empty(t, report.Findings)
}

func TestSweepReportsMissingBodies(t *testing.T) {
	f := &fakeStores{
		versions: map[string][]document.Version{
			"10.1.1.1.1": {version("10.1.1.1.1", 0, "rep1"), version("10.1.1.1.1", 1, "rep1")},
		},
		present: map[string]bool{"10.1.1.1.1#0": true},
	}

	report, err := newTestSweeper(f, Options{}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)

	finding := report.Findings[0]
	assert.Equal(t, "10.1.1.1.1", finding.DOI)
	assert.Equal(t, 1, finding.Version)
	assert.Equal(t, docpath.VersionPath("10.1.1.1.1", 1), finding.Path)
	assert.ErrorIs(t, finding.Err, document.ErrInconsistentStore)
}

func TestSweepRetriesTransientErrors(t *testing.T) {
	f := &fakeStores{
		versions: map[string][]document.Version{
			"10.1.1.1.1": {version("10.1.1.1.1", 0, "rep1")},
		},
		present:  map[string]bool{"10.1.1.1.1#0": true},
		failures: map[string]int{"10.1.1.1.1": 2},
	}

	report, err := newTestSweeper(f, Options{
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Findings)
	assert.Equal(t, 0, f.failures["10.1.1.1.1"])
}

func TestSweepUnknownRepositoryIsAFinding(t *testing.T) {
	f := &fakeStores{
		versions: map[string][]document.Version{
			"10.1.1.1.1": {version("10.1.1.1.1", 0, "")},
		},
	}

	report, err := newTestSweeper(f, Options{RetryInterval: time.Millisecond}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.ErrorIs(t, report.Findings[0].Err, document.ErrUnknownRepository)
}

func TestSweepExhaustedRetriesAggregate(t *testing.T) {
	f := &fakeStores{
		versions: map[string][]document.Version{
			"10.1.1.1.1": {version("10.1.1.1.1", 0, "rep1")},
			"10.1.1.1.2": {version("10.1.1.1.2", 0, "rep1")},
		},
		present: map[string]bool{"10.1.1.1.2#0": true},
		failures: map[string]int{
			"10.1.1.1.1": 100, // never recovers
		},
	}

	report, err := newTestSweeper(f, Options{
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	}).Run(context.Background())
	require.Error(t, err)
	// The healthy document was still swept.
	assert.Equal(t, 2, report.Documents)
	assert.Empty(t, report.Findings)
}

func TestSweepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeStores{
		versions: map[string][]document.Version{
			"10.1.1.1.1": {version("10.1.1.1.1", 0, "rep1")},
		},
	}

	_, err := newTestSweeper(f, Options{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
