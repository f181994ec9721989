// Package blob stores document bodies and crawled artifacts on the
// filesystem repositories. Layout is fixed by pkg/docpath; this package
// only decides which repository root a path resolves against and how
// bytes get on disk.
package blob

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/docpath"
	"github.com/paperbase/paperbase/pkg/metrics"
	"github.com/paperbase/paperbase/pkg/repository"
)

// artifactTypes are the crawled artifact renditions the store will
// enumerate. Anything else sitting in a shard directory is ignored.
var artifactTypes = map[string]struct{}{
	"pdf": {},
	"ps":  {},
	"doc": {},
	"rtf": {},
}

// Store reads and writes document blobs under the configured
// repository roots.
type Store struct {
	fs      afero.Fs
	repos   *repository.Map
	log     hclog.Logger
	metrics *metrics.Store
}

// NewStore returns a blob store over fs and the given repositories.
func NewStore(fs afero.Fs, repos *repository.Map, log hclog.Logger, m *metrics.Store) *Store {
	return &Store{
		fs:      fs,
		repos:   repos,
		log:     log.Named("blob"),
		metrics: m,
	}
}

// ReadXML loads and decodes a document body from its canonical path.
func (s *Store) ReadXML(repoID, doi string) (*document.Document, error) {
	return s.readBody("ReadXML", repoID, doi, docpath.XMLPath(doi))
}

// ReadVersionXML loads and decodes an archived version body.
func (s *Store) ReadVersionXML(repoID, doi string, version int) (*document.Document, error) {
	if version == 0 {
		return s.ReadXML(repoID, doi)
	}
	return s.readBody("ReadVersionXML", repoID, doi, docpath.VersionPath(doi, version))
}

func (s *Store) readBody(op, repoID, doi, rel string) (*document.Document, error) {
	abs, err := s.repos.Resolve(repoID, rel)
	if err != nil {
		return nil, document.NewError(op, err, doi)
	}
	f, err := s.fs.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, document.NewError(op, document.ErrNotFound, doi)
		}
		return nil, document.NewError(op, err, doi)
	}
	defer f.Close()

	doc, err := document.FromXML(f)
	if err != nil {
		return nil, document.NewError(op, err, doi)
	}
	return doc, nil
}

// WriteXML encodes the document body to its canonical path. The write
// goes to a temp file in the shard directory first and is renamed into
// place, so readers never observe a half-written body.
func (s *Store) WriteXML(repoID string, doc *document.Document) error {
	return s.writeBody("WriteXML", repoID, doc, docpath.XMLPath(doc.DOI))
}

// WriteVersionXML archives the document body as a version snapshot.
func (s *Store) WriteVersionXML(repoID string, doc *document.Document, version int) error {
	if version == 0 {
		return s.WriteXML(repoID, doc)
	}
	return s.writeBody("WriteVersionXML", repoID, doc, docpath.VersionPath(doc.DOI, version))
}

func (s *Store) writeBody(op, repoID string, doc *document.Document, rel string) error {
	abs, err := s.repos.Resolve(repoID, rel)
	if err != nil {
		return document.NewError(op, err, doc.DOI)
	}
	dir := filepath.Dir(abs)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		s.metrics.BlobWriteFailure()
		return document.NewError(op, err, doc.DOI)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(abs)+".tmp*")
	if err != nil {
		s.metrics.BlobWriteFailure()
		return document.NewError(op, err, doc.DOI)
	}
	tmpName := tmp.Name()

	if err := doc.ToXML(tmp); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		s.metrics.BlobWriteFailure()
		return document.NewError(op, err, doc.DOI)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		s.metrics.BlobWriteFailure()
		return document.NewError(op, err, doc.DOI)
	}
	if err := s.fs.Rename(tmpName, abs); err != nil {
		s.fs.Remove(tmpName)
		s.metrics.BlobWriteFailure()
		return document.NewError(op, err, doc.DOI)
	}

	s.log.Debug("wrote body", "doi", doc.DOI, "path", abs)
	return nil
}

// BodyExists reports whether the canonical body file is present.
func (s *Store) BodyExists(repoID, doi string) (bool, error) {
	return s.exists(repoID, doi, docpath.XMLPath(doi))
}

// VersionBodyExists reports whether an archived version body is
// present.
func (s *Store) VersionBodyExists(repoID, doi string, version int) (bool, error) {
	if version == 0 {
		return s.BodyExists(repoID, doi)
	}
	return s.exists(repoID, doi, docpath.VersionPath(doi, version))
}

func (s *Store) exists(repoID, doi, rel string) (bool, error) {
	abs, err := s.repos.Resolve(repoID, rel)
	if err != nil {
		return false, document.NewError("BodyExists", err, doi)
	}
	ok, err := afero.Exists(s.fs, abs)
	if err != nil {
		return false, document.NewError("BodyExists", err, doi)
	}
	return ok, nil
}

// ListArtifactTypes returns the artifact renditions present for a
// document, lowercased and sorted. A shard directory that does not
// exist yet means no artifacts, not an error.
func (s *Store) ListArtifactTypes(repoID, doi string) ([]string, error) {
	abs, err := s.repos.Resolve(repoID, docpath.ShardDir(doi))
	if err != nil {
		return nil, document.NewError("ListArtifactTypes", err, doi)
	}

	infos, err := afero.ReadDir(s.fs, abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, document.NewError("ListArtifactTypes", err, doi)
	}

	var types []string
	prefix := doi + "."
	for _, info := range infos {
		if info.IsDir() || !strings.HasPrefix(info.Name(), prefix) {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(info.Name(), prefix))
		if _, ok := artifactTypes[ext]; ok {
			types = append(types, ext)
		}
	}
	sort.Strings(types)
	return types, nil
}

// OpenArtifact opens one artifact rendition for reading. The caller
// closes it.
func (s *Store) OpenArtifact(repoID, doi, artifactType string) (io.ReadCloser, error) {
	ext := strings.ToLower(artifactType)
	if _, ok := artifactTypes[ext]; !ok {
		return nil, document.NewError("OpenArtifact", document.ErrNotFound,
			doi+": unsupported artifact type "+artifactType)
	}
	abs, err := s.repos.Resolve(repoID, docpath.ArtifactPath(doi, ext))
	if err != nil {
		return nil, document.NewError("OpenArtifact", err, doi)
	}
	f, err := s.fs.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, document.NewError("OpenArtifact", document.ErrNotFound, doi)
		}
		return nil, document.NewError("OpenArtifact", err, doi)
	}
	return f, nil
}

// WriteArtifact stores one artifact rendition, overwriting any
// previous copy.
func (s *Store) WriteArtifact(repoID, doi, artifactType string, r io.Reader) error {
	ext := strings.ToLower(artifactType)
	abs, err := s.repos.Resolve(repoID, docpath.ArtifactPath(doi, ext))
	if err != nil {
		return document.NewError("WriteArtifact", err, doi)
	}
	if err := s.fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		s.metrics.BlobWriteFailure()
		return document.NewError("WriteArtifact", err, doi)
	}
	if err := afero.WriteReader(s.fs, abs, r); err != nil {
		s.metrics.BlobWriteFailure()
		return document.NewError("WriteArtifact", err, doi)
	}
	return nil
}
