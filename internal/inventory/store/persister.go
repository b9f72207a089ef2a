package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/objectstore"
	"golang.org/x/sync/errgroup"
)

// Persister loads and saves the whole inventory state.
type Persister interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, s *State) error
}

// DocumentStore reads and writes raw resource documents.
// Resources that do not exist are absent from the returned map.
type DocumentStore interface {
	ReadDocuments(ctx context.Context) (Documents, error)
	WriteDocuments(ctx context.Context, docs Documents) error
}

// DocumentPersister adapts a DocumentStore to Persister.
type DocumentPersister struct {
	docs DocumentStore
	now  func() time.Time
}

// NewDocumentPersister wraps docs.
func NewDocumentPersister(docs DocumentStore) *DocumentPersister {
	return &DocumentPersister{docs: docs, now: time.Now}
}

func (p *DocumentPersister) Load(ctx context.Context) (*State, error) {
	docs, err := p.docs.ReadDocuments(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(docs)
}

func (p *DocumentPersister) Save(ctx context.Context, s *State) error {
	docs, err := Encode(s, p.now())
	if err != nil {
		return err
	}
	return p.docs.WriteDocuments(ctx, docs)
}

// FileStore keeps one BOM-prefixed JSON file per resource in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// NewFilePersister is a Persister over a FileStore.
func NewFilePersister(dir string) (*DocumentPersister, error) {
	fsStore, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return NewDocumentPersister(fsStore), nil
}

// Path returns the file path of a resource.
func (f *FileStore) Path(resource string) string {
	return filepath.Join(f.dir, FileName(resource))
}

func (f *FileStore) ReadDocuments(_ context.Context) (Documents, error) {
	docs := make(Documents, len(Resources))
	for _, r := range Resources {
		b, err := os.ReadFile(f.Path(r))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", FileName(r), err)
		}
		docs[r] = StripBOM(b)
	}
	return docs, nil
}

// WriteDocuments writes each file through a temp file and rename.
func (f *FileStore) WriteDocuments(_ context.Context, docs Documents) error {
	var errs []error
	for _, r := range Resources {
		b, ok := docs[r]
		if !ok {
			continue
		}
		if err := writeFileAtomic(f.Path(r), WithBOM(b)); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", FileName(r), err))
		}
	}
	return errors.Join(errs...)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ObjectDocumentStore keeps resources under backup/<file> in object storage.
type ObjectDocumentStore struct {
	objects objectstore.Store
	prefix  string
}

// BackupPrefix is where snapshot documents live in object storage.
const BackupPrefix = "backup"

// NewObjectDocumentStore stores documents in objects under prefix.
func NewObjectDocumentStore(objects objectstore.Store, prefix string) *ObjectDocumentStore {
	return &ObjectDocumentStore{objects: objects, prefix: prefix}
}

// Key returns the object key of a resource.
func (o *ObjectDocumentStore) Key(resource string) string {
	return objectstore.JoinKey(objectstore.JoinKey(o.prefix, BackupPrefix), FileName(resource))
}

func (o *ObjectDocumentStore) ReadDocuments(ctx context.Context) (Documents, error) {
	docs := make(Documents, len(Resources))
	for _, r := range Resources {
		b, err := o.objects.Get(ctx, o.Key(r))
		if errors.Is(err, objectstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", o.Key(r), err)
		}
		docs[r] = StripBOM(b)
	}
	return docs, nil
}

func (o *ObjectDocumentStore) WriteDocuments(ctx context.Context, docs Documents) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range Resources {
		b, ok := docs[r]
		if !ok {
			continue
		}
		key := o.Key(r)
		g.Go(func() error {
			return o.objects.Put(ctx, key, b, "application/json")
		})
	}
	return g.Wait()
}

// MirroredStore writes to a primary store and a mirror in parallel.
// On read, mirror documents win over primary documents.
type MirroredStore struct {
	primary DocumentStore
	mirror  DocumentStore
	logger  *logger.Logger
}

// NewMirroredStore mirrors primary into mirror.
func NewMirroredStore(primary, mirror DocumentStore, log *logger.Logger) *MirroredStore {
	return &MirroredStore{primary: primary, mirror: mirror, logger: log.WithComponent("snapshot-mirror")}
}

// NewMirroredPersister is a Persister over a MirroredStore.
func NewMirroredPersister(primary DocumentStore, objects objectstore.Store, prefix string, log *logger.Logger) *DocumentPersister {
	return NewDocumentPersister(NewMirroredStore(primary, NewObjectDocumentStore(objects, prefix), log))
}

func (m *MirroredStore) ReadDocuments(ctx context.Context) (Documents, error) {
	docs, err := m.primary.ReadDocuments(ctx)
	if err != nil {
		return nil, err
	}

	remote, err := m.mirror.ReadDocuments(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("mirror unavailable, using primary documents")
		return docs, nil
	}
	for r, b := range remote {
		m.logger.Info().Str("resource", r).Msg("loaded document from mirror")
		docs[r] = b
	}
	return docs, nil
}

// WriteDocuments fails only when the primary write fails. Mirror failures are logged.
func (m *MirroredStore) WriteDocuments(ctx context.Context, docs Documents) error {
	var primaryErr error
	var g errgroup.Group
	g.Go(func() error {
		primaryErr = m.primary.WriteDocuments(ctx, docs)
		return nil
	})
	g.Go(func() error {
		if err := m.mirror.WriteDocuments(ctx, docs); err != nil {
			m.logger.Warn().Err(err).Msg("mirror write failed")
		}
		return nil
	})
	_ = g.Wait()
	return primaryErr
}
