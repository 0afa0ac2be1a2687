package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"
)

const (
	profilesDir    = "profiles"
	historyDir     = "history"
	deploymentsDir = "deployments"
	secretsFile    = "local-secrets.json"
	lockFile       = ".lock"
)

var ErrDataDirLocked = errors.New("data directory is in use by another process")

// Store owns the data directory. Every record is one JSON file replaced as a
// whole through a temp file and rename.
type Store struct {
	fs      afero.Fs
	dataDir string
	now     func() time.Time
	lock    *flock.Flock
	mu      sync.Mutex
}

type Option func(*Store)

// WithFs swaps the backing file system, typically for afero.NewMemMapFs in tests.
func WithFs(fsys afero.Fs) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore prepares the data directory layout. On the OS file system an
// exclusive lock file guards against two servers sharing one directory.
func NewStore(dataPath string, opts ...Option) (*Store, error) {
	s := &Store{
		fs:      afero.NewOsFs(),
		dataDir: filepath.Clean(dataPath),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, dir := range []string{profilesDir, historyDir, deploymentsDir} {
		if err := s.fs.MkdirAll(filepath.Join(s.dataDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	if _, ok := s.fs.(*afero.OsFs); ok {
		s.lock = flock.New(filepath.Join(s.dataDir, lockFile))
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to lock data directory: %w", err)
		}
		if !locked {
			return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, s.dataDir)
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.lock == nil {
		return nil
	}
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock data directory: %w", err)
	}
	return nil
}

// CloseWithContext releases the directory lock unless ctx ends first.
func (s *Store) CloseWithContext(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- s.Close()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("context canceled while closing store: %w", ctx.Err())
	}
}

func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) Fs() afero.Fs {
	return s.fs
}

func (s *Store) Now() time.Time {
	return s.now().UTC()
}

func (s *Store) path(rel string) string {
	return filepath.Join(s.dataDir, rel)
}

func (s *Store) writeJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", rel, err)
	}
	return s.writeFile(rel, append(data, '\n'))
}

func (s *Store) writeFile(rel string, data []byte) (err error) {
	full := s.path(rel)
	dir := filepath.Dir(full)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(full)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", rel, err)
	}
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", rel, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", rel, err)
	}
	if err = s.fs.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("failed to replace %s: %w", rel, err)
	}
	return nil
}

// readJSON decodes rel into v. A missing file yields an error matching fs.ErrNotExist.
func (s *Store) readJSON(rel string, v any) error {
	data, err := afero.ReadFile(s.fs, s.path(rel))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", rel, err)
	}
	return nil
}

func (s *Store) remove(rel string) (bool, error) {
	err := s.fs.Remove(s.path(rel))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to delete %s: %w", rel, err)
	}
}

// ids lists the record ids stored in dir. Temp files and foreign names are skipped.
func (s *Store) ids(dir string) ([]core.ID, error) {
	entries, err := afero.ReadDir(s.fs, s.path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out []core.ID
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		if id, err := core.ParseID(name); err == nil {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Collection is a directory of JSON records named by id.
type Collection[T any] struct {
	store    *Store
	dir      string
	notFound error
}

// NewCollection binds a record type to a sub-directory. Lookups of absent
// ids wrap notFound.
func NewCollection[T any](s *Store, dir string, notFound error) *Collection[T] {
	return &Collection[T]{store: s, dir: dir, notFound: notFound}
}

func (c *Collection[T]) rel(id core.ID) string {
	return filepath.Join(c.dir, id.String()+".json")
}

func (c *Collection[T]) Put(id core.ID, v *T) error {
	return c.store.writeJSON(c.rel(id), v)
}

func (c *Collection[T]) Get(id core.ID) (*T, error) {
	var v T
	if err := c.store.readJSON(c.rel(id), &v); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", c.notFound, id)
		}
		return nil, err
	}
	return &v, nil
}

// List returns every record in id order.
func (c *Collection[T]) List() ([]*T, error) {
	ids, err := c.store.ids(c.dir)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		v, err := c.Get(id)
		if err != nil {
			if errors.Is(err, c.notFound) {
				continue
			}
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) Delete(id core.ID) (bool, error) {
	return c.store.remove(c.rel(id))
}

// Update applies fn to the stored record and writes the result back. Updates
// through one Store are serialized.
func (c *Collection[T]) Update(id core.ID, fn func(*T) error) (*T, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	v, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(v); err != nil {
		return nil, err
	}
	if err := c.Put(id, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DeploymentsDir is the sub-directory deployment records live in.
func DeploymentsDir() string {
	return deploymentsDir
}
