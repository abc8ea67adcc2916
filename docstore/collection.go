// Package docstore persists whole collections of records as single JSON
// documents. Every commit replaces the document atomically (temp file in the
// same directory, fsync, rename), and read-modify-write cycles are
// serialized per collection.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moby/sys/atomicwriter"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
	documentExt     = ".json"
	tempPrefix      = ".tmp-" // Matches the temp names atomicwriter creates
)

// WriteFunc replaces the file at path with data in one atomic step.
type WriteFunc func(path string, data []byte, perm os.FileMode) error

type options struct {
	perm   os.FileMode
	write  WriteFunc
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithFileMode(perm os.FileMode) Option {
	return func(o *options) { o.perm = perm }
}

// WithWriter swaps the atomic write step. Used by tests to interrupt commits.
func WithWriter(write WriteFunc) Option {
	return func(o *options) { o.write = write }
}

// Collection is one named document of homogeneous records. Open exactly one
// Collection per document and share it between callers; its mutex is what
// serializes Update cycles.
type Collection[T any] struct {
	name   string
	path   string
	perm   os.FileMode
	write  WriteFunc
	logger *slog.Logger

	mu sync.Mutex
}

// Open prepares the collection stored at <dir>/<name>.json. The directory is
// created if needed and temp files left behind by an interrupted commit are
// removed. The document itself is not created; see Bootstrap.
func Open[T any](dir, name string, opts ...Option) (*Collection[T], error) {
	if name == "" {
		return nil, errors.New("docstore: collection name cannot be empty")
	}

	o := options{
		perm:   defaultFileMode,
		write:  atomicwriter.WriteFile,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return nil, &StorageError{Collection: name, Op: "open", Err: err}
	}

	c := &Collection[T]{
		name:   name,
		path:   filepath.Join(dir, name+documentExt),
		perm:   o.perm,
		write:  o.write,
		logger: o.logger.With("component", "docstore", "collection", name),
	}
	c.removeStaleTemps()
	return c, nil
}

func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Path() string { return c.path }

// Load returns the committed records. A missing or unreadable document yields
// an empty slice; the two cases are logged and counted separately.
// Load does not wait for an in-flight Update.
func (c *Collection[T]) Load(ctx context.Context) []T {
	records, status, err := c.read()
	c.observeLoad(ctx, status, err)
	return records
}

// Save replaces the whole document with records.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, records)
}

// Update runs one exclusive read-modify-write cycle. fn receives a private
// copy of the current records and returns the records to commit. If fn fails
// nothing is written and its error is returned as is.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, status, readErr := c.read()
	c.observeLoad(ctx, status, readErr)

	next, err := fn(records)
	if err != nil {
		return err
	}

	if status == loadCorrupt {
		if err := c.quarantine(ctx); err != nil {
			return err
		}
	}
	return c.save(ctx, next)
}

type loadStatus int

const (
	loadOK loadStatus = iota
	loadMissing
	loadCorrupt
)

func (s loadStatus) String() string {
	switch s {
	case loadMissing:
		return "missing"
	case loadCorrupt:
		return "corrupt"
	default:
		return "ok"
	}
}

func (c *Collection[T]) read() ([]T, loadStatus, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []T{}, loadMissing, nil
		}
		return []T{}, loadCorrupt, err
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return []T{}, loadCorrupt, err
	}
	if records == nil {
		records = []T{}
	}
	return records, loadOK, nil
}

func (c *Collection[T]) observeLoad(ctx context.Context, status loadStatus, err error) {
	observeLoad(c.name, status)
	switch status {
	case loadMissing:
		c.logger.DebugContext(ctx, "Collection document absent, treating as empty", "path", c.path)
	case loadCorrupt:
		c.logger.ErrorContext(ctx, "Collection document unreadable, treating as empty", "path", c.path, "error", err)
	}
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	start := time.Now()
	if records == nil {
		records = []T{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		observeSave(c.name, "error", start)
		return &StorageError{Collection: c.name, Op: "encode", Err: err}
	}

	if err := c.write(c.path, data, c.perm); err != nil {
		observeSave(c.name, "error", start)
		c.logger.ErrorContext(ctx, "Commit failed, previous document kept", "path", c.path, "error", err)
		return &StorageError{Collection: c.name, Op: "write", Err: err}
	}

	observeSave(c.name, "ok", start)
	return nil
}

// quarantine moves a corrupt document aside so the next commit does not
// erase it.
func (c *Collection[T]) quarantine(ctx context.Context) error {
	dest := fmt.Sprintf("%s.corrupt-%d", c.path, time.Now().UnixNano())
	if err := os.Rename(c.path, dest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &StorageError{Collection: c.name, Op: "quarantine", Err: err}
	}
	quarantinedTotal.WithLabelValues(c.name).Inc()
	c.logger.WarnContext(ctx, "Corrupt document moved aside", "path", c.path, "quarantined_as", dest)
	return nil
}

func (c *Collection[T]) exists() (bool, error) {
	_, err := os.Stat(c.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (c *Collection[T]) removeStaleTemps() {
	pattern := filepath.Join(filepath.Dir(c.path), tempPrefix+filepath.Base(c.path)+"*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			c.logger.Warn("Failed to remove stale temp file", "path", m, "error", err)
			continue
		}
		c.logger.Info("Removed stale temp file from interrupted commit", "path", m)
	}
}
