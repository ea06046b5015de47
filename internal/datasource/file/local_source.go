// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"elecetl/internal/etlerr"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser.
// It satisfies datasource.Source.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := l.OpenFile(ctx)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OpenFile is Open for callers that need random access (Parquet, xlsx).
//
// Behavior:
//   - An empty path is an etlerr.ErrInvalidArgument.
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, the context error is returned without touching the
//     filesystem.
//   - A missing file is reported as etlerr.ErrNotFound; the underlying
//     *fs.PathError stays reachable so errors.Is(err, os.ErrNotExist) holds.
//   - Directories are rejected with etlerr.ErrInvalidArgument.
func (l *Local) OpenFile(ctx context.Context) (*os.File, error) {
	if l.path == "" {
		return nil, etlerr.InvalidArgument("file path must not be empty")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, etlerr.NotFound(l.path, err)
		}
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, etlerr.InvalidArgument("%s is a directory", l.path)
	}
	return f, nil
}
