// Package storage writes tables to files. Concrete formats register a
// WriteFunc for their extension at init time, the same way database backends
// register factories; importing elecetl/internal/storage/all enables every
// built-in format.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"elecetl/internal/etlerr"
	"elecetl/internal/formats"
	"elecetl/pkg/records"
)

// WriteFunc serializes tbl to w. Implementations must honour the column order
// of tbl.Columns.
type WriteFunc func(ctx context.Context, w io.Writer, tbl *records.Table) error

var (
	mu      sync.RWMutex
	writers = map[string]WriteFunc{}
)

// Register registers (or replaces) the writer for a file extension such as
// ".csv". It is typically called from format packages' init() functions.
func Register(ext string, fn WriteFunc) {
	mu.Lock()
	defer mu.Unlock()
	writers[ext] = fn
}

// ListFormats returns the registered extensions in sorted order. The slice is
// a snapshot; callers may modify it.
func ListFormats() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(writers))
	for ext := range writers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func lookup(path string) (WriteFunc, bool) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := writers[formats.Ext(path)]
	return fn, ok
}

// Save writes tbl to path using the writer registered for path's extension.
// The destination is created or truncated. A failure part-way through may
// leave a truncated file behind.
//
// Errors: etlerr.ErrInvalidArgument for a nil table or empty path,
// etlerr.ErrUnsupportedFormat for an unregistered extension.
func Save(ctx context.Context, tbl *records.Table, path string) (err error) {
	if tbl == nil {
		return etlerr.InvalidArgument("table must not be nil")
	}
	if path == "" {
		return etlerr.InvalidArgument("output path must not be empty")
	}
	fn, ok := lookup(path)
	if !ok {
		return etlerr.UnsupportedFormat(path, ListFormats()...)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := fn(ctx, f, tbl); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
