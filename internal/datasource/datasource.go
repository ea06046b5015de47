// Package datasource defines where raw input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a readable stream for one extraction.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
