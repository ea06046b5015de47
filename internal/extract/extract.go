// Package extract reads pipeline inputs into tables.
//
// Tabular dispatches on the input format to one of the readers under
// internal/parser; JSON reads and flattens nested JSON documents. Sales and
// Capability resolve a configured source (local file or HTTP URL) first.
package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"elecetl/internal/config"
	"elecetl/internal/datasource"
	"elecetl/internal/datasource/file"
	"elecetl/internal/datasource/httpds"
	"elecetl/internal/etlerr"
	"elecetl/internal/formats"
	"elecetl/internal/parser"
	csvparser "elecetl/internal/parser/csv"
	jsonparser "elecetl/internal/parser/json"
	pqparser "elecetl/internal/parser/parquet"
	xlsxparser "elecetl/internal/parser/xlsx"
	"elecetl/pkg/records"
)

// tabularParser picks the reader for a tabular input extension.
func tabularParser(ctx context.Context, ext string, opts config.Options) (parser.Parser, bool) {
	switch ext {
	case formats.CSV:
		return csvparser.NewParser(csvparser.FromConfigOptions(opts)), true
	case formats.Parquet:
		pq := pqparser.NewParser()
		return parser.ParserFunc(func(r io.Reader) (*records.Table, error) {
			return pq.ParseContext(ctx, r)
		}), true
	case formats.XLSX:
		return xlsxparser.NewParser(xlsxparser.FromConfigOptions(opts)), true
	default:
		return nil, false
	}
}

// Tabular reads the sales file at path. The extension (case-insensitive)
// selects the format: .csv, .parquet or .xlsx. opts carries the reader
// options for that format and may be nil.
//
// Errors: etlerr.ErrInvalidArgument for an empty path,
// etlerr.ErrUnsupportedFormat for any other extension, etlerr.ErrNotFound
// when the file does not exist, etlerr.ErrParse for malformed content.
func Tabular(ctx context.Context, path string, opts config.Options) (*records.Table, error) {
	if path == "" {
		return nil, etlerr.InvalidArgument("input path must not be empty")
	}
	return TabularFrom(ctx, file.NewLocal(path), path, formats.Ext(path), opts)
}

// TabularFrom parses src as format (an extension such as ".csv"). name
// identifies src in errors.
func TabularFrom(ctx context.Context, src datasource.Source, name, format string, opts config.Options) (*records.Table, error) {
	p, ok := tabularParser(ctx, format, opts)
	if !ok {
		return nil, etlerr.UnsupportedFormat(name, formats.TabularInputs...)
	}
	return read(ctx, src, name, p)
}

// JSON reads the capability file at path and flattens nested objects into
// dotted column names. The extension is not checked.
func JSON(ctx context.Context, path string) (*records.Table, error) {
	if path == "" {
		return nil, etlerr.InvalidArgument("input path must not be empty")
	}
	return JSONFrom(ctx, file.NewLocal(path), path)
}

// JSONFrom is JSON for an arbitrary source.
func JSONFrom(ctx context.Context, src datasource.Source, name string) (*records.Table, error) {
	return read(ctx, src, name, jsonparser.NewParser(jsonparser.Options{}))
}

// Sales reads the configured sales input.
func Sales(ctx context.Context, s config.Source) (*records.Table, error) {
	if !s.IsHTTP() && s.Parser.Kind == "" {
		return Tabular(ctx, s.File.Path, s.Parser.Options)
	}
	src, err := Resolve(s)
	if err != nil {
		return nil, err
	}
	return TabularFrom(ctx, src, s.Location(), s.Format(), s.Parser.Options)
}

// Capability reads the configured capability input.
func Capability(ctx context.Context, s config.Source) (*records.Table, error) {
	src, err := Resolve(s)
	if err != nil {
		return nil, err
	}
	return JSONFrom(ctx, src, s.Location())
}

// Resolve builds the datasource for s.
func Resolve(s config.Source) (datasource.Source, error) {
	switch {
	case s.IsHTTP():
		if s.HTTP.URL == "" {
			return nil, etlerr.InvalidArgument("input url must not be empty")
		}
		timeout, err := s.HTTP.TimeoutDuration()
		if err != nil {
			return nil, etlerr.InvalidArgument("http timeout %q: %v", s.HTTP.Timeout, err)
		}
		c := httpds.NewClient(httpds.Config{Timeout: timeout, MaxRetries: s.HTTP.MaxRetries})
		return httpds.NewSource(c, s.HTTP.URL), nil
	case s.Kind == "" || strings.EqualFold(s.Kind, config.SourceKindFile):
		if s.File.Path == "" {
			return nil, etlerr.InvalidArgument("input path must not be empty")
		}
		return file.NewLocal(s.File.Path), nil
	default:
		return nil, etlerr.InvalidArgument("unknown source kind %q", s.Kind)
	}
}

func read(ctx context.Context, src datasource.Source, name string, p parser.Parser) (*records.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	tbl, err := p.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return tbl, nil
}
