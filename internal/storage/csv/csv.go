// Package csv registers the delimited-text writer for ".csv" outputs.
package csv

import (
	"context"
	"encoding/csv"
	"io"

	"elecetl/internal/formats"
	"elecetl/internal/storage"
	"elecetl/pkg/records"
)

func init() {
	storage.Register(formats.CSV, Write)
}

// Write emits a header row from tbl.Columns followed by one line per row.
// Nulls are empty cells; floats use the shortest exact form; arrays and
// objects are JSON-encoded.
func Write(ctx context.Context, w io.Writer, tbl *records.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tbl.Columns); err != nil {
		return err
	}
	line := make([]string, len(tbl.Columns))
	for i, r := range tbl.Rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, c := range tbl.Columns {
			s, _ := records.AsString(r[c])
			line[j] = s
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
