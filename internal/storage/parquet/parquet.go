// Package parquet registers the columnar writer for ".parquet" outputs using
// Apache Arrow's pqarrow bridge.
//
// Column types are inferred from the non-null values of each column:
//
//   - only booleans                 → BOOLEAN
//   - only integral numbers         → INT64
//   - only numbers                  → DOUBLE
//   - anything else (or all null)   → UTF8, non-scalars JSON-encoded
//
// Every column is nullable.
package parquet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"

	"elecetl/internal/formats"
	"elecetl/internal/storage"
	"elecetl/pkg/records"
)

func init() {
	storage.Register(formats.Parquet, Write)
}

// Write encodes tbl as a single Snappy-compressed row group. A table with no
// columns yields a valid file with an empty schema and no row groups.
func Write(ctx context.Context, w io.Writer, tbl *records.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	schema := InferSchema(tbl)
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	// pqarrow closes its sink on Close; the caller owns the file.
	fw, err := pqarrow.NewFileWriter(schema, writeOnly{w}, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("parquet: new writer: %w", err)
	}

	if len(tbl.Columns) > 0 {
		if err := writeRecord(fw, schema, tbl); err != nil {
			_ = fw.Close()
			return err
		}
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("parquet: close: %w", err)
	}
	return nil
}

func writeRecord(fw *pqarrow.FileWriter, schema *arrow.Schema, tbl *records.Table) error {
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	for i, col := range tbl.Columns {
		if err := appendColumn(b.Field(i), tbl, col); err != nil {
			return fmt.Errorf("parquet: column %q: %w", col, err)
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	if err := fw.Write(rec); err != nil {
		return fmt.Errorf("parquet: write: %w", err)
	}
	return nil
}

type writeOnly struct{ io.Writer }

// InferSchema derives the Arrow schema for tbl.
func InferSchema(tbl *records.Table) *arrow.Schema {
	fields := make([]arrow.Field, len(tbl.Columns))
	for i, col := range tbl.Columns {
		fields[i] = arrow.Field{Name: col, Type: inferType(tbl, col), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func inferType(tbl *records.Table, col string) arrow.DataType {
	var nBool, nInt, nFloat, nOther int
	for _, r := range tbl.Rows {
		v := r[col]
		if v == nil {
			continue
		}
		switch x := v.(type) {
		case bool:
			nBool++
		case int, int32, int64:
			nInt++
		case float32, float64:
			nFloat++
		case json.Number:
			if isIntegral(x) {
				nInt++
			} else if _, err := x.Float64(); err == nil {
				nFloat++
			} else {
				nOther++
			}
		default:
			nOther++
		}
	}
	switch {
	case nOther > 0:
		return arrow.BinaryTypes.String
	case nBool > 0 && nInt+nFloat == 0:
		return arrow.FixedWidthTypes.Boolean
	case nBool > 0:
		return arrow.BinaryTypes.String
	case nFloat > 0:
		return arrow.PrimitiveTypes.Float64
	case nInt > 0:
		return arrow.PrimitiveTypes.Int64
	default:
		return arrow.BinaryTypes.String
	}
}

func isIntegral(n json.Number) bool {
	if strings.ContainsAny(n.String(), ".eE") {
		return false
	}
	_, err := n.Int64()
	return err == nil
}

func appendColumn(fb array.Builder, tbl *records.Table, col string) error {
	switch b := fb.(type) {
	case *array.BooleanBuilder:
		for _, r := range tbl.Rows {
			v, ok := r[col].(bool)
			if !ok {
				b.AppendNull()
				continue
			}
			b.Append(v)
		}
	case *array.Int64Builder:
		for _, r := range tbl.Rows {
			v := r[col]
			if v == nil {
				b.AppendNull()
				continue
			}
			n, err := asInt64(v)
			if err != nil {
				return err
			}
			b.Append(n)
		}
	case *array.Float64Builder:
		for _, r := range tbl.Rows {
			v := r[col]
			if v == nil {
				b.AppendNull()
				continue
			}
			f, err := records.AsFloat(v)
			if err != nil {
				return err
			}
			b.Append(f)
		}
	case *array.StringBuilder:
		for _, r := range tbl.Rows {
			s, ok := records.AsString(r[col])
			if !ok {
				b.AppendNull()
				continue
			}
			b.Append(s)
		}
	default:
		return fmt.Errorf("unsupported builder %T", fb)
	}
	return nil
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case json.Number:
		return x.Int64()
	default:
		return 0, fmt.Errorf("value %v of type %T is not an integer", v, v)
	}
}
