// Package parquet reads Parquet files into records.Table using Apache Arrow.
package parquet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"

	"elecetl/internal/etlerr"
	"elecetl/pkg/records"
)

// indexPrefix marks index columns written by pandas; they are not data.
const indexPrefix = "__index_level_"

// Parser reads a whole Parquet file. Non-seekable streams are buffered
// because the footer sits at the end of the file.
type Parser struct{}

// NewParser returns a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse decodes r with a background context.
func (p *Parser) Parse(r io.Reader) (*records.Table, error) {
	return p.ParseContext(context.Background(), r)
}

// ParseContext decodes r. Column order follows the file schema.
func (p *Parser) ParseContext(ctx context.Context, r io.Reader) (*records.Table, error) {
	var ra parquet.ReaderAtSeeker
	if rs, ok := r.(parquet.ReaderAtSeeker); ok {
		ra = rs
	} else {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read parquet: %w", err)
		}
		ra = bytes.NewReader(b)
	}

	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(ctx, ra, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, etlerr.Parse("parquet file", err)
	}
	defer tbl.Release()

	return fromArrow(tbl)
}

func fromArrow(tbl arrow.Table) (*records.Table, error) {
	n := int(tbl.NumRows())
	out := records.NewTable()
	out.Rows = make([]records.Record, n)
	for i := range out.Rows {
		out.Rows[i] = make(records.Record, tbl.NumCols())
	}

	for c := 0; c < int(tbl.NumCols()); c++ {
		name := tbl.Schema().Field(c).Name
		if strings.HasPrefix(name, indexPrefix) {
			continue
		}
		out.Columns = append(out.Columns, name)

		row := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				v, err := valueAt(chunk, i)
				if err != nil {
					return nil, etlerr.Parse(fmt.Sprintf("parquet column %q", name), err)
				}
				out.Rows[row][name] = v
				row++
			}
		}
	}
	return out, nil
}

// valueAt converts one Arrow cell to the value types used by records.
func valueAt(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Dictionary:
		return valueAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return arr.ValueStr(i), nil
	}
}
