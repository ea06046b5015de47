package parquet

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elecetl/internal/etlerr"
	pqwriter "elecetl/internal/storage/parquet"
	"elecetl/pkg/records"
)

func encode(t *testing.T, tbl *records.Table) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, pqwriter.Write(context.Background(), &buf, tbl))
	return buf.Bytes()
}

/*
TestParse_SalesColumns reads a sales-shaped file and checks that values keep
their column types and nulls survive.
*/
func TestParse_SalesColumns(t *testing.T) {
	src := records.NewTable("period", "stateid", "sectorName", "price", "price-units")
	src.Rows = []records.Record{
		{"period": "202301", "stateid": "CA", "sectorName": "residential", "price": json.Number("15.5"), "price-units": "cents per kilowatt-hour"},
		{"period": "202302", "stateid": "TX", "sectorName": "commercial", "price": nil, "price-units": "cents per kilowatt-hour"},
	}

	got, err := NewParser().ParseContext(context.Background(), bytes.NewReader(encode(t, src)))
	require.NoError(t, err)

	assert.Equal(t, src.Columns, got.Columns)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "202301", got.Rows[0]["period"])
	assert.Equal(t, 15.5, got.Rows[0]["price"])
	assert.Nil(t, got.Rows[1]["price"])
}

func TestParse_SkipsIndexColumns(t *testing.T) {
	src := records.NewTable("__index_level_0__", "period")
	src.Rows = []records.Record{{"__index_level_0__": int64(0), "period": "202301"}}

	got, err := NewParser().Parse(strings.NewReader(string(encode(t, src))))
	require.NoError(t, err)

	assert.Equal(t, []string{"period"}, got.Columns)
	_, ok := got.Rows[0]["__index_level_0__"]
	assert.False(t, ok)
}

func TestParse_Corrupt(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader("not a parquet file"))
	require.Error(t, err)
	assert.ErrorIs(t, err, etlerr.ErrParse)
}
