package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elecetl/internal/transformer"
)

func TestSales_Shape(t *testing.T) {
	tbl := Sales()
	assert.Equal(t, Columns, tbl.Columns)
	require.Equal(t, 5, tbl.Len())
	assert.Nil(t, tbl.Rows[3]["price"])

	// Each call returns a fresh table.
	tbl.Rows[0]["price"] = 0.0
	assert.Equal(t, 15.5, Sales().Rows[0]["price"])
}

func TestSales_Transforms(t *testing.T) {
	out, st, err := transformer.SalesWithStats(Sales(), transformer.Options{})
	require.NoError(t, err)

	assert.Equal(t, []any{"CA", "NY", "TX"}, out.Values(transformer.ColStateID))
	assert.Equal(t, []any{15.5, 14.2, 13.8}, out.Values(transformer.ColPrice))
	assert.Equal(t, 1, st.DroppedNullPrice)
	assert.Equal(t, 1, st.DroppedSector)
}
