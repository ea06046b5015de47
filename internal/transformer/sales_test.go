package transformer

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elecetl/internal/config"
	"elecetl/internal/etlerr"
	"elecetl/pkg/records"
)

func salesTable(rows ...records.Record) *records.Table {
	t := records.NewTable(SalesColumns...)
	t.Rows = rows
	return t
}

func sale(period, state, sector string, price any) records.Record {
	return records.Record{
		ColPeriod:     period,
		ColStateID:    state,
		ColSectorName: sector,
		ColPrice:      price,
		ColPriceUnits: "cents per kWh",
	}
}

/*
TestSales_EndToEnd drops the null-price row and derives month/year from the
period of the remaining one.
*/
func TestSales_EndToEnd(t *testing.T) {
	in := salesTable(
		sale("202301", "CA", "residential", 15.5),
		sale("202302", "NY", "residential", nil),
	)

	out, err := Sales(in, Options{})
	require.NoError(t, err)

	assert.Equal(t, OutputColumns, out.Columns)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, records.Record{
		ColYear:       "01",
		ColMonth:      "2023",
		ColStateID:    "CA",
		ColPrice:      15.5,
		ColPriceUnits: "cents per kWh",
	}, out.Rows[0])
}

func TestSalesWithStats_Counts(t *testing.T) {
	in := salesTable(
		sale("202301", "CA", "residential", "15.5"),
		sale("202301", "CA", "commercial", "11"),
		sale("202301", "TX", "transportation", json.Number("9.25")),
		sale("202301", "TX", "industrial", nil),
		sale("202301", "WA", "residential", math.NaN()),
		sale("202301", "WA", "Residential", "8"),
	)

	out, st, err := SalesWithStats(in, Options{})
	require.NoError(t, err)

	assert.Equal(t, 6, st.RowsIn)
	assert.Equal(t, 2, st.RowsOut)
	assert.Equal(t, 2, st.DroppedNullPrice)
	assert.Equal(t, 2, st.DroppedSector)
	assert.Len(t, st.Steps, len(SalesChain(Options{})))

	assert.Equal(t, []any{"CA", "TX"}, out.Values(ColStateID))
	assert.Equal(t, []any{15.5, 9.25}, out.Values(ColPrice))
}

func TestSales_NilTable(t *testing.T) {
	_, err := Sales(nil, Options{})
	assert.ErrorIs(t, err, etlerr.ErrInvalidArgument)
}

/*
TestSales_PeriodSlicing documents that month is the first four characters and
year the last two, which for a YYYYMM period reads as swapped.
*/
func TestSales_PeriodSlicing(t *testing.T) {
	tests := []struct {
		period    any
		wantMonth any
		wantYear  any
	}{
		{"202301", "2023", "01"},
		{"2023-01", "2023", "01"},
		{"abc", "abc", "bc"},
		{"20", "20", "20"},
		{json.Number("202412"), "2024", "12"},
		{nil, nil, nil},
	}
	for _, tc := range tests {
		in := salesTable(sale("", "CA", "residential", 1.0))
		in.Rows[0][ColPeriod] = tc.period
		out, err := Sales(in, Options{})
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, tc.wantMonth, out.Rows[0][ColMonth], "month of %v", tc.period)
		assert.Equal(t, tc.wantYear, out.Rows[0][ColYear], "year of %v", tc.period)
	}
}

func TestSales_DoesNotMutateInput(t *testing.T) {
	in := salesTable(
		sale("202301", "CA", "residential", "15.5"),
		sale("202302", "NY", "residential", nil),
		sale("202302", "NY", "commercial", "3"),
	)
	before := in.Fingerprint()
	cols := append([]string(nil), in.Columns...)

	_, err := Sales(in, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, in.Len())
	assert.Nil(t, in.Rows[1][ColPrice])
	assert.Equal(t, "15.5", in.Rows[0][ColPrice])
	assert.Equal(t, cols, in.Columns)
	assert.Equal(t, before, in.Fingerprint())
}

func TestSales_Aliases(t *testing.T) {
	in := records.NewTable("Date", "StateId", "SectorName", "UnitPrice", "price_units")
	in.Rows = []records.Record{{
		"Date": "202305", "StateId": "OR", "SectorName": "transportation",
		"UnitPrice": "12", "price_units": "cents per kWh",
	}}

	out, err := Sales(in, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "OR", out.Rows[0][ColStateID])
	assert.Equal(t, 12.0, out.Rows[0][ColPrice])
	assert.Equal(t, "cents per kWh", out.Rows[0][ColPriceUnits])
}

/*
TestSales_CanonicalBeatsAlias keeps the canonical price column when an alias
for it is also present.
*/
func TestSales_CanonicalBeatsAlias(t *testing.T) {
	in := records.NewTable(ColPeriod, ColStateID, ColSectorName, ColPrice, ColPriceUnits, "Price")
	r := sale("202301", "CA", "residential", "2")
	r["Price"] = "999"
	in.Rows = []records.Record{r}

	out, err := Sales(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.Rows[0][ColPrice])
}

func TestSales_ColumnErrors(t *testing.T) {
	onlyPriceMissing := records.NewTable(ColPeriod, ColStateID, ColSectorName, ColPriceUnits)
	unrelated := records.NewTable("foo", "bar")

	t.Run("missing_price", func(t *testing.T) {
		_, err := Sales(onlyPriceMissing, Options{})
		require.ErrorIs(t, err, etlerr.ErrMissingColumns)
		var se *etlerr.SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []string{ColPrice}, se.Missing)
	})
	t.Run("lenient_none_present", func(t *testing.T) {
		_, err := Sales(unrelated, Options{})
		assert.ErrorIs(t, err, etlerr.ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "foo, bar")
	})
	t.Run("strict_none_present", func(t *testing.T) {
		_, err := Sales(unrelated, OptionsFrom(config.Options{"strict_schema": true}))
		require.ErrorIs(t, err, etlerr.ErrMissingColumns)
		var se *etlerr.SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, SalesColumns, se.Missing)
	})
}

func TestSales_BadPrice(t *testing.T) {
	in := salesTable(sale("202301", "CA", "residential", "1.0"), sale("202301", "CA", "residential", "--"))

	_, err := Sales(in, Options{})
	require.ErrorIs(t, err, etlerr.ErrParse)
	assert.Contains(t, err.Error(), "row 1")
}

func TestSales_BadPriceOnDiscardedSector(t *testing.T) {
	in := salesTable(
		sale("202301", "CA", "residential", "15.5"),
		sale("202301", "CA", "commercial", "--"),
		sale("202302", "TX", "industrial", "n.a."),
	)

	out, st, err := SalesWithStats(in, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, 15.5, out.Rows[0][ColPrice])
	assert.Equal(t, 2, st.DroppedSector)
}

func TestSales_NATokensAreNull(t *testing.T) {
	for _, tok := range []string{"NA", "N/A", "n/a", "NULL", "null", "None", "#N/A", "<NA>", "-NaN"} {
		t.Run(tok, func(t *testing.T) {
			in := salesTable(sale("202301", "CA", "residential", "15.5"), sale("202301", "NY", "residential", tok))

			out, st, err := SalesWithStats(in, Options{})
			require.NoError(t, err)
			assert.Equal(t, 1, out.Len())
			assert.Equal(t, 1, st.DroppedNullPrice)
		})
	}
}

func TestSales_EmptyTable(t *testing.T) {
	out, err := Sales(salesTable(), Options{})
	require.NoError(t, err)
	assert.Equal(t, OutputColumns, out.Columns)
	assert.Equal(t, 0, out.Len())
}

func TestSales_ProjectionIdempotent(t *testing.T) {
	out, err := Sales(salesTable(sale("202301", "CA", "residential", 1.5)), Options{})
	require.NoError(t, err)

	again := out.Select(OutputColumns...)
	assert.Equal(t, out, again)
	assert.Equal(t, out.Fingerprint(), again.Fingerprint())
}
