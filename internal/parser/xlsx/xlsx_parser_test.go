package xlsx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"elecetl/internal/config"
	"elecetl/internal/etlerr"
)

// workbook builds an in-memory workbook with the given sheets. The first
// entry renames the default "Sheet1".
func workbook(t *testing.T, sheets map[string][][]any, order ...string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

/*
TestParse_FirstSheet reads a sales sheet and checks header order, text values
and that blank cells come back as nil.
*/
func TestParse_FirstSheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"sales": {
			{"period", "stateid", "sectorName", "price", "price-units"},
			{"202301", "CA", "residential", 15.5, "cents per kilowatt-hour"},
			{"202302", "TX", "commercial", nil, "cents per kilowatt-hour"},
		},
	}, "sales")

	tbl, err := NewParser(Options{}).Parse(buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"period", "stateid", "sectorName", "price", "price-units"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "202301", tbl.Rows[0]["period"])
	assert.Equal(t, "15.5", tbl.Rows[0]["price"])
	assert.Nil(t, tbl.Rows[1]["price"])
	assert.Equal(t, "cents per kilowatt-hour", tbl.Rows[1]["price-units"])
}

func TestParse_NamedSheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"notes": {{"ignored"}},
		"data":  {{"period", " price "}, {"202305", "9"}},
	}, "notes", "data")

	tbl, err := NewParser(FromConfigOptions(config.Options{"sheet": "data"})).Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"period", "price"}, tbl.Columns)
	assert.Equal(t, "9", tbl.Rows[0]["price"])
}

func TestParse_DuplicateHeaders(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"s": {{"price", "price"}, {"1", "2"}},
	}, "s")

	tbl, err := NewParser(Options{}).Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"price", "price.1"}, tbl.Columns)
	assert.Equal(t, "1", tbl.Rows[0]["price"])
	assert.Equal(t, "2", tbl.Rows[0]["price.1"])
}

func TestParse_MissingSheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{"a": {{"x"}}}, "a")

	_, err := NewParser(Options{Sheet: "nope"}).Parse(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, etlerr.ErrParse)
}

func TestParse_EmptySheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{}, "empty")

	tbl, err := NewParser(Options{}).Parse(buf)
	require.NoError(t, err)
	assert.Empty(t, tbl.Columns)
	assert.Equal(t, 0, tbl.Len())
}

func TestParse_NotAWorkbook(t *testing.T) {
	_, err := NewParser(Options{}).Parse(strings.NewReader("period,price\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, etlerr.ErrParse)
}
