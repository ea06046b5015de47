// Package xlsx reads one worksheet of an Excel workbook into a records.Table.
// The first row of the sheet is the header.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"elecetl/internal/config"
	"elecetl/internal/etlerr"
	"elecetl/pkg/records"
)

// Options selects the worksheet. An empty Sheet means the first one.
type Options struct {
	Sheet string
}

// FromConfigOptions maps a parser options bag onto Options.
func FromConfigOptions(o config.Options) Options {
	return Options{Sheet: o.String("sheet", "")}
}

// Parser reads workbooks according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the configured sheet from r. Cells are kept as the text Excel
// displays; empty cells become nil. A workbook with an empty sheet yields an
// empty table.
func (p *Parser) Parse(r io.Reader) (*records.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, etlerr.Parse("xlsx workbook", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, etlerr.Parse("xlsx workbook", fmt.Errorf("workbook has no sheets"))
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, etlerr.Parse(fmt.Sprintf("xlsx sheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return records.NewTable(), nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("col_%d", i)
		}
		headers[i] = h
	}
	headers = records.UniqueColumns(headers)

	out := records.NewTable(headers...)
	for n, row := range rows[1:] {
		if len(row) > len(headers) {
			return nil, etlerr.Parse(fmt.Sprintf("xlsx sheet %q row %d", sheet, n+2),
				fmt.Errorf("expected %d cells, saw %d", len(headers), len(row)))
		}
		rec := make(records.Record, len(headers))
		for i, key := range headers {
			if i < len(row) && row[i] != "" {
				rec[key] = row[i]
			} else {
				rec[key] = nil
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}
