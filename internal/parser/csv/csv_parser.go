// Package csv implements the delimited-text reader for the tabular extractor.
// It reads the whole input into a records.Table whose columns follow the
// header row order.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"elecetl/internal/config"
	"elecetl/internal/etlerr"
	"elecetl/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// Encoding names the input character set using WHATWG labels
	// ("windows-1252", "iso-8859-2", ...). Empty means UTF-8.
	Encoding string

	// NoHeader treats the first row as data and names columns col_0..col_N.
	NoHeader bool

	// KeepNATokens keeps markers such as "NA", "N/A" or "NULL" as text.
	// By default they are read as nil, like empty cells.
	KeepNATokens bool
}

// FromConfigOptions maps a parser options bag onto Options.
func FromConfigOptions(o config.Options) Options {
	return Options{
		Comma:     o.Rune("comma", ','),
		TrimSpace: o.Bool("trim_space", false),
		Encoding:  o.String("encoding", ""),
		NoHeader:  !o.Bool("has_header", true),

		KeepNATokens: !o.Bool("keep_default_na", true),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse consumes CSV records from r and returns them as a table.
//
// Empty cells and NA markers (records.IsNAToken) become nil. Repeated
// header names are suffixed (price, price.1). Rows shorter than the header are padded with nil,
// rows longer than the header fail with etlerr.ErrParse, as does any
// malformed quoting.
func (p *Parser) Parse(r io.Reader) (*records.Table, error) {
	if p.opt.Encoding != "" && !strings.EqualFold(p.opt.Encoding, "utf-8") {
		enc, err := htmlindex.Get(p.opt.Encoding)
		if err != nil {
			return nil, etlerr.InvalidArgument("csv encoding %q: %v", p.opt.Encoding, err)
		}
		r = transform.NewReader(r, enc.NewDecoder())
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced after reading each row.
	cr.FieldsPerRecord = -1

	var headers []string
	if !p.opt.NoHeader {
		h, err := cr.Read()
		if err == io.EOF {
			return records.NewTable(), nil
		}
		if err != nil {
			return nil, etlerr.Parse("csv header", err)
		}
		headers = normalizeHeaders(h)
	}

	out := records.NewTable(headers...)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, etlerr.Parse(fmt.Sprintf("csv line %d", line), err)
		}

		if headers == nil {
			headers = synthHeaders(len(row))
			out.Columns = append([]string(nil), headers...)
		}
		if len(row) > len(headers) {
			return nil, etlerr.Parse(fmt.Sprintf("csv line %d", line),
				fmt.Errorf("expected %d fields, saw %d", len(headers), len(row)))
		}

		rec := make(records.Record, len(headers))
		for i, key := range headers {
			if i >= len(row) {
				rec[key] = nil
				continue
			}
			val := row[i]
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[key] = p.cell(val)
		}
		out.Rows = append(out.Rows, rec)
	}

	return out, nil
}

// synthHeaders names n columns col_0..col_{n-1}.
func synthHeaders(n int) []string {
	h := make([]string, n)
	for i := range h {
		h[i] = fmt.Sprintf("col_%d", i)
	}
	return h
}

// cell maps an empty field, or an NA marker unless KeepNATokens is set, to nil.
func (p *Parser) cell(s string) any {
	if s == "" || (!p.opt.KeepNATokens && records.IsNAToken(s)) {
		return nil
	}
	return s
}

// normalizeHeaders trims header cells, strips a UTF-8 BOM from the first one
// and composes them to NFC. Case is preserved; alias matching happens in the
// transformer. Blank cells get a synthesized col_N name and repeats are
// suffixed by records.UniqueColumns.
func normalizeHeaders(h []string) []string {
	h = StripHeaderBOM(append([]string(nil), h...))
	res := make([]string, len(h))
	for i, col := range h {
		c := norm.NFC.String(strings.TrimSpace(col))
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = c
	}
	return records.UniqueColumns(res)
}
