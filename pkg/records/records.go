// Package records defines the in-memory row and table model shared by the
// extract, transform and load stages.
package records

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Record is a single row keyed by column name. A missing key and a nil value
// are both treated as null.
type Record map[string]any

// Table is an ordered collection of rows sharing one column set. Columns keeps
// insertion order; it only matters for output column selection and file
// layout.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row and registers any keys not yet present in Columns, in the
// iteration order given by keys. Callers that care about column order pass
// keys explicitly.
func (t *Table) Append(rec Record, keys ...string) {
	for _, k := range keys {
		if !t.HasColumn(k) {
			t.Columns = append(t.Columns, k)
		}
	}
	t.Rows = append(t.Rows, rec)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of name in Columns or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Rename renames column from to to, in the column list and in every row.
// It is a no-op when from is absent.
func (t *Table) Rename(from, to string) {
	i := t.ColumnIndex(from)
	if i < 0 || from == to {
		return
	}
	t.Columns[i] = to
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			delete(r, from)
			r[to] = v
		}
	}
}

// Clone returns a deep copy of the column list and of every row map. Values
// themselves are shared, which is safe for the scalar values produced by the
// parsers.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Record, len(t.Rows)),
	}
	for i, r := range t.Rows {
		cp := make(Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Select returns a new table restricted to columns, in that order. Columns not
// present in a row come out as nil. Selecting the columns a table already has,
// in the same order, yields an equal table.
func (t *Table) Select(columns ...string) *Table {
	out := &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([]Record, len(t.Rows)),
	}
	for i, r := range t.Rows {
		rec := make(Record, len(columns))
		for _, c := range columns {
			rec[c] = r[c]
		}
		out.Rows[i] = rec
	}
	return out
}

// Values returns the values of column in row order.
func (t *Table) Values(column string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[column]
	}
	return out
}

// Fingerprint returns an xxh3 digest over the column list and every row's
// values in column order. Two tables with the same columns and the same
// values hash equal regardless of map iteration order.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	for _, c := range t.Columns {
		_, _ = h.Write([]byte(c))
		_, _ = h.Write([]byte{0x1f})
	}
	_, _ = h.Write([]byte{0x1e})
	for _, r := range t.Rows {
		for _, c := range t.Columns {
			_, _ = h.Write([]byte(hashValue(r[c])))
			_, _ = h.Write([]byte{0x1f})
		}
		_, _ = h.Write([]byte{0x1e})
	}
	return h.Sum64()
}

func hashValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00"
	case string:
		return "s:" + x
	case float64:
		return "f:" + strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}

// UniqueColumns suffixes repeated names in order: the second "price" becomes
// "price.1", the third "price.2". A suffixed name that is already in use gets
// the next free suffix. The input slice is not modified.
func UniqueColumns(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	next := make(map[string]int)
	for i, n := range names {
		c := n
		for used[c] {
			next[n]++
			c = fmt.Sprintf("%s.%d", n, next[n])
		}
		used[c] = true
		out[i] = c
	}
	return out
}
