package builtin

import "elecetl/pkg/records"

// DropNull removes rows whose Field is null: missing, nil, a blank string or
// NaN. Row order is kept.
type DropNull struct {
	Field string
}

func (d DropNull) Name() string { return "drop_null_" + d.Field }

func (d DropNull) Apply(t *records.Table) (*records.Table, error) {
	out := t.Rows[:0]
	for _, r := range t.Rows {
		if !records.IsNull(r[d.Field]) {
			out = append(out, r)
		}
	}
	t.Rows = out
	return t, nil
}

// Filter keeps rows whose Field, rendered as text, equals one of In exactly.
// Nulls never match. Row order is kept.
type Filter struct {
	Field string
	In    []string
}

func (f Filter) Name() string { return "filter_" + f.Field }

func (f Filter) Apply(t *records.Table) (*records.Table, error) {
	keep := make(map[string]struct{}, len(f.In))
	for _, s := range f.In {
		keep[s] = struct{}{}
	}
	out := t.Rows[:0]
	for _, r := range t.Rows {
		s, ok := records.AsString(r[f.Field])
		if !ok {
			continue
		}
		if _, hit := keep[s]; hit {
			out = append(out, r)
		}
	}
	t.Rows = out
	return t, nil
}
