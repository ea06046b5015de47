package builtin

import "elecetl/pkg/records"

// Slice writes a piece of From's text into To: the first First characters,
// or, when First is zero, the last Last characters. Strings shorter than the
// requested length are copied whole. A null From yields a null To. To is
// appended to the column list if new.
type Slice struct {
	From  string
	To    string
	First int
	Last  int
}

func (s Slice) Name() string { return "slice_" + s.To }

func (s Slice) Apply(t *records.Table) (*records.Table, error) {
	if !t.HasColumn(s.To) {
		t.Columns = append(t.Columns, s.To)
	}
	for _, r := range t.Rows {
		v, ok := records.AsString(r[s.From])
		if !ok {
			r[s.To] = nil
			continue
		}
		r[s.To] = s.cut(v)
	}
	return t, nil
}

func (s Slice) cut(v string) string {
	rs := []rune(v)
	switch {
	case s.First > 0:
		if len(rs) > s.First {
			rs = rs[:s.First]
		}
	case s.Last > 0:
		if len(rs) > s.Last {
			rs = rs[len(rs)-s.Last:]
		}
	}
	return string(rs)
}
