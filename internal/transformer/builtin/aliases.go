package builtin

import "elecetl/pkg/records"

// Alias maps alternative spellings onto one canonical column name. Names are
// tried in order.
type Alias struct {
	Canonical string
	Names     []string
}

// Aliases renames alias columns to their canonical names. A canonical column
// that is already present wins and its aliases are left untouched; otherwise
// the first alias found in Names order is renamed and later ones are left
// as they are.
type Aliases []Alias

func (Aliases) Name() string { return "aliases" }

func (a Aliases) Apply(t *records.Table) (*records.Table, error) {
	for _, al := range a {
		if t.HasColumn(al.Canonical) {
			continue
		}
		for _, n := range al.Names {
			if t.HasColumn(n) {
				t.Rename(n, al.Canonical)
				break
			}
		}
	}
	return t, nil
}
