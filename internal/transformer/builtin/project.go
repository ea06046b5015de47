package builtin

import "elecetl/pkg/records"

// Project keeps exactly Columns, in that order.
type Project struct {
	Columns []string
}

func (Project) Name() string { return "project" }

func (p Project) Apply(t *records.Table) (*records.Table, error) {
	return t.Select(p.Columns...), nil
}
