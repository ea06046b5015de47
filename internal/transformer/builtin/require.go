// Package builtin contains the reusable table steps used by the ETL
// transforms.
package builtin

import (
	"elecetl/internal/etlerr"
	"elecetl/pkg/records"
)

// RequireColumns fails when the table lacks any of Columns.
//
// In lenient mode a table carrying none of them is reported as
// etlerr.ErrSchemaMismatch and a partial match as etlerr.ErrMissingColumns.
// Strict mode reports every shortfall as etlerr.ErrMissingColumns. Missing
// columns are listed in Columns order.
type RequireColumns struct {
	Columns []string
	Strict  bool
}

func (RequireColumns) Name() string { return "require_columns" }

func (r RequireColumns) Apply(t *records.Table) (*records.Table, error) {
	var missing []string
	for _, c := range r.Columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return t, nil
	}
	return nil, &etlerr.SchemaError{
		Expected: append([]string(nil), r.Columns...),
		Missing:  missing,
		Actual:   append([]string(nil), t.Columns...),
		None:     !r.Strict && len(missing) == len(r.Columns),
	}
}
