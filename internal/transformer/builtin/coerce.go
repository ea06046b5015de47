package builtin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"elecetl/internal/etlerr"
	"elecetl/pkg/records"
)

// Coerce converts field values to a target type. Supported types are
// "float", "int", "bool" and "string". Null values are left alone; a value
// that cannot be converted fails with etlerr.ErrParse naming the field and
// the zero-based row.
type Coerce struct {
	Types map[string]string // field -> type
}

func (Coerce) Name() string { return "coerce" }

func (c Coerce) Apply(t *records.Table) (*records.Table, error) {
	if len(c.Types) == 0 {
		return t, nil
	}
	fields := make([]string, 0, len(c.Types))
	for f := range c.Types {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for i, r := range t.Rows {
		for _, field := range fields {
			v, ok := r[field]
			if !ok || records.IsNull(v) {
				continue
			}
			out, err := convert(v, c.Types[field])
			if err != nil {
				return nil, etlerr.Parse(fmt.Sprintf("%s at row %d", field, i), err)
			}
			r[field] = out
		}
	}
	return t, nil
}

func convert(v any, typ string) (any, error) {
	switch typ {
	case "float":
		return records.AsFloat(v)
	case "int":
		s, _ := records.AsString(v)
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case "bool":
		if b, ok := v.(bool); ok {
			return b, nil
		}
		s, _ := records.AsString(v)
		return strconv.ParseBool(strings.TrimSpace(s))
	case "string":
		s, _ := records.AsString(v)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown coerce type %q", typ)
	}
}
