package sqldb

import (
	"strings"

	"github.com/xandalm/contacts-query/core/query"
)

// CompileOrder renders specs as "field1 ASC, field2 DESC" in input order. An
// empty slice renders as an empty string.
func (c *Compiler) CompileOrder(specs []query.OrderSpec) (string, error) {
	if len(specs) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		if !c.allow.Orderable(spec.Field) {
			return "", query.NewFieldError(query.ErrFieldNotOrderable, spec.Field, spec.Field, "")
		}
		dir, err := query.ParseDirection(string(spec.Direction))
		if err != nil {
			return "", err
		}
		parts = append(parts, c.columnSQL(spec.Field)+" "+strings.ToUpper(string(dir)))
	}
	return strings.Join(parts, ", "), nil
}
