package sqldb

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/core/schema"
)

var _ squirrel.Sqlizer = (*query.CompiledWhere)(nil)

// CompileList validates pagination and compiles the condition and ordering of
// q. Pagination is checked first.
func (c *Compiler) CompileList(q query.ListQuery) (*query.CompiledList, error) {
	page, err := c.pages.Paginate(q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	list := &query.CompiledList{Offset: page.Offset, Limit: page.Limit}

	if q.Condition != nil {
		if list.Where, err = c.CompileWhere(q.Condition); err != nil {
			return nil, err
		}
	}
	if list.OrderBy, err = c.CompileOrder(q.OrderBy); err != nil {
		return nil, err
	}
	return list, nil
}

// Columns returns the stored columns of def, in sorted order. Computed fields
// are left out.
func Columns(def *schema.EntityDefinition) []string {
	cols := make([]string, 0, len(def.Fields))
	for _, name := range def.FieldNames() {
		if !def.Fields[name].Virtual() {
			cols = append(cols, name)
		}
	}
	return cols
}

// SelectBuilder builds the paged SELECT for a compiled list. With no columns
// given every stored column of def is selected.
func SelectBuilder(d Dialect, def *schema.EntityDefinition, list *query.CompiledList, columns ...string) squirrel.SelectBuilder {
	if len(columns) == 0 {
		columns = Columns(def)
	}
	b := squirrel.StatementBuilder.
		PlaceholderFormat(d.Placeholder).
		Select(columns...).
		From(d.QuoteIdentifier(def.Table))
	if list == nil {
		return b
	}
	if list.Where != nil {
		b = b.Where(list.Where)
	}
	if list.OrderBy != "" {
		b = b.OrderBy(list.OrderBy)
	}
	b = b.Limit(uint64(list.Limit))
	if list.Offset > 0 {
		b = b.Offset(uint64(list.Offset))
	}
	return b
}

// CountBuilder builds a COUNT(*) over the rows matching where. A nil where
// counts the whole table.
func CountBuilder(d Dialect, def *schema.EntityDefinition, where *query.CompiledWhere) squirrel.SelectBuilder {
	b := squirrel.StatementBuilder.
		PlaceholderFormat(d.Placeholder).
		Select("COUNT(*)").
		From(d.QuoteIdentifier(def.Table))
	if where != nil {
		b = b.Where(where)
	}
	return b
}

// ToSQL is a convenience for rendering any squirrel builder, wrapping its
// error with the entity name.
func ToSQL(def *schema.EntityDefinition, b squirrel.Sqlizer) (string, []any, error) {
	stmt, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build SQL for %s: %w", def.Name, err)
	}
	return stmt, args, nil
}
