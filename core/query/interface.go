package query

import "github.com/xandalm/contacts-query/core/schema"

// CompiledWhere is a parameterized WHERE fragment. Params line up 1:1 with the
// '?' placeholders of Statement.
type CompiledWhere struct {
	Statement string
	Params    []any
}

// ToSql lets a CompiledWhere be used anywhere a squirrel.Sqlizer is accepted.
func (w *CompiledWhere) ToSql() (string, []any, error) {
	return w.Statement, w.Params, nil
}

// CompiledList is what every entity's list operation consumes. Where is nil
// when the request has no condition and OrderBy is empty when it has no order.
type CompiledList struct {
	Where   *CompiledWhere
	OrderBy string
	Offset  int
	Limit   int
}

// CountWhere is the part of the list reused by row-count operations, which
// ignore ordering and pagination.
func (l *CompiledList) CountWhere() *CompiledWhere {
	return l.Where
}

// CompilerFactory creates compilers bound to one entity definition.
type CompilerFactory interface {
	CreateCompiler(entity *schema.EntityDefinition) (Compiler, error)
}

// Compiler translates conditions, orders and list requests into SQL fragments
// for a single entity, enforcing that entity's allow-list.
type Compiler interface {
	// CompileWhere renders a condition into a statement and its parameters.
	CompileWhere(cond Condition) (*CompiledWhere, error)

	// CompileOrder renders order specifications as "field DIR, ...".
	CompileOrder(specs []OrderSpec) (string, error)

	// CompileList combines pagination, condition and order.
	CompileList(q ListQuery) (*CompiledList, error)
}
