package sqldb

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/core/schema"
)

// CompilerFactory implements query.CompilerFactory for one dialect.
type CompilerFactory struct {
	opts []CompilerOption
}

// NewCompilerFactory creates a factory whose compilers share opts.
func NewCompilerFactory(opts ...CompilerOption) *CompilerFactory {
	return &CompilerFactory{opts: opts}
}

// CreateCompiler creates a compiler for the given entity.
func (f *CompilerFactory) CreateCompiler(def *schema.EntityDefinition) (query.Compiler, error) {
	return NewCompiler(def, f.opts...)
}

var _ query.CompilerFactory = (*CompilerFactory)(nil)

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithDialect sets the dialect used to write table names in reference lookups.
func WithDialect(d Dialect) CompilerOption {
	return func(c *Compiler) { c.dialect = d }
}

// WithAllowList replaces the entity's own filterable fields.
func WithAllowList(allow schema.AllowList) CompilerOption {
	return func(c *Compiler) { c.allow = allow }
}

// WithPageOptions sets the default and maximum limit used by CompileList.
func WithPageOptions(o query.PageOptions) CompilerOption {
	return func(c *Compiler) { c.pages = o }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) CompilerOption {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Compiler is a schema-aware translator of conditions, orderings and list
// requests into SQL fragments. It holds no per-call state and may be shared.
type Compiler struct {
	def     *schema.EntityDefinition
	allow   schema.AllowList
	dialect Dialect
	pages   query.PageOptions
	logger  *zap.Logger
}

var _ query.Compiler = (*Compiler)(nil)

// NewCompiler creates a compiler for def.
func NewCompiler(def *schema.EntityDefinition, opts ...CompilerOption) (*Compiler, error) {
	if def == nil {
		return nil, fmt.Errorf("EntityDefinition cannot be nil")
	}
	if def.Table == "" {
		return nil, fmt.Errorf("entity %q must define a table name", def.Name)
	}
	c := &Compiler{
		def:     def,
		allow:   def.AllowList(),
		dialect: SQLite,
		pages:   query.PageOptions{DefaultLimit: query.DefaultLimit},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Entity returns the definition the compiler is bound to.
func (c *Compiler) Entity() *schema.EntityDefinition {
	return c.def
}

// CompileWhere renders cond as a single statement. Nested groups are
// parenthesized, the outermost one included, and parameters are collected
// depth-first, left to right.
func (c *Compiler) CompileWhere(cond query.Condition) (*query.CompiledWhere, error) {
	if cond == nil {
		return nil, query.NewFieldError(query.ErrMalformedCondition, "", "", "condition is required")
	}
	params := make([]any, 0, 4)
	stmt, err := query.Render(cond, func(r query.Relational) (string, error) {
		frag, val, err := c.compileRelational(r)
		if err != nil {
			return "", err
		}
		params = append(params, val)
		return frag, nil
	}, true)
	if err != nil {
		c.logger.Debug("Rejected condition", zap.String("entity", c.def.Name), zap.Error(err))
		return nil, err
	}
	return &query.CompiledWhere{Statement: stmt, Params: params}, nil
}

// compileRelational renders one leaf and returns the value bound to its single
// placeholder.
func (c *Compiler) compileRelational(r query.Relational) (string, any, error) {
	if !c.allow.Filterable(r.Field) {
		return "", nil, query.NewFieldError(query.ErrFieldNotFilterable, r.Field, r.String(), "")
	}
	value, isNull := normalizeValue(r.Value)
	field := c.def.Field(r.Field)

	if field != nil && field.Type == schema.FieldTypeReference {
		return c.compileReference(r, field, value, isNull)
	}

	if !isNull && c.def.IsDateField(r.Field) && !schema.IsDate(value) {
		return "", nil, query.NewFieldError(query.ErrInvalidDateFormat, r.Field, r.Value, "expected YYYY-MM-DD")
	}

	column := c.columnSQL(r.Field)
	switch r.Operator {
	case query.OperatorEqual:
		if isNull {
			return column + " IS ?", nil, nil
		}
		return column + " = ?", value, nil
	case query.OperatorStartsWith, query.OperatorEndsWith, query.OperatorContains:
		if isNull {
			return "", nil, query.NewFieldError(query.ErrOperatorNotAllowed, r.Field, r.String(), "pattern operators cannot match null")
		}
		return column + " LIKE ?", likePattern(r.Operator, value), nil
	case query.OperatorNotEqual, query.OperatorGreater, query.OperatorGreaterOrEqual,
		query.OperatorLess, query.OperatorLessOrEqual:
		var bound any = value
		if isNull {
			bound = nil
		}
		return column + " " + r.Operator.String() + " ?", bound, nil
	default:
		return "", nil, query.NewFieldError(query.ErrUnknownOperator, r.Field, r.Operator.String(), "")
	}
}

// compileReference renders a lookup of the referenced row by its public key.
// Only equality is meaningful for such fields.
func (c *Compiler) compileReference(r query.Relational, field *schema.FieldDefinition, value string, isNull bool) (string, any, error) {
	if r.Operator != query.OperatorEqual {
		return "", nil, query.NewFieldError(query.ErrOperatorNotAllowed, r.Field, r.Operator.String(), "only == is supported")
	}
	if isNull {
		return r.Field + " IS ?", nil, nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return "", nil, query.NewFieldError(query.ErrInvalidReference, r.Field, value, "expected a public id")
	}
	ref := field.Reference
	return fmt.Sprintf("%s = (SELECT %s FROM %s WHERE %s = ?)",
		r.Field, ref.Column, c.dialect.QuoteIdentifier(ref.Table), ref.Key), value, nil
}

// columnSQL returns the SQL that stands for a field: its expression when it
// declares one, otherwise its name.
func (c *Compiler) columnSQL(name string) string {
	if f := c.def.Field(name); f != nil && f.Virtual() {
		return *f.Expression
	}
	return name
}

// normalizeValue maps the null tokens to a database NULL and unwraps their
// braced escapes to literal text.
func normalizeValue(v string) (string, bool) {
	switch v {
	case "{null}":
		return "null", false
	case "{undefined}":
		return "undefined", false
	}
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "undefined") {
		return "", true
	}
	return v, false
}

func likePattern(op query.Operator, v string) string {
	switch op {
	case query.OperatorStartsWith:
		return v + "%"
	case query.OperatorEndsWith:
		return "%" + v
	default:
		return "%" + v + "%"
	}
}
