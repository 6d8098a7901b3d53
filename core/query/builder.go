package query

// FieldBuilder builds a relational condition on one field. It is the
// programmatic counterpart of the inline grammar, for entity code that needs
// to add its own constraints to a client filter.
//
//	cond := query.And(
//		query.Where("first_name").StartsWith("Jo"),
//		query.Where("deleted_moment").IsNull(),
//	)
type FieldBuilder struct {
	field string
}

// Where begins a condition on field.
func Where(field string) *FieldBuilder {
	return &FieldBuilder{field: field}
}

// Eq adds an equality condition.
func (b *FieldBuilder) Eq(value string) Relational {
	return b.condition(OperatorEqual, value)
}

// Neq adds a not-equal condition.
func (b *FieldBuilder) Neq(value string) Relational {
	return b.condition(OperatorNotEqual, value)
}

// Gt adds a greater-than condition.
func (b *FieldBuilder) Gt(value string) Relational {
	return b.condition(OperatorGreater, value)
}

// Gte adds a greater-than-or-equal condition.
func (b *FieldBuilder) Gte(value string) Relational {
	return b.condition(OperatorGreaterOrEqual, value)
}

// Lt adds a less-than condition.
func (b *FieldBuilder) Lt(value string) Relational {
	return b.condition(OperatorLess, value)
}

// Lte adds a less-than-or-equal condition.
func (b *FieldBuilder) Lte(value string) Relational {
	return b.condition(OperatorLessOrEqual, value)
}

// StartsWith adds a prefix match.
func (b *FieldBuilder) StartsWith(value string) Relational {
	return b.condition(OperatorStartsWith, value)
}

// EndsWith adds a suffix match.
func (b *FieldBuilder) EndsWith(value string) Relational {
	return b.condition(OperatorEndsWith, value)
}

// Contains adds a substring match.
func (b *FieldBuilder) Contains(value string) Relational {
	return b.condition(OperatorContains, value)
}

// IsNull matches rows where the field is NULL.
func (b *FieldBuilder) IsNull() Relational {
	return b.condition(OperatorEqual, "null")
}

func (b *FieldBuilder) condition(op Operator, value string) Relational {
	return Relational{Field: b.field, Operator: op, Value: value}
}

// And combines conditions with and.
func And(conds ...Condition) *Logical {
	return &Logical{Operator: OperatorAnd, Subconditions: conds}
}

// Or combines conditions with or.
func Or(conds ...Condition) *Logical {
	return &Logical{Operator: OperatorOr, Subconditions: conds}
}

// AndAll and-combines the non-nil conditions. It returns nil when none is left
// and the condition itself when only one is.
func AndAll(conds ...Condition) Condition {
	kept := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c == nil {
			continue
		}
		if l, ok := c.(*Logical); ok && l == nil {
			continue
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And(kept...)
	}
}
