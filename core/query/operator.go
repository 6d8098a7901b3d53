// Package query defines the filter and order language shared by every entity:
// the operator registry, the condition AST, the parsers for the inline and tree
// grammars, order specifications and the list (pagination) contract.
package query

import "strings"

// Operator is a relational or logical operator token.
type Operator string

// Relational operators, declared in matching priority order.
const (
	OperatorEqual          Operator = "=="
	OperatorNotEqual       Operator = "!="
	OperatorGreaterOrEqual Operator = ">="
	OperatorLessOrEqual    Operator = "<="
	OperatorStartsWith     Operator = "^="
	OperatorEndsWith       Operator = "$="
	OperatorContains       Operator = "*="
	OperatorGreater        Operator = ">"
	OperatorLess           Operator = "<"
)

// Logical operators for combining conditions.
const (
	OperatorAnd Operator = "and"
	OperatorOr  Operator = "or"
)

// relationalOperators is the matching priority. A token that is a textual
// prefix of another one must come after it.
var relationalOperators = []Operator{
	OperatorEqual,
	OperatorNotEqual,
	OperatorGreaterOrEqual,
	OperatorLessOrEqual,
	OperatorStartsWith,
	OperatorEndsWith,
	OperatorContains,
	OperatorGreater,
	OperatorLess,
}

var logicalOperators = []Operator{OperatorAnd, OperatorOr}

// String returns the canonical token.
func (o Operator) String() string {
	return string(o)
}

// IsRelational reports whether o compares a field against a value.
func (o Operator) IsRelational() bool {
	for _, op := range relationalOperators {
		if op == o {
			return true
		}
	}
	return false
}

// IsLogical reports whether o combines conditions.
func (o Operator) IsLogical() bool {
	return o == OperatorAnd || o == OperatorOr
}

// Resolve maps a token to its operator. Unrecognized tokens fail with
// ErrUnknownOperator.
func Resolve(token string) (Operator, error) {
	op := Operator(token)
	if op.IsRelational() || op.IsLogical() {
		return op, nil
	}
	return "", newError(ErrUnknownOperator, "", token, "")
}

// RelationalOperators returns the relational operators in priority order.
func RelationalOperators() []Operator {
	out := make([]Operator, len(relationalOperators))
	copy(out, relationalOperators)
	return out
}

// LogicalOperators returns the logical operators.
func LogicalOperators() []Operator {
	out := make([]Operator, len(logicalOperators))
	copy(out, logicalOperators)
	return out
}

// IndexOperator finds the leftmost relational operator in s. At each position
// operators are tried in priority order, so ">=" wins over ">". It returns the
// byte index of the match and the operator, or -1 when s holds none.
func IndexOperator(s string) (int, Operator) {
	for i := 0; i < len(s); i++ {
		rest := s[i:]
		for _, op := range relationalOperators {
			if strings.HasPrefix(rest, string(op)) {
				return i, op
			}
		}
	}
	return -1, ""
}
