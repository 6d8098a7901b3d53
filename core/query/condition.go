package query

import (
	"fmt"
	"regexp"
	"strings"
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Condition is either a Relational leaf or a *Logical node.
type Condition interface {
	fmt.Stringer
	isCondition()
}

// Relational compares a single field against a value, e.g. name==john.
type Relational struct {
	Field    string
	Operator Operator
	Value    string
}

// NewRelational validates and builds a relational condition.
func NewRelational(field string, operator Operator, value string) (Relational, error) {
	if !fieldPattern.MatchString(field) {
		return Relational{}, newError(ErrMalformedCondition, field, "", "field must match [A-Za-z0-9_]+")
	}
	if !operator.IsRelational() {
		if operator.IsLogical() {
			return Relational{}, newError(ErrMalformedCondition, field, operator.String(), "logical operator used in a comparison")
		}
		return Relational{}, newError(ErrUnknownOperator, field, operator.String(), "")
	}
	return Relational{Field: field, Operator: operator, Value: value}, nil
}

func (Relational) isCondition() {}

// String renders the condition back into the inline grammar.
func (r Relational) String() string {
	return r.Field + string(r.Operator) + r.Value
}

// Logical combines its subconditions with and/or. Order is significant.
type Logical struct {
	Operator      Operator
	Subconditions []Condition
}

// NewLogical validates and builds a logical condition. A single subcondition is
// accepted.
func NewLogical(operator Operator, subconditions ...Condition) (*Logical, error) {
	if !operator.IsLogical() {
		if operator.IsRelational() {
			return nil, newError(ErrMalformedCondition, "", operator.String(), "relational operator used to group conditions")
		}
		return nil, newError(ErrUnknownOperator, "", operator.String(), "")
	}
	if len(subconditions) == 0 {
		return nil, newError(ErrMalformedCondition, "", "", "a group needs at least one condition")
	}
	for _, c := range subconditions {
		if c == nil {
			return nil, newError(ErrMalformedCondition, "", "", "nil condition in group")
		}
	}
	return &Logical{Operator: operator, Subconditions: subconditions}, nil
}

func (*Logical) isCondition() {}

// String renders the tree with AND/OR, parenthesizing every nested group.
func (l *Logical) String() string {
	s, err := Render(l, func(r Relational) (string, error) { return r.String(), nil }, false)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return s
}

// LeafRenderer turns a relational leaf into its textual form.
type LeafRenderer func(r Relational) (string, error)

type renderFrame struct {
	node *Logical
	sep  string
	next int
}

// Render walks c depth-first, left to right, with an explicit stack instead of
// recursion, so hostile nesting cannot exhaust the goroutine stack. Output is
// written to a single buffer as the walk proceeds. Leaves are handed to leaf
// in source order. Nested groups are always parenthesized; the outermost
// group only when wrapRoot is set.
func Render(c Condition, leaf LeafRenderer, wrapRoot bool) (string, error) {
	switch root := c.(type) {
	case Relational:
		return leaf(root)
	case *Logical:
		frame, err := newRenderFrame(root)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		if wrapRoot {
			b.WriteByte('(')
		}
		stack := []*renderFrame{frame}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next == len(top.node.Subconditions) {
				stack = stack[:len(stack)-1]
				if len(stack) > 0 || wrapRoot {
					b.WriteByte(')')
				}
				continue
			}
			child := top.node.Subconditions[top.next]
			if top.next > 0 {
				b.WriteString(top.sep)
			}
			top.next++
			switch ch := child.(type) {
			case Relational:
				s, err := leaf(ch)
				if err != nil {
					return "", err
				}
				b.WriteString(s)
			case *Logical:
				f, err := newRenderFrame(ch)
				if err != nil {
					return "", err
				}
				b.WriteByte('(')
				stack = append(stack, f)
			default:
				return "", unsupportedCondition(child)
			}
		}
		return b.String(), nil
	default:
		return "", unsupportedCondition(c)
	}
}

func newRenderFrame(l *Logical) (*renderFrame, error) {
	if l == nil {
		return nil, newError(ErrMalformedCondition, "", "", "nil group")
	}
	if len(l.Subconditions) == 0 {
		return nil, newError(ErrMalformedCondition, "", "", "a group needs at least one condition")
	}
	sep, err := joiner(l.Operator)
	if err != nil {
		return nil, err
	}
	return &renderFrame{node: l, sep: sep}, nil
}

func joiner(op Operator) (string, error) {
	switch op {
	case OperatorAnd:
		return " AND ", nil
	case OperatorOr:
		return " OR ", nil
	default:
		if op.IsRelational() {
			return "", newError(ErrMalformedCondition, "", op.String(), "relational operator used to group conditions")
		}
		return "", newError(ErrUnknownOperator, "", op.String(), "")
	}
}

func unsupportedCondition(c Condition) error {
	if c == nil {
		return newError(ErrMalformedCondition, "", "", "nil condition")
	}
	return newError(ErrMalformedCondition, "", "", fmt.Sprintf("unsupported condition type %T", c))
}
