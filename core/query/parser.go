package query

import (
	"fmt"
	"regexp"
)

// DefaultMaxNodes bounds the number of nodes a single tree may hold.
const DefaultMaxNodes = 1000

// inlinePattern is checked before the string is split. Values are limited to
// letters, digits, '-', '_' and space, or one of the literal escapes {null}
// and {undefined}.
var inlinePattern = regexp.MustCompile(`^[A-Za-z0-9_]+(?:==|!=|>=|<=|\^=|\$=|\*=|>|<)(?:[A-Za-z0-9\-_ ]*|\{null\}|\{undefined\})$`)

// Node is the typed form of the tree grammar, for callers that decode the
// filter into structs rather than generic JSON.
type Node struct {
	Operator  string `json:"operator,omitempty"`
	Grouping  []Node `json:"grouping,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// ParseOption configures ParseTree and Parse.
type ParseOption func(*parseOptions)

type parseOptions struct {
	maxNodes      int
	arrayOperator Operator
}

// WithMaxNodes sets the node-count guard. Values below 1 keep the default.
func WithMaxNodes(n int) ParseOption {
	return func(o *parseOptions) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

// WithArrayOperator sets the operator that combines the elements of a bare
// array at the top of the tree. The default is and. An array nested in a
// group always takes that group's operator.
func WithArrayOperator(op Operator) ParseOption {
	return func(o *parseOptions) {
		if op.IsLogical() {
			o.arrayOperator = op
		}
	}
}

func newParseOptions(opts []ParseOption) parseOptions {
	o := parseOptions{maxNodes: DefaultMaxNodes, arrayOperator: OperatorAnd}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ParseInline parses the compact form <field><operator><value>, e.g.
// "age>=18". The string is split at the first operator found, so a value can
// never itself contain an operator token. Values outside the character set
// above, such as email addresses, can only be filtered through Where.
func ParseInline(s string) (Relational, error) {
	if !inlinePattern.MatchString(s) {
		return Relational{}, newError(ErrMalformedCondition, "", s, "expected <field><operator><value>")
	}
	i, op := IndexOperator(s)
	return Relational{
		Field:    s[:i],
		Operator: op,
		Value:    s[i+len(op):],
	}, nil
}

// Parse is the entry point for filters arriving at an API boundary. A nil
// source means no filter. Strings use the inline grammar; anything else is
// handed to ParseTree.
func Parse(src any, opts ...ParseOption) (Condition, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseInline(v)
	case Condition:
		return v, nil
	default:
		return ParseTree(v, opts...)
	}
}

// parseItem is a queued node. arrayOp combines the elements of src when it is
// a bare array: the caller's choice at the top level, otherwise the operator
// of the enclosing group.
type parseItem struct {
	dst     *Condition
	src     any
	arrayOp Operator
}

// ParseTree parses the tree grammar:
//
//	{"operator": "and"|"or", "grouping": [node, ...]}
//	{"condition": "<inline>"}
//	"<inline>"
//	[node, ...]
//
// Nodes are consumed from a FIFO work queue, so the cost depends on the total
// node count and not on nesting depth. Each group reserves a slot per child
// before the children are visited, which keeps sibling order intact.
func ParseTree(src any, opts ...ParseOption) (Condition, error) {
	o := newParseOptions(opts)

	var root Condition
	queue := []parseItem{{dst: &root, src: src, arrayOp: o.arrayOperator}}
	visited := 0
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		visited++
		if visited > o.maxNodes {
			return nil, newError(ErrMalformedCondition, "", "", fmt.Sprintf("condition exceeds %d nodes", o.maxNodes))
		}

		children, err := o.parseNode(item)
		if err != nil {
			return nil, err
		}
		queue = append(queue, children...)
	}
	return root, nil
}

func (o parseOptions) parseNode(item parseItem) ([]parseItem, error) {
	if items, ok := asSlice(item.src); ok {
		return group(item.dst, item.arrayOp, items)
	}

	switch v := item.src.(type) {
	case nil:
		return nil, newError(ErrMalformedCondition, "", "", "null node")
	case string:
		return nil, assignInline(item.dst, v)
	case *Node:
		if v == nil {
			return nil, newError(ErrMalformedCondition, "", "", "null node")
		}
		return o.parseNode(parseItem{dst: item.dst, src: *v, arrayOp: item.arrayOp})
	case Node:
		if v.Operator != "" {
			items, _ := asSlice(v.Grouping)
			return groupToken(item.dst, v.Operator, items)
		}
		if v.Condition != "" {
			return nil, assignInline(item.dst, v.Condition)
		}
		return nil, newError(ErrMalformedCondition, "", "", "node needs operator and grouping, or condition")
	case map[string]any:
		if raw, ok := v["operator"]; ok && raw != nil && raw != "" {
			token, ok := raw.(string)
			if !ok {
				return nil, newError(ErrMalformedCondition, "", fmt.Sprint(raw), "operator must be a string")
			}
			items, ok := asSlice(v["grouping"])
			if !ok {
				return nil, newError(ErrMalformedCondition, "", token, "grouping must be an array")
			}
			return groupToken(item.dst, token, items)
		}
		if raw, ok := v["condition"]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, newError(ErrMalformedCondition, "", fmt.Sprint(raw), "condition must be a string")
			}
			return nil, assignInline(item.dst, s)
		}
		return nil, newError(ErrMalformedCondition, "", "", "node needs operator and grouping, or condition")
	default:
		return nil, newError(ErrMalformedCondition, "", fmt.Sprint(v), fmt.Sprintf("unsupported node type %T", v))
	}
}

func assignInline(dst *Condition, s string) error {
	r, err := ParseInline(s)
	if err != nil {
		return err
	}
	*dst = r
	return nil
}

func groupToken(dst *Condition, token string, items []any) ([]parseItem, error) {
	op, err := Resolve(token)
	if err != nil {
		return nil, err
	}
	return group(dst, op, items)
}

func group(dst *Condition, op Operator, items []any) ([]parseItem, error) {
	if !op.IsLogical() {
		return nil, newError(ErrMalformedCondition, "", op.String(), "relational operator used to group conditions")
	}
	if len(items) == 0 {
		return nil, newError(ErrMalformedCondition, "", op.String(), "grouping must not be empty")
	}
	l := &Logical{Operator: op, Subconditions: make([]Condition, len(items))}
	*dst = l
	children := make([]parseItem, len(items))
	for i, it := range items {
		children[i] = parseItem{dst: &l.Subconditions[i], src: it, arrayOp: op}
	}
	return children, nil
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []Node:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}
