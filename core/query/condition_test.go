package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelational(t *testing.T) {
	r, err := NewRelational("first_name", OperatorStartsWith, "Jo")
	require.NoError(t, err)
	assert.Equal(t, "first_name^=Jo", r.String())

	_, err = NewRelational("first name", OperatorEqual, "x")
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = NewRelational("a", OperatorAnd, "x")
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = NewRelational("a", Operator("~="), "x")
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestNewLogical(t *testing.T) {
	l, err := NewLogical(OperatorOr, Where("a").Eq("1"))
	require.NoError(t, err)
	assert.Len(t, l.Subconditions, 1)

	_, err = NewLogical(OperatorAnd)
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = NewLogical(OperatorAnd, Where("a").Eq("1"), nil)
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = NewLogical(OperatorEqual, Where("a").Eq("1"))
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = NewLogical(Operator("xor"), Where("a").Eq("1"))
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestLogicalString(t *testing.T) {
	tests := []struct {
		name     string
		cond     Condition
		expected string
	}{
		{
			name:     "flat",
			cond:     And(Where("a").Eq("1"), Where("b").Gt("2")),
			expected: "a==1 AND b>2",
		},
		{
			name:     "nested groups are parenthesized",
			cond:     Or(And(Where("a").Eq("1"), Where("b").Eq("2")), Where("c").Eq("3")),
			expected: "(a==1 AND b==2) OR c==3",
		},
		{
			name: "mixed depth keeps order",
			cond: And(
				Where("x").Lt("0"),
				Or(Where("a").Eq("1"), And(Where("b").Lte("2"), Where("c").Gte("3"))),
				Where("d").Neq("4"),
			),
			expected: "x<0 AND (a==1 OR (b<=2 AND c>=3)) AND d!=4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cond.String())
		})
	}
}

func TestRender(t *testing.T) {
	var leaves []string
	leaf := func(r Relational) (string, error) {
		leaves = append(leaves, r.Field)
		return r.Field + "?", nil
	}

	s, err := Render(Or(And(Where("a").Eq("1"), Where("b").Eq("2")), Where("c").Eq("3")), leaf, true)
	require.NoError(t, err)
	assert.Equal(t, "((a? AND b?) OR c?)", s)
	assert.Equal(t, []string{"a", "b", "c"}, leaves)

	s, err = Render(Where("a").Eq("1"), leaf, true)
	require.NoError(t, err)
	assert.Equal(t, "a?", s, "a lone leaf is never wrapped")
}

func TestRenderDeepNesting(t *testing.T) {
	const depth = 200000
	var c Condition = Where("a").Eq("1")
	for i := 0; i < depth; i++ {
		c = And(c, Where("b").Eq("2"))
	}

	s, err := Render(c, func(r Relational) (string, error) { return r.Field + "?", nil }, false)
	require.NoError(t, err)
	expected := strings.Repeat("(", depth-1) + "a?" + strings.Repeat(" AND b?)", depth-1) + " AND b?"
	assert.Equal(t, expected, s)
}

func TestRenderErrors(t *testing.T) {
	ok := func(r Relational) (string, error) { return r.String(), nil }

	_, err := Render(nil, ok, false)
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = Render(And(), ok, false)
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = Render(And(Where("a").Eq("1"), (*Logical)(nil)), ok, false)
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = Render(&Logical{Operator: OperatorEqual, Subconditions: []Condition{Where("a").Eq("1")}}, ok, false)
	assert.ErrorIs(t, err, ErrMalformedCondition)

	_, err = Render(&Logical{Operator: "xor", Subconditions: []Condition{Where("a").Eq("1")}}, ok, false)
	assert.ErrorIs(t, err, ErrUnknownOperator)

	boom := errors.New("boom")
	_, err = Render(And(Where("a").Eq("1")), func(Relational) (string, error) { return "", boom }, false)
	assert.ErrorIs(t, err, boom)
}

func TestBuilder(t *testing.T) {
	tests := []struct {
		got      Relational
		expected Relational
	}{
		{Where("a").Eq("1"), Relational{"a", OperatorEqual, "1"}},
		{Where("a").Neq("1"), Relational{"a", OperatorNotEqual, "1"}},
		{Where("a").Gt("1"), Relational{"a", OperatorGreater, "1"}},
		{Where("a").Gte("1"), Relational{"a", OperatorGreaterOrEqual, "1"}},
		{Where("a").Lt("1"), Relational{"a", OperatorLess, "1"}},
		{Where("a").Lte("1"), Relational{"a", OperatorLessOrEqual, "1"}},
		{Where("a").StartsWith("Jo"), Relational{"a", OperatorStartsWith, "Jo"}},
		{Where("a").EndsWith("hn"), Relational{"a", OperatorEndsWith, "hn"}},
		{Where("a").Contains("oh"), Relational{"a", OperatorContains, "oh"}},
		{Where("a").IsNull(), Relational{"a", OperatorEqual, "null"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.got)
	}
}

func TestAndAll(t *testing.T) {
	a := Where("a").Eq("1")
	b := Where("b").Eq("2")

	assert.Nil(t, AndAll())
	assert.Nil(t, AndAll(nil, (*Logical)(nil)))
	assert.Equal(t, a, AndAll(nil, a))

	got := AndAll(a, nil, b)
	require.IsType(t, &Logical{}, got)
	assert.Equal(t, "a==1 AND b==2", got.String())
}
