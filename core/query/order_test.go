package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	for in, expected := range map[string]Direction{
		"":      DirectionAsc,
		"asc":   DirectionAsc,
		"ASC":   DirectionAsc,
		" desc": DirectionDesc,
		"DESC":  DirectionDesc,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, expected, got, in)
	}

	_, err := ParseDirection("up")
	assert.ErrorIs(t, err, ErrMalformedOrder)
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		name     string
		src      any
		expected []OrderSpec
	}{
		{"absent", nil, nil},
		{"spec defaults to asc", OrderSpec{Field: "name"}, []OrderSpec{{"name", DirectionAsc}}},
		{"spec pointer", &OrderSpec{Field: "name", Direction: "DESC"}, []OrderSpec{{"name", DirectionDesc}}},
		{"token", "email:desc", []OrderSpec{{"email", DirectionDesc}}},
		{"token without direction", "email", []OrderSpec{{"email", DirectionAsc}}},
		{
			"api object",
			map[string]any{"fieldName": "name", "sortOrder": "DESC"},
			[]OrderSpec{{"name", DirectionDesc}},
		},
		{
			"field/direction object",
			map[string]any{"field": "id", "direction": "asc"},
			[]OrderSpec{{"id", DirectionAsc}},
		},
		{
			"sequence keeps input order",
			[]any{
				map[string]any{"fieldName": "last_name"},
				"first_name:desc",
				OrderSpec{Field: "id"},
			},
			[]OrderSpec{{"last_name", DirectionAsc}, {"first_name", DirectionDesc}, {"id", DirectionAsc}},
		},
		{
			"spec slice",
			[]OrderSpec{{Field: "b", Direction: "desc"}, {Field: "a"}},
			[]OrderSpec{{"b", DirectionDesc}, {"a", DirectionAsc}},
		},
		{"string slice", []string{"b", "a:desc"}, []OrderSpec{{"b", DirectionAsc}, {"a", DirectionDesc}}},
		{
			"object slice",
			[]map[string]any{{"fieldName": "a", "sortOrder": "desc"}},
			[]OrderSpec{{"a", DirectionDesc}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrderBy(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseOrderByErrors(t *testing.T) {
	tests := []struct {
		name string
		src  any
	}{
		{"unknown direction", "name:sideways"},
		{"missing field", map[string]any{"sortOrder": "asc"}},
		{"empty token", ""},
		{"field of wrong type", map[string]any{"fieldName": 5}},
		{"nested list", []any{[]any{"a"}}},
		{"null spec", (*OrderSpec)(nil)},
		{"unsupported type", 42},
		{"bad element", []OrderSpec{{Field: "a", Direction: "up"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrderBy(tt.src)
			assert.ErrorIs(t, err, ErrMalformedOrder)
		})
	}
}
