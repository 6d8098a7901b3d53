package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	FieldName string `json:"fieldName"`
	SortOrder string `json:"sortOrder"`
}

func TestMapToStruct(t *testing.T) {
	o, err := MapToStruct[order](map[string]any{"fieldName": "name", "sortOrder": "DESC", "extra": 1})
	require.NoError(t, err)
	assert.Equal(t, order{FieldName: "name", SortOrder: "DESC"}, o)

	p, err := MapToStruct[*order](map[string]any{"fieldName": "id"})
	require.NoError(t, err)
	assert.Equal(t, "id", p.FieldName)

	_, err = MapToStruct[order](nil)
	assert.Error(t, err)

	_, err = MapToStruct[string](map[string]any{})
	assert.ErrorContains(t, err, "must be a struct type")

	_, err = MapToStruct[order](map[string]any{"fieldName": 5})
	assert.ErrorContains(t, err, "failed to unmarshal")
}

func TestDecodeJSON(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"operator":"and","grouping":[{"condition":"a==1"}],"n":1}`))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "and", m["operator"])
	assert.Equal(t, json.Number("1"), m["n"])
	assert.IsType(t, []any{}, m["grouping"])

	_, err = DecodeJSON([]byte(`{"a":1} {"b":2}`))
	assert.ErrorContains(t, err, "unexpected data")

	_, err = DecodeJSON([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestLooksLikeJSON(t *testing.T) {
	assert.True(t, LooksLikeJSON(`{"condition":"a==1"}`))
	assert.True(t, LooksLikeJSON("  [\"a==1\"]"))
	assert.False(t, LooksLikeJSON("a==1"))
	assert.False(t, LooksLikeJSON("   "))
}
