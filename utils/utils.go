// Package utils holds small JSON helpers shared by the query and cli packages.
package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// MapToStruct converts a decoded JSON object into a new value of the struct
// type T by re-encoding it, so `json:"..."` tags drive the mapping.
//
// T must be a struct type or a pointer to one. A nil input, a non-struct T, or
// values whose JSON types do not fit T's fields return an error.
//
// Example:
//
//	type order struct {
//		FieldName string `json:"fieldName"`
//	}
//	o, err := MapToStruct[order](map[string]any{"fieldName": "name"})
//	// o.FieldName == "name"
func MapToStruct[T any](input map[string]any) (T, error) {
	var zero T

	if input == nil {
		return zero, fmt.Errorf("MapToStruct: input map cannot be nil")
	}

	typ := reflect.TypeOf(zero)
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return zero, fmt.Errorf("MapToStruct: generic type T must be a struct type (or pointer to struct), got %v", typ)
	}

	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to marshal input map to JSON: %w", err)
	}

	var result T
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return zero, fmt.Errorf("MapToStruct: failed to unmarshal JSON to target struct: %w", err)
	}
	return result, nil
}

// DecodeJSON decodes a document into generic values (map[string]any, []any,
// string, json.Number, bool, nil). Trailing data after the first value is an
// error.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("DecodeJSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("DecodeJSON: unexpected data after the first JSON value")
	}
	return v, nil
}

// LooksLikeJSON reports whether s starts, after leading blanks, with an object
// or array delimiter.
func LooksLikeJSON(s string) bool {
	trimmed := bytes.TrimSpace([]byte(s))
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
