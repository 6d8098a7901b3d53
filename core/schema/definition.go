// Package schema declares the entities that can be listed, the shape of their
// fields, and which of those fields a caller may filter or order by.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString    FieldType = "string"    // Text data
	FieldTypeInteger   FieldType = "integer"   // Numeric data
	FieldTypeBoolean   FieldType = "boolean"   // True/false values
	FieldTypeDate      FieldType = "date"      // Calendar date, YYYY-MM-DD
	FieldTypeDatetime  FieldType = "datetime"  // Point in time
	FieldTypeReference FieldType = "reference" // Row of another entity, addressed by its public key
)

var fieldTypes = []FieldType{
	FieldTypeString,
	FieldTypeInteger,
	FieldTypeBoolean,
	FieldTypeDate,
	FieldTypeDatetime,
	FieldTypeReference,
}

// IndexType represents index types for optimizing different query patterns.
type IndexType string

const (
	IndexTypeNormal  IndexType = "normal"  // General-purpose index
	IndexTypeUnique  IndexType = "unique"  // Unique index
	IndexTypePrimary IndexType = "primary" // Primary key index (implies unique)
)

// Document is a single row, keyed by column name.
type Document = map[string]any

// ReferenceDefinition describes how a reference field is resolved. A value
// given for the field is matched against Key in Table, and the row's Column is
// what the field actually stores.
type ReferenceDefinition struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Key    string `json:"key"`
}

// FieldDefinition defines a single field of an entity.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Required indicates if the column is NOT NULL.
	Required *bool `json:"required,omitempty"`
	// Unique indicates if the field must have unique values.
	Unique *bool `json:"unique,omitempty"`
	// Description provides a brief explanation of the field.
	Description *string `json:"description,omitempty"`
	// Expression replaces the column name wherever the field is used in SQL.
	// Fields with an expression have no column of their own.
	Expression *string `json:"expression,omitempty"`
	// Reference is set for fields of type reference.
	Reference *ReferenceDefinition `json:"reference,omitempty"`
}

// Virtual reports whether the field is computed from other columns.
func (f *FieldDefinition) Virtual() bool {
	return f.Expression != nil && *f.Expression != ""
}

// IndexDefinition declares an index over one or more columns.
type IndexDefinition struct {
	Name   string    `json:"name"`
	Fields []string  `json:"fields"`
	Type   IndexType `json:"type"`
}

// EntityDefinition describes a listable entity: the table it lives in, its
// fields and the ordered set of fields that may appear in filters and
// orderings.
type EntityDefinition struct {
	Name        string                      `json:"name"`
	Table       string                      `json:"table"`
	Version     string                      `json:"version"`
	Description *string                     `json:"description,omitempty"`
	Fields      map[string]*FieldDefinition `json:"fields"` // Map of field names to FieldDefinition
	// Filterable lists the fields a caller may filter or order by, in the
	// order they are reported.
	Filterable []string          `json:"filterable"`
	Indexes    []IndexDefinition `json:"indexes,omitempty"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s can be used unquoted as a table or column
// name.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// LoadDefinition decodes a JSON entity definition and validates it.
func LoadDefinition(data []byte) (*EntityDefinition, error) {
	var def EntityDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Field returns the named field, or nil when the entity has no such field.
func (d *EntityDefinition) Field(name string) *FieldDefinition {
	if d == nil {
		return nil
	}
	return d.Fields[name]
}

// FieldNames returns every declared field name in sorted order.
func (d *EntityDefinition) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AllowList returns the entity's filterable fields as a capability set.
func (d *EntityDefinition) AllowList() FieldSet {
	return NewFieldSet(d.Filterable...)
}

// IsDateField reports whether values of the named field must be shaped like a
// calendar date. The reserved moment fields always are.
func (d *EntityDefinition) IsDateField(name string) bool {
	if IsReservedDateField(name) {
		return true
	}
	f := d.Field(name)
	return f != nil && f.Type == FieldTypeDate
}

// Validate checks that the definition is internally consistent. All problems
// found are reported together.
func (d *EntityDefinition) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("entity name is required"))
	}
	if !IsIdentifier(d.Table) {
		errs = append(errs, fmt.Errorf("entity %q: invalid table name %q", d.Name, d.Table))
	}
	if len(d.Fields) == 0 {
		errs = append(errs, fmt.Errorf("entity %q: at least one field is required", d.Name))
	}

	for _, key := range d.FieldNames() {
		f := d.Fields[key]
		if f == nil {
			errs = append(errs, fmt.Errorf("entity %q: field %q has no definition", d.Name, key))
			continue
		}
		if f.Name != key {
			errs = append(errs, fmt.Errorf("entity %q: field %q is declared under key %q", d.Name, f.Name, key))
		}
		if !IsIdentifier(key) {
			errs = append(errs, fmt.Errorf("entity %q: invalid field name %q", d.Name, key))
		}
		if !slices.Contains(fieldTypes, f.Type) {
			errs = append(errs, fmt.Errorf("entity %q: field %q has unknown type %q", d.Name, key, f.Type))
		}
		if err := validateReference(f); err != nil {
			errs = append(errs, fmt.Errorf("entity %q: %w", d.Name, err))
		}
	}

	seen := make(map[string]struct{}, len(d.Filterable))
	for _, name := range d.Filterable {
		if _, ok := d.Fields[name]; !ok {
			errs = append(errs, fmt.Errorf("entity %q: filterable field %q is not declared", d.Name, name))
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("entity %q: filterable field %q listed twice", d.Name, name))
		}
		seen[name] = struct{}{}
	}

	for _, idx := range d.Indexes {
		if len(idx.Fields) == 0 {
			errs = append(errs, fmt.Errorf("entity %q: index %q has no fields", d.Name, idx.Name))
		}
		for _, name := range idx.Fields {
			f, ok := d.Fields[name]
			if !ok || f == nil {
				errs = append(errs, fmt.Errorf("entity %q: index %q references unknown field %q", d.Name, idx.Name, name))
			} else if f.Virtual() {
				errs = append(errs, fmt.Errorf("entity %q: index %q references computed field %q", d.Name, idx.Name, name))
			}
		}
	}

	return errors.Join(errs...)
}

func validateReference(f *FieldDefinition) error {
	if f.Type != FieldTypeReference {
		if f.Reference != nil {
			return fmt.Errorf("field %q is not a reference but declares one", f.Name)
		}
		return nil
	}
	if f.Reference == nil {
		return fmt.Errorf("reference field %q has no reference definition", f.Name)
	}
	for _, part := range []string{f.Reference.Table, f.Reference.Column, f.Reference.Key} {
		if !IsIdentifier(part) {
			return fmt.Errorf("reference field %q has invalid target %q", f.Name, part)
		}
	}
	return nil
}
