package sqldb

import (
	"fmt"
	"strings"

	"github.com/xandalm/contacts-query/core/persistence"
	"github.com/xandalm/contacts-query/core/schema"
)

// DefaultInteractorOptions returns a set of sensible default options for the
// interactor: tables and their indexes are created only when missing.
func DefaultInteractorOptions() *persistence.InteractorOptions {
	return &persistence.InteractorOptions{
		IfNotExists:   true, // Prevent errors if a table already exists.
		CreateIndexes: true, // Automatically create indexes defined in the definition.
	}
}

// CreateTableSQL generates the CREATE TABLE statement for def. Computed fields
// have no column.
func CreateTableSQL(d Dialect, def *schema.EntityDefinition, options *persistence.InteractorOptions) (string, error) {
	if options == nil {
		options = DefaultInteractorOptions()
	}
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(d.QuoteIdentifier(def.Table) + " (\n")

	var primaryKeys []string
	for _, index := range def.Indexes {
		if index.Type == schema.IndexTypePrimary && len(index.Fields) > 0 {
			primaryKeys = index.Fields
			break
		}
	}

	columns := Columns(def)
	if len(columns) == 0 {
		return "", fmt.Errorf("entity %s has no stored columns", def.Name)
	}
	defs := make([]string, 0, len(columns))
	for _, name := range columns {
		columnDef, err := buildColumnDefinition(d, def.Fields[name])
		if err != nil {
			return "", fmt.Errorf("error on field '%s': %w", name, err)
		}
		defs = append(defs, "    "+columnDef)
	}
	sb.WriteString(strings.Join(defs, ",\n"))

	if len(primaryKeys) > 0 {
		sb.WriteString(",\n    PRIMARY KEY (" + strings.Join(primaryKeys, ", ") + ")")
	}

	sb.WriteString("\n);")
	return sb.String(), nil
}

// buildColumnDefinition constructs the DDL string for a single column, including its
// name, data type, and any constraints.
func buildColumnDefinition(d Dialect, field *schema.FieldDefinition) (string, error) {
	colType, err := ColumnType(d, field.Type)
	if err != nil {
		return "", err
	}
	parts := []string{field.Name, colType}
	if field.Required != nil && *field.Required {
		parts = append(parts, "NOT NULL")
	}
	if field.Unique != nil && *field.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " "), nil
}

// ColumnType maps a schema.FieldType to the column type of a dialect.
func ColumnType(d Dialect, fieldType schema.FieldType) (string, error) {
	switch fieldType {
	case schema.FieldTypeString:
		if d.Driver == MySQL.Driver {
			return "VARCHAR(255)", nil
		}
		return "TEXT", nil
	case schema.FieldTypeInteger, schema.FieldTypeReference:
		if d.Driver == Postgres.Driver {
			return "BIGINT", nil
		}
		return "INTEGER", nil
	case schema.FieldTypeBoolean:
		if d.Driver == SQLite.Driver {
			return "INTEGER", nil
		}
		return "BOOLEAN", nil
	case schema.FieldTypeDate:
		return "DATE", nil
	case schema.FieldTypeDatetime:
		if d.Driver == Postgres.Driver {
			return "TIMESTAMP", nil
		}
		return "DATETIME", nil
	default:
		return "", fmt.Errorf("unsupported field type %q", fieldType)
	}
}

// CreateIndexSQL generates the DDL SQL string for creating an index. Primary
// keys are part of the table and render as an empty string.
func CreateIndexSQL(d Dialect, def *schema.EntityDefinition, index schema.IndexDefinition) string {
	if index.Type == schema.IndexTypePrimary {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if index.Type == schema.IndexTypeUnique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX ")
	if d.Driver != MySQL.Driver {
		sb.WriteString("IF NOT EXISTS ")
	}
	indexName := index.Name
	if indexName == "" {
		indexName = fmt.Sprintf("idx_%s_%s", def.Table, strings.Join(index.Fields, "_"))
	}
	sb.WriteString(d.QuoteIdentifier(indexName))
	sb.WriteString(fmt.Sprintf(" ON %s (%s);", d.QuoteIdentifier(def.Table), strings.Join(index.Fields, ", ")))
	return sb.String()
}
