package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const notesSchema = `{
  "name": "note",
  "table": "Notes",
  "version": "1.0.0",
  "fields": {
    "id": { "name": "id", "type": "integer", "required": true },
    "title": { "name": "title", "type": "string" },
    "due": { "name": "due", "type": "date" },
    "author": {
      "name": "author",
      "type": "reference",
      "reference": { "table": "Persons", "column": "id", "key": "public_id" }
    },
    "label": { "name": "label", "type": "string", "expression": "UPPER(title)" }
  },
  "filterable": ["title", "id", "label"],
  "indexes": [{ "name": "pk_notes", "fields": ["id"], "type": "primary" }]
}`

func TestLoadDefinition(t *testing.T) {
	def, err := LoadDefinition([]byte(notesSchema))
	require.NoError(t, err)

	assert.Equal(t, "Notes", def.Table)
	assert.Equal(t, []string{"author", "due", "id", "label", "title"}, def.FieldNames())
	assert.Equal(t, []string{"title", "id", "label"}, def.AllowList().Names())
	assert.True(t, def.Field("label").Virtual())
	assert.False(t, def.Field("title").Virtual())
	assert.Nil(t, def.Field("missing"))

	assert.True(t, def.IsDateField("due"))
	assert.True(t, def.IsDateField(CreatedMomentField))
	assert.True(t, def.IsDateField(DeletedMomentField))
	assert.False(t, def.IsDateField("title"))
}

func TestLoadDefinitionInvalidJSON(t *testing.T) {
	_, err := LoadDefinition([]byte(`{"name":`))
	assert.ErrorContains(t, err, "failed to unmarshal entity definition")
}

func TestValidate(t *testing.T) {
	valid := func() *EntityDefinition {
		def, err := LoadDefinition([]byte(notesSchema))
		require.NoError(t, err)
		return def
	}

	tests := []struct {
		name    string
		mutate  func(d *EntityDefinition)
		message string
	}{
		{"missing name", func(d *EntityDefinition) { d.Name = "" }, "entity name is required"},
		{"bad table", func(d *EntityDefinition) { d.Table = "Notes; DROP" }, "invalid table name"},
		{"no fields", func(d *EntityDefinition) { d.Fields = nil; d.Filterable = nil; d.Indexes = nil }, "at least one field is required"},
		{"key mismatch", func(d *EntityDefinition) { d.Fields["title"].Name = "heading" }, `declared under key "title"`},
		{"unknown type", func(d *EntityDefinition) { d.Fields["title"].Type = "blob" }, "unknown type"},
		{"reference without target", func(d *EntityDefinition) { d.Fields["author"].Reference = nil }, "has no reference definition"},
		{"reference with bad target", func(d *EntityDefinition) { d.Fields["author"].Reference.Key = "public id" }, "invalid target"},
		{"reference on plain field", func(d *EntityDefinition) {
			d.Fields["title"].Reference = &ReferenceDefinition{Table: "T", Column: "c", Key: "k"}
		}, "is not a reference"},
		{"undeclared filterable", func(d *EntityDefinition) { d.Filterable = append(d.Filterable, "secret") }, `filterable field "secret" is not declared`},
		{"duplicate filterable", func(d *EntityDefinition) { d.Filterable = append(d.Filterable, "id") }, "listed twice"},
		{"index on unknown field", func(d *EntityDefinition) {
			d.Indexes = append(d.Indexes, IndexDefinition{Name: "ix", Fields: []string{"nope"}})
		}, "references unknown field"},
		{"index on computed field", func(d *EntityDefinition) {
			d.Indexes = append(d.Indexes, IndexDefinition{Name: "ix", Fields: []string{"label"}})
		}, "references computed field"},
		{"empty index", func(d *EntityDefinition) {
			d.Indexes = append(d.Indexes, IndexDefinition{Name: "ix"})
		}, "has no fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid()
			tt.mutate(def)
			assert.ErrorContains(t, def.Validate(), tt.message)
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, s := range []string{"Persons", "_x", "created_moment", "a1"} {
		assert.True(t, IsIdentifier(s), s)
	}
	for _, s := range []string{"", "1a", "a b", "a;b", `"a"`} {
		assert.False(t, IsIdentifier(s), s)
	}
}
