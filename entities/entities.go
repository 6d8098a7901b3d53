// Package entities holds the definitions of the entities exposed by the list
// API: persons, their contacts and their contact groups.
package entities

import (
	"fmt"
	"slices"
	"sync"

	"github.com/xandalm/contacts-query/core/schema"
)

// Entity names, as used by the CLI and the persistence registry.
const (
	PersonEntity        = "person"
	ContactEntity       = "contact"
	ContactsGroupEntity = "contacts_group"
)

var personSchema = []byte(`
{
  "name": "person",
  "table": "Persons",
  "version": "1.0.0",
  "description": "A registered person.",
  "fields": {
    "id": { "name": "id", "type": "integer", "required": true },
    "public_id": {
      "name": "public_id",
      "type": "string",
      "required": true,
      "unique": true,
      "description": "Identifier shared with API clients."
    },
    "name": {
      "name": "name",
      "type": "string",
      "expression": "CONCAT(first_name,' ',last_name)",
      "description": "First and last name separated by a space."
    },
    "first_name": { "name": "first_name", "type": "string", "required": true },
    "last_name": { "name": "last_name", "type": "string", "required": true },
    "birthday": { "name": "birthday", "type": "date" },
    "email": { "name": "email", "type": "string", "unique": true },
    "status": {
      "name": "status",
      "type": "boolean",
      "description": "True when the person is active."
    },
    "created_moment": { "name": "created_moment", "type": "datetime" },
    "deleted_moment": { "name": "deleted_moment", "type": "datetime" }
  },
  "filterable": [
    "id", "public_id", "name", "first_name", "last_name",
    "birthday", "email", "status", "created_moment", "deleted_moment"
  ],
  "indexes": [
    { "name": "pk_persons", "fields": ["id"], "type": "primary" },
    { "name": "uq_persons_public_id", "fields": ["public_id"], "type": "unique" }
  ]
}
`)

var contactSchema = []byte(`
{
  "name": "contact",
  "table": "Contacts",
  "version": "1.0.0",
  "description": "A person kept in another person's contact list.",
  "fields": {
    "id": { "name": "id", "type": "integer", "required": true },
    "owner": {
      "name": "owner",
      "type": "reference",
      "required": true,
      "description": "The person who created the contact.",
      "reference": { "table": "Persons", "column": "id", "key": "public_id" }
    },
    "person": {
      "name": "person",
      "type": "reference",
      "required": true,
      "description": "The person the contact points to.",
      "reference": { "table": "Persons", "column": "id", "key": "public_id" }
    },
    "created_moment": { "name": "created_moment", "type": "datetime" },
    "deleted_moment": { "name": "deleted_moment", "type": "datetime" }
  },
  "filterable": ["id", "owner", "person", "created_moment", "deleted_moment"],
  "indexes": [
    { "name": "pk_contacts", "fields": ["id"], "type": "primary" },
    { "name": "uq_contacts_owner_person", "fields": ["owner", "person"], "type": "unique" }
  ]
}
`)

var contactsGroupSchema = []byte(`
{
  "name": "contacts_group",
  "table": "ContactsGroups",
  "version": "1.0.0",
  "description": "A named group of contacts, numbered per owner.",
  "fields": {
    "number": {
      "name": "number",
      "type": "integer",
      "required": true,
      "description": "Position of the group among its owner's groups."
    },
    "owner": {
      "name": "owner",
      "type": "reference",
      "required": true,
      "reference": { "table": "Persons", "column": "id", "key": "public_id" }
    },
    "description": { "name": "description", "type": "string", "required": true },
    "created_moment": { "name": "created_moment", "type": "datetime" }
  },
  "filterable": ["owner", "number", "description", "created_moment"],
  "indexes": [
    { "name": "pk_contacts_groups", "fields": ["owner", "number"], "type": "primary" }
  ]
}
`)

var (
	loadOnce sync.Once
	loaded   map[string]*schema.EntityDefinition
	loadErr  error
)

func load() (map[string]*schema.EntityDefinition, error) {
	loadOnce.Do(func() {
		loaded = make(map[string]*schema.EntityDefinition, 3)
		for name, data := range map[string][]byte{
			PersonEntity:        personSchema,
			ContactEntity:       contactSchema,
			ContactsGroupEntity: contactsGroupSchema,
		} {
			def, err := schema.LoadDefinition(data)
			if err != nil {
				loadErr = fmt.Errorf("failed to load %s definition: %w", name, err)
				return
			}
			loaded[name] = def
		}
	})
	return loaded, loadErr
}

// Lookup returns the named entity definition. The returned definition is
// shared and must not be modified.
func Lookup(name string) (*schema.EntityDefinition, error) {
	defs, err := load()
	if err != nil {
		return nil, err
	}
	def, ok := defs[name]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q (known: %v)", name, Names())
	}
	return def, nil
}

// MustLookup is like Lookup but panics when the entity is unknown. Used for
// the built-in names only.
func MustLookup(name string) *schema.EntityDefinition {
	def, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return def
}

// Person returns the person definition.
func Person() *schema.EntityDefinition { return MustLookup(PersonEntity) }

// Contact returns the contact definition.
func Contact() *schema.EntityDefinition { return MustLookup(ContactEntity) }

// ContactsGroup returns the contacts group definition.
func ContactsGroup() *schema.EntityDefinition { return MustLookup(ContactsGroupEntity) }

// Names returns the known entity names, sorted.
func Names() []string {
	names := []string{PersonEntity, ContactEntity, ContactsGroupEntity}
	slices.Sort(names)
	return names
}

// All returns every definition in Names order.
func All() ([]*schema.EntityDefinition, error) {
	defs := make([]*schema.EntityDefinition, 0, 3)
	for _, name := range Names() {
		def, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
