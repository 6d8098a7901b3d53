package sqldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/entities"
)

var personIDs = []string{
	"0b5e1c3a-7f0e-4c55-9a8f-1c2d3e4f5a01",
	"0b5e1c3a-7f0e-4c55-9a8f-1c2d3e4f5a02",
	"0b5e1c3a-7f0e-4c55-9a8f-1c2d3e4f5a03",
	"0b5e1c3a-7f0e-4c55-9a8f-1c2d3e4f5a04",
}

func setupInteractor(t *testing.T) *Interactor {
	t.Helper()
	ctx := context.Background()

	db, d, err := Open(ctx, ConnectionOptions{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	i := NewInteractor(db, d, nil, nil)
	for _, name := range []string{entities.PersonEntity, entities.ContactEntity} {
		require.NoError(t, i.CreateCollection(ctx, entities.MustLookup(name)))
	}

	persons := []map[string]any{
		person(1, "John", "Smith", "1985-03-12", true, nil),
		person(2, "Joanna", "Doe", "1990-07-01", true, nil),
		person(3, "Mary", "Johnson", "1978-11-23", false, "2024-05-01 10:00:00"),
	}
	n, err := i.InsertDocuments(ctx, entities.Person(), persons)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	_, err = i.InsertDocuments(ctx, entities.Contact(), []map[string]any{
		{"id": 1, "owner": 1, "person": 2, "created_moment": "2024-01-01 00:00:00", "deleted_moment": nil},
		{"id": 2, "owner": 1, "person": 3, "created_moment": "2024-01-02 00:00:00", "deleted_moment": nil},
		{"id": 3, "owner": 2, "person": 1, "created_moment": "2024-01-03 00:00:00", "deleted_moment": nil},
	})
	require.NoError(t, err)
	return i
}

func person(id int, first, last, birthday string, active bool, deleted any) map[string]any {
	return map[string]any{
		"id":             id,
		"public_id":      personIDs[id-1],
		"first_name":     first,
		"last_name":      last,
		"birthday":       birthday,
		"email":          first + "@example.com",
		"status":         active,
		"created_moment": "2023-01-01 00:00:00",
		"deleted_moment": deleted,
	}
}

func compileList(t *testing.T, i *Interactor, entity string, q query.ListQuery) *query.CompiledList {
	t.Helper()
	c, err := i.CompilerFactory().CreateCompiler(entities.MustLookup(entity))
	require.NoError(t, err)
	list, err := c.CompileList(q)
	require.NoError(t, err)
	return list
}

func TestInteractorSelectDocuments(t *testing.T) {
	i := setupInteractor(t)
	ctx := context.Background()

	list := compileList(t, i, entities.PersonEntity, query.ListQuery{
		Condition: query.Where("name").StartsWith("Jo"),
		OrderBy:   []query.OrderSpec{{Field: "name"}},
	})
	rows, err := i.SelectDocuments(ctx, entities.Person(), list)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Joanna", rows[0]["first_name"])
	assert.Equal(t, "John", rows[1]["first_name"])
	assert.Equal(t, int64(1), rows[1]["id"])
	assert.Equal(t, true, rows[1]["status"])
	assert.Equal(t, "1985-03-12", rows[1]["birthday"])
	assert.Nil(t, rows[1]["deleted_moment"])
	assert.NotContains(t, rows[0], "name", "computed fields are not selected")

	list = compileList(t, i, entities.PersonEntity, query.ListQuery{
		Page:    query.IntPtr(2),
		Limit:   query.IntPtr(1),
		OrderBy: []query.OrderSpec{{Field: "id", Direction: query.DirectionDesc}},
	})
	rows, err = i.SelectDocuments(ctx, entities.Person(), list)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0]["id"])

	list = compileList(t, i, entities.PersonEntity, query.ListQuery{Limit: query.IntPtr(0)})
	rows, err = i.SelectDocuments(ctx, entities.Person(), list)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInteractorCountDocuments(t *testing.T) {
	i := setupInteractor(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		entity   string
		cond     query.Condition
		expected int64
	}{
		{"all", entities.PersonEntity, nil, 3},
		{"not deleted", entities.PersonEntity, query.Where("deleted_moment").IsNull(), 2},
		{"inactive", entities.PersonEntity, query.Where("status").Eq("0"), 1},
		{"contains", entities.PersonEntity, query.Where("last_name").Contains("ohn"), 1},
		{"ends with", entities.PersonEntity, query.Where("name").EndsWith("Smith"), 1},
		{"escaped null matches nothing", entities.PersonEntity, query.Where("email").Eq("{null}"), 0},
		{"owner lookup", entities.ContactEntity, query.Where("owner").Eq(personIDs[0]), 2},
		{"person lookup", entities.ContactEntity, query.Where("person").Eq(personIDs[0]), 1},
		{
			"grouped",
			entities.ContactEntity,
			query.Or(query.Where("owner").Eq(personIDs[1]), query.And(query.Where("owner").Eq(personIDs[0]), query.Where("id").Gt("1"))),
			2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := compileList(t, i, tt.entity, query.ListQuery{Condition: tt.cond})
			n, err := i.CountDocuments(ctx, entities.MustLookup(tt.entity), list.CountWhere())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}

func TestInteractorCollectionExists(t *testing.T) {
	i := setupInteractor(t)
	ctx := context.Background()

	ok, err := i.CollectionExists(ctx, "Persons")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = i.CollectionExists(ctx, "ContactsGroups")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, i.CreateCollection(ctx, entities.Person()), "IF NOT EXISTS makes creation repeatable")
}

func TestInteractorInsertErrors(t *testing.T) {
	i := setupInteractor(t)
	ctx := context.Background()

	n, err := i.InsertDocuments(ctx, entities.Person(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = i.InsertDocuments(ctx, entities.Person(), []map[string]any{{"name": "John Smith"}})
	assert.ErrorContains(t, err, `has no column "name"`)

	_, err = i.InsertDocuments(ctx, entities.Person(), []map[string]any{{"id": 9}, {"id": 10, "email": "x"}})
	assert.ErrorContains(t, err, "expected 1")
}

func TestInteractorTransaction(t *testing.T) {
	i := setupInteractor(t)
	ctx := context.Background()

	txi, err := i.StartTransaction(ctx)
	require.NoError(t, err)
	_, err = txi.StartTransaction(ctx)
	assert.Error(t, err)

	_, err = txi.InsertDocuments(ctx, entities.Person(), []map[string]any{person(4, "Ann", "Hohner", "1995-09-09", true, nil)})
	require.NoError(t, err)
	n, err := txi.CountDocuments(ctx, entities.Person(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	require.NoError(t, txi.Rollback(ctx))

	n, err = i.CountDocuments(ctx, entities.Person(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	assert.Error(t, i.Commit(ctx))
	assert.Error(t, i.Rollback(ctx))
}
