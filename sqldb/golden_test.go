package sqldb

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/entities"
	"github.com/xandalm/contacts-query/utils"
)

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "NULL"
		} else {
			parts[i] = fmt.Sprintf("%q", a)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// TestCompiledListGolden pins the full statements produced for whole list
// requests, from raw client input to dialect-specific SQL.
func TestCompiledListGolden(t *testing.T) {
	tests := []struct {
		name    string
		entity  string
		dialect Dialect
		where   string
		order   any
		page    *int
		limit   *int
	}{
		{
			name:    "person_tree_sqlite",
			entity:  entities.PersonEntity,
			dialect: SQLite,
			where: `{"operator":"or","grouping":[
				{"operator":"and","grouping":[{"condition":"name^=Jo"},{"condition":"status==1"}]},
				{"condition":"deleted_moment==null"}]}`,
			order: []string{"name:desc", "id"},
			page:  query.IntPtr(2),
			limit: query.IntPtr(10),
		},
		{
			name:    "contact_owner_postgres",
			entity:  entities.ContactEntity,
			dialect: Postgres,
			where:   `[{"condition":"owner==` + ownerID + `"},{"condition":"created_moment>=2023-1-1"}]`,
			limit:   query.IntPtr(5),
		},
		{
			name:    "contacts_group_mysql",
			entity:  entities.ContactsGroupEntity,
			dialect: MySQL,
			order:   map[string]any{"fieldName": "number", "sortOrder": "DESC"},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := entities.MustLookup(tt.entity)
			c, err := NewCompiler(def, WithDialect(tt.dialect))
			require.NoError(t, err)

			var where any
			if tt.where != "" {
				where, err = utils.DecodeJSON([]byte(tt.where))
				require.NoError(t, err)
			}
			q, err := query.NewListQuery(tt.page, tt.limit, where, tt.order)
			require.NoError(t, err)
			list, err := c.CompileList(q)
			require.NoError(t, err)

			var sb strings.Builder
			if list.Where != nil {
				fmt.Fprintf(&sb, "where: %s\n", list.Where.Statement)
				fmt.Fprintf(&sb, "params: %s\n", formatArgs(list.Where.Params))
			} else {
				sb.WriteString("where: -\n")
			}
			fmt.Fprintf(&sb, "order: %s\n", list.OrderBy)
			fmt.Fprintf(&sb, "offset: %d\n", list.Offset)
			fmt.Fprintf(&sb, "limit: %d\n", list.Limit)

			stmt, args, err := ToSQL(def, SelectBuilder(tt.dialect, def, list))
			require.NoError(t, err)
			fmt.Fprintf(&sb, "select: %s\n", stmt)
			fmt.Fprintf(&sb, "select args: %s\n", formatArgs(args))

			stmt, args, err = ToSQL(def, CountBuilder(tt.dialect, def, list.CountWhere()))
			require.NoError(t, err)
			fmt.Fprintf(&sb, "count: %s\n", stmt)
			fmt.Fprintf(&sb, "count args: %s\n", formatArgs(args))

			g.Assert(t, tt.name, []byte(sb.String()))
		})
	}
}
