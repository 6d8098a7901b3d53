package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xandalm/contacts-query/core/persistence"
	"github.com/xandalm/contacts-query/core/schema"
	"github.com/xandalm/contacts-query/entities"
	"github.com/xandalm/contacts-query/sqldb"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	RequestFlags
	Entity string
	Owner  string
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a list request against a seeded in-memory database",
		Long: `Seed an in-memory sqlite database with a handful of persons, contacts and
contact groups, then run a list request and print the page with its totals.

With --owner the request is narrowed to the rows owned by that person, the way
the contacts API lists a person's contacts and groups.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts, cmd)
		},
	}

	opts.RequestFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", entities.PersonEntity, "entity to list: "+strings.Join(entities.Names(), ", "))
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "public id of the owning person (contact and contacts_group only)")

	return cmd
}

func runDemo(ctx context.Context, opts *DemoOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, logger, err := opts.settings()
	if err != nil {
		return err
	}
	if _, err := entities.Lookup(opts.Entity); err != nil {
		return formatter.Error(ExitCommandError, "unknown entity", err)
	}

	db, dialect, err := sqldb.Open(ctx, sqldb.ConnectionOptions{Driver: sqldb.SQLite.Driver, Path: sqldb.MemoryPath}, logger)
	if err != nil {
		return formatter.Error(ExitCommandError, "failed to open demo database", err)
	}
	defer db.Close()

	interactor := sqldb.NewInteractor(db, dialect, logger, nil, sqldb.WithPageOptions(cfg.PageOptions()))
	defs, err := entities.All()
	if err != nil {
		return formatter.Error(ExitCommandError, "failed to load entities", err)
	}
	store, err := persistence.NewPersistence(ctx, interactor, logger, defs...)
	if err != nil {
		return formatter.Error(ExitCommandError, "failed to prepare demo database", err)
	}

	id := store.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event: persistence.QueryRejected,
		Callback: func(ctx context.Context, event persistence.PersistenceEvent) error {
			if event.Error != nil {
				logger.Debug("Request rejected", zap.Stringp("entity", event.Collection), zap.String("error", *event.Error))
			}
			return nil
		},
	})
	defer store.UnregisterSubscription(id)

	if err := Seed(ctx, store); err != nil {
		return formatter.Error(ExitCommandError, "failed to seed demo database", err)
	}
	formatter.VerboseLog("Seeded %d persons, %d contacts and %d groups", len(seedPersons), len(seedContacts), len(seedGroups))

	q, err := opts.listQuery(cmd, cfg)
	if err != nil {
		return formatter.Error(ExitFailure, "invalid request", err)
	}
	collection, err := store.Collection(opts.Entity)
	if err != nil {
		return formatter.Error(ExitCommandError, "unknown entity", err)
	}

	var res *persistence.ListResult
	if opts.Owner != "" {
		res, err = collection.ListBy(ctx, "owner", opts.Owner, q)
	} else {
		res, err = collection.List(ctx, q)
	}
	if err != nil {
		code := ExitCommandError
		if ErrorCode(err) != ErrCodeGeneric {
			code = ExitFailure
		}
		return formatter.Error(code, "list failed", err)
	}
	return formatter.Success(res, listText(collection.Entity(), res))
}

func listText(def *schema.EntityDefinition, res *persistence.ListResult) string {
	columns := sqldb.Columns(def)
	var sb strings.Builder
	sb.WriteString(strings.Join(columns, "\t") + "\n")
	for _, row := range res.Rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if v := row[col]; v != nil {
				cells[i] = fmt.Sprint(v)
			} else {
				cells[i] = "NULL"
			}
		}
		sb.WriteString(strings.Join(cells, "\t") + "\n")
	}
	fmt.Fprintf(&sb, "rows: %d, in condition: %d, total: %d", len(res.Rows), res.TotalInCondition, res.TotalAll)
	return sb.String()
}

type seedPerson struct {
	first, last, birthday, email string
	active                       bool
	created                      string
}

var seedPersons = []seedPerson{
	{"John", "Smith", "1985-03-12", "john.smith@example.com", true, "2023-01-10 09:00:00"},
	{"Joanna", "Doe", "1990-07-01", "joanna.doe@example.com", true, "2023-02-14 12:30:00"},
	{"Mary", "Johnson", "1978-11-23", "mary.johnson@example.com", false, "2023-03-05 08:15:00"},
	{"Peter", "Jones", "2001-01-30", "peter.jones@example.com", true, "2024-06-21 17:45:00"},
	{"Ann", "Hohner", "1995-09-09", "ann.hohner@example.com", true, "2024-08-02 10:00:00"},
}

// Contacts as owner/person indexes into seedPersons.
var seedContacts = [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 0}, {1, 4}, {3, 4}}

var seedGroups = []struct {
	owner       int
	description string
}{
	{0, "Family"},
	{0, "Work"},
	{1, "Friends"},
}

// PublicID returns the public id the demo data gives the i-th seeded person.
// The ids are derived from the person's email so runs are reproducible.
func PublicID(i int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+seedPersons[i].email)).String()
}

// Seed fills the demo tables in one transaction.
func Seed(ctx context.Context, store *persistence.Persistence) error {
	return store.Transact(ctx, func(tx *persistence.Persistence) error {
		persons := make([]map[string]any, 0, len(seedPersons))
		for i, p := range seedPersons {
			persons = append(persons, map[string]any{
				"id":             i + 1,
				"public_id":      PublicID(i),
				"first_name":     p.first,
				"last_name":      p.last,
				"birthday":       p.birthday,
				"email":          p.email,
				"status":         p.active,
				"created_moment": p.created,
				"deleted_moment": nil,
			})
		}
		contacts := make([]map[string]any, 0, len(seedContacts))
		for i, c := range seedContacts {
			contacts = append(contacts, map[string]any{
				"id":             i + 1,
				"owner":          c[0] + 1,
				"person":         c[1] + 1,
				"created_moment": seedPersons[c[0]].created,
				"deleted_moment": nil,
			})
		}
		groups := make([]map[string]any, 0, len(seedGroups))
		numbers := map[int]int{}
		for _, g := range seedGroups {
			numbers[g.owner]++
			groups = append(groups, map[string]any{
				"owner":          g.owner + 1,
				"number":         numbers[g.owner],
				"description":    g.description,
				"created_moment": seedPersons[g.owner].created,
			})
		}

		for _, batch := range []struct {
			entity  string
			records []map[string]any
		}{
			{entities.PersonEntity, persons},
			{entities.ContactEntity, contacts},
			{entities.ContactsGroupEntity, groups},
		} {
			collection, err := tx.Collection(batch.entity)
			if err != nil {
				return err
			}
			if _, err := collection.Insert(ctx, batch.records); err != nil {
				return err
			}
		}
		return nil
	})
}
