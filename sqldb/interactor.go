package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/xandalm/contacts-query/core/persistence"
	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/core/schema"
)

// dbRunner is an interface that abstracts the common methods of *sql.DB and *sql.Tx,
// allowing for the same code to be used for both transactional and non-transactional
// database operations.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Interactor is the persistence.DatabaseInteractor for database/sql pools. It
// builds statements from compiled fragments with squirrel and executes them.
// It can operate in both transactional and non-transactional modes.
type Interactor struct {
	db        *sql.DB
	tx        *sql.Tx
	dialect   Dialect
	compilers *CompilerFactory
	logger    *zap.Logger
	options   *persistence.InteractorOptions
}

// Ensure Interactor implements the persistence.DatabaseInteractor interface.
var _ persistence.DatabaseInteractor = (*Interactor)(nil)

// NewInteractor creates a new Interactor. Compiler options are applied to every
// compiler the interactor hands out, after the interactor's own dialect.
func NewInteractor(db *sql.DB, dialect Dialect, logger *zap.Logger, options *persistence.InteractorOptions, compilerOpts ...CompilerOption) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultInteractorOptions()
	}
	opts := append([]CompilerOption{WithDialect(dialect), WithLogger(logger)}, compilerOpts...)
	return &Interactor{
		db:        db,
		dialect:   dialect,
		compilers: NewCompilerFactory(opts...),
		logger:    logger,
		options:   options,
	}
}

// runner returns the appropriate dbRunner for the current context, either the
// database connection pool or the active transaction.
func (i *Interactor) runner() dbRunner {
	if i.tx != nil {
		return i.tx
	}
	return i.db
}

// Dialect returns the interactor's dialect.
func (i *Interactor) Dialect() Dialect {
	return i.dialect
}

// CompilerFactory returns the factory for this interactor's dialect.
func (i *Interactor) CompilerFactory() query.CompilerFactory {
	return i.compilers
}

// SelectDocuments executes the paged SELECT of a compiled list.
func (i *Interactor) SelectDocuments(ctx context.Context, def *schema.EntityDefinition, list *query.CompiledList) ([]schema.Document, error) {
	sqlQuery, queryParams, err := ToSQL(def, SelectBuilder(i.dialect, def, list))
	if err != nil {
		return nil, err
	}

	i.logger.Debug("Executing SQL SELECT", zap.String("sql", sqlQuery), zap.Any("params", queryParams))

	rows, err := i.runner().QueryContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		i.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()
	return readRows(i.logger, def, rows)
}

// CountDocuments counts the rows matching where.
func (i *Interactor) CountDocuments(ctx context.Context, def *schema.EntityDefinition, where *query.CompiledWhere) (int64, error) {
	sqlQuery, queryParams, err := ToSQL(def, CountBuilder(i.dialect, def, where))
	if err != nil {
		return 0, err
	}

	i.logger.Debug("Executing SQL COUNT", zap.String("sql", sqlQuery), zap.Any("params", queryParams))

	var n int64
	if err := i.runner().QueryRowContext(ctx, sqlQuery, queryParams...).Scan(&n); err != nil {
		i.logger.Error("Failed to execute COUNT query", zap.Error(err), zap.String("sql", sqlQuery))
		return 0, fmt.Errorf("failed to execute COUNT query: %w", err)
	}
	return n, nil
}

// InsertDocuments inserts records in a single statement. Every record must use
// the same stored columns.
func (i *Interactor) InsertDocuments(ctx context.Context, def *schema.EntityDefinition, records []map[string]any) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	columns := make([]string, 0, len(records[0]))
	for col := range records[0] {
		f := def.Field(col)
		if f == nil || f.Virtual() {
			return 0, fmt.Errorf("%s has no column %q", def.Name, col)
		}
		columns = append(columns, col)
	}
	slices.Sort(columns)

	b := squirrel.StatementBuilder.
		PlaceholderFormat(i.dialect.Placeholder).
		Insert(i.dialect.QuoteIdentifier(def.Table)).
		Columns(columns...)
	for n, record := range records {
		if len(record) != len(columns) {
			return 0, fmt.Errorf("record %d of %s has %d columns, expected %d", n, def.Name, len(record), len(columns))
		}
		values := make([]any, len(columns))
		for j, col := range columns {
			v, ok := record[col]
			if !ok {
				return 0, fmt.Errorf("record %d of %s is missing column %q", n, def.Name, col)
			}
			values[j] = v
		}
		b = b.Values(values...)
	}

	sqlQuery, queryParams, err := ToSQL(def, b)
	if err != nil {
		return 0, err
	}

	i.logger.Debug("Executing SQL INSERT", zap.String("sql", sqlQuery), zap.Int("records", len(records)))

	result, err := i.runner().ExecContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		i.logger.Error("Failed to execute INSERT query", zap.Error(err), zap.String("sql", sqlQuery))
		return 0, fmt.Errorf("failed to execute INSERT query: %w", err)
	}
	return result.RowsAffected()
}

// CreateCollection generates and executes the DDL statements to create a table
// and its indexes.
func (i *Interactor) CreateCollection(ctx context.Context, def *schema.EntityDefinition) error {
	stmt, err := CreateTableSQL(i.dialect, def, i.options)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", def.Table, err)
	}
	i.logger.Debug("Executing SQL CREATE TABLE", zap.String("sql", stmt))
	if _, err := i.runner().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
	}

	if !i.options.CreateIndexes {
		return nil
	}
	for _, index := range def.Indexes {
		stmt := CreateIndexSQL(i.dialect, def, index)
		if stmt == "" {
			continue
		}
		if _, err := i.runner().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index %s: %w", index.Name, err)
		}
	}
	return nil
}

// CollectionExists checks if a table exists in the database.
func (i *Interactor) CollectionExists(ctx context.Context, table string) (bool, error) {
	var b squirrel.SelectBuilder
	base := squirrel.StatementBuilder.PlaceholderFormat(i.dialect.Placeholder)
	switch i.dialect.Driver {
	case MySQL.Driver:
		b = base.Select("table_name").From("information_schema.tables").
			Where("table_schema = DATABASE()").Where(squirrel.Eq{"table_name": table})
	case Postgres.Driver:
		b = base.Select("table_name").From("information_schema.tables").
			Where("table_schema = current_schema()").Where(squirrel.Eq{"table_name": table})
	default:
		b = base.Select("name").From("sqlite_master").Where(squirrel.Eq{"type": "table", "name": table})
	}

	stmt, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build table lookup: %w", err)
	}
	var name string
	if err := i.runner().QueryRowContext(ctx, stmt, args...).Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StartTransaction begins a new database transaction and returns a new Interactor
// that is scoped to that transaction.
func (i *Interactor) StartTransaction(ctx context.Context) (persistence.DatabaseInteractor, error) {
	if i.tx != nil {
		return nil, fmt.Errorf("cannot start a new transaction from an existing transactional interactor")
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	i.logger.Debug("Transaction initiated, returning new transactional interactor")
	txi := *i
	txi.tx = tx
	return &txi, nil
}

// Commit commits the current transaction.
func (i *Interactor) Commit(ctx context.Context) error {
	if i.tx == nil {
		return fmt.Errorf("commit not applicable: not in a transactional context")
	}
	i.logger.Debug("Committing transaction")
	return i.tx.Commit()
}

// Rollback rolls back the current transaction.
func (i *Interactor) Rollback(ctx context.Context) error {
	if i.tx == nil {
		return fmt.Errorf("rollback not applicable: not in a transactional context")
	}
	i.logger.Debug("Rolling back transaction")
	return i.tx.Rollback()
}

// readRows reads all rows from a *sql.Rows object and converts them into a slice
// of schema.Document maps, using the entity's field types to normalize driver values.
func readRows(logger *zap.Logger, def *schema.EntityDefinition, rows *sql.Rows) ([]schema.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := make([]schema.Document, 0)
	for rows.Next() {
		row := make(schema.Document, len(columns))
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, col := range columns {
			val := values[i]
			if val == nil {
				row[col] = nil
				continue
			}

			fieldDef := def.Field(col)
			if fieldDef == nil {
				logger.Warn("Column not found in definition, using raw value", zap.String("column", col))
				row[col] = val
				continue
			}
			row[col] = convertValue(fieldDef.Type, val)
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

func convertValue(t schema.FieldType, val any) any {
	if b, ok := val.([]byte); ok {
		val = string(b)
	}
	switch t {
	case schema.FieldTypeBoolean:
		switch v := val.(type) {
		case int64:
			return v != 0
		case string:
			return v == "1" || v == "true" || v == "t"
		}
	case schema.FieldTypeInteger, schema.FieldTypeReference:
		if f, ok := val.(float64); ok {
			return int64(f)
		}
	case schema.FieldTypeDate:
		if tm, ok := val.(time.Time); ok {
			return tm.Format(time.DateOnly)
		}
	case schema.FieldTypeDatetime:
		if tm, ok := val.(time.Time); ok {
			return tm.UTC().Format(time.RFC3339)
		}
	}
	return val
}
