package persistence

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-events"
	"go.uber.org/zap"

	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/core/schema"
)

// Collection runs list and count requests for one entity.
type Collection struct {
	entity     *schema.EntityDefinition
	compiler   query.Compiler
	interactor DatabaseInteractor
	events     eventEmitter
	logger     *zap.Logger
}

// NewCollection binds an entity to an interactor, compiling with the
// interactor's own compiler factory.
func NewCollection(bus *events.TypedEventBus[PersistenceEvent], entity *schema.EntityDefinition, interactor DatabaseInteractor, logger *zap.Logger) (*Collection, error) {
	if entity == nil {
		return nil, fmt.Errorf("entity definition cannot be nil")
	}
	if interactor == nil {
		return nil, fmt.Errorf("interactor cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	compiler, err := interactor.CompilerFactory().CreateCompiler(entity)
	if err != nil {
		return nil, fmt.Errorf("could not create a compiler for %s: %w", entity.Name, err)
	}
	return &Collection{
		entity:     entity,
		compiler:   compiler,
		interactor: interactor,
		events:     eventEmitter{bus: bus, collection: entity.Name},
		logger:     logger.With(zap.String("entity", entity.Name)),
	}, nil
}

// Entity returns the collection's definition.
func (c *Collection) Entity() *schema.EntityDefinition {
	return c.entity
}

// Compile turns a list request into SQL fragments without running it.
func (c *Collection) Compile(q query.ListQuery) (*query.CompiledList, error) {
	list, err := c.compiler.CompileList(q)
	if err != nil {
		c.logger.Warn("Rejected list request", zap.Error(err))
		c.events.rejected("list", q, err)
		return nil, err
	}
	return list, nil
}

// List returns the requested page along with the number of rows matching the
// condition and the number of rows overall.
func (c *Collection) List(ctx context.Context, q query.ListQuery) (*ListResult, error) {
	list, err := c.Compile(q)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, q, list, nil)
}

// ListBy lists the rows whose field equals value, further narrowed by the
// request's own condition. TotalAll counts every row with that field value.
func (c *Collection) ListBy(ctx context.Context, field, value string, q query.ListQuery) (*ListResult, error) {
	scope, err := query.NewRelational(field, query.OperatorEqual, value)
	if err != nil {
		c.events.rejected("list", q, err)
		return nil, err
	}
	q.Condition = query.AndAll(scope, q.Condition)

	list, err := c.Compile(q)
	if err != nil {
		return nil, err
	}
	scoped, err := c.compiler.CompileWhere(scope)
	if err != nil {
		c.events.rejected("list", q, err)
		return nil, err
	}
	return c.list(ctx, q, list, scoped)
}

func (c *Collection) list(ctx context.Context, q query.ListQuery, list *query.CompiledList, all *query.CompiledWhere) (*ListResult, error) {
	return withEventEmission(c.events, listEvents, q, list,
		func() (*ListResult, error) {
			rows, err := c.interactor.SelectDocuments(ctx, c.entity, list)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", c.entity.Name, err)
			}
			inCondition, err := c.interactor.CountDocuments(ctx, c.entity, list.CountWhere())
			if err != nil {
				return nil, fmt.Errorf("failed to count %s: %w", c.entity.Name, err)
			}
			total := inCondition
			if list.CountWhere() != all {
				if total, err = c.interactor.CountDocuments(ctx, c.entity, all); err != nil {
					return nil, fmt.Errorf("failed to count %s: %w", c.entity.Name, err)
				}
			}
			if rows == nil {
				rows = []schema.Document{}
			}
			return &ListResult{Rows: rows, TotalInCondition: inCondition, TotalAll: total}, nil
		})
}

// Count returns the number of rows matching cond. A nil cond counts every row.
func (c *Collection) Count(ctx context.Context, cond query.Condition) (int64, error) {
	var where *query.CompiledWhere
	if cond != nil {
		var err error
		if where, err = c.compiler.CompileWhere(cond); err != nil {
			c.logger.Warn("Rejected count request", zap.Error(err))
			c.events.rejected("count", cond.String(), err)
			return 0, err
		}
	}
	return withEventEmission(c.events, countEvents, cond, where,
		func() (int64, error) {
			n, err := c.interactor.CountDocuments(ctx, c.entity, where)
			if err != nil {
				return 0, fmt.Errorf("failed to count %s: %w", c.entity.Name, err)
			}
			return n, nil
		})
}

// Insert writes records into the entity's table.
func (c *Collection) Insert(ctx context.Context, records []map[string]any) (int64, error) {
	return withEventEmission(c.events, createEvents, len(records), nil,
		func() (int64, error) {
			n, err := c.interactor.InsertDocuments(ctx, c.entity, records)
			if err != nil {
				return 0, fmt.Errorf("failed to insert data into %s: %w", c.entity.Name, err)
			}
			return n, nil
		})
}
