// Package persistence runs compiled list requests against a database and
// reports what happened through an event bus. It is the layer every entity's
// list, count and list-by-reference operations go through.
package persistence

import (
	"context"

	"github.com/xandalm/contacts-query/core/query"
	"github.com/xandalm/contacts-query/core/schema"
)

// PersistenceEventType defines the possible event types for persistence operations.
type PersistenceEventType string

const (
	DocumentListStart       PersistenceEventType = "document:list:start"
	DocumentListSuccess     PersistenceEventType = "document:list:success"
	DocumentListFailed      PersistenceEventType = "document:list:failed"
	DocumentCountStart      PersistenceEventType = "document:count:start"
	DocumentCountSuccess    PersistenceEventType = "document:count:success"
	DocumentCountFailed     PersistenceEventType = "document:count:failed"
	DocumentCreateStart     PersistenceEventType = "document:create:start"
	DocumentCreateSuccess   PersistenceEventType = "document:create:success"
	DocumentCreateFailed    PersistenceEventType = "document:create:failed"
	QueryRejected           PersistenceEventType = "query:rejected"
	CollectionCreateStart   PersistenceEventType = "collection:create:start"
	CollectionCreateSuccess PersistenceEventType = "collection:create:success"
	CollectionCreateFailed  PersistenceEventType = "collection:create:failed"
	SubscriptionRegister    PersistenceEventType = "subscription:register"
	SubscriptionUnregister  PersistenceEventType = "subscription:unregister"
)

// PersistenceEvent represents events emitted during persistence operations.
type PersistenceEvent struct {
	Type       PersistenceEventType `json:"type"`                 // The type of event (e.g., 'document:list:start').
	Timestamp  int64                `json:"timestamp"`            // Timestamp when the event occurred (Unix milliseconds).
	Operation  string               `json:"operation"`            // The operation being performed (e.g., 'list', 'count').
	Collection *string              `json:"collection,omitempty"` // Name of the entity affected (if applicable).
	Input      any                  `json:"input,omitempty"`      // Data passed to the operation (if applicable).
	Output     any                  `json:"output,omitempty"`     // Data returned by the operation (if applicable).
	Error      *string              `json:"error,omitempty"`      // Error message if the operation failed.
	Query      any                  `json:"query,omitempty"`      // Compiled fragments used by the operation.
	Duration   *int64               `json:"duration,omitempty"`   // Duration of the operation in milliseconds.
}

// EventCallbackFunction is invoked for every event a subscription matches.
type EventCallbackFunction func(ctx context.Context, event PersistenceEvent) error

// RegisterSubscriptionOptions defines options for registering a subscription.
type RegisterSubscriptionOptions struct {
	Event       PersistenceEventType `json:"event"`
	Label       *string              `json:"label,omitempty"`
	Description *string              `json:"description,omitempty"`
	Callback    EventCallbackFunction
}

// SubscriptionInfo describes an active subscription.
type SubscriptionInfo struct {
	Id          *string              `json:"id,omitempty"`
	Event       PersistenceEventType `json:"event"`
	Label       *string              `json:"label,omitempty"`
	Description *string              `json:"description,omitempty"`
	Unsubscribe func()               `json:"-"`
}

// ListResult is the answer to a list request: the requested page of rows, how
// many rows match the condition, and how many rows the entity has in total.
type ListResult struct {
	Rows             []schema.Document `json:"rows"`
	TotalInCondition int64             `json:"totalInCondition"`
	TotalAll         int64             `json:"totalAll"`
}

// InteractorOptions provides configuration for the interactor.
type InteractorOptions struct {
	// IfNotExists adds IF NOT EXISTS clause to CREATE TABLE statements.
	IfNotExists bool

	// CreateIndexes determines whether to create indexes along with the table.
	CreateIndexes bool
}

// DatabaseInteractor executes compiled fragments against a database.
// It can operate in either a non-transactional (default) or transactional mode.
type DatabaseInteractor interface {
	// CompilerFactory returns the factory producing compilers for this
	// interactor's dialect.
	CompilerFactory() query.CompilerFactory

	// SelectDocuments runs the paged SELECT described by list.
	SelectDocuments(ctx context.Context, entity *schema.EntityDefinition, list *query.CompiledList) ([]schema.Document, error)

	// CountDocuments counts the rows matching where. A nil where counts every row.
	CountDocuments(ctx context.Context, entity *schema.EntityDefinition, where *query.CompiledWhere) (int64, error)

	// InsertDocuments inserts records and returns how many rows were written.
	InsertDocuments(ctx context.Context, entity *schema.EntityDefinition, records []map[string]any) (int64, error)

	// CreateCollection generates and executes DDL statements to create a table from an entity definition.
	CreateCollection(ctx context.Context, entity *schema.EntityDefinition) error

	// CollectionExists checks if a table exists in the database.
	CollectionExists(ctx context.Context, table string) (bool, error)

	// StartTransaction initiates a new database transaction and returns a new
	// DatabaseInteractor scoped to it.
	StartTransaction(ctx context.Context) (DatabaseInteractor, error)

	// Commit commits the transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction.
	Rollback(ctx context.Context) error
}
