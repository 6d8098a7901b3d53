package persistence

import (
	"time"

	"github.com/asaidimu/go-events"
)

// operationEvents names the events reported around one kind of operation.
type operationEvents struct {
	name    string
	start   PersistenceEventType
	success PersistenceEventType
	failed  PersistenceEventType
}

var (
	listEvents       = operationEvents{"list", DocumentListStart, DocumentListSuccess, DocumentListFailed}
	countEvents      = operationEvents{"count", DocumentCountStart, DocumentCountSuccess, DocumentCountFailed}
	createEvents     = operationEvents{"create", DocumentCreateStart, DocumentCreateSuccess, DocumentCreateFailed}
	collectionEvents = operationEvents{"create_collection", CollectionCreateStart, CollectionCreateSuccess, CollectionCreateFailed}
)

// newEvent stamps an event. A zero start leaves the duration unset and an
// empty collection leaves the collection unset.
func newEvent(eventType PersistenceEventType, operation, collection string, start time.Time) PersistenceEvent {
	event := PersistenceEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Operation: operation,
	}
	if collection != "" {
		event.Collection = &collection
	}
	if !start.IsZero() {
		d := time.Since(start).Milliseconds()
		event.Duration = &d
	}
	return event
}

// eventEmitter publishes the events of a single entity's operations.
type eventEmitter struct {
	bus        *events.TypedEventBus[PersistenceEvent]
	collection string
}

func (e eventEmitter) emit(event PersistenceEvent) {
	if e.bus != nil {
		e.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission runs fn between a start event and a success or failure
// event. Every event carries the operation's input and compiled query.
func withEventEmission[T any](e eventEmitter, ops operationEvents, input, compiled any, fn func() (T, error)) (T, error) {
	start := time.Now()
	event := func(t PersistenceEventType) PersistenceEvent {
		ev := newEvent(t, ops.name, e.collection, start)
		ev.Input, ev.Query = input, compiled
		return ev
	}

	e.emit(event(ops.start))

	result, err := fn()
	if err != nil {
		failed := event(ops.failed)
		msg := err.Error()
		failed.Error = &msg
		e.emit(failed)
		var zero T
		return zero, err
	}

	done := event(ops.success)
	done.Output = result
	e.emit(done)
	return result, nil
}

// rejected reports a request refused before reaching the database.
func (e eventEmitter) rejected(operation string, input any, err error) {
	ev := newEvent(QueryRejected, operation, e.collection, time.Time{})
	msg := err.Error()
	ev.Input, ev.Error = input, &msg
	e.emit(ev)
}
