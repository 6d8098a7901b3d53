package persistence

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xandalm/contacts-query/core/schema"
)

// Persistence keeps the registered entities of one database, hands out their
// collections, and owns the event bus their operations report to.
type Persistence struct {
	interactor    DatabaseInteractor
	logger        *zap.Logger
	bus           *events.TypedEventBus[PersistenceEvent]
	mu            sync.RWMutex
	entities      map[string]*schema.EntityDefinition
	subscriptions map[string]*SubscriptionInfo // To store unsubscribe functions
	subMu         sync.RWMutex                 // Mutex to protect subscriptions map
}

// NewPersistence creates a new instance of the Persistence service and
// registers the given entities, creating their tables when missing.
func NewPersistence(ctx context.Context, interactor DatabaseInteractor, logger *zap.Logger, defs ...*schema.EntityDefinition) (*Persistence, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[PersistenceEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	p := &Persistence{
		interactor:    interactor,
		logger:        logger,
		bus:           bus,
		entities:      make(map[string]*schema.EntityDefinition),
		subscriptions: make(map[string]*SubscriptionInfo),
	}
	for _, def := range defs {
		if err := p.Register(ctx, def); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Register adds an entity, creating its table when it does not exist yet.
func (p *Persistence) Register(ctx context.Context, def *schema.EntityDefinition) error {
	if def == nil {
		return fmt.Errorf("entity definition cannot be nil")
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid definition for %s: %w", def.Name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entities[def.Name]; ok {
		return fmt.Errorf("entity %s is already registered", def.Name)
	}

	exists, err := p.interactor.CollectionExists(ctx, def.Table)
	if err != nil {
		return fmt.Errorf("error looking up table %s: %w", def.Table, err)
	}
	if !exists {
		emitter := eventEmitter{bus: p.bus, collection: def.Name}
		_, err := withEventEmission(emitter, collectionEvents, def.Table, nil,
			func() (bool, error) {
				return true, p.interactor.CreateCollection(ctx, def)
			})
		if err != nil {
			return fmt.Errorf("failed to create table for %s: %w", def.Name, err)
		}
		p.logger.Info("Created table", zap.String("entity", def.Name), zap.String("table", def.Table))
	}

	p.entities[def.Name] = def
	return nil
}

// Collection returns the collection of a registered entity.
func (p *Persistence) Collection(name string) (*Collection, error) {
	p.mu.RLock()
	def, ok := p.entities[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("entity %s is not registered", name)
	}
	return NewCollection(p.bus, def, p.interactor, p.logger)
}

// Collections returns the names of the registered entities, sorted.
func (p *Persistence) Collections() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.entities))
	for name := range p.entities {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Transact runs callback against a Persistence bound to a new transaction. The
// transaction is rolled back when callback fails and committed otherwise.
func (p *Persistence) Transact(ctx context.Context, callback func(tx *Persistence) error) error {
	txInteractor, err := p.interactor.StartTransaction(ctx)
	if err != nil {
		return err
	}

	p.mu.RLock()
	tx := &Persistence{
		interactor:    txInteractor,
		logger:        p.logger,
		bus:           p.bus,
		entities:      maps.Clone(p.entities),
		subscriptions: make(map[string]*SubscriptionInfo),
	}
	p.mu.RUnlock()

	if err := callback(tx); err != nil {
		if rbErr := txInteractor.Rollback(ctx); rbErr != nil {
			p.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}
	return txInteractor.Commit(ctx)
}

// RegisterSubscription registers a callback for a specific persistence event. It returns
// a unique ID that can be used to unregister the subscription later.
func (p *Persistence) RegisterSubscription(options RegisterSubscriptionOptions) string {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	unsubscribe := p.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	p.subscriptions[id] = &SubscriptionInfo{
		Id:          &id,
		Event:       options.Event,
		Unsubscribe: unsubscribe,
		Label:       options.Label,
		Description: options.Description,
	}
	event := newEvent(SubscriptionRegister, "register_subscription", "", time.Time{})
	event.Input, event.Output = options.Event, id
	p.bus.Emit(string(SubscriptionRegister), event)
	return id
}

// UnregisterSubscription removes a subscription by its ID.
func (p *Persistence) UnregisterSubscription(id string) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	if info, ok := p.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(p.subscriptions, id)
		event := newEvent(SubscriptionUnregister, "unregister_subscription", "", time.Time{})
		event.Input = id
		p.bus.Emit(string(SubscriptionUnregister), event)
	}
}

// Subscriptions returns a list of all currently active subscriptions.
func (p *Persistence) Subscriptions() []SubscriptionInfo {
	p.subMu.RLock()
	defer p.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(p.subscriptions))
	for _, sub := range p.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}
