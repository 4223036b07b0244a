package eventstore

import (
	"context"
	"sync"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/internal/domain/event"
	"flaretrack/internal/domain/repository"
	"flaretrack/pkg/errors"
)

// InMemoryFlareStore is an append-only event store keyed by flare ID. It
// backs the single-writer local deployment and doubles as the test
// repository. Aggregates are always rebuilt by replay; the store never holds
// mutable projections.
type InMemoryFlareStore struct {
	events map[string][]event.DomainEvent
	owners map[string]string   // flare ID -> user ID
	byUser map[string][]string // user ID -> flare IDs, insertion order
	mutex  sync.RWMutex
}

// NewInMemoryFlareStore returns an empty in-memory event store.
func NewInMemoryFlareStore() *InMemoryFlareStore {
	return &InMemoryFlareStore{
		events: make(map[string][]event.DomainEvent),
		owners: make(map[string]string),
		byUser: make(map[string][]string),
	}
}

// SaveEvents appends events for an aggregate. The expected version guards
// against lost updates; on mismatch nothing is written.
func (s *InMemoryFlareStore) SaveEvents(ctx context.Context, aggregateID string, events []event.DomainEvent, expectedVersion int) error {
	if len(events) == 0 {
		return nil
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current := s.events[aggregateID]
	if len(current) != expectedVersion {
		return errors.NewConflictError("concurrency conflict: version mismatch")
	}
	s.append(aggregateID, events)
	return nil
}

// Save appends the aggregate's uncommitted events as one atomic unit.
func (s *InMemoryFlareStore) Save(ctx context.Context, flare *aggregate.Flare) error {
	events := flare.GetUncommittedEvents()
	if len(events) == 0 {
		return nil
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	expectedVersion := flare.Version() - len(events)
	if len(s.events[flare.ID()]) != expectedVersion {
		return errors.NewConflictError("concurrency conflict: version mismatch")
	}
	s.append(flare.ID(), events)
	flare.MarkEventsAsCommitted()
	return nil
}

// append assumes the mutex is held.
func (s *InMemoryFlareStore) append(aggregateID string, events []event.DomainEvent) {
	if _, known := s.owners[aggregateID]; !known {
		for _, e := range events {
			if created, ok := e.(*event.FlareCreated); ok {
				s.owners[aggregateID] = created.UserID
				s.byUser[created.UserID] = append(s.byUser[created.UserID], aggregateID)
				break
			}
		}
	}
	s.events[aggregateID] = append(s.events[aggregateID], events...)
}

// GetEvents returns the ordered event log for an aggregate.
func (s *InMemoryFlareStore) GetEvents(ctx context.Context, aggregateID string) ([]event.DomainEvent, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	evs, ok := s.events[aggregateID]
	if !ok || len(evs) == 0 {
		return nil, errors.NewNotFoundError("flare")
	}
	out := make([]event.DomainEvent, len(evs))
	copy(out, evs)
	return out, nil
}

// GetByID rebuilds a flare by replaying its events.
func (s *InMemoryFlareStore) GetByID(ctx context.Context, id string) (*aggregate.Flare, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	evs, ok := s.events[id]
	if !ok || len(evs) == 0 {
		return nil, errors.NewNotFoundError("flare")
	}
	return aggregate.NewFlareFromHistory(evs)
}

// GetByUserID rebuilds every flare belonging to a user, in creation order.
func (s *InMemoryFlareStore) GetByUserID(ctx context.Context, userID string) ([]*aggregate.Flare, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.byUser[userID]
	flares := make([]*aggregate.Flare, 0, len(ids))
	for _, id := range ids {
		f, err := aggregate.NewFlareFromHistory(s.events[id])
		if err != nil {
			return nil, err
		}
		flares = append(flares, f)
	}
	return flares, nil
}

// InMemoryUnitOfWork satisfies the unit-of-work contract over the in-memory
// store. Appends through the store are already atomic under its mutex, so
// Begin/Commit/Rollback only track transaction state.
type InMemoryUnitOfWork struct {
	store         *InMemoryFlareStore
	inTransaction bool
}

func (uow *InMemoryUnitOfWork) Begin(ctx context.Context) error {
	if uow.inTransaction {
		return errors.NewInternalError("unit of work is already in transaction")
	}
	uow.inTransaction = true
	return nil
}

func (uow *InMemoryUnitOfWork) Commit(ctx context.Context) error {
	if !uow.inTransaction {
		return errors.NewInternalError("no active transaction to commit")
	}
	uow.inTransaction = false
	return nil
}

func (uow *InMemoryUnitOfWork) Rollback(ctx context.Context) error {
	if !uow.inTransaction {
		return errors.NewInternalError("no active transaction to rollback")
	}
	uow.inTransaction = false
	return nil
}

func (uow *InMemoryUnitOfWork) FlareRepository() repository.FlareRepository {
	return uow.store
}

func (uow *InMemoryUnitOfWork) Close() error { return nil }

func (uow *InMemoryUnitOfWork) IsInTransaction() bool { return uow.inTransaction }

// InMemoryUnitOfWorkFactory hands out units of work sharing one store.
type InMemoryUnitOfWorkFactory struct {
	store *InMemoryFlareStore
}

func NewInMemoryUnitOfWorkFactory(store *InMemoryFlareStore) *InMemoryUnitOfWorkFactory {
	return &InMemoryUnitOfWorkFactory{store: store}
}

func (f *InMemoryUnitOfWorkFactory) CreateUnitOfWork() repository.UnitOfWork {
	return &InMemoryUnitOfWork{store: f.store}
}
