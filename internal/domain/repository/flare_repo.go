package repository

import (
	"context"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/internal/domain/event"
)

// FlareRepository defines the storage contract for flare aggregates. The
// event log is the single source of truth: Save appends the aggregate's
// uncommitted events and refreshes the projection document as one unit;
// nothing is ever edited in place.
type FlareRepository interface {
	// Event store operations
	SaveEvents(ctx context.Context, aggregateID string, events []event.DomainEvent, expectedVersion int) error
	GetEvents(ctx context.Context, aggregateID string) ([]event.DomainEvent, error)

	// Aggregate operations (built from events)
	Save(ctx context.Context, flare *aggregate.Flare) error
	GetByID(ctx context.Context, id string) (*aggregate.Flare, error)

	// Corpus scans for analytics, strictly scoped per user
	GetByUserID(ctx context.Context, userID string) ([]*aggregate.Flare, error)
}
