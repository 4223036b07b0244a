package repository

import (
	"context"
)

// UnitOfWork manages repositories and transaction boundaries so an event
// append and its projection update commit or roll back together.
type UnitOfWork interface {
	// Transaction management
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Repository factory methods
	FlareRepository() FlareRepository

	// Resource management
	Close() error

	// Transaction state
	IsInTransaction() bool
}

// UnitOfWorkFactory creates new unit of work instances
type UnitOfWorkFactory interface {
	CreateUnitOfWork() UnitOfWork
}

// TransactionalRepository extends a repository with transaction support
type TransactionalRepository interface {
	SetTransaction(tx interface{})
	GetTransaction() interface{}
	IsTransactional() bool
}
