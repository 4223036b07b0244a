package mongo

import (
	"context"
	"fmt"
	"sync"

	"flaretrack/internal/domain/repository"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUnitOfWork implements the Unit of Work pattern for MongoDB. The event
// append and the snapshot upsert run in one session transaction, so a failed
// append leaves the projection exactly as it was.
type MongoUnitOfWork struct {
	client        *mongo.Client
	database      *mongo.Database
	session       mongo.Session
	mutex         sync.Mutex
	inTransaction bool

	flareRepo repository.FlareRepository
}

// NewMongoUnitOfWork creates a new MongoDB unit of work
func NewMongoUnitOfWork(client *mongo.Client, database *mongo.Database) *MongoUnitOfWork {
	return &MongoUnitOfWork{
		client:   client,
		database: database,
	}
}

// Begin starts a new transaction
func (uow *MongoUnitOfWork) Begin(ctx context.Context) error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.inTransaction {
		return fmt.Errorf("unit of work is already in transaction")
	}

	session, err := uow.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	uow.session = session
	uow.inTransaction = true
	uow.setTransactionForRepositories()

	return nil
}

// Commit commits the current transaction
func (uow *MongoUnitOfWork) Commit(ctx context.Context) error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if !uow.inTransaction {
		return fmt.Errorf("no active transaction to commit")
	}

	if err := uow.session.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	uow.endTransaction(ctx)
	return nil
}

// Rollback rolls back the current transaction
func (uow *MongoUnitOfWork) Rollback(ctx context.Context) error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if !uow.inTransaction {
		return fmt.Errorf("no active transaction to rollback")
	}

	if err := uow.session.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	uow.endTransaction(ctx)
	return nil
}

// FlareRepository returns the flare repository bound to this unit of work.
func (uow *MongoUnitOfWork) FlareRepository() repository.FlareRepository {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.flareRepo == nil {
		uow.flareRepo = NewMongoFlareRepository(uow.database)
		if uow.inTransaction {
			if transactionalRepo, ok := uow.flareRepo.(repository.TransactionalRepository); ok {
				transactionalRepo.SetTransaction(uow.session)
			}
		}
	}

	return uow.flareRepo
}

// Close releases the session if one is still open.
func (uow *MongoUnitOfWork) Close() error {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()

	if uow.session != nil {
		uow.session.EndSession(context.Background())
		uow.session = nil
		uow.inTransaction = false
	}
	return nil
}

// IsInTransaction reports whether a transaction is active.
func (uow *MongoUnitOfWork) IsInTransaction() bool {
	uow.mutex.Lock()
	defer uow.mutex.Unlock()
	return uow.inTransaction
}

func (uow *MongoUnitOfWork) setTransactionForRepositories() {
	if uow.flareRepo != nil {
		if transactionalRepo, ok := uow.flareRepo.(repository.TransactionalRepository); ok {
			transactionalRepo.SetTransaction(uow.session)
		}
	}
}

func (uow *MongoUnitOfWork) endTransaction(ctx context.Context) {
	uow.session.EndSession(ctx)
	uow.session = nil
	uow.inTransaction = false

	if uow.flareRepo != nil {
		if transactionalRepo, ok := uow.flareRepo.(repository.TransactionalRepository); ok {
			transactionalRepo.SetTransaction(nil)
		}
	}
}

// MongoUnitOfWorkFactory creates MongoDB units of work
type MongoUnitOfWorkFactory struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoUnitOfWorkFactory creates a new factory
func NewMongoUnitOfWorkFactory(client *mongo.Client, database *mongo.Database) *MongoUnitOfWorkFactory {
	return &MongoUnitOfWorkFactory{
		client:   client,
		database: database,
	}
}

// CreateUnitOfWork returns a fresh unit of work
func (f *MongoUnitOfWorkFactory) CreateUnitOfWork() repository.UnitOfWork {
	return NewMongoUnitOfWork(f.client, f.database)
}
