package eventstore

import (
	"context"
	"testing"
	"time"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/internal/domain/event"
	"flaretrack/pkg/errors"
)

func newStoredFlare(t *testing.T, store *InMemoryFlareStore, userID string) *aggregate.Flare {
	t.Helper()
	f, err := aggregate.NewFlare(userID, "left-knee", 5, "", time.Now().AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("NewFlare() error = %v", err)
	}
	if err := store.Save(context.Background(), f); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return f
}

func TestSaveClearsUncommittedEvents(t *testing.T) {
	store := NewInMemoryFlareStore()
	f := newStoredFlare(t, store, "user-1")

	if n := len(f.GetUncommittedEvents()); n != 0 {
		t.Errorf("uncommitted events after save = %d, want 0", n)
	}

	// Saving again with nothing pending is a no-op, not a conflict.
	if err := store.Save(context.Background(), f); err != nil {
		t.Errorf("idempotent Save() error = %v", err)
	}
}

func TestSaveEventsVersionConflict(t *testing.T) {
	store := NewInMemoryFlareStore()
	ctx := context.Background()
	f := newStoredFlare(t, store, "user-1")

	stale := &event.FlareSeverityUpdated{
		FlareID:      f.ID(),
		UserID:       "user-1",
		Severity:     8,
		EventVersion: 2,
		Timestamp:    time.Now(),
	}

	// Wrong expected version: the log already holds one event.
	err := store.SaveEvents(ctx, f.ID(), []event.DomainEvent{stale}, 0)
	if !errors.HasCode(err, errors.CodeConflict) {
		t.Fatalf("SaveEvents() error = %v, want CONFLICT", err)
	}

	events, err := store.GetEvents(ctx, f.ID())
	if err != nil {
		t.Fatalf("GetEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("event log length = %d after rejected append, want 1", len(events))
	}

	// Correct expected version appends.
	if err := store.SaveEvents(ctx, f.ID(), []event.DomainEvent{stale}, 1); err != nil {
		t.Fatalf("SaveEvents() error = %v", err)
	}

	rebuilt, err := store.GetByID(ctx, f.ID())
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rebuilt.CurrentSeverity() != 8 || rebuilt.Version() != 2 {
		t.Errorf("rebuilt = (severity %d, version %d), want (8, 2)",
			rebuilt.CurrentSeverity(), rebuilt.Version())
	}
}

func TestConcurrentStaleSaveIsRejected(t *testing.T) {
	store := NewInMemoryFlareStore()
	ctx := context.Background()
	f := newStoredFlare(t, store, "user-1")

	// Two copies loaded at the same version.
	first, err := store.GetByID(ctx, f.ID())
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.GetByID(ctx, f.ID())
	if err != nil {
		t.Fatal(err)
	}

	if err := first.UpdateSeverity(7); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	if err := second.UpdateSeverity(3); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, second); !errors.HasCode(err, errors.CodeConflict) {
		t.Errorf("stale Save() error = %v, want CONFLICT", err)
	}

	rebuilt, err := store.GetByID(ctx, f.ID())
	if err != nil {
		t.Fatal(err)
	}
	if rebuilt.CurrentSeverity() != 7 {
		t.Errorf("CurrentSeverity() = %d, want 7 from the winning writer", rebuilt.CurrentSeverity())
	}
}

func TestGetByUserID(t *testing.T) {
	store := NewInMemoryFlareStore()
	ctx := context.Background()

	first := newStoredFlare(t, store, "user-1")
	second := newStoredFlare(t, store, "user-1")
	newStoredFlare(t, store, "user-2")

	flares, err := store.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if len(flares) != 2 {
		t.Fatalf("len(flares) = %d, want 2", len(flares))
	}
	if flares[0].ID() != first.ID() || flares[1].ID() != second.ID() {
		t.Error("flares not returned in creation order")
	}

	empty, err := store.GetByUserID(ctx, "user-3")
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len(flares) = %d for unknown user, want 0", len(empty))
	}
}

func TestGetByIDUnknown(t *testing.T) {
	store := NewInMemoryFlareStore()
	if _, err := store.GetByID(context.Background(), "missing"); !errors.HasCode(err, errors.CodeNotFound) {
		t.Errorf("GetByID(missing) error = %v, want NOT_FOUND", err)
	}
	if _, err := store.GetEvents(context.Background(), "missing"); !errors.HasCode(err, errors.CodeNotFound) {
		t.Errorf("GetEvents(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestUnitOfWorkTransactionState(t *testing.T) {
	store := NewInMemoryFlareStore()
	factory := NewInMemoryUnitOfWorkFactory(store)
	uow := factory.CreateUnitOfWork()
	ctx := context.Background()

	if uow.IsInTransaction() {
		t.Error("fresh unit of work reports an active transaction")
	}
	if err := uow.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if !uow.IsInTransaction() {
		t.Error("IsInTransaction() = false after Begin")
	}
	if err := uow.Begin(ctx); err == nil {
		t.Error("nested Begin() succeeded, want error")
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := uow.Commit(ctx); err == nil {
		t.Error("Commit() without transaction succeeded, want error")
	}
	if err := uow.Rollback(ctx); err == nil {
		t.Error("Rollback() without transaction succeeded, want error")
	}
}
