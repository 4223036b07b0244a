package command

import (
	"context"
	"log"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/internal/domain/repository"
	"flaretrack/internal/infrastructure/bus"
	"flaretrack/pkg/errors"
)

// CreateFlareWithUoWHandler handles create flare commands with Unit of Work
type CreateFlareWithUoWHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

// NewCreateFlareWithUoWHandler creates a new create flare handler with UoW
func NewCreateFlareWithUoWHandler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
) *CreateFlareWithUoWHandler {
	return &CreateFlareWithUoWHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
	}
}

// Handle processes the create flare command and returns the new flare ID.
func (h *CreateFlareWithUoWHandler) Handle(ctx context.Context, cmd *CreateFlare) (string, error) {
	if cmd == nil {
		return "", errors.NewValidationError("command cannot be nil")
	}
	if cmd.UserID == "" {
		return "", errors.NewValidationError("user_id is required")
	}
	if cmd.BodyRegionID == "" {
		return "", errors.NewValidationError("body_region_id is required")
	}

	uow := h.uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return "", errors.NewStorageError("failed to begin transaction")
	}

	flare, err := aggregate.NewFlare(cmd.UserID, cmd.BodyRegionID, cmd.Severity, cmd.Notes, cmd.StartDate)
	if err != nil {
		rollback(ctx, uow)
		return "", err
	}

	events := flare.GetUncommittedEvents()

	flareRepo := uow.FlareRepository()
	if err := flareRepo.Save(ctx, flare); err != nil {
		rollback(ctx, uow)
		return "", asStorageError(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return "", errors.NewStorageError("failed to commit transaction")
	}

	// Projections lag at most one publish; the write itself is already durable.
	if err := h.eventBus.PublishBatch(ctx, events); err != nil {
		log.Printf("warning: failed to publish flare events: %v", err)
	}

	return flare.ID(), nil
}

// RecordSeverityWithUoWHandler handles severity update commands
type RecordSeverityWithUoWHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

func NewRecordSeverityWithUoWHandler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
) *RecordSeverityWithUoWHandler {
	return &RecordSeverityWithUoWHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
	}
}

// Handle processes the record severity command
func (h *RecordSeverityWithUoWHandler) Handle(ctx context.Context, cmd *RecordSeverity) error {
	if cmd == nil {
		return errors.NewValidationError("command cannot be nil")
	}
	return mutateFlare(ctx, h.uowFactory, h.eventBus, cmd.UserID, cmd.FlareID,
		func(f *aggregate.Flare) error {
			return f.UpdateSeverity(cmd.Severity)
		})
}

// RecordTrendWithUoWHandler handles trend change commands
type RecordTrendWithUoWHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

func NewRecordTrendWithUoWHandler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
) *RecordTrendWithUoWHandler {
	return &RecordTrendWithUoWHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
	}
}

// Handle processes the record trend command
func (h *RecordTrendWithUoWHandler) Handle(ctx context.Context, cmd *RecordTrend) error {
	if cmd == nil {
		return errors.NewValidationError("command cannot be nil")
	}
	return mutateFlare(ctx, h.uowFactory, h.eventBus, cmd.UserID, cmd.FlareID,
		func(f *aggregate.Flare) error {
			return f.ChangeTrend(cmd.Trend)
		})
}

// LogInterventionWithUoWHandler handles intervention log commands
type LogInterventionWithUoWHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

func NewLogInterventionWithUoWHandler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
) *LogInterventionWithUoWHandler {
	return &LogInterventionWithUoWHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
	}
}

// Handle processes the log intervention command
func (h *LogInterventionWithUoWHandler) Handle(ctx context.Context, cmd *LogIntervention) error {
	if cmd == nil {
		return errors.NewValidationError("command cannot be nil")
	}
	return mutateFlare(ctx, h.uowFactory, h.eventBus, cmd.UserID, cmd.FlareID,
		func(f *aggregate.Flare) error {
			return f.LogIntervention(cmd.InterventionType, cmd.Details)
		})
}

// ChangeStageWithUoWHandler handles lifecycle stage change commands
type ChangeStageWithUoWHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

func NewChangeStageWithUoWHandler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
) *ChangeStageWithUoWHandler {
	return &ChangeStageWithUoWHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
	}
}

// Handle processes the change stage command
func (h *ChangeStageWithUoWHandler) Handle(ctx context.Context, cmd *ChangeStage) error {
	if cmd == nil {
		return errors.NewValidationError("command cannot be nil")
	}
	return mutateFlare(ctx, h.uowFactory, h.eventBus, cmd.UserID, cmd.FlareID,
		func(f *aggregate.Flare) error {
			return f.ChangeStage(cmd.ToStage, cmd.Notes)
		})
}

// UpdateFlareStatusWithUoWHandler handles status update commands
type UpdateFlareStatusWithUoWHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

func NewUpdateFlareStatusWithUoWHandler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
) *UpdateFlareStatusWithUoWHandler {
	return &UpdateFlareStatusWithUoWHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
	}
}

// Handle processes the update flare status command
func (h *UpdateFlareStatusWithUoWHandler) Handle(ctx context.Context, cmd *UpdateFlareStatus) error {
	if cmd == nil {
		return errors.NewValidationError("command cannot be nil")
	}
	return mutateFlare(ctx, h.uowFactory, h.eventBus, cmd.UserID, cmd.FlareID,
		func(f *aggregate.Flare) error {
			return f.SetStatus(cmd.Status)
		})
}

// ResolveFlareWithUoWHandler handles resolve flare commands
type ResolveFlareWithUoWHandler struct {
	uowFactory repository.UnitOfWorkFactory
	eventBus   bus.EventBus
}

func NewResolveFlareWithUoWHandler(
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
) *ResolveFlareWithUoWHandler {
	return &ResolveFlareWithUoWHandler{
		uowFactory: uowFactory,
		eventBus:   eventBus,
	}
}

// Handle processes the resolve flare command
func (h *ResolveFlareWithUoWHandler) Handle(ctx context.Context, cmd *ResolveFlare) error {
	if cmd == nil {
		return errors.NewValidationError("command cannot be nil")
	}
	return mutateFlare(ctx, h.uowFactory, h.eventBus, cmd.UserID, cmd.FlareID,
		func(f *aggregate.Flare) error {
			return f.Resolve(cmd.ResolutionDate, cmd.Notes)
		})
}

// mutateFlare runs the load-mutate-save cycle every append-style command
// shares: open a transaction, load the aggregate, check ownership, apply the
// mutation, persist the new events and commit. Any failure rolls back, so
// the projection is left exactly as it was.
func mutateFlare(
	ctx context.Context,
	uowFactory repository.UnitOfWorkFactory,
	eventBus bus.EventBus,
	userID, flareID string,
	mutate func(*aggregate.Flare) error,
) error {
	if userID == "" {
		return errors.NewValidationError("user_id is required")
	}
	if flareID == "" {
		return errors.NewValidationError("flare_id is required")
	}

	uow := uowFactory.CreateUnitOfWork()
	defer uow.Close()

	if err := uow.Begin(ctx); err != nil {
		return errors.NewStorageError("failed to begin transaction")
	}

	flareRepo := uow.FlareRepository()
	flare, err := flareRepo.GetByID(ctx, flareID)
	if err != nil {
		rollback(ctx, uow)
		return errors.NewNotFoundError("flare")
	}

	// Cross-user access reads as absence, not as forbidden.
	if flare.UserID() != userID {
		rollback(ctx, uow)
		return errors.NewNotFoundError("flare")
	}

	if err := mutate(flare); err != nil {
		rollback(ctx, uow)
		return err
	}

	events := flare.GetUncommittedEvents()

	if err := flareRepo.Save(ctx, flare); err != nil {
		rollback(ctx, uow)
		return asStorageError(err)
	}

	if err := uow.Commit(ctx); err != nil {
		return errors.NewStorageError("failed to commit transaction")
	}

	if err := eventBus.PublishBatch(ctx, events); err != nil {
		log.Printf("warning: failed to publish flare events: %v", err)
	}

	return nil
}

// rollback aborts the unit of work. A rollback failure must not mask the
// error that triggered it, so it is logged instead of returned.
func rollback(ctx context.Context, uow repository.UnitOfWork) {
	if err := uow.Rollback(ctx); err != nil {
		log.Printf("warning: failed to roll back transaction: %v", err)
	}
}

// asStorageError keeps application errors intact and tags everything else as
// a durability failure so it is never silently swallowed.
func asStorageError(err error) error {
	if appErr, ok := err.(*errors.ApplicationError); ok {
		return appErr
	}
	return errors.NewStorageError(err.Error())
}
