package services

import (
	"context"

	"flaretrack/internal/application/command"
	"flaretrack/internal/application/query"
	"flaretrack/internal/domain/event"
	"flaretrack/internal/infrastructure/projection"
)

// FlareService orchestrates flare operations. Every call takes the user ID
// explicitly; there is no ambient session state.
type FlareService struct {
	// Command handlers (using Unit of Work)
	createFlareHandler     *command.CreateFlareWithUoWHandler
	recordSeverityHandler  *command.RecordSeverityWithUoWHandler
	recordTrendHandler     *command.RecordTrendWithUoWHandler
	logInterventionHandler *command.LogInterventionWithUoWHandler
	changeStageHandler     *command.ChangeStageWithUoWHandler
	updateStatusHandler    *command.UpdateFlareStatusWithUoWHandler
	resolveFlareHandler    *command.ResolveFlareWithUoWHandler

	// Query handlers
	getFlareHandler       *query.GetFlareHandler
	listUserFlaresHandler *query.ListUserFlaresHandler
	getFlareEventsHandler *query.GetFlareEventsHandler
}

// NewFlareService creates a new flare service
func NewFlareService(
	createFlareHandler *command.CreateFlareWithUoWHandler,
	recordSeverityHandler *command.RecordSeverityWithUoWHandler,
	recordTrendHandler *command.RecordTrendWithUoWHandler,
	logInterventionHandler *command.LogInterventionWithUoWHandler,
	changeStageHandler *command.ChangeStageWithUoWHandler,
	updateStatusHandler *command.UpdateFlareStatusWithUoWHandler,
	resolveFlareHandler *command.ResolveFlareWithUoWHandler,
	getFlareHandler *query.GetFlareHandler,
	listUserFlaresHandler *query.ListUserFlaresHandler,
	getFlareEventsHandler *query.GetFlareEventsHandler,
) *FlareService {
	return &FlareService{
		createFlareHandler:     createFlareHandler,
		recordSeverityHandler:  recordSeverityHandler,
		recordTrendHandler:     recordTrendHandler,
		logInterventionHandler: logInterventionHandler,
		changeStageHandler:     changeStageHandler,
		updateStatusHandler:    updateStatusHandler,
		resolveFlareHandler:    resolveFlareHandler,
		getFlareHandler:        getFlareHandler,
		listUserFlaresHandler:  listUserFlaresHandler,
		getFlareEventsHandler:  getFlareEventsHandler,
	}
}

// Command operations

// CreateFlare starts tracking a new flare and returns its ID.
func (s *FlareService) CreateFlare(ctx context.Context, cmd command.CreateFlare) (string, error) {
	return s.createFlareHandler.Handle(ctx, &cmd)
}

// RecordSeverity appends a severity update.
func (s *FlareService) RecordSeverity(ctx context.Context, cmd command.RecordSeverity) error {
	return s.recordSeverityHandler.Handle(ctx, &cmd)
}

// RecordTrend appends a trend change.
func (s *FlareService) RecordTrend(ctx context.Context, cmd command.RecordTrend) error {
	return s.recordTrendHandler.Handle(ctx, &cmd)
}

// LogIntervention appends an intervention entry.
func (s *FlareService) LogIntervention(ctx context.Context, cmd command.LogIntervention) error {
	return s.logInterventionHandler.Handle(ctx, &cmd)
}

// ChangeStage moves a flare to a new lifecycle stage.
func (s *FlareService) ChangeStage(ctx context.Context, cmd command.ChangeStage) error {
	return s.changeStageHandler.Handle(ctx, &cmd)
}

// UpdateStatus sets the caller-facing status facet.
func (s *FlareService) UpdateStatus(ctx context.Context, cmd command.UpdateFlareStatus) error {
	return s.updateStatusHandler.Handle(ctx, &cmd)
}

// ResolveFlare terminates a flare.
func (s *FlareService) ResolveFlare(ctx context.Context, cmd command.ResolveFlare) error {
	return s.resolveFlareHandler.Handle(ctx, &cmd)
}

// Query operations

// GetFlare retrieves a flare read model by ID.
func (s *FlareService) GetFlare(ctx context.Context, userID, flareID string) (*projection.FlareReadModel, error) {
	return s.getFlareHandler.Handle(ctx, &query.GetFlare{UserID: userID, FlareID: flareID})
}

// ListUserFlares retrieves a user's flares.
func (s *FlareService) ListUserFlares(ctx context.Context, userID string, offset, limit int) ([]*projection.FlareReadModel, error) {
	return s.listUserFlaresHandler.Handle(ctx, &query.ListUserFlares{
		UserID: userID,
		Offset: offset,
		Limit:  limit,
	})
}

// GetFlareEvents retrieves a flare's full event history.
func (s *FlareService) GetFlareEvents(ctx context.Context, userID, flareID string) ([]event.DomainEvent, error) {
	return s.getFlareEventsHandler.Handle(ctx, &query.GetFlareEvents{UserID: userID, FlareID: flareID})
}
