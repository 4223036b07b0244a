package query

import (
	"context"

	"flaretrack/internal/domain/event"
	"flaretrack/internal/domain/repository"
	"flaretrack/internal/infrastructure/projection"
	"flaretrack/pkg/errors"
)

// GetFlare represents a query to get a flare by ID
type GetFlare struct {
	UserID  string `json:"user_id"`
	FlareID string `json:"flare_id"`
}

// GetFlareHandler handles get flare queries
type GetFlareHandler struct {
	flareProjection projection.FlareProjection
}

// NewGetFlareHandler creates a new get flare handler
func NewGetFlareHandler(flareProjection projection.FlareProjection) *GetFlareHandler {
	return &GetFlareHandler{
		flareProjection: flareProjection,
	}
}

// Handle processes the get flare query
func (h *GetFlareHandler) Handle(ctx context.Context, query *GetFlare) (*projection.FlareReadModel, error) {
	if query == nil {
		return nil, errors.NewValidationError("query cannot be nil")
	}
	if query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}
	if query.FlareID == "" {
		return nil, errors.NewValidationError("flare_id is required")
	}

	flare, err := h.flareProjection.GetByID(ctx, query.FlareID)
	if err != nil {
		return nil, errors.NewNotFoundError("flare")
	}
	if flare.UserID != query.UserID {
		return nil, errors.NewNotFoundError("flare")
	}

	return flare, nil
}

// ListUserFlares represents a query to list flares for a user
type ListUserFlares struct {
	UserID string `json:"user_id"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ListUserFlaresHandler handles list user flares queries
type ListUserFlaresHandler struct {
	flareProjection projection.FlareProjection
}

// NewListUserFlaresHandler creates a new list user flares handler
func NewListUserFlaresHandler(flareProjection projection.FlareProjection) *ListUserFlaresHandler {
	return &ListUserFlaresHandler{
		flareProjection: flareProjection,
	}
}

// Handle processes the list user flares query
func (h *ListUserFlaresHandler) Handle(ctx context.Context, query *ListUserFlares) ([]*projection.FlareReadModel, error) {
	if query == nil {
		return nil, errors.NewValidationError("query cannot be nil")
	}
	if query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}

	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Limit > 100 {
		query.Limit = 100
	}

	flares, err := h.flareProjection.GetByUserID(ctx, query.UserID, query.Offset, query.Limit)
	if err != nil {
		return nil, errors.NewStorageError("failed to list flares")
	}

	return flares, nil
}

// GetFlareEvents represents a query for a flare's full event history.
// History stays readable after resolution.
type GetFlareEvents struct {
	UserID  string `json:"user_id"`
	FlareID string `json:"flare_id"`
}

// GetFlareEventsHandler handles flare history queries
type GetFlareEventsHandler struct {
	flareRepo repository.FlareRepository
}

// NewGetFlareEventsHandler creates a new flare history handler
func NewGetFlareEventsHandler(flareRepo repository.FlareRepository) *GetFlareEventsHandler {
	return &GetFlareEventsHandler{
		flareRepo: flareRepo,
	}
}

// Handle processes the get flare events query
func (h *GetFlareEventsHandler) Handle(ctx context.Context, query *GetFlareEvents) ([]event.DomainEvent, error) {
	if query == nil {
		return nil, errors.NewValidationError("query cannot be nil")
	}
	if query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}
	if query.FlareID == "" {
		return nil, errors.NewValidationError("flare_id is required")
	}

	flare, err := h.flareRepo.GetByID(ctx, query.FlareID)
	if err != nil {
		return nil, errors.NewNotFoundError("flare")
	}
	if flare.UserID() != query.UserID {
		return nil, errors.NewNotFoundError("flare")
	}

	events, err := h.flareRepo.GetEvents(ctx, query.FlareID)
	if err != nil {
		return nil, asStorageError(err)
	}
	return events, nil
}

// asStorageError keeps application errors intact and tags everything else as
// a durability failure.
func asStorageError(err error) error {
	if appErr, ok := err.(*errors.ApplicationError); ok {
		return appErr
	}
	return errors.NewStorageError(err.Error())
}
