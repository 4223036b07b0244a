package query

import (
	"context"
	"time"

	"flaretrack/internal/domain/analytics"
	"flaretrack/internal/domain/repository"
	"flaretrack/pkg/errors"
)

// Analytics queries never return partial results: either the full report is
// computed from the user's event-sourced corpus or the query fails outright.

// GetProblemAreas represents a ranked problem-areas query
type GetProblemAreas struct {
	UserID    string              `json:"user_id"`
	TimeRange analytics.TimeRange `json:"time_range"`
}

// GetProblemAreasHandler handles problem area queries
type GetProblemAreasHandler struct {
	flareRepo repository.FlareRepository
}

// NewGetProblemAreasHandler creates a new problem areas handler
func NewGetProblemAreasHandler(flareRepo repository.FlareRepository) *GetProblemAreasHandler {
	return &GetProblemAreasHandler{
		flareRepo: flareRepo,
	}
}

// Handle processes the problem areas query
func (h *GetProblemAreasHandler) Handle(ctx context.Context, query *GetProblemAreas) ([]analytics.ProblemArea, error) {
	if query == nil {
		return nil, errors.NewValidationError("query cannot be nil")
	}
	if query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}
	if !query.TimeRange.IsValid() {
		return nil, errors.NewValidationError("time_range must be last30d, last90d, lastYear or allTime")
	}

	flares, err := h.flareRepo.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, asStorageError(err)
	}

	return analytics.ProblemAreas(flares, query.TimeRange, time.Now())
}

// GetFlaresByRegion represents a per-region flare summary query
type GetFlaresByRegion struct {
	UserID       string `json:"user_id"`
	BodyRegionID string `json:"body_region_id"`
}

// GetFlaresByRegionHandler handles region summary queries
type GetFlaresByRegionHandler struct {
	flareRepo repository.FlareRepository
}

// NewGetFlaresByRegionHandler creates a new region summary handler
func NewGetFlaresByRegionHandler(flareRepo repository.FlareRepository) *GetFlaresByRegionHandler {
	return &GetFlaresByRegionHandler{
		flareRepo: flareRepo,
	}
}

// Handle processes the flares by region query
func (h *GetFlaresByRegionHandler) Handle(ctx context.Context, query *GetFlaresByRegion) ([]analytics.FlareSummary, error) {
	if query == nil {
		return nil, errors.NewValidationError("query cannot be nil")
	}
	if query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}
	if query.BodyRegionID == "" {
		return nil, errors.NewValidationError("body_region_id is required")
	}

	flares, err := h.flareRepo.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, asStorageError(err)
	}

	return analytics.FlaresByRegion(flares, query.BodyRegionID, time.Now()), nil
}

// GetRegionStatistics represents a per-region statistics query
type GetRegionStatistics struct {
	UserID       string `json:"user_id"`
	BodyRegionID string `json:"body_region_id"`
}

// GetRegionStatisticsHandler handles region statistics queries
type GetRegionStatisticsHandler struct {
	flareRepo repository.FlareRepository
}

// NewGetRegionStatisticsHandler creates a new region statistics handler
func NewGetRegionStatisticsHandler(flareRepo repository.FlareRepository) *GetRegionStatisticsHandler {
	return &GetRegionStatisticsHandler{
		flareRepo: flareRepo,
	}
}

// Handle processes the region statistics query
func (h *GetRegionStatisticsHandler) Handle(ctx context.Context, query *GetRegionStatistics) (*analytics.RegionStatistics, error) {
	if query == nil {
		return nil, errors.NewValidationError("query cannot be nil")
	}
	if query.UserID == "" {
		return nil, errors.NewValidationError("user_id is required")
	}
	if query.BodyRegionID == "" {
		return nil, errors.NewValidationError("body_region_id is required")
	}

	flares, err := h.flareRepo.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, asStorageError(err)
	}

	stats := analytics.ComputeRegionStatistics(flares, query.BodyRegionID, time.Now())
	return &stats, nil
}
