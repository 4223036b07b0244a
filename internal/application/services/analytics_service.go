package services

import (
	"context"

	"flaretrack/internal/application/query"
	"flaretrack/internal/domain/analytics"
)

// AnalyticsService orchestrates the read-only analytics queries.
type AnalyticsService struct {
	problemAreasHandler     *query.GetProblemAreasHandler
	flaresByRegionHandler   *query.GetFlaresByRegionHandler
	regionStatisticsHandler *query.GetRegionStatisticsHandler
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(
	problemAreasHandler *query.GetProblemAreasHandler,
	flaresByRegionHandler *query.GetFlaresByRegionHandler,
	regionStatisticsHandler *query.GetRegionStatisticsHandler,
) *AnalyticsService {
	return &AnalyticsService{
		problemAreasHandler:     problemAreasHandler,
		flaresByRegionHandler:   flaresByRegionHandler,
		regionStatisticsHandler: regionStatisticsHandler,
	}
}

// GetProblemAreas ranks body regions by flare frequency within a window.
func (s *AnalyticsService) GetProblemAreas(ctx context.Context, userID string, timeRange analytics.TimeRange) ([]analytics.ProblemArea, error) {
	return s.problemAreasHandler.Handle(ctx, &query.GetProblemAreas{
		UserID:    userID,
		TimeRange: timeRange,
	})
}

// GetFlaresByRegion summarizes a region's flares, newest first.
func (s *AnalyticsService) GetFlaresByRegion(ctx context.Context, userID, bodyRegionID string) ([]analytics.FlareSummary, error) {
	return s.flaresByRegionHandler.Handle(ctx, &query.GetFlaresByRegion{
		UserID:       userID,
		BodyRegionID: bodyRegionID,
	})
}

// GetRegionStatistics derives descriptive statistics for one region.
func (s *AnalyticsService) GetRegionStatistics(ctx context.Context, userID, bodyRegionID string) (*analytics.RegionStatistics, error) {
	return s.regionStatisticsHandler.Handle(ctx, &query.GetRegionStatistics{
		UserID:       userID,
		BodyRegionID: bodyRegionID,
	})
}
