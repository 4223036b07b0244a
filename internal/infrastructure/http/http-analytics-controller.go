package http

import (
	"math"
	"net/http"

	"flaretrack/internal/application/services"
	"flaretrack/internal/domain/analytics"
	"flaretrack/pkg/middleware"
	"flaretrack/pkg/response"

	"github.com/go-chi/chi/v5"
)

// HTTPAnalyticsController handles HTTP requests for analytics queries
type HTTPAnalyticsController struct {
	analyticsService *services.AnalyticsService
}

// NewHTTPAnalyticsController creates a new HTTP analytics controller
func NewHTTPAnalyticsController(analyticsService *services.AnalyticsService) *HTTPAnalyticsController {
	return &HTTPAnalyticsController{
		analyticsService: analyticsService,
	}
}

// GetProblemAreas handles GET /analytics/problem-areas?range=last90d
func (c *HTTPAnalyticsController) GetProblemAreas(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	timeRange := analytics.TimeRange(r.URL.Query().Get("range"))
	if timeRange == "" {
		timeRange = analytics.AllTime
	}

	areas, err := c.analyticsService.GetProblemAreas(r.Context(), userID, timeRange)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	// Percentages carry full precision internally; one decimal is enough for
	// display.
	for i := range areas {
		areas[i].Percentage = round1(areas[i].Percentage)
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"problem_areas": areas,
		"range":         timeRange,
		"count":         len(areas),
	})
}

// GetFlaresByRegion handles GET /analytics/regions/{regionID}/flares
func (c *HTTPAnalyticsController) GetFlaresByRegion(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	summaries, err := c.analyticsService.GetFlaresByRegion(r.Context(), userID, chi.URLParam(r, "regionID"))
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"flares": summaries,
		"count":  len(summaries),
	})
}

// GetRegionStatistics handles GET /analytics/regions/{regionID}/statistics
func (c *HTTPAnalyticsController) GetRegionStatistics(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	stats, err := c.analyticsService.GetRegionStatistics(r.Context(), userID, chi.URLParam(r, "regionID"))
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	stats.AverageSeverity = round1(stats.AverageSeverity)
	if stats.AverageDurationDays != nil {
		rounded := round1(*stats.AverageDurationDays)
		stats.AverageDurationDays = &rounded
	}
	if stats.RecurrenceRate != nil {
		rounded := round1(*stats.RecurrenceRate)
		stats.RecurrenceRate = &rounded
	}

	response.SendSuccess(w, r, stats)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
