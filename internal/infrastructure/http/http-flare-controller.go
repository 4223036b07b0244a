package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"flaretrack/internal/application/command"
	"flaretrack/internal/application/services"
	"flaretrack/internal/domain/event"
	"flaretrack/internal/domain/lifecycle"
	"flaretrack/pkg/errors"
	"flaretrack/pkg/middleware"
	"flaretrack/pkg/response"

	"github.com/go-chi/chi/v5"
)

// HTTPFlareController handles HTTP requests for flare operations
type HTTPFlareController struct {
	flareService *services.FlareService
}

// NewHTTPFlareController creates a new HTTP flare controller
func NewHTTPFlareController(flareService *services.FlareService) *HTTPFlareController {
	return &HTTPFlareController{
		flareService: flareService,
	}
}

// requestUserID pulls the authenticated user out of the request context. The
// core itself never reads ambient identity.
func requestUserID(r *http.Request) (string, error) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		return "", errors.NewUnauthorizedError("authentication required")
	}
	return userID, nil
}

// CreateFlare handles POST /flares
func (c *HTTPFlareController) CreateFlare(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	var req struct {
		BodyRegionID string    `json:"body_region_id"`
		Severity     int       `json:"severity"`
		Notes        string    `json:"notes,omitempty"`
		StartDate    time.Time `json:"start_date,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	flareID, err := c.flareService.CreateFlare(r.Context(), command.CreateFlare{
		UserID:       userID,
		BodyRegionID: req.BodyRegionID,
		Severity:     req.Severity,
		Notes:        req.Notes,
		StartDate:    req.StartDate,
	})
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendCreated(w, r, map[string]interface{}{
		"flare_id": flareID,
	})
}

// GetFlare handles GET /flares/{flareID}
func (c *HTTPFlareController) GetFlare(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	flare, err := c.flareService.GetFlare(r.Context(), userID, chi.URLParam(r, "flareID"))
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, flare)
}

// ListFlares handles GET /flares
func (c *HTTPFlareController) ListFlares(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	offset := 0
	limit := 20
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	flares, err := c.flareService.ListUserFlares(r.Context(), userID, offset, limit)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"flares": flares,
		"offset": offset,
		"limit":  limit,
		"count":  len(flares),
	})
}

// GetFlareEvents handles GET /flares/{flareID}/events
func (c *HTTPFlareController) GetFlareEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	events, err := c.flareService.GetFlareEvents(r.Context(), userID, chi.URLParam(r, "flareID"))
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// RecordSeverity handles POST /flares/{flareID}/severity
func (c *HTTPFlareController) RecordSeverity(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	var req struct {
		Severity int `json:"severity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	err = c.flareService.RecordSeverity(r.Context(), command.RecordSeverity{
		UserID:   userID,
		FlareID:  chi.URLParam(r, "flareID"),
		Severity: req.Severity,
	})
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"message": "Severity recorded",
	})
}

// RecordTrend handles POST /flares/{flareID}/trend
func (c *HTTPFlareController) RecordTrend(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	var req struct {
		Trend event.Trend `json:"trend"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	err = c.flareService.RecordTrend(r.Context(), command.RecordTrend{
		UserID:  userID,
		FlareID: chi.URLParam(r, "flareID"),
		Trend:   req.Trend,
	})
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"message": "Trend recorded",
	})
}

// LogIntervention handles POST /flares/{flareID}/interventions
func (c *HTTPFlareController) LogIntervention(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	var req struct {
		InterventionType string `json:"intervention_type"`
		Details          string `json:"details,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	err = c.flareService.LogIntervention(r.Context(), command.LogIntervention{
		UserID:           userID,
		FlareID:          chi.URLParam(r, "flareID"),
		InterventionType: req.InterventionType,
		Details:          req.Details,
	})
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"message": "Intervention logged",
	})
}

// ChangeStage handles POST /flares/{flareID}/stage
func (c *HTTPFlareController) ChangeStage(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	var req struct {
		ToStage lifecycle.Stage `json:"to_stage"`
		Notes   string          `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	err = c.flareService.ChangeStage(r.Context(), command.ChangeStage{
		UserID:  userID,
		FlareID: chi.URLParam(r, "flareID"),
		ToStage: req.ToStage,
		Notes:   req.Notes,
	})
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"message": "Stage changed",
	})
}

// UpdateStatus handles PUT /flares/{flareID}/status
func (c *HTTPFlareController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	var req struct {
		Status event.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	err = c.flareService.UpdateStatus(r.Context(), command.UpdateFlareStatus{
		UserID:  userID,
		FlareID: chi.URLParam(r, "flareID"),
		Status:  req.Status,
	})
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"message": "Status updated",
	})
}

// ResolveFlare handles POST /flares/{flareID}/resolve
func (c *HTTPFlareController) ResolveFlare(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	var req struct {
		ResolutionDate time.Time `json:"resolution_date,omitempty"`
		Notes          string    `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.HandleError(w, r, errors.NewValidationError("Invalid JSON format"))
		return
	}

	err = c.flareService.ResolveFlare(r.Context(), command.ResolveFlare{
		UserID:         userID,
		FlareID:        chi.URLParam(r, "flareID"),
		ResolutionDate: req.ResolutionDate,
		Notes:          req.Notes,
	})
	if err != nil {
		middleware.HandleError(w, r, err)
		return
	}

	response.SendSuccess(w, r, map[string]interface{}{
		"message": "Flare resolved",
	})
}
