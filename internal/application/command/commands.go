package command

import (
	"time"

	"flaretrack/internal/domain/event"
	"flaretrack/internal/domain/lifecycle"
)

// CreateFlare starts tracking a new flare. A zero StartDate means now.
type CreateFlare struct {
	UserID       string    `json:"user_id"`
	BodyRegionID string    `json:"body_region_id"`
	Severity     int       `json:"severity"`
	Notes        string    `json:"notes,omitempty"`
	StartDate    time.Time `json:"start_date,omitempty"`
}

// RecordSeverity appends a severity update to a flare's log.
type RecordSeverity struct {
	UserID   string `json:"user_id"`
	FlareID  string `json:"flare_id"`
	Severity int    `json:"severity"`
}

// RecordTrend appends a trend change to a flare's log.
type RecordTrend struct {
	UserID  string      `json:"user_id"`
	FlareID string      `json:"flare_id"`
	Trend   event.Trend `json:"trend"`
}

// LogIntervention appends an intervention entry to a flare's log.
type LogIntervention struct {
	UserID           string `json:"user_id"`
	FlareID          string `json:"flare_id"`
	InterventionType string `json:"intervention_type"`
	Details          string `json:"details,omitempty"`
}

// ChangeStage moves a flare to a new lifecycle stage.
type ChangeStage struct {
	UserID  string          `json:"user_id"`
	FlareID string          `json:"flare_id"`
	ToStage lifecycle.Stage `json:"to_stage"`
	Notes   string          `json:"notes,omitempty"`
}

// UpdateFlareStatus sets the caller-facing status facet.
type UpdateFlareStatus struct {
	UserID  string       `json:"user_id"`
	FlareID string       `json:"flare_id"`
	Status  event.Status `json:"status"`
}

// ResolveFlare terminates a flare. A zero ResolutionDate means now.
type ResolveFlare struct {
	UserID         string    `json:"user_id"`
	FlareID        string    `json:"flare_id"`
	ResolutionDate time.Time `json:"resolution_date,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}
