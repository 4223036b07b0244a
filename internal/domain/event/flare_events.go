package event

import (
	"time"

	"flaretrack/internal/domain/lifecycle"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
	Version() int
}

// Status and Trend are defined here to avoid import cycles between the
// aggregate and its events. They are two independently-settable facets of a
// flare: status is a caller-facing convenience, trend is what analytics
// reads. No reconciliation rule exists between them.
type Status string

const (
	StatusActive    Status = "active"
	StatusImproving Status = "improving"
	StatusWorsening Status = "worsening"
	StatusResolved  Status = "resolved"
)

type Trend string

const (
	TrendNone      Trend = ""
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendWorsening Trend = "worsening"
)

// FlareCreated event
type FlareCreated struct {
	FlareID      string    `json:"flare_id" bson:"flare_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	BodyRegionID string    `json:"body_region_id" bson:"body_region_id"`
	Severity     int       `json:"severity" bson:"severity"`
	Notes        string    `json:"notes,omitempty" bson:"notes,omitempty"`
	StartDate    time.Time `json:"start_date" bson:"start_date"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

func (e *FlareCreated) EventType() string     { return "FlareCreated" }
func (e *FlareCreated) AggregateID() string   { return e.FlareID }
func (e *FlareCreated) OccurredAt() time.Time { return e.Timestamp }
func (e *FlareCreated) Version() int          { return 1 }

// FlareSeverityUpdated event
type FlareSeverityUpdated struct {
	FlareID      string    `json:"flare_id" bson:"flare_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	Severity     int       `json:"severity" bson:"severity"`
	EventVersion int       `json:"version" bson:"version"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

func (e *FlareSeverityUpdated) EventType() string     { return "FlareSeverityUpdated" }
func (e *FlareSeverityUpdated) AggregateID() string   { return e.FlareID }
func (e *FlareSeverityUpdated) OccurredAt() time.Time { return e.Timestamp }
func (e *FlareSeverityUpdated) Version() int          { return e.EventVersion }

// FlareTrendChanged event
type FlareTrendChanged struct {
	FlareID      string    `json:"flare_id" bson:"flare_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	Trend        Trend     `json:"trend" bson:"trend"`
	EventVersion int       `json:"version" bson:"version"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

func (e *FlareTrendChanged) EventType() string     { return "FlareTrendChanged" }
func (e *FlareTrendChanged) AggregateID() string   { return e.FlareID }
func (e *FlareTrendChanged) OccurredAt() time.Time { return e.Timestamp }
func (e *FlareTrendChanged) Version() int          { return e.EventVersion }

// FlareInterventionLogged event
type FlareInterventionLogged struct {
	FlareID          string    `json:"flare_id" bson:"flare_id"`
	UserID           string    `json:"user_id" bson:"user_id"`
	InterventionType string    `json:"intervention_type" bson:"intervention_type"`
	Details          string    `json:"details,omitempty" bson:"details,omitempty"`
	EventVersion     int       `json:"version" bson:"version"`
	Timestamp        time.Time `json:"timestamp" bson:"timestamp"`
}

func (e *FlareInterventionLogged) EventType() string     { return "FlareInterventionLogged" }
func (e *FlareInterventionLogged) AggregateID() string   { return e.FlareID }
func (e *FlareInterventionLogged) OccurredAt() time.Time { return e.Timestamp }
func (e *FlareInterventionLogged) Version() int          { return e.EventVersion }

// FlareStageChanged event
type FlareStageChanged struct {
	FlareID      string          `json:"flare_id" bson:"flare_id"`
	UserID       string          `json:"user_id" bson:"user_id"`
	FromStage    lifecycle.Stage `json:"from_stage" bson:"from_stage"`
	ToStage      lifecycle.Stage `json:"to_stage" bson:"to_stage"`
	Notes        string          `json:"notes,omitempty" bson:"notes,omitempty"`
	EventVersion int             `json:"version" bson:"version"`
	Timestamp    time.Time       `json:"timestamp" bson:"timestamp"`
}

func (e *FlareStageChanged) EventType() string     { return "FlareStageChanged" }
func (e *FlareStageChanged) AggregateID() string   { return e.FlareID }
func (e *FlareStageChanged) OccurredAt() time.Time { return e.Timestamp }
func (e *FlareStageChanged) Version() int          { return e.EventVersion }

// FlareStatusChanged event
type FlareStatusChanged struct {
	FlareID      string    `json:"flare_id" bson:"flare_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	Status       Status    `json:"status" bson:"status"`
	EventVersion int       `json:"version" bson:"version"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

func (e *FlareStatusChanged) EventType() string     { return "FlareStatusChanged" }
func (e *FlareStatusChanged) AggregateID() string   { return e.FlareID }
func (e *FlareStatusChanged) OccurredAt() time.Time { return e.Timestamp }
func (e *FlareStatusChanged) Version() int          { return e.EventVersion }

// FlareResolved event
type FlareResolved struct {
	FlareID        string    `json:"flare_id" bson:"flare_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	ResolutionDate time.Time `json:"resolution_date" bson:"resolution_date"`
	Notes          string    `json:"notes,omitempty" bson:"notes,omitempty"`
	EventVersion   int       `json:"version" bson:"version"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
}

func (e *FlareResolved) EventType() string     { return "FlareResolved" }
func (e *FlareResolved) AggregateID() string   { return e.FlareID }
func (e *FlareResolved) OccurredAt() time.Time { return e.Timestamp }
func (e *FlareResolved) Version() int          { return e.EventVersion }
