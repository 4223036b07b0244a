package aggregate

import (
	"time"

	"flaretrack/internal/domain/event"
	"flaretrack/internal/domain/lifecycle"
	"flaretrack/pkg/errors"

	"github.com/google/uuid"
)

const (
	MinSeverity = 1
	MaxSeverity = 10
)

// Flare is the aggregate root for a tracked symptom episode. Its mutable
// projection (current severity, status, lifecycle stage) is derived
// exclusively by folding the append-only event log; no field is ever written
// outside applyEvent.
//
// status and trend are deliberately independent facets: status is a
// caller-set convenience (active/improving/worsening), trend comes from
// FlareTrendChanged events and is what analytics reads. They are never
// reconciled.
type Flare struct {
	id              string
	userID          string
	bodyRegionID    string
	startDate       time.Time
	endDate         *time.Time
	status          event.Status
	initialSeverity int
	currentSeverity int
	peakSeverity    int
	currentStage    lifecycle.Stage
	trend           event.Trend
	notes           string
	stageHistory    []lifecycle.StageEntry
	version         int
	createdAt       time.Time
	updatedAt       time.Time

	uncommittedEvents []event.DomainEvent
}

// NewFlare creates a flare and raises its FlareCreated event. A zero
// startDate means the flare starts now.
func NewFlare(userID, bodyRegionID string, severity int, notes string, startDate time.Time) (*Flare, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user_id cannot be empty")
	}
	if bodyRegionID == "" {
		return nil, errors.NewValidationError("body_region_id cannot be empty")
	}
	if severity < MinSeverity || severity > MaxSeverity {
		return nil, errors.NewValidationError("severity must be between 1 and 10")
	}
	now := time.Now()
	if startDate.IsZero() {
		startDate = now
	}
	if startDate.After(now) {
		return nil, errors.NewValidationError("start_date cannot be in the future")
	}

	f := &Flare{}
	f.raiseEvent(&event.FlareCreated{
		FlareID:      uuid.New().String(),
		UserID:       userID,
		BodyRegionID: bodyRegionID,
		Severity:     severity,
		Notes:        notes,
		StartDate:    startDate,
		Timestamp:    now,
	})
	return f, nil
}

// NewFlareFromHistory rebuilds a flare by replaying its ordered event log.
// Replay is deterministic: the same log always yields the same projection.
func NewFlareFromHistory(events []event.DomainEvent) (*Flare, error) {
	if len(events) == 0 {
		return nil, errors.NewNotFoundError("flare")
	}
	f := &Flare{}
	for _, e := range events {
		if err := f.applyEvent(e); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// UpdateSeverity records a new current severity on the 1-10 scale.
func (f *Flare) UpdateSeverity(severity int) error {
	if f.IsResolved() {
		return errors.NewInvalidStateError("cannot update severity of a resolved flare")
	}
	if severity < MinSeverity || severity > MaxSeverity {
		return errors.NewValidationError("severity must be between 1 and 10")
	}
	f.raiseEvent(&event.FlareSeverityUpdated{
		FlareID:      f.id,
		UserID:       f.userID,
		Severity:     severity,
		EventVersion: f.version + 1,
		Timestamp:    time.Now(),
	})
	return nil
}

// ChangeTrend records the flare's direction of travel for analytics.
func (f *Flare) ChangeTrend(trend event.Trend) error {
	if f.IsResolved() {
		return errors.NewInvalidStateError("cannot change trend of a resolved flare")
	}
	switch trend {
	case event.TrendImproving, event.TrendStable, event.TrendWorsening:
	default:
		return errors.NewValidationError("trend must be improving, stable or worsening")
	}
	f.raiseEvent(&event.FlareTrendChanged{
		FlareID:      f.id,
		UserID:       f.userID,
		Trend:        trend,
		EventVersion: f.version + 1,
		Timestamp:    time.Now(),
	})
	return nil
}

// LogIntervention appends an intervention entry to the flare's history.
func (f *Flare) LogIntervention(interventionType, details string) error {
	if f.IsResolved() {
		return errors.NewInvalidStateError("cannot log an intervention on a resolved flare")
	}
	if interventionType == "" {
		return errors.NewValidationError("intervention_type cannot be empty")
	}
	f.raiseEvent(&event.FlareInterventionLogged{
		FlareID:          f.id,
		UserID:           f.userID,
		InterventionType: interventionType,
		Details:          details,
		EventVersion:     f.version + 1,
		Timestamp:        time.Now(),
	})
	return nil
}

// ChangeStage moves the flare to a new lifecycle stage. A flare without a
// stage may enter any stage (granular tracking can begin mid-episode); once
// a stage exists only the immediate successor or the resolved stage is
// accepted. A rejected transition leaves the projection untouched.
func (f *Flare) ChangeStage(to lifecycle.Stage, notes string) error {
	if f.IsResolved() {
		return errors.NewInvalidStateError("cannot change stage of a resolved flare")
	}
	if !lifecycle.IsValid(to) {
		return errors.NewValidationError("unknown lifecycle stage")
	}
	if f.currentStage == lifecycle.StageResolved {
		return errors.NewInvalidStateError("resolved is a terminal stage")
	}
	if f.currentStage != lifecycle.StageNone && !lifecycle.IsValidTransition(f.currentStage, to) {
		return errors.NewValidationError("illegal stage transition")
	}
	f.raiseEvent(&event.FlareStageChanged{
		FlareID:      f.id,
		UserID:       f.userID,
		FromStage:    f.currentStage,
		ToStage:      to,
		Notes:        notes,
		EventVersion: f.version + 1,
		Timestamp:    time.Now(),
	})
	return nil
}

// SetStatus sets the caller-facing status facet. Resolving must go through
// Resolve so the endDate invariant holds.
func (f *Flare) SetStatus(status event.Status) error {
	if f.IsResolved() {
		return errors.NewInvalidStateError("cannot change status of a resolved flare")
	}
	switch status {
	case event.StatusActive, event.StatusImproving, event.StatusWorsening:
	default:
		return errors.NewValidationError("status must be active, improving or worsening")
	}
	f.raiseEvent(&event.FlareStatusChanged{
		FlareID:      f.id,
		UserID:       f.userID,
		Status:       status,
		EventVersion: f.version + 1,
		Timestamp:    time.Now(),
	})
	return nil
}

// Resolve terminates the flare. A second resolve fails; the resolution date
// must fall within [startDate, now].
func (f *Flare) Resolve(resolutionDate time.Time, notes string) error {
	if f.IsResolved() {
		return errors.NewInvalidStateError("flare is already resolved")
	}
	if resolutionDate.IsZero() {
		resolutionDate = time.Now()
	}
	if resolutionDate.Before(f.startDate) {
		return errors.NewValidationError("resolution_date cannot be before start_date")
	}
	if resolutionDate.After(time.Now()) {
		return errors.NewValidationError("resolution_date cannot be in the future")
	}
	f.raiseEvent(&event.FlareResolved{
		FlareID:        f.id,
		UserID:         f.userID,
		ResolutionDate: resolutionDate,
		Notes:          notes,
		EventVersion:   f.version + 1,
		Timestamp:      time.Now(),
	})
	return nil
}

func (f *Flare) GetUncommittedEvents() []event.DomainEvent {
	return f.uncommittedEvents
}

func (f *Flare) ClearUncommittedEvents() {
	f.uncommittedEvents = nil
}

func (f *Flare) MarkEventsAsCommitted() {
	f.uncommittedEvents = nil
}

func (f *Flare) raiseEvent(ev event.DomainEvent) {
	f.uncommittedEvents = append(f.uncommittedEvents, ev)
	_ = f.applyEvent(ev)
}

// applyEvent folds one event into the projection. This is the only place
// projection fields are written.
func (f *Flare) applyEvent(ev event.DomainEvent) error {
	switch e := ev.(type) {
	case *event.FlareCreated:
		f.id = e.FlareID
		f.userID = e.UserID
		f.bodyRegionID = e.BodyRegionID
		f.startDate = e.StartDate
		f.status = event.StatusActive
		f.initialSeverity = e.Severity
		f.currentSeverity = e.Severity
		f.peakSeverity = e.Severity
		f.notes = e.Notes
		f.createdAt = e.Timestamp
		f.updatedAt = e.Timestamp
		f.version = 1

	case *event.FlareSeverityUpdated:
		f.currentSeverity = e.Severity
		if e.Severity > f.peakSeverity {
			f.peakSeverity = e.Severity
		}
		f.version = e.EventVersion
		f.updatedAt = e.Timestamp

	case *event.FlareTrendChanged:
		f.trend = e.Trend
		f.version = e.EventVersion
		f.updatedAt = e.Timestamp

	case *event.FlareInterventionLogged:
		f.version = e.EventVersion
		f.updatedAt = e.Timestamp

	case *event.FlareStageChanged:
		f.currentStage = e.ToStage
		f.stageHistory = append(f.stageHistory, lifecycle.StageEntry{
			Stage:     e.ToStage,
			EnteredAt: e.Timestamp,
		})
		f.version = e.EventVersion
		f.updatedAt = e.Timestamp

	case *event.FlareStatusChanged:
		f.status = e.Status
		f.version = e.EventVersion
		f.updatedAt = e.Timestamp

	case *event.FlareResolved:
		end := e.ResolutionDate
		f.endDate = &end
		f.status = event.StatusResolved
		f.version = e.EventVersion
		f.updatedAt = e.Timestamp

	default:
		return errors.NewInternalError("unknown event type")
	}

	return nil
}

// Getters
func (f *Flare) ID() string                    { return f.id }
func (f *Flare) UserID() string                { return f.userID }
func (f *Flare) BodyRegionID() string          { return f.bodyRegionID }
func (f *Flare) StartDate() time.Time          { return f.startDate }
func (f *Flare) EndDate() *time.Time           { return f.endDate }
func (f *Flare) Status() event.Status          { return f.status }
func (f *Flare) InitialSeverity() int          { return f.initialSeverity }
func (f *Flare) CurrentSeverity() int          { return f.currentSeverity }
func (f *Flare) CurrentStage() lifecycle.Stage { return f.currentStage }
func (f *Flare) Trend() event.Trend            { return f.trend }
func (f *Flare) Notes() string                 { return f.notes }
func (f *Flare) Version() int                  { return f.version }
func (f *Flare) CreatedAt() time.Time          { return f.createdAt }
func (f *Flare) UpdatedAt() time.Time          { return f.updatedAt }

func (f *Flare) IsResolved() bool {
	return f.status == event.StatusResolved
}

// PeakSeverity is the maximum of the initial severity and every recorded
// severity update, maintained by the fold so it is correct by construction.
func (f *Flare) PeakSeverity() int {
	return f.peakSeverity
}

// TrendOutcome is the trend of the most recent FlareTrendChanged event, or
// TrendNone when the flare never had one. The engine reports TrendNone
// rather than guessing a default.
func (f *Flare) TrendOutcome() event.Trend {
	return f.trend
}

// StageHistory returns the ordered stage transitions, oldest first.
func (f *Flare) StageHistory() []lifecycle.StageEntry {
	history := make([]lifecycle.StageEntry, len(f.stageHistory))
	copy(history, f.stageHistory)
	return history
}

// DaysInCurrentStage computes whole days since entry into the current stage.
func (f *Flare) DaysInCurrentStage(now time.Time) int {
	return lifecycle.DaysInStage(f.startDate, f.stageHistory, now)
}

// DurationDays is the flare's length in whole days, floor-rounded. For an
// unresolved flare this is the duration so far.
func (f *Flare) DurationDays(now time.Time) int {
	end := now
	if f.endDate != nil {
		end = *f.endDate
	}
	if end.Before(f.startDate) {
		return 0
	}
	return int(end.Sub(f.startDate).Hours() / 24)
}
