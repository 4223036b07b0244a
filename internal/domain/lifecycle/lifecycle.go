package lifecycle

import (
	"time"
)

// Stage represents a flare's position in the fixed six-step progression.
type Stage string

const (
	// StageNone marks a flare that is not tracked at stage granularity.
	StageNone     Stage = ""
	StageOnset    Stage = "onset"
	StageGrowth   Stage = "growth"
	StageRupture  Stage = "rupture"
	StageDraining Stage = "draining"
	StageHealing  Stage = "healing"
	StageResolved Stage = "resolved"
)

// stageOrder is the strict forward order of the progression.
var stageOrder = []Stage{
	StageOnset,
	StageGrowth,
	StageRupture,
	StageDraining,
	StageHealing,
	StageResolved,
}

// IsValid reports whether s names a real stage.
func IsValid(s Stage) bool {
	for _, stage := range stageOrder {
		if stage == s {
			return true
		}
	}
	return false
}

// IsValidTransition reports whether a flare may move from one stage to
// another. Legal moves are the immediate successor in the progression, or
// resolved from any non-resolved stage. Backward moves and skips are
// rejected; resolved is terminal.
func IsValidTransition(from, to Stage) bool {
	if !IsValid(from) || !IsValid(to) {
		return false
	}
	if from == StageResolved {
		return false
	}
	if to == StageResolved {
		return true
	}
	return NextStage(from) == to
}

// NextStage returns the immediate successor of a stage, or StageNone when the
// stage is resolved (or unknown).
func NextStage(s Stage) Stage {
	for i, stage := range stageOrder {
		if stage == s && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return StageNone
}

// Format returns the display label for a stage.
func Format(s Stage) string {
	switch s {
	case StageOnset:
		return "Onset"
	case StageGrowth:
		return "Growth"
	case StageRupture:
		return "Rupture"
	case StageDraining:
		return "Draining"
	case StageHealing:
		return "Healing"
	case StageResolved:
		return "Resolved"
	default:
		return "Untracked"
	}
}

// Icon returns the emoji used for a stage in list views.
func Icon(s Stage) string {
	switch s {
	case StageOnset:
		return "🔴"
	case StageGrowth:
		return "🟠"
	case StageRupture:
		return "💥"
	case StageDraining:
		return "💧"
	case StageHealing:
		return "🩹"
	case StageResolved:
		return "✅"
	default:
		return "⚪"
	}
}

// Description returns the explanatory copy for a stage.
func Description(s Stage) string {
	switch s {
	case StageOnset:
		return "First signs of a new flare: tenderness, redness or swelling"
	case StageGrowth:
		return "The flare is growing or becoming more inflamed"
	case StageRupture:
		return "The flare has opened or started to discharge"
	case StageDraining:
		return "The flare is actively draining"
	case StageHealing:
		return "Drainage has stopped and the area is closing up"
	case StageResolved:
		return "The flare has fully healed"
	default:
		return "This flare is not tracked at stage level"
	}
}

// StageEntry records one transition in a flare's stage history.
type StageEntry struct {
	Stage     Stage     `json:"stage"`
	EnteredAt time.Time `json:"entered_at"`
}

// DaysInStage computes whole days elapsed since entry into the current
// stage, floor-rounded, minimum 0. Entry time is the most recent transition
// into the current stage, falling back to startDate when the flare has never
// had a stage change.
func DaysInStage(startDate time.Time, history []StageEntry, now time.Time) int {
	entered := startDate
	if len(history) > 0 {
		entered = history[len(history)-1].EnteredAt
	}
	if now.Before(entered) {
		return 0
	}
	return int(now.Sub(entered).Hours() / 24)
}
