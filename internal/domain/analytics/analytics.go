package analytics

import (
	"sort"
	"time"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/internal/domain/event"
	"flaretrack/internal/domain/lifecycle"
	"flaretrack/pkg/errors"
)

// TimeRange selects the window a problem-area query covers. Filtering is by
// a flare's start date falling within [now - window, now].
type TimeRange string

const (
	Last30Days TimeRange = "last30d"
	Last90Days TimeRange = "last90d"
	LastYear   TimeRange = "lastYear"
	AllTime    TimeRange = "allTime"
)

// MinRegionFlareCount is the statistical-noise floor for problem-area
// rankings: regions with fewer flares in the window are dropped entirely,
// not shown as zero.
const MinRegionFlareCount = 3

// recurrencePeriodDays normalizes recurrence rates to flares per 90 days.
const recurrencePeriodDays = 90.0

// cutoff returns the window start for a time range. ok is false for AllTime.
func (r TimeRange) cutoff(now time.Time) (time.Time, bool) {
	switch r {
	case Last30Days:
		return now.AddDate(0, 0, -30), true
	case Last90Days:
		return now.AddDate(0, 0, -90), true
	case LastYear:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// IsValid reports whether r names a supported time range.
func (r TimeRange) IsValid() bool {
	switch r {
	case Last30Days, Last90Days, LastYear, AllTime:
		return true
	}
	return false
}

// ProblemArea is one row of the ranked problem-areas report.
type ProblemArea struct {
	BodyRegionID string  `json:"body_region_id"`
	FlareCount   int     `json:"flare_count"`
	Percentage   float64 `json:"percentage"`
}

// ProblemAreas ranks body regions by flare frequency within a time window.
// Both active and resolved flares count. Percentages are computed over the
// regions that pass the threshold, so reported percentages sum to 100.
// Ordering is flare count descending, region ID ascending on ties.
func ProblemAreas(flares []*aggregate.Flare, timeRange TimeRange, now time.Time) ([]ProblemArea, error) {
	if !timeRange.IsValid() {
		return nil, errors.NewValidationError("unknown time range")
	}

	counts := make(map[string]int)
	for _, f := range flares {
		if cut, bounded := timeRange.cutoff(now); bounded {
			if f.StartDate().Before(cut) || f.StartDate().After(now) {
				continue
			}
		}
		counts[f.BodyRegionID()]++
	}

	total := 0
	areas := make([]ProblemArea, 0, len(counts))
	for region, count := range counts {
		if count < MinRegionFlareCount {
			continue
		}
		areas = append(areas, ProblemArea{BodyRegionID: region, FlareCount: count})
		total += count
	}

	for i := range areas {
		areas[i].Percentage = 100 * float64(areas[i].FlareCount) / float64(total)
	}

	sort.Slice(areas, func(i, j int) bool {
		if areas[i].FlareCount != areas[j].FlareCount {
			return areas[i].FlareCount > areas[j].FlareCount
		}
		return areas[i].BodyRegionID < areas[j].BodyRegionID
	})

	return areas, nil
}

// FlareSummary is the per-flare row of a region report.
type FlareSummary struct {
	FlareID         string          `json:"flare_id"`
	BodyRegionID    string          `json:"body_region_id"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	Status          event.Status    `json:"status"`
	CurrentStage    lifecycle.Stage `json:"current_stage,omitempty"`
	CurrentSeverity int             `json:"current_severity"`
	DurationDays    int             `json:"duration_days"`
	PeakSeverity    int             `json:"peak_severity"`
	TrendOutcome    event.Trend     `json:"trend_outcome,omitempty"`
}

// FlaresByRegion summarizes every flare in a region, newest start first.
// Unresolved flares report their duration so far.
func FlaresByRegion(flares []*aggregate.Flare, bodyRegionID string, now time.Time) []FlareSummary {
	summaries := make([]FlareSummary, 0)
	for _, f := range flares {
		if f.BodyRegionID() != bodyRegionID {
			continue
		}
		summaries = append(summaries, FlareSummary{
			FlareID:         f.ID(),
			BodyRegionID:    f.BodyRegionID(),
			StartDate:       f.StartDate(),
			EndDate:         f.EndDate(),
			Status:          f.Status(),
			CurrentStage:    f.CurrentStage(),
			CurrentSeverity: f.CurrentSeverity(),
			DurationDays:    f.DurationDays(now),
			PeakSeverity:    f.PeakSeverity(),
			TrendOutcome:    f.TrendOutcome(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].StartDate.Equal(summaries[j].StartDate) {
			return summaries[i].StartDate.After(summaries[j].StartDate)
		}
		return summaries[i].FlareID < summaries[j].FlareID
	})

	return summaries
}

// RegionStatistics describes a region across all time. Averages carry full
// precision; rounding for display happens at the API boundary.
//
// AverageDurationDays is nil when the region has no resolved flares ("no
// data" is distinct from zero days). RecurrenceRate is nil when fewer than
// two flares exist, since a single occurrence cannot support a recurrence
// estimate.
type RegionStatistics struct {
	TotalCount          int      `json:"total_count"`
	AverageDurationDays *float64 `json:"average_duration_days"`
	AverageSeverity     float64  `json:"average_severity"`
	RecurrenceRate      *float64 `json:"recurrence_rate"`
}

// ComputeRegionStatistics derives descriptive statistics for one region.
// Average duration covers resolved flares only; average severity is the mean
// peak severity over all flares; recurrence is flares per 90-day period over
// the span from the earliest start date to now.
func ComputeRegionStatistics(flares []*aggregate.Flare, bodyRegionID string, now time.Time) RegionStatistics {
	var (
		total         int
		severitySum   int
		resolvedCount int
		durationSum   int
		earliest      time.Time
		haveEarliest  bool
	)

	for _, f := range flares {
		if f.BodyRegionID() != bodyRegionID {
			continue
		}
		total++
		severitySum += f.PeakSeverity()
		if f.EndDate() != nil {
			resolvedCount++
			durationSum += f.DurationDays(now)
		}
		if !haveEarliest || f.StartDate().Before(earliest) {
			earliest = f.StartDate()
			haveEarliest = true
		}
	}

	stats := RegionStatistics{TotalCount: total}
	if total == 0 {
		return stats
	}

	stats.AverageSeverity = float64(severitySum) / float64(total)

	if resolvedCount > 0 {
		avg := float64(durationSum) / float64(resolvedCount)
		stats.AverageDurationDays = &avg
	}

	if total >= 2 {
		spanDays := now.Sub(earliest).Hours() / 24
		if spanDays < 1 {
			spanDays = 1
		}
		rate := float64(total) / (spanDays / recurrencePeriodDays)
		stats.RecurrenceRate = &rate
	}

	return stats
}
