package analytics

import (
	"math"
	"testing"
	"time"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/pkg/errors"
)

func makeFlare(t *testing.T, regionID string, severity, startDaysAgo int) *aggregate.Flare {
	t.Helper()
	start := time.Now().AddDate(0, 0, -startDaysAgo)
	f, err := aggregate.NewFlare("user-1", regionID, severity, "", start)
	if err != nil {
		t.Fatalf("NewFlare(%s) error = %v", regionID, err)
	}
	return f
}

func makeResolvedFlare(t *testing.T, regionID string, severity, startDaysAgo, durationDays int) *aggregate.Flare {
	t.Helper()
	f := makeFlare(t, regionID, severity, startDaysAgo)
	if err := f.Resolve(f.StartDate().AddDate(0, 0, durationDays), ""); err != nil {
		t.Fatalf("Resolve(%s) error = %v", regionID, err)
	}
	return f
}

func regionFlares(t *testing.T, regionID string, count int) []*aggregate.Flare {
	t.Helper()
	flares := make([]*aggregate.Flare, 0, count)
	for i := 0; i < count; i++ {
		flares = append(flares, makeFlare(t, regionID, 5, 10+i))
	}
	return flares
}

func TestProblemAreas(t *testing.T) {
	now := time.Now()

	t.Run("threshold drops sparse regions entirely", func(t *testing.T) {
		var flares []*aggregate.Flare
		flares = append(flares, regionFlares(t, "left-knee", 5)...)
		flares = append(flares, regionFlares(t, "right-elbow", 4)...)
		flares = append(flares, regionFlares(t, "jaw", 3)...)
		flares = append(flares, regionFlares(t, "scalp", 2)...)

		areas, err := ProblemAreas(flares, AllTime, now)
		if err != nil {
			t.Fatalf("ProblemAreas() error = %v", err)
		}

		if len(areas) != 3 {
			t.Fatalf("len(areas) = %d, want 3 (scalp below threshold)", len(areas))
		}
		for _, a := range areas {
			if a.BodyRegionID == "scalp" {
				t.Error("scalp reported despite being below the threshold")
			}
		}

		// Ranked by count descending.
		wantOrder := []string{"left-knee", "right-elbow", "jaw"}
		for i, want := range wantOrder {
			if areas[i].BodyRegionID != want {
				t.Errorf("areas[%d] = %s, want %s", i, areas[i].BodyRegionID, want)
			}
		}

		// Percentages are over included regions only and sum to 100.
		sum := 0.0
		for _, a := range areas {
			sum += a.Percentage
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("percentages sum to %f, want 100", sum)
		}
		if want := 100 * 5.0 / 12.0; math.Abs(areas[0].Percentage-want) > 1e-9 {
			t.Errorf("left-knee percentage = %f, want %f", areas[0].Percentage, want)
		}
	})

	t.Run("ties break by region ID ascending", func(t *testing.T) {
		var flares []*aggregate.Flare
		flares = append(flares, regionFlares(t, "zygoma", 3)...)
		flares = append(flares, regionFlares(t, "ankle", 3)...)

		areas, err := ProblemAreas(flares, AllTime, now)
		if err != nil {
			t.Fatalf("ProblemAreas() error = %v", err)
		}
		if len(areas) != 2 || areas[0].BodyRegionID != "ankle" || areas[1].BodyRegionID != "zygoma" {
			t.Errorf("tie order = %v, want ankle then zygoma", areas)
		}
	})

	t.Run("time range filters by start date", func(t *testing.T) {
		var flares []*aggregate.Flare
		// Three recent, three well outside the 30-day window.
		for i := 0; i < 3; i++ {
			flares = append(flares, makeFlare(t, "left-knee", 5, 5+i))
			flares = append(flares, makeFlare(t, "left-knee", 5, 200+i))
		}

		areas, err := ProblemAreas(flares, Last30Days, now)
		if err != nil {
			t.Fatalf("ProblemAreas() error = %v", err)
		}
		if len(areas) != 1 || areas[0].FlareCount != 3 {
			t.Fatalf("areas = %v, want one region with count 3", areas)
		}

		all, err := ProblemAreas(flares, AllTime, now)
		if err != nil {
			t.Fatalf("ProblemAreas() error = %v", err)
		}
		if len(all) != 1 || all[0].FlareCount != 6 {
			t.Fatalf("areas = %v, want one region with count 6 over all time", all)
		}
	})

	t.Run("resolved flares still count", func(t *testing.T) {
		flares := []*aggregate.Flare{
			makeResolvedFlare(t, "jaw", 5, 30, 5),
			makeResolvedFlare(t, "jaw", 5, 20, 5),
			makeFlare(t, "jaw", 5, 10),
		}
		areas, err := ProblemAreas(flares, AllTime, now)
		if err != nil {
			t.Fatalf("ProblemAreas() error = %v", err)
		}
		if len(areas) != 1 || areas[0].FlareCount != 3 {
			t.Fatalf("areas = %v, want jaw with count 3", areas)
		}
	})

	t.Run("no region above threshold yields empty result", func(t *testing.T) {
		areas, err := ProblemAreas(regionFlares(t, "jaw", 2), AllTime, now)
		if err != nil {
			t.Fatalf("ProblemAreas() error = %v", err)
		}
		if len(areas) != 0 {
			t.Errorf("areas = %v, want empty", areas)
		}
	})

	t.Run("unknown time range is rejected", func(t *testing.T) {
		_, err := ProblemAreas(nil, TimeRange("last7d"), now)
		if !errors.HasCode(err, errors.CodeValidation) {
			t.Errorf("error = %v, want VALIDATION_ERROR", err)
		}
	})
}

func TestFlaresByRegion(t *testing.T) {
	older := makeResolvedFlare(t, "left-knee", 7, 40, 12)
	newer := makeFlare(t, "left-knee", 5, 3)
	other := makeFlare(t, "jaw", 4, 3)
	now := time.Now()

	summaries := FlaresByRegion([]*aggregate.Flare{older, newer, other}, "left-knee", now)

	if len(summaries) != 2 {
		t.Fatalf("len(summaries) = %d, want 2", len(summaries))
	}
	if summaries[0].FlareID != newer.ID() {
		t.Error("summaries not ordered newest start first")
	}
	if summaries[1].DurationDays != 12 {
		t.Errorf("resolved duration = %d, want 12", summaries[1].DurationDays)
	}
	if summaries[0].DurationDays != 3 {
		t.Errorf("ongoing duration so far = %d, want 3", summaries[0].DurationDays)
	}
	if summaries[0].EndDate != nil {
		t.Error("ongoing flare reported an end date")
	}

	if empty := FlaresByRegion(nil, "left-knee", now); len(empty) != 0 {
		t.Errorf("FlaresByRegion(nil) = %v, want empty slice", empty)
	}
}

func TestComputeRegionStatistics(t *testing.T) {
	now := time.Now()

	t.Run("empty region", func(t *testing.T) {
		stats := ComputeRegionStatistics(nil, "left-knee", now)
		if stats.TotalCount != 0 {
			t.Errorf("TotalCount = %d, want 0", stats.TotalCount)
		}
		if stats.AverageDurationDays != nil || stats.RecurrenceRate != nil {
			t.Error("empty region must report nil averages, not zeros")
		}
	})

	t.Run("no resolved flares means no average duration", func(t *testing.T) {
		flares := []*aggregate.Flare{
			makeFlare(t, "jaw", 4, 10),
			makeFlare(t, "jaw", 6, 20),
		}
		stats := ComputeRegionStatistics(flares, "jaw", now)
		if stats.TotalCount != 2 {
			t.Errorf("TotalCount = %d, want 2", stats.TotalCount)
		}
		if stats.AverageDurationDays != nil {
			t.Errorf("AverageDurationDays = %v, want nil with zero resolved flares", *stats.AverageDurationDays)
		}
		if math.Abs(stats.AverageSeverity-5.0) > 1e-9 {
			t.Errorf("AverageSeverity = %f, want 5.0", stats.AverageSeverity)
		}
	})

	t.Run("single flare cannot support a recurrence estimate", func(t *testing.T) {
		stats := ComputeRegionStatistics([]*aggregate.Flare{makeFlare(t, "jaw", 5, 100)}, "jaw", now)
		if stats.RecurrenceRate != nil {
			t.Errorf("RecurrenceRate = %v, want nil for a single flare", *stats.RecurrenceRate)
		}
	})

	t.Run("averages and recurrence over a mixed region", func(t *testing.T) {
		peaked := makeFlare(t, "left-knee", 5, 90)
		if err := peaked.UpdateSeverity(9); err != nil {
			t.Fatal(err)
		}
		flares := []*aggregate.Flare{
			peaked, // peak 9, unresolved
			makeResolvedFlare(t, "left-knee", 7, 180, 10),
			makeResolvedFlare(t, "left-knee", 5, 60, 20),
			makeFlare(t, "jaw", 10, 5), // other region, ignored
		}

		stats := ComputeRegionStatistics(flares, "left-knee", now)

		if stats.TotalCount != 3 {
			t.Fatalf("TotalCount = %d, want 3", stats.TotalCount)
		}

		// Mean of peak severities 9, 7, 5.
		if math.Abs(stats.AverageSeverity-7.0) > 1e-9 {
			t.Errorf("AverageSeverity = %f, want 7.0", stats.AverageSeverity)
		}

		// Resolved durations 10 and 20 days.
		if stats.AverageDurationDays == nil {
			t.Fatal("AverageDurationDays = nil, want a value")
		}
		if math.Abs(*stats.AverageDurationDays-15.0) > 1e-9 {
			t.Errorf("AverageDurationDays = %f, want 15.0", *stats.AverageDurationDays)
		}

		// 3 flares over a 180-day span is 1.5 per 90-day period.
		if stats.RecurrenceRate == nil {
			t.Fatal("RecurrenceRate = nil, want a value")
		}
		if math.Abs(*stats.RecurrenceRate-1.5) > 0.01 {
			t.Errorf("RecurrenceRate = %f, want about 1.5", *stats.RecurrenceRate)
		}
	})

	t.Run("same-day flares clamp span to one day", func(t *testing.T) {
		flares := []*aggregate.Flare{
			makeFlare(t, "jaw", 5, 0),
			makeFlare(t, "jaw", 5, 0),
		}
		stats := ComputeRegionStatistics(flares, "jaw", now)
		if stats.RecurrenceRate == nil {
			t.Fatal("RecurrenceRate = nil, want a value")
		}
		// span clamps to 1 day: 2 / (1/90) = 180.
		if math.Abs(*stats.RecurrenceRate-180.0) > 1.0 {
			t.Errorf("RecurrenceRate = %f, want about 180", *stats.RecurrenceRate)
		}
	})
}

func TestTimeRangeIsValid(t *testing.T) {
	for _, r := range []TimeRange{Last30Days, Last90Days, LastYear, AllTime} {
		if !r.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", r)
		}
	}
	if TimeRange("last7d").IsValid() {
		t.Error("IsValid(last7d) = true, want false")
	}
}
