package query

import (
	"context"
	"testing"
	"time"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/internal/domain/analytics"
	"flaretrack/internal/infrastructure/eventstore"
	"flaretrack/pkg/errors"
)

func seedFlare(t *testing.T, store *eventstore.InMemoryFlareStore, userID, regionID string, startDaysAgo int) *aggregate.Flare {
	t.Helper()
	f, err := aggregate.NewFlare(userID, regionID, 5, "", time.Now().AddDate(0, 0, -startDaysAgo))
	if err != nil {
		t.Fatalf("NewFlare() error = %v", err)
	}
	if err := store.Save(context.Background(), f); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return f
}

func TestGetProblemAreasHandler(t *testing.T) {
	store := eventstore.NewInMemoryFlareStore()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seedFlare(t, store, "user-1", "left-knee", 10+i)
	}
	for i := 0; i < 3; i++ {
		seedFlare(t, store, "user-1", "jaw", 20+i)
	}
	seedFlare(t, store, "user-1", "scalp", 5)
	// Another user's flares never leak into the report.
	for i := 0; i < 5; i++ {
		seedFlare(t, store, "user-2", "left-knee", 10+i)
	}

	handler := NewGetProblemAreasHandler(store)

	areas, err := handler.Handle(ctx, &GetProblemAreas{UserID: "user-1", TimeRange: analytics.AllTime})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(areas) != 2 {
		t.Fatalf("len(areas) = %d, want 2", len(areas))
	}
	if areas[0].BodyRegionID != "left-knee" || areas[0].FlareCount != 4 {
		t.Errorf("areas[0] = %+v, want left-knee with 4 flares", areas[0])
	}
	if areas[1].BodyRegionID != "jaw" || areas[1].FlareCount != 3 {
		t.Errorf("areas[1] = %+v, want jaw with 3 flares", areas[1])
	}

	t.Run("invalid time range", func(t *testing.T) {
		_, err := handler.Handle(ctx, &GetProblemAreas{UserID: "user-1", TimeRange: "last7d"})
		if !errors.HasCode(err, errors.CodeValidation) {
			t.Errorf("error = %v, want VALIDATION_ERROR", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := handler.Handle(ctx, &GetProblemAreas{TimeRange: analytics.AllTime})
		if !errors.HasCode(err, errors.CodeValidation) {
			t.Errorf("error = %v, want VALIDATION_ERROR", err)
		}
	})
}

func TestGetFlaresByRegionHandler(t *testing.T) {
	store := eventstore.NewInMemoryFlareStore()
	ctx := context.Background()

	older := seedFlare(t, store, "user-1", "left-knee", 30)
	newer := seedFlare(t, store, "user-1", "left-knee", 2)
	seedFlare(t, store, "user-1", "jaw", 5)

	handler := NewGetFlaresByRegionHandler(store)

	summaries, err := handler.Handle(ctx, &GetFlaresByRegion{UserID: "user-1", BodyRegionID: "left-knee"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len(summaries) = %d, want 2", len(summaries))
	}
	if summaries[0].FlareID != newer.ID() || summaries[1].FlareID != older.ID() {
		t.Error("summaries not ordered newest start first")
	}

	empty, err := handler.Handle(ctx, &GetFlaresByRegion{UserID: "user-1", BodyRegionID: "elbow"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len(summaries) = %d for untouched region, want 0", len(empty))
	}
}

func TestGetRegionStatisticsHandler(t *testing.T) {
	store := eventstore.NewInMemoryFlareStore()
	ctx := context.Background()

	f := seedFlare(t, store, "user-1", "left-knee", 60)
	loaded, err := store.GetByID(ctx, f.ID())
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.Resolve(loaded.StartDate().AddDate(0, 0, 10), ""); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatal(err)
	}
	seedFlare(t, store, "user-1", "left-knee", 15)

	handler := NewGetRegionStatisticsHandler(store)

	stats, err := handler.Handle(ctx, &GetRegionStatistics{UserID: "user-1", BodyRegionID: "left-knee"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if stats.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", stats.TotalCount)
	}
	if stats.AverageDurationDays == nil || *stats.AverageDurationDays != 10 {
		t.Errorf("AverageDurationDays = %v, want 10", stats.AverageDurationDays)
	}
	if stats.RecurrenceRate == nil {
		t.Error("RecurrenceRate = nil, want a value with two flares")
	}

	t.Run("region with no flares", func(t *testing.T) {
		stats, err := handler.Handle(ctx, &GetRegionStatistics{UserID: "user-1", BodyRegionID: "elbow"})
		if err != nil {
			t.Fatalf("Handle() error = %v", err)
		}
		if stats.TotalCount != 0 || stats.AverageDurationDays != nil || stats.RecurrenceRate != nil {
			t.Errorf("stats = %+v, want zero count and nil averages", stats)
		}
	})
}

func TestGetFlareEventsHandler(t *testing.T) {
	store := eventstore.NewInMemoryFlareStore()
	ctx := context.Background()

	f := seedFlare(t, store, "user-1", "left-knee", 10)
	loaded, err := store.GetByID(ctx, f.ID())
	if err != nil {
		t.Fatal(err)
	}
	if err := loaded.UpdateSeverity(8); err != nil {
		t.Fatal(err)
	}
	if err := loaded.Resolve(time.Time{}, ""); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatal(err)
	}

	handler := NewGetFlareEventsHandler(store)

	// History stays readable after resolution.
	events, err := handler.Handle(ctx, &GetFlareEvents{UserID: "user-1", FlareID: f.ID()})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	want := []string{"FlareCreated", "FlareSeverityUpdated", "FlareResolved"}
	for i, w := range want {
		if events[i].EventType() != w {
			t.Errorf("events[%d] = %s, want %s", i, events[i].EventType(), w)
		}
	}

	t.Run("cross-user access reads as absence", func(t *testing.T) {
		_, err := handler.Handle(ctx, &GetFlareEvents{UserID: "user-2", FlareID: f.ID()})
		if !errors.HasCode(err, errors.CodeNotFound) {
			t.Errorf("error = %v, want NOT_FOUND", err)
		}
	})

	t.Run("unknown flare", func(t *testing.T) {
		_, err := handler.Handle(ctx, &GetFlareEvents{UserID: "user-1", FlareID: "missing"})
		if !errors.HasCode(err, errors.CodeNotFound) {
			t.Errorf("error = %v, want NOT_FOUND", err)
		}
	})
}
