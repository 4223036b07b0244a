package lifecycle

import (
	"testing"
	"time"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"onset to growth", StageOnset, StageGrowth, true},
		{"growth to rupture", StageGrowth, StageRupture, true},
		{"rupture to draining", StageRupture, StageDraining, true},
		{"draining to healing", StageDraining, StageHealing, true},
		{"healing to resolved", StageHealing, StageResolved, true},
		{"onset straight to resolved", StageOnset, StageResolved, true},
		{"growth straight to resolved", StageGrowth, StageResolved, true},
		{"skip onset to rupture", StageOnset, StageRupture, false},
		{"skip growth to healing", StageGrowth, StageHealing, false},
		{"backward growth to onset", StageGrowth, StageOnset, false},
		{"backward healing to draining", StageHealing, StageDraining, false},
		{"resolved is terminal", StageResolved, StageOnset, false},
		{"resolved to resolved", StageResolved, StageResolved, false},
		{"same stage", StageGrowth, StageGrowth, false},
		{"unknown from", Stage("bogus"), StageGrowth, false},
		{"unknown to", StageOnset, Stage("bogus"), false},
		{"empty from", StageNone, StageOnset, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNextStage(t *testing.T) {
	tests := []struct {
		from Stage
		want Stage
	}{
		{StageOnset, StageGrowth},
		{StageGrowth, StageRupture},
		{StageRupture, StageDraining},
		{StageDraining, StageHealing},
		{StageHealing, StageResolved},
		{StageResolved, StageNone},
		{Stage("bogus"), StageNone},
	}

	for _, tt := range tests {
		if got := NextStage(tt.from); got != tt.want {
			t.Errorf("NextStage(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	for _, s := range []Stage{StageOnset, StageGrowth, StageRupture, StageDraining, StageHealing, StageResolved} {
		if !IsValid(s) {
			t.Errorf("IsValid(%q) = false, want true", s)
		}
	}
	for _, s := range []Stage{StageNone, Stage("healed"), Stage("ONSET")} {
		if IsValid(s) {
			t.Errorf("IsValid(%q) = true, want false", s)
		}
	}
}

func TestDaysInStage(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -20)

	tests := []struct {
		name    string
		history []StageEntry
		want    int
	}{
		{
			name:    "no stage history falls back to start date",
			history: nil,
			want:    20,
		},
		{
			name: "uses most recent transition",
			history: []StageEntry{
				{Stage: StageOnset, EnteredAt: now.AddDate(0, 0, -18)},
				{Stage: StageGrowth, EnteredAt: now.AddDate(0, 0, -3)},
			},
			want: 3,
		},
		{
			name: "partial day floors to whole days",
			history: []StageEntry{
				{Stage: StageOnset, EnteredAt: now.Add(-36 * time.Hour)},
			},
			want: 1,
		},
		{
			name: "entry after now clamps to zero",
			history: []StageEntry{
				{Stage: StageOnset, EnteredAt: now.Add(2 * time.Hour)},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysInStage(start, tt.history, now); got != tt.want {
				t.Errorf("DaysInStage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if got := Format(StageDraining); got != "Draining" {
		t.Errorf("Format(draining) = %q, want Draining", got)
	}
	if got := Format(StageNone); got != "Untracked" {
		t.Errorf("Format(none) = %q, want Untracked", got)
	}
}
