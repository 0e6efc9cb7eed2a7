package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/planner"
	"github.com/claude/fittrack/internal/store"
)

// TestDateRange verifies bound parsing and the open-bound default.
func TestDateRange(t *testing.T) {
	start, end, err := dateRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "" || end != "" {
		t.Errorf("open range = [%q, %q], want empty bounds", start, end)
	}

	start, end, err = dateRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "2024-01-01" || end != "2024-01-31" {
		t.Errorf("range = [%s, %s], want [2024-01-01, 2024-01-31]", start, end)
	}

	if _, _, err = dateRange("not-a-date", ""); err == nil {
		t.Error("expected error for invalid start date")
	}
	if _, _, err = dateRange("", "31/01/2024"); err == nil {
		t.Error("expected error for invalid end date")
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		d, start, end models.Date
		want          bool
	}{
		{"2024-01-15", "", "", true},
		{"2024-01-15", "2024-01-01", "2024-01-31", true},
		{"2024-01-01", "2024-01-01", "2024-01-31", true},
		{"2023-12-31", "2024-01-01", "", false},
		{"2024-02-01", "", "2024-01-31", false},
	}
	for _, tt := range tests {
		if got := inRange(tt.d, tt.start, tt.end); got != tt.want {
			t.Errorf("inRange(%s, %s, %s) = %v, want %v", tt.d, tt.start, tt.end, got, tt.want)
		}
	}
}

type stubPlanner struct{ plan planner.WeeklyPlan }

func (s stubPlanner) GeneratePlan(context.Context, string) (planner.WeeklyPlan, error) {
	return s.plan, nil
}

// TestStoreSource verifies document ids surface in decoded models.
func TestStoreSource(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	ds := NewStoreSource(mem, stubPlanner{}, "local")

	data, _ := json.Marshal(models.Profile{Name: "cut"})
	id, err := mem.Create(ctx, store.ProfilesPath("local"), data)
	if err != nil {
		t.Fatal(err)
	}

	profiles, err := ds.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("len(profiles) = %d, want 1", len(profiles))
	}
	if profiles[0].ID != id {
		t.Errorf("ID = %q, want %q", profiles[0].ID, id)
	}
	if profiles[0].Name != "cut" {
		t.Errorf("Name = %q, want %q", profiles[0].Name, "cut")
	}

	data, _ = json.Marshal(models.Workout{Date: "2024-03-01"})
	if _, err := mem.Create(ctx, store.CollectionPath("local", id, store.CollectionWorkouts), data); err != nil {
		t.Fatal(err)
	}
	workouts, err := ds.Workouts(ctx, id)
	if err != nil {
		t.Fatalf("Workouts: %v", err)
	}
	if len(workouts) != 1 || workouts[0].Date != "2024-03-01" {
		t.Errorf("workouts = %+v, want one on 2024-03-01", workouts)
	}
}
