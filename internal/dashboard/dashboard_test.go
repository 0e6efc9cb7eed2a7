package dashboard

import (
	"testing"

	"github.com/claude/fittrack/internal/models"
)

func f(v float64) *float64 { return &v }

// TestCurrentWeightEmpty verifies the resolver reports absent when both
// sources are empty.
func TestCurrentWeightEmpty(t *testing.T) {
	if _, ok := CurrentWeight(nil, nil); ok {
		t.Error("CurrentWeight on empty input reported a reading")
	}
}

func TestCurrentWeightSingleEntry(t *testing.T) {
	got, ok := CurrentWeight([]models.WeightEntry{{Date: "2024-01-10", Weight: 180}}, nil)
	if !ok || got != 180 {
		t.Errorf("CurrentWeight = %v, %v, want 180, true", got, ok)
	}
}

// TestCurrentWeightLaterWorkoutWins verifies the later date wins regardless
// of which source it comes from.
func TestCurrentWeightLaterWorkoutWins(t *testing.T) {
	entries := []models.WeightEntry{{Date: "2024-01-10", Weight: 180}}
	workouts := []models.Workout{{Date: "2024-01-12", CurrentWeight: f(178)}}

	got, ok := CurrentWeight(entries, workouts)
	if !ok || got != 178 {
		t.Errorf("CurrentWeight = %v, %v, want 178, true", got, ok)
	}
}

func TestCurrentWeightLaterEntryWins(t *testing.T) {
	entries := []models.WeightEntry{{Date: "2024-01-14", Weight: 176}}
	workouts := []models.Workout{{Date: "2024-01-12", CurrentWeight: f(178)}}

	got, _ := CurrentWeight(entries, workouts)
	if got != 176 {
		t.Errorf("CurrentWeight = %v, want 176", got)
	}
}

// TestCurrentWeightSameDateTie verifies a tie on the same date resolves to
// the weight-log source, which precedes workouts in the union.
func TestCurrentWeightSameDateTie(t *testing.T) {
	entries := []models.WeightEntry{{Date: "2024-01-12", Weight: 181}}
	workouts := []models.Workout{{Date: "2024-01-12", CurrentWeight: f(178)}}

	got, _ := CurrentWeight(entries, workouts)
	if got != 181 {
		t.Errorf("CurrentWeight = %v, want 181 (weight log wins ties)", got)
	}
}

// TestCurrentWeightSkipsUnqualified verifies entries without a positive
// weight or a parseable date never win.
func TestCurrentWeightSkipsUnqualified(t *testing.T) {
	entries := []models.WeightEntry{
		{Date: "2024-05-01", Weight: 0},
		{Date: "bogus", Weight: 190},
		{Date: "2024-01-02", Weight: 182},
	}
	workouts := []models.Workout{
		{Date: "2024-06-01"},                       // no body weight at all
		{Date: "2024-06-02", CurrentWeight: f(0)},  // zero reading
	}

	got, ok := CurrentWeight(entries, workouts)
	if !ok || got != 182 {
		t.Errorf("CurrentWeight = %v, %v, want 182, true", got, ok)
	}
}

// TestGroupByDayPartition verifies no record is duplicated or dropped and
// every output date is unique.
func TestGroupByDayPartition(t *testing.T) {
	workouts := []models.Workout{
		{ID: "a", Date: "2024-02-01"},
		{ID: "b", Date: "2024-02-03"},
		{ID: "c", Date: "2024-02-01"},
		{ID: "d", Date: "2024-02-02"},
		{ID: "e", Date: "2024-02-03"},
	}

	days := GroupByDay(workouts)

	total := 0
	seen := make(map[models.Date]bool)
	for _, d := range days {
		if seen[d.Date] {
			t.Errorf("date %s appears twice", d.Date)
		}
		seen[d.Date] = true
		total += len(d.Activities)
	}
	if total != len(workouts) {
		t.Errorf("grouped %d records, want %d", total, len(workouts))
	}
}

// TestGroupByDayOrder verifies days come back descending by date and
// same-date records keep their input order.
func TestGroupByDayOrder(t *testing.T) {
	workouts := []models.Workout{
		{ID: "first", Date: "2024-02-01"},
		{ID: "older", Date: "2024-01-15"},
		{ID: "second", Date: "2024-02-01"},
	}

	days := GroupByDay(workouts)
	if len(days) != 2 {
		t.Fatalf("len(days) = %d, want 2", len(days))
	}
	if days[0].Date != "2024-02-01" || days[1].Date != "2024-01-15" {
		t.Errorf("day order = %s, %s; want 2024-02-01, 2024-01-15", days[0].Date, days[1].Date)
	}
	if days[0].Activities[0].ID != "first" || days[0].Activities[1].ID != "second" {
		t.Errorf("same-date order not preserved: %s, %s",
			days[0].Activities[0].ID, days[0].Activities[1].ID)
	}
}

// TestGroupByDayDerivedViews covers a day holding one cardio-only and one
// weights-only session: one group, two activities, flattened unions of
// length one each.
func TestGroupByDayDerivedViews(t *testing.T) {
	workouts := []models.Workout{
		{Date: "2024-02-01", Cardio: []models.CardioEntry{{Type: "Run", Duration: 30, Distance: 5}}},
		{Date: "2024-02-01", Weights: []models.WeightExercise{
			{Name: "Squat", Sets: []models.SetEntry{{Reps: 5, Weight: 225}}},
		}},
	}

	days := GroupByDay(workouts)
	if len(days) != 1 {
		t.Fatalf("len(days) = %d, want 1", len(days))
	}
	d := days[0]
	if len(d.Activities) != 2 {
		t.Errorf("activities = %d, want 2", len(d.Activities))
	}
	if got := d.Cardio(); len(got) != 1 || got[0].Type != "Run" {
		t.Errorf("Cardio() = %+v", got)
	}
	if got := d.Exercises(); len(got) != 1 || got[0].Name != "Squat" {
		t.Errorf("Exercises() = %+v", got)
	}
	if _, ok := d.BodyWeight(); ok {
		t.Error("BodyWeight() reported a reading for a day without one")
	}
}

// TestDayBodyWeight verifies the first activity carrying a weight wins.
func TestDayBodyWeight(t *testing.T) {
	d := Day{Date: "2024-02-01", Activities: []models.Workout{
		{Date: "2024-02-01"},
		{Date: "2024-02-01", CurrentWeight: f(170)},
		{Date: "2024-02-01", CurrentWeight: f(171)},
	}}
	got, ok := d.BodyWeight()
	if !ok || got != 170 {
		t.Errorf("BodyWeight = %v, %v, want 170, true", got, ok)
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if days := GroupByDay(nil); len(days) != 0 {
		t.Errorf("GroupByDay(nil) = %+v, want empty", days)
	}
}
