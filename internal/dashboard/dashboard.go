// Package dashboard computes the derived views shown on the dashboard:
// the current body weight across two record sources and workout history
// grouped per calendar day. Everything here is a pure function of the
// latest collection snapshots; views are recomputed in full on every call.
package dashboard

import (
	"sort"
	"time"

	"github.com/claude/fittrack/internal/models"
)

// CurrentWeight resolves the single most recent body-weight reading from
// the union of the weight log and the workouts that carry a body weight.
// Entries missing a parseable date or a positive weight are skipped. Ties
// on the same date keep source order, weight-log entries first, so no
// secondary sort key is applied. The second return is false when nothing
// qualifies.
func CurrentWeight(entries []models.WeightEntry, workouts []models.Workout) (float64, bool) {
	type reading struct {
		at     time.Time
		weight float64
	}

	var union []reading
	for _, e := range entries {
		at, err := e.Date.Parse()
		if err != nil || e.Weight <= 0 {
			continue
		}
		union = append(union, reading{at: at, weight: e.Weight})
	}
	for _, w := range workouts {
		if w.CurrentWeight == nil || *w.CurrentWeight <= 0 {
			continue
		}
		at, err := w.Date.Parse()
		if err != nil {
			continue
		}
		union = append(union, reading{at: at, weight: *w.CurrentWeight})
	}

	if len(union) == 0 {
		return 0, false
	}
	sort.SliceStable(union, func(i, j int) bool {
		return union[i].at.After(union[j].at)
	})
	return union[0].weight, true
}

// Day is one calendar day of workout history.
type Day struct {
	Date       models.Date      `json:"date"`
	Activities []models.Workout `json:"activities"`
}

// Cardio returns the union of all cardio entries across the day's
// activities, in activity order.
func (d Day) Cardio() []models.CardioEntry {
	var out []models.CardioEntry
	for _, a := range d.Activities {
		out = append(out, a.Cardio...)
	}
	return out
}

// Exercises returns the union of all weight exercises across the day's
// activities, in activity order.
func (d Day) Exercises() []models.WeightExercise {
	var out []models.WeightExercise
	for _, a := range d.Activities {
		out = append(out, a.Weights...)
	}
	return out
}

// BodyWeight returns the body weight of the first activity that carries
// one, or false if none of the day's activities logged a weight.
func (d Day) BodyWeight() (float64, bool) {
	for _, a := range d.Activities {
		if a.CurrentWeight != nil && *a.CurrentWeight > 0 {
			return *a.CurrentWeight, true
		}
	}
	return 0, false
}

// GroupByDay partitions workouts into per-day history entries. Grouping is
// by exact date string; within a day, activities keep their input order.
// Days are sorted descending by parsed date, with unparseable dates last.
// Every input record lands in exactly one group; days without records do
// not appear.
func GroupByDay(workouts []models.Workout) []Day {
	index := make(map[models.Date]int)
	var days []Day
	for _, w := range workouts {
		i, ok := index[w.Date]
		if !ok {
			i = len(days)
			index[w.Date] = i
			days = append(days, Day{Date: w.Date})
		}
		days[i].Activities = append(days[i].Activities, w)
	}

	sort.SliceStable(days, func(i, j int) bool {
		ti, erri := days[i].Date.Parse()
		tj, errj := days[j].Date.Parse()
		if erri != nil || errj != nil {
			return errj != nil && erri == nil
		}
		return ti.After(tj)
	})
	return days
}
