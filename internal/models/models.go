package models

import "fmt"

// WeightEntry is one body-weight measurement. Entries are immutable once
// logged; corrections are made by logging a newer entry.
type WeightEntry struct {
	ID     string  `json:"id,omitempty"`
	Date   Date    `json:"date"`
	Weight float64 `json:"weight"`
}

// Validate checks the entry before persistence.
func (e WeightEntry) Validate() error {
	if !e.Date.Valid() {
		return fmt.Errorf("weight entry: invalid date %q", e.Date)
	}
	if e.Weight <= 0 {
		return fmt.Errorf("weight entry: weight must be positive, got %v", e.Weight)
	}
	return nil
}

// CardioEntry is a single cardio activity embedded in a workout or plan.
// Distance units are a display convention, not part of the data.
type CardioEntry struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
	Distance float64 `json:"distance"`
}

func (c CardioEntry) validate() error {
	if c.Type == "" {
		return fmt.Errorf("cardio entry: type is required")
	}
	if c.Duration < 0 {
		return fmt.Errorf("cardio entry %q: duration must be non-negative", c.Type)
	}
	if c.Distance < 0 {
		return fmt.Errorf("cardio entry %q: distance must be non-negative", c.Type)
	}
	return nil
}

// SetEntry is one set of a weightlifting exercise.
type SetEntry struct {
	Reps   float64 `json:"reps"`
	Weight float64 `json:"weight"`
}

// WeightExercise is a named weightlifting exercise with at least one set.
type WeightExercise struct {
	Name string     `json:"name"`
	Sets []SetEntry `json:"sets"`
}

func (x WeightExercise) validate() error {
	if x.Name == "" {
		return fmt.Errorf("exercise: name is required")
	}
	if len(x.Sets) == 0 {
		return fmt.Errorf("exercise %q: at least one set is required", x.Name)
	}
	for i, s := range x.Sets {
		if s.Reps < 0 {
			return fmt.Errorf("exercise %q set %d: reps must be non-negative", x.Name, i+1)
		}
		if s.Weight < 0 {
			return fmt.Errorf("exercise %q set %d: weight must be non-negative", x.Name, i+1)
		}
	}
	return nil
}

// Workout is one logged session on a calendar date. Multiple workouts may
// share a date (AM/PM sessions); history display groups them per day.
//
// CurrentWeight is the body weight optionally logged alongside the session.
// It is a pointer so that "absent" and "zero" stay distinguishable; a nil
// pointer is dropped from the stored document entirely.
type Workout struct {
	ID            string           `json:"id,omitempty"`
	Date          Date             `json:"date"`
	CurrentWeight *float64         `json:"currentWeight,omitempty"`
	Cardio        []CardioEntry    `json:"cardio"`
	Weights       []WeightExercise `json:"weights"`
}

// Validate checks the workout before persistence. A workout with no cardio,
// no weights, and no body weight is degenerate but legal.
func (w Workout) Validate() error {
	if !w.Date.Valid() {
		return fmt.Errorf("workout: invalid date %q", w.Date)
	}
	if w.CurrentWeight != nil && *w.CurrentWeight < 0 {
		return fmt.Errorf("workout: body weight must be non-negative, got %v", *w.CurrentWeight)
	}
	for _, c := range w.Cardio {
		if err := c.validate(); err != nil {
			return fmt.Errorf("workout: %w", err)
		}
	}
	for _, x := range w.Weights {
		if err := x.validate(); err != nil {
			return fmt.Errorf("workout: %w", err)
		}
	}
	return nil
}

// Normalize prepares the workout for persistence. A body weight that is
// present but not a positive reading is cleared, so the stored document
// omits the key instead of carrying a zero placeholder that the recency
// resolver would have to second-guess.
func (w *Workout) Normalize() {
	if w.CurrentWeight != nil && *w.CurrentWeight <= 0 {
		w.CurrentWeight = nil
	}
	if w.Cardio == nil {
		w.Cardio = []CardioEntry{}
	}
	if w.Weights == nil {
		w.Weights = []WeightExercise{}
	}
}

// WorkoutPlan is a reusable template of cardio and weight exercises. It has
// no date and no body weight; it describes a session, not an occurrence.
type WorkoutPlan struct {
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name"`
	Cardio  []CardioEntry    `json:"cardio"`
	Weights []WeightExercise `json:"weights"`
}

// Validate checks the plan before persistence.
func (p WorkoutPlan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan: name is required")
	}
	for _, c := range p.Cardio {
		if err := c.validate(); err != nil {
			return fmt.Errorf("plan %q: %w", p.Name, err)
		}
	}
	for _, x := range p.Weights {
		if err := x.validate(); err != nil {
			return fmt.Errorf("plan %q: %w", p.Name, err)
		}
	}
	return nil
}

// Normalize replaces nil sequences with empty ones so stored documents
// always carry both keys.
func (p *WorkoutPlan) Normalize() {
	if p.Cardio == nil {
		p.Cardio = []CardioEntry{}
	}
	if p.Weights == nil {
		p.Weights = []WeightExercise{}
	}
}

// Profile is an independent workout/weight-log namespace under one user.
// Which profile is active is a per-session client concern and is never
// persisted.
type Profile struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Validate checks the profile before persistence.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	return nil
}
