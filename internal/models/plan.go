package models

// Instantiate converts the plan into a workout draft for the add-workout
// flow. The draft carries deep copies of the plan's cardio and weight
// sequences, the given date, and nothing else: no id, no name, no body
// weight. Nothing is persisted; once the caller saves the draft it becomes
// an ordinary workout with no back-reference to the plan.
func (p WorkoutPlan) Instantiate(date Date) Workout {
	return Workout{
		Date:    date,
		Cardio:  copyCardio(p.Cardio),
		Weights: copyWeights(p.Weights),
	}
}

func copyCardio(in []CardioEntry) []CardioEntry {
	out := make([]CardioEntry, len(in))
	copy(out, in)
	return out
}

func copyWeights(in []WeightExercise) []WeightExercise {
	out := make([]WeightExercise, len(in))
	for i, x := range in {
		sets := make([]SetEntry, len(x.Sets))
		copy(sets, x.Sets)
		out[i] = WeightExercise{Name: x.Name, Sets: sets}
	}
	return out
}
