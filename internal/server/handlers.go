package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/fittrack/internal/dashboard"
	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/planner"
	"github.com/claude/fittrack/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps gateway failures onto status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

// --- Profiles ---

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	docs, err := s.gw.List(r.Context(), s.profilePath())
	if err != nil {
		s.writeStoreError(w, "list profiles", err)
		return
	}
	profiles, err := decodeAll[models.Profile](docs)
	if err != nil {
		s.writeStoreError(w, "decode profiles", err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = ""
	id, err := s.create(r, s.profilePath(), p)
	if err != nil {
		s.writeStoreError(w, "create profile", err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, p)
}

// handleDeleteProfile removes the profile and everything scoped under it.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	ctx := r.Context()

	for _, name := range []string{store.CollectionWorkouts, store.CollectionWeightLog, store.CollectionPlans} {
		path := store.CollectionPath(s.user, profileID, name)
		if _, err := s.gw.DeleteMatching(ctx, path, func(store.Document) bool { return true }); err != nil {
			s.writeStoreError(w, "clear profile collection", err)
			return
		}
	}
	if err := s.gw.Delete(ctx, s.profilePath(), profileID); err != nil {
		s.writeStoreError(w, "delete profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Dashboard ---

// dayView is one history day plus its derived per-day views.
type dayView struct {
	Date       models.Date             `json:"date"`
	Activities []models.Workout        `json:"activities"`
	Cardio     []models.CardioEntry    `json:"cardio"`
	Weights    []models.WeightExercise `json:"weights"`
	BodyWeight *float64                `json:"bodyWeight,omitempty"`
}

type dashboardView struct {
	CurrentWeight *float64  `json:"currentWeight"`
	TotalWorkouts int       `json:"totalWorkouts"`
	History       []dayView `json:"history"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	workouts, err := s.loadWorkouts(r)
	if err != nil {
		s.writeStoreError(w, "load workouts", err)
		return
	}
	entryDocs, err := s.gw.List(ctx, s.collPath(r, store.CollectionWeightLog))
	if err != nil {
		s.writeStoreError(w, "load weight log", err)
		return
	}
	entries, err := decodeAll[models.WeightEntry](entryDocs)
	if err != nil {
		s.writeStoreError(w, "decode weight log", err)
		return
	}

	view := dashboardView{TotalWorkouts: len(workouts), History: []dayView{}}
	if weight, ok := dashboard.CurrentWeight(entries, workouts); ok {
		view.CurrentWeight = &weight
	}
	for _, day := range dashboard.GroupByDay(workouts) {
		dv := dayView{
			Date:       day.Date,
			Activities: day.Activities,
			Cardio:     day.Cardio(),
			Weights:    day.Exercises(),
		}
		if bw, ok := day.BodyWeight(); ok {
			dv.BodyWeight = &bw
		}
		view.History = append(view.History, dv)
	}
	writeJSON(w, http.StatusOK, view)
}

// --- Workouts ---

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.loadWorkouts(r)
	if err != nil {
		s.writeStoreError(w, "list workouts", err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var wo models.Workout
	if err := json.NewDecoder(r.Body).Decode(&wo); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	wo.Normalize()
	if err := wo.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wo.ID = ""
	id, err := s.create(r, s.collPath(r, store.CollectionWorkouts), wo)
	if err != nil {
		s.writeStoreError(w, "create workout", err)
		return
	}
	wo.ID = id
	writeJSON(w, http.StatusCreated, wo)
}

// handleUpdateWorkout replaces all non-id fields of an existing workout.
func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	var wo models.Workout
	if err := json.NewDecoder(r.Body).Decode(&wo); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	wo.Normalize()
	if err := wo.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	wo.ID = ""
	if err := s.update(r, s.collPath(r, store.CollectionWorkouts), id, wo); err != nil {
		s.writeStoreError(w, "update workout", err)
		return
	}
	wo.ID = id
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.gw.Delete(r.Context(), s.collPath(r, store.CollectionWorkouts), id); err != nil {
		s.writeStoreError(w, "delete workout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteDay removes every workout sharing the given date in one
// atomic operation; the day can never end up half-deleted.
func (s *Server) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	date := models.Date(chi.URLParam(r, "date"))
	if !date.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q", date))
		return
	}

	n, err := s.gw.DeleteMatching(r.Context(), s.collPath(r, store.CollectionWorkouts), func(d store.Document) bool {
		var probe struct {
			Date models.Date `json:"date"`
		}
		if err := json.Unmarshal(d.Data, &probe); err != nil {
			return false
		}
		return probe.Date == date
	})
	if err != nil {
		s.writeStoreError(w, "delete day", err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "no workouts on "+string(date))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// --- Weight log ---

func (s *Server) handleListWeightLog(w http.ResponseWriter, r *http.Request) {
	docs, err := s.gw.List(r.Context(), s.collPath(r, store.CollectionWeightLog))
	if err != nil {
		s.writeStoreError(w, "list weight log", err)
		return
	}
	entries, err := decodeAll[models.WeightEntry](docs)
	if err != nil {
		s.writeStoreError(w, "decode weight log", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleLogWeight appends a weight entry. Entries are immutable; there is
// no update route.
func (s *Server) handleLogWeight(w http.ResponseWriter, r *http.Request) {
	var e models.WeightEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := e.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.ID = ""
	id, err := s.create(r, s.collPath(r, store.CollectionWeightLog), e)
	if err != nil {
		s.writeStoreError(w, "log weight", err)
		return
	}
	e.ID = id
	writeJSON(w, http.StatusCreated, e)
}

// --- Plans ---

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	docs, err := s.gw.List(r.Context(), s.collPath(r, store.CollectionPlans))
	if err != nil {
		s.writeStoreError(w, "list plans", err)
		return
	}
	plans, err := decodeAll[models.WorkoutPlan](docs)
	if err != nil {
		s.writeStoreError(w, "decode plans", err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var p models.WorkoutPlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = ""
	id, err := s.create(r, s.collPath(r, store.CollectionPlans), p)
	if err != nil {
		s.writeStoreError(w, "create plan", err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var p models.WorkoutPlan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	p.ID = ""
	if err := s.update(r, s.collPath(r, store.CollectionPlans), id, p); err != nil {
		s.writeStoreError(w, "update plan", err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.gw.Delete(r.Context(), s.collPath(r, store.CollectionPlans), id); err != nil {
		s.writeStoreError(w, "delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInstantiatePlan returns a workout draft prefilled from the plan.
// Nothing is persisted; the client saves the draft through the normal
// add-workout route if the user keeps it.
func (s *Server) handleInstantiatePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	docs, err := s.gw.List(r.Context(), s.collPath(r, store.CollectionPlans))
	if err != nil {
		s.writeStoreError(w, "load plans", err)
		return
	}
	for _, d := range docs {
		if d.ID != id {
			continue
		}
		var p models.WorkoutPlan
		if err := json.Unmarshal(d.Data, &p); err != nil {
			s.writeStoreError(w, "decode plan", err)
			return
		}
		writeJSON(w, http.StatusOK, p.Instantiate(models.Today()))
		return
	}
	writeError(w, http.StatusNotFound, "not found")
}

// --- Plan generation ---

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal string `json:"goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Goal == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}

	plan, err := s.planner.GeneratePlan(r.Context(), req.Goal)
	if err != nil {
		s.log.Error("generate plan", "goal", req.Goal, "error", err)
		var pe *planner.PlanError
		if errors.As(err, &pe) {
			writeError(w, http.StatusBadGateway, pe.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"goal":       req.Goal,
		"weeklyPlan": plan,
	})
}

// --- Codec helpers ---

// decodeAll unmarshals documents into models, carrying each document id
// into the model's ID field via its json tag.
func decodeAll[T any](docs []store.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		merged, err := withID(d)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(merged, &v); err != nil {
			return nil, fmt.Errorf("decoding document %s: %w", d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// withID re-encodes the document body with its id field set.
func withID(d store.Document) (json.RawMessage, error) {
	var fields map[string]any
	if err := json.Unmarshal(d.Data, &fields); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", d.ID, err)
	}
	fields["id"] = d.ID
	return json.Marshal(fields)
}

// create persists v as a new document. The caller clears v's id field
// first; stored bodies never embed an id.
func (s *Server) create(r *http.Request, path string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	return s.gw.Create(r.Context(), path, data)
}

func (s *Server) update(r *http.Request, path, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return s.gw.Update(r.Context(), path, id, data)
}

func (s *Server) loadWorkouts(r *http.Request) ([]models.Workout, error) {
	docs, err := s.gw.List(r.Context(), s.collPath(r, store.CollectionWorkouts))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Workout](docs)
}
