package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/planner"
	"github.com/claude/fittrack/internal/store"
)

// DataSource abstracts the data layer for MCP tools. Both StoreSource
// (direct gateway access) and HTTPClient (remote via REST API) satisfy
// this interface.
type DataSource interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	Workouts(ctx context.Context, profileID string) ([]models.Workout, error)
	WeightLog(ctx context.Context, profileID string) ([]models.WeightEntry, error)
	Plans(ctx context.Context, profileID string) ([]models.WorkoutPlan, error)
	GeneratePlan(ctx context.Context, goal string) (planner.WeeklyPlan, error)
}

// PlanGenerator produces a weekly training plan from a free-text goal.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, goal string) (planner.WeeklyPlan, error)
}

// StoreSource serves MCP queries straight from the document gateway,
// scoped to one user.
type StoreSource struct {
	gw      store.Gateway
	planner PlanGenerator
	user    string
}

// Compile-time check: *StoreSource satisfies DataSource.
var _ DataSource = (*StoreSource)(nil)

// NewStoreSource creates a DataSource over the given gateway.
func NewStoreSource(gw store.Gateway, pg PlanGenerator, user string) *StoreSource {
	return &StoreSource{gw: gw, planner: pg, user: user}
}

func (s *StoreSource) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return listCollection[models.Profile](ctx, s.gw, store.ProfilesPath(s.user))
}

func (s *StoreSource) Workouts(ctx context.Context, profileID string) ([]models.Workout, error) {
	return listCollection[models.Workout](ctx, s.gw, store.CollectionPath(s.user, profileID, store.CollectionWorkouts))
}

func (s *StoreSource) WeightLog(ctx context.Context, profileID string) ([]models.WeightEntry, error) {
	return listCollection[models.WeightEntry](ctx, s.gw, store.CollectionPath(s.user, profileID, store.CollectionWeightLog))
}

func (s *StoreSource) Plans(ctx context.Context, profileID string) ([]models.WorkoutPlan, error) {
	return listCollection[models.WorkoutPlan](ctx, s.gw, store.CollectionPath(s.user, profileID, store.CollectionPlans))
}

func (s *StoreSource) GeneratePlan(ctx context.Context, goal string) (planner.WeeklyPlan, error) {
	return s.planner.GeneratePlan(ctx, goal)
}

// listCollection decodes a collection's documents, carrying each
// document id into the model's id field.
func listCollection[T any](ctx context.Context, gw store.Gateway, path string) ([]T, error) {
	docs, err := gw.List(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var fields map[string]any
		if err := json.Unmarshal(d.Data, &fields); err != nil {
			return nil, fmt.Errorf("decoding document %s: %w", d.ID, err)
		}
		fields["id"] = d.ID
		merged, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(merged, &v); err != nil {
			return nil, fmt.Errorf("decoding document %s: %w", d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}
