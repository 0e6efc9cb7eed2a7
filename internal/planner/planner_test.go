package planner

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func planText(days int) string {
	plan := make([]map[string]any, days)
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	for i := range plan {
		plan[i] = map[string]any{
			"day":   names[i],
			"focus": "Full Body",
			"exercises": []map[string]string{
				{"name": "Squat", "sets": "3", "reps": "8-12"},
			},
		}
	}
	text, _ := json.Marshal(map[string]any{"weeklyPlan": plan})
	return string(text)
}

func fakeModel(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req genRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body not decodable: %v", err)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeneratePlan(t *testing.T) {
	srv := fakeModel(t, http.StatusOK, planText(5))
	c := New(srv.URL, "gemini-2.0-flash", "test-key", discardLogger())

	plan, err := c.GeneratePlan(context.Background(), "build muscle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 5 {
		t.Fatalf("len(plan) = %d, want 5", len(plan))
	}
	if plan[0].Day != "Monday" || plan[0].Exercises[0].Reps != "8-12" {
		t.Errorf("plan[0] = %+v", plan[0])
	}
}

// TestGeneratePlanErrorStatus verifies a non-success upstream status is a
// single PlanError with no partial result.
func TestGeneratePlanErrorStatus(t *testing.T) {
	srv := fakeModel(t, http.StatusServiceUnavailable, "")
	c := New(srv.URL, "gemini-2.0-flash", "test-key", discardLogger())

	plan, err := c.GeneratePlan(context.Background(), "lose weight")
	if plan != nil {
		t.Errorf("plan = %+v, want nil", plan)
	}
	var pe *PlanError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PlanError", err)
	}
}

// TestGeneratePlanWrongDayCount verifies a conforming-but-short plan is
// rejected: the contract is exactly 5 days.
func TestGeneratePlanWrongDayCount(t *testing.T) {
	srv := fakeModel(t, http.StatusOK, planText(4))
	c := New(srv.URL, "gemini-2.0-flash", "test-key", discardLogger())

	if _, err := c.GeneratePlan(context.Background(), "endurance"); err == nil {
		t.Fatal("4-day plan accepted")
	}
}

func TestGeneratePlanMalformedPayload(t *testing.T) {
	srv := fakeModel(t, http.StatusOK, "not json at all")
	c := New(srv.URL, "gemini-2.0-flash", "test-key", discardLogger())

	if _, err := c.GeneratePlan(context.Background(), "strength"); err == nil {
		t.Fatal("malformed payload accepted")
	}
}

func TestGeneratePlanEmptyGoal(t *testing.T) {
	c := New("http://unused", "gemini-2.0-flash", "test-key", discardLogger())
	if _, err := c.GeneratePlan(context.Background(), ""); err == nil {
		t.Fatal("empty goal accepted")
	}
}

func TestGeneratePlanNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, "gemini-2.0-flash", "test-key", discardLogger())
	if _, err := c.GeneratePlan(context.Background(), "tone up"); err == nil {
		t.Fatal("empty candidate list accepted")
	}
}
