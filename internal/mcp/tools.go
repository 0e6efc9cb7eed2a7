package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/fittrack/internal/dashboard"
	"github.com/claude/fittrack/internal/models"
)

// dateRange returns an inclusive [start, end] filter over calendar
// dates. Empty bounds are open.
func dateRange(startStr, endStr string) (models.Date, models.Date, error) {
	start := models.Date(startStr)
	end := models.Date(endStr)
	if startStr != "" && !start.Valid() {
		return "", "", fmt.Errorf("invalid start date %q, want YYYY-MM-DD", startStr)
	}
	if endStr != "" && !end.Valid() {
		return "", "", fmt.Errorf("invalid end date %q, want YYYY-MM-DD", endStr)
	}
	return start, end, nil
}

// inRange reports whether d falls inside the bounds. Dates compare
// lexically because the format is fixed-width YYYY-MM-DD.
func inRange(d, start, end models.Date) bool {
	if start != "" && d < start {
		return false
	}
	if end != "" && d > end {
		return false
	}
	return true
}

// --- Tool definitions ---

var toolListProfiles = mcp.NewTool("list_profiles",
	mcp.WithDescription("List all training profiles with their ids. Profile ids scope every other tool."),
)

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Get a profile's dashboard: current body weight, total workout count, and the full day-grouped workout history, most recent day first."),
	mcp.WithString("profile", mcp.Required(), mcp.Description("Profile id (see list_profiles)")),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("Query a profile's workout history grouped by day, most recent day first. Each day carries its raw sessions plus flattened cardio and weight-exercise views."),
	mcp.WithString("profile", mcp.Required(), mcp.Description("Profile id")),
	mcp.WithString("start", mcp.Description("Earliest date to include (YYYY-MM-DD). Open when omitted.")),
	mcp.WithString("end", mcp.Description("Latest date to include (YYYY-MM-DD). Open when omitted.")),
)

var toolGetCurrentWeight = mcp.NewTool("get_current_weight",
	mcp.WithDescription("Get a profile's most recent body weight, resolved across the weight log and workout-logged weights."),
	mcp.WithString("profile", mcp.Required(), mcp.Description("Profile id")),
)

var toolGetWeightLog = mcp.NewTool("get_weight_log",
	mcp.WithDescription("Get a profile's dedicated body-weight log entries, in logged order."),
	mcp.WithString("profile", mcp.Required(), mcp.Description("Profile id")),
)

var toolListWorkoutPlans = mcp.NewTool("list_workout_plans",
	mcp.WithDescription("List a profile's saved workout plans: reusable templates of cardio and weight exercises."),
	mcp.WithString("profile", mcp.Required(), mcp.Description("Profile id")),
)

var toolGenerateWorkoutPlan = mcp.NewTool("generate_workout_plan",
	mcp.WithDescription("Generate a 5-day weekly training plan for a free-text fitness goal. Returns one entry per day with a focus and suggested exercises."),
	mcp.WithString("goal", mcp.Required(), mcp.Description("Fitness goal (e.g. 'build muscle', 'train for a 10k')")),
)

// --- Tool handlers ---

func (h *handlers) listProfiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profiles, err := h.ds.ListProfiles(ctx)
	if err != nil {
		h.log.Error("mcp list_profiles", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(profiles)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError("profile parameter is required"), nil
	}

	workouts, err := h.ds.Workouts(ctx, profile)
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	entries, err := h.ds.WeightLog(ctx, profile)
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	view := map[string]any{
		"totalWorkouts": len(workouts),
		"history":       historyViews(dashboard.GroupByDay(workouts)),
	}
	if weight, ok := dashboard.CurrentWeight(entries, workouts); ok {
		view["currentWeight"] = weight
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError("profile parameter is required"), nil
	}
	start, end, err := dateRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	workouts, err := h.ds.Workouts(ctx, profile)
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	days := dashboard.GroupByDay(workouts)
	filtered := days[:0]
	for _, day := range days {
		if inRange(day.Date, start, end) {
			filtered = append(filtered, day)
		}
	}

	result, err := mcp.NewToolResultJSON(historyViews(filtered))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCurrentWeight(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError("profile parameter is required"), nil
	}

	workouts, err := h.ds.Workouts(ctx, profile)
	if err != nil {
		h.log.Error("mcp get_current_weight", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	entries, err := h.ds.WeightLog(ctx, profile)
	if err != nil {
		h.log.Error("mcp get_current_weight", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	view := map[string]any{"currentWeight": nil}
	if weight, ok := dashboard.CurrentWeight(entries, workouts); ok {
		view["currentWeight"] = weight
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeightLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError("profile parameter is required"), nil
	}

	entries, err := h.ds.WeightLog(ctx, profile)
	if err != nil {
		h.log.Error("mcp get_weight_log", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkoutPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile, err := req.RequireString("profile")
	if err != nil {
		return mcp.NewToolResultError("profile parameter is required"), nil
	}

	plans, err := h.ds.Plans(ctx, profile)
	if err != nil {
		h.log.Error("mcp list_workout_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plans)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) generateWorkoutPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goal, err := req.RequireString("goal")
	if err != nil {
		return mcp.NewToolResultError("goal parameter is required"), nil
	}

	plan, err := h.ds.GeneratePlan(ctx, goal)
	if err != nil {
		h.log.Error("mcp generate_workout_plan", "goal", goal, "error", err)
		return mcp.NewToolResultError("plan generation failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plan)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// historyViews flattens day groups into the wire shape shared with the
// dashboard REST route.
func historyViews(days []dashboard.Day) []map[string]any {
	out := make([]map[string]any, 0, len(days))
	for _, day := range days {
		view := map[string]any{
			"date":       day.Date,
			"activities": day.Activities,
			"cardio":     day.Cardio(),
			"weights":    day.Exercises(),
		}
		if bw, ok := day.BodyWeight(); ok {
			view["bodyWeight"] = bw
		}
		out = append(out, view)
	}
	return out
}
