package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/fittrack/internal/dashboard"
	"github.com/claude/fittrack/internal/models"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitTrack personal fitness data server. Query workout history, body weight, and workout plans per training profile, and generate weekly training plans. Call list_profiles first to discover profile ids."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListProfiles, Handler: h.listProfiles},
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
		server.ServerTool{Tool: toolGetWorkoutHistory, Handler: h.getWorkoutHistory},
		server.ServerTool{Tool: toolGetCurrentWeight, Handler: h.getCurrentWeight},
		server.ServerTool{Tool: toolGetWeightLog, Handler: h.getWeightLog},
		server.ServerTool{Tool: toolListWorkoutPlans, Handler: h.listWorkoutPlans},
		server.ServerTool{Tool: toolGenerateWorkoutPlan, Handler: h.generateWorkoutPlan},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resProfileCatalog, Handler: h.profileCatalog},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resProfileCatalog = mcp.NewResource(
	"fittrack://profiles",
	"Profile Catalog",
	mcp.WithResourceDescription("All training profiles with their ids"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"fittrack://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Day-grouped workout history from the last 14 days, first profile"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) profileCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	profiles, err := h.ds.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(profiles)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// recentWorkouts serves the last 14 days of history. Resources carry no
// arguments, so this one reads the first profile; profile-scoped queries
// go through the tools.
func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	profiles, err := h.ds.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles exist")
	}

	workouts, err := h.ds.Workouts(ctx, profiles[0].ID)
	if err != nil {
		return nil, err
	}

	cutoff := models.DateOf(time.Now().AddDate(0, 0, -14))
	days := dashboard.GroupByDay(workouts)
	recent := days[:0]
	for _, day := range days {
		if inRange(day.Date, cutoff, "") {
			recent = append(recent, day)
		}
	}

	data, err := json.Marshal(historyViews(recent))
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
