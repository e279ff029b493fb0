package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Coach dashboard summary: total clients, workouts this week, active routines, and the roster."),
)

var toolGetRoster = mcp.NewTool("get_roster",
	mcp.WithDescription("List the coach's clients with their IDs, names, and emails."),
)

var toolGetClientProgress = mcp.NewTool("get_client_progress",
	mcp.WithDescription("Full progress report for one client: recent workouts, body measurements, and per-exercise stats."),
	mcp.WithString("client_id", mcp.Required(), mcp.Description("Client ID from the roster")),
)

var toolGetProgressComparison = mcp.NewTool("get_progress_comparison",
	mcp.WithDescription("Side-by-side comparison of all clients: latest measurement, workouts this month, and training volume this month."),
)

var toolGetRoutines = mcp.NewTool("get_routines",
	mcp.WithDescription("List the coach's routines with exercise prescriptions and client assignments."),
)

var toolGetMeasurements = mcp.NewTool("get_measurements",
	mcp.WithDescription("Body measurement history for one client: weight, body fat, and circumferences over time."),
	mcp.WithString("client_id", mcp.Required(), mcp.Description("Client ID from the roster")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog with muscle groups and coaching tips. Optionally filter by a search query."),
	mcp.WithString("query", mcp.Description("Search query matched against exercise names and muscle groups")),
)

var toolGetAssignedRoutine = mcp.NewTool("get_assigned_routine",
	mcp.WithDescription("The client's assigned routine with target sets, reps, weight, and rest per exercise. Empty when no routine is assigned."),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("The client's logged workouts, newest first, with every set's weight, reps, and RIR."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts to return. Defaults to all.")),
)

var toolGetMyStats = mcp.NewTool("get_my_stats",
	mcp.WithDescription("Aggregate training stats for the client: total workouts and per-exercise volume, max weight, and averages."),
)

// --- Tool handlers ---

func (h *handlers) getDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := h.backend.Dashboard(ctx)
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(d)
}

func (h *handlers) getRoster(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clients, err := h.backend.Clients(ctx)
	if err != nil {
		h.log.Error("mcp get_roster", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(clients)
}

func (h *handlers) getClientProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError("client_id parameter is required"), nil
	}

	progress, err := h.backend.ClientProgress(ctx, clientID)
	if err != nil {
		h.log.Error("mcp get_client_progress", "client_id", clientID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(progress)
}

func (h *handlers) getProgressComparison(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := h.backend.ProgressComparison(ctx)
	if err != nil {
		h.log.Error("mcp get_progress_comparison", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(rows)
}

func (h *handlers) getRoutines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	routines, err := h.backend.Routines(ctx)
	if err != nil {
		h.log.Error("mcp get_routines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(routines)
}

func (h *handlers) getMeasurements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError("client_id parameter is required"), nil
	}

	measurements, err := h.backend.Measurements(ctx, clientID)
	if err != nil {
		h.log.Error("mcp get_measurements", "client_id", clientID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(measurements)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")

	var (
		exercises any
		err       error
	)
	if query != "" {
		exercises, err = h.backend.SearchExercises(ctx, query)
	} else {
		exercises, err = h.backend.Exercises(ctx)
	}
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(exercises)
}

func (h *handlers) getAssignedRoutine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	routine, err := h.backend.AssignedRoutine(ctx)
	if err != nil {
		h.log.Error("mcp get_assigned_routine", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if routine == nil {
		return mcp.NewToolResultText("No routine assigned yet."), nil
	}
	return jsonResult(routine)
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workouts, err := h.backend.Workouts(ctx)
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && limit < len(workouts) {
		workouts = workouts[:limit]
	}
	return jsonResult(workouts)
}

func (h *handlers) getMyStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.backend.ClientStats(ctx)
	if err != nil {
		h.log.Error("mcp get_my_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
