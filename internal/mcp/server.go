// Package mcp exposes the coaching backend to MCP clients over stdio.
// The tool surface mirrors the web app's two roles: a coach token gets
// the roster and progress tools, a client token gets the routine,
// history, and stats tools.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/coachdesk/internal/api"
)

// New creates an MCP server with the tools and resources for the given
// role registered. The backend client must already carry the token the
// tools act as.
func New(backend *api.Client, role, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("CoachDesk", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("CoachDesk gym coaching server. Coaches query their client roster, routines, and progress; clients query their assigned routine, workout history, and stats. All data is scoped to the authenticated token."),
	)

	h := &handlers{backend: backend, log: log}

	if role == "coach" {
		s.AddTools(
			server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
			server.ServerTool{Tool: toolGetRoster, Handler: h.getRoster},
			server.ServerTool{Tool: toolGetClientProgress, Handler: h.getClientProgress},
			server.ServerTool{Tool: toolGetProgressComparison, Handler: h.getProgressComparison},
			server.ServerTool{Tool: toolGetRoutines, Handler: h.getRoutines},
			server.ServerTool{Tool: toolGetMeasurements, Handler: h.getMeasurements},
			server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		)
		s.AddResources(
			server.ServerResource{Resource: resRoster, Handler: h.rosterResource},
		)
		return s
	}

	s.AddTools(
		server.ServerTool{Tool: toolGetAssignedRoutine, Handler: h.getAssignedRoutine},
		server.ServerTool{Tool: toolGetWorkoutHistory, Handler: h.getWorkoutHistory},
		server.ServerTool{Tool: toolGetMyStats, Handler: h.getMyStats},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)
	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)
	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	backend *api.Client
	log     *slog.Logger
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"coachdesk://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The authenticated client's most recent logged workouts"),
	mcp.WithMIMEType("application/json"),
)

var resRoster = mcp.NewResource(
	"coachdesk://roster",
	"Client Roster",
	mcp.WithResourceDescription("The authenticated coach's client roster"),
	mcp.WithMIMEType("application/json"),
)
