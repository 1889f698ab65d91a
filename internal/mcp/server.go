// Package mcp exposes the workout archive to agents: read-only tools over
// history, records, and progress, plus resources for the routine and
// catalog. Everything is scoped to the signed-in user's components.
package mcp

import (
	"log/slog"

	"github.com/claude/gymtrack/internal/catalog"
	"github.com/claude/gymtrack/internal/history"
	"github.com/claude/gymtrack/internal/routine"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(cat *catalog.Catalog, plan *routine.Plan, hist *history.Aggregator, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymTrack workout tracker. Query training history, personal records, period volume, and per-exercise progress. All data is scoped to the authenticated user. Weights are kilograms."),
	)

	h := &handlers{catalog: cat, plan: plan, history: hist, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetPeriodStats, Handler: h.getPeriodStats},
		server.ServerTool{Tool: toolGetExerciseProgress, Handler: h.getExerciseProgress},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRoutine, Handler: h.routineResource},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	catalog *catalog.Catalog
	plan    *routine.Plan
	history *history.Aggregator
	log     *slog.Logger
}

// --- Resource definitions ---

var resRoutine = mcp.NewResource(
	"gymtrack://routine",
	"Weekly Routine",
	mcp.WithResourceDescription("The full weekly plan: seven days with their ordered exercise targets (sets, rep ranges, rest, set type)"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"gymtrack://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Workout sessions from the last 14 days with performed exercises and sets"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"gymtrack://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All visible exercise definitions: global pre-seeded plus the user's custom ones"),
	mcp.WithMIMEType("application/json"),
)
