package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// parseSince parses an optional lower bound, defaulting to the zero time
// (no bound) when absent.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseFlexTime(s)
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Retrieve archived workout sessions, newest first, with performed exercises and sets (weight kg, reps, RIR, completed)."),
	mcp.WithString("since", mcp.Description("Lower date bound (ISO 8601 or YYYY-MM-DD). Defaults to the full archive.")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Per-exercise personal records: the heaviest completed set ever logged, with reps and date. Keyed by exercise id."),
)

var toolGetPeriodStats = mcp.NewTool("get_period_stats",
	mcp.WithDescription("Training totals over a period: session count, completed set count, and volume (sum of weight x reps over completed sets)."),
	mcp.WithString("since", mcp.Description("Period start (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
)

var toolGetExerciseProgress = mcp.NewTool("get_exercise_progress",
	mcp.WithDescription("Chronological progress series for one exercise: per-session max weight and volume, oldest first, completed sets only."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise definition id (UUID)")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all visible exercise definitions: name, muscle group, equipment, global-vs-custom."),
)

// --- Tool handlers ---

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	since, err := parseSince(req.GetString("since", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	sessions, err := h.history.ListSessions(ctx, since)
	if err != nil {
		h.log.Error("mcp get_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.history.PersonalRecords(ctx)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(records)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPeriodStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sinceStr := req.GetString("since", "")
	var since time.Time
	if sinceStr == "" {
		since = time.Now().AddDate(0, 0, -7)
	} else {
		var err error
		since, err = parseFlexTime(sinceStr)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
	}

	stats, err := h.history.PeriodStats(ctx, since)
	if err != nil {
		h.log.Error("mcp get_period_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_id: " + err.Error()), nil
	}

	points, err := h.history.ExerciseSeries(ctx, id)
	if err != nil {
		h.log.Error("mcp get_exercise_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.catalog.List(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(list)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
