package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/kriskaiqi/okgym/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Retrieve one workout session: status, exercise sequence, per-exercise results with attempts and best results, and the session summary."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetSessionSummary = mcp.NewTool("get_session_summary",
	mcp.WithDescription("Retrieve the aggregated summary of one workout session: total sets, total reps, duration, calories, form score, and per-exercise rollups."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List recent workout sessions newest first, with status and summary for each."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 20.")),
)

// --- Tool handlers ---

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := h.fetchSession(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	result, err := mcp.NewToolResultJSON(sess)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := h.fetchSession(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	result, err := mcp.NewToolResultJSON(sess.Summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	uid := UserIDFromContext(ctx)

	sessions, err := h.ds.RecentSessions(ctx, uid, limit)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// fetchSession resolves the session_id parameter against the context user.
// The second return value is a ready error result when resolution fails.
func (h *handlers) fetchSession(ctx context.Context, req mcp.CallToolRequest) (sess *models.Session, errResult *mcp.CallToolResult) {
	raw, err := req.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError("session_id parameter is required")
	}
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return nil, mcp.NewToolResultError("session_id must be a UUID")
	}

	uid := UserIDFromContext(ctx)
	s, err := h.ds.FetchSession(ctx, sessionID, uid)
	if err != nil {
		h.log.Error("mcp session lookup", "error", err)
		return nil, mcp.NewToolResultError("query failed: " + err.Error())
	}
	if s == nil {
		return nil, mcp.NewToolResultError("session not found")
	}
	return s, nil
}
