package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/queryflow/internal/resolver"
	"github.com/ziadkadry99/queryflow/internal/schema"
	"github.com/ziadkadry99/queryflow/internal/session"
)

// handleResolveQuery runs one resolver turn against a persisted session.
func (s *Server) handleResolveQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	var sess *session.Session
	if id := request.GetString("session_id", ""); id != "" {
		sess, err = s.sessions.Get(ctx, id)
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("loading session: %v", err)), nil
		}
	}
	if sess == nil {
		sess, err = s.sessions.Create(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("creating session: %v", err)), nil
		}
	}

	req := &resolver.TurnRequest{
		SessionID:      sess.ID,
		StatusCode:     sess.StatusCode,
		UserInput:      text,
		HistoryInput:   sess.History,
		PrimaryScene:   sess.PrimaryScene,
		SecondaryScene: sess.SecondaryScene,
		Intermediate:   sess.Intermediate,
	}
	resp := s.engine.Resolve(ctx, req)

	if err := s.sessions.Apply(ctx, sess, req, resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("persisting session: %v", err)), nil
	}
	if s.turns != nil {
		_ = s.turns.Log(ctx, req, resp)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding reply: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleGetSession returns a session's persisted state.
func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading session: %v", err)), nil
	}

	out, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding session: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleListScenes returns the scene taxonomy.
func (s *Server) handleListScenes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	b.WriteString("一级场景：" + strings.Join(schema.PrimaryScenes, "、") + "\n")
	b.WriteString("二级场景：" + strings.Join(schema.SecondaryScenes, "、") + "\n")
	b.WriteString("三级场景：" + strings.Join(schema.ThirdScenes, "、") + "\n")
	return mcp.NewToolResultText(b.String()), nil
}
