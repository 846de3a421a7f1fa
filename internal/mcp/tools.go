package mcp

import "github.com/mark3labs/mcp-go/mcp"

// resolveQueryTool defines the resolve_query MCP tool.
var resolveQueryTool = mcp.NewTool("resolve_query",
	mcp.WithDescription("Resolve one turn of a free-text traffic analytics query. Returns either a clarification question or the confirmed canonical question. Pass the returned session_id on follow-up turns to continue the conversation."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The user's free-text query or reply, in Chinese"),
	),
	mcp.WithString("session_id",
		mcp.Description("Session id from a previous turn; omit to start a new conversation"),
	),
)

// getSessionTool defines the get_session MCP tool.
var getSessionTool = mcp.NewTool("get_session",
	mcp.WithDescription("Get a conversation's persisted state: status, scenes, resolved attributes, and history."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session id returned by resolve_query"),
	),
)

// listScenesTool defines the list_scenes MCP tool.
var listScenesTool = mcp.NewTool("list_scenes",
	mcp.WithDescription("List the scene taxonomy: primary analysis scenes, secondary sub-categories, and third-level query refinements."),
)
