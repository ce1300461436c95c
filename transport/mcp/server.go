package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
)

// maxBulkCommands bounds a single bulk_command call
const maxBulkCommands = 50

// Server exposes the game service as MCP tools
type Server struct {
	service   service.GameService
	mcpServer *server.MCPServer
	logger    zerolog.Logger
}

// NewServer creates an MCP server backed by svc
func NewServer(svc service.GameService, version string) *Server {
	s := &Server{service: svc, logger: log.Logger}
	s.initMCPServer(version)
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer(version string) {
	s.mcpServer = server.NewMCPServer(
		"City Navigator",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`City Navigator - Where is the bookstore?

GAME OBJECTIVE:
Drive Santa from the start landmark to the column of the destination landmark,
then say whether the destination is on your left or on your right.

AVAILABLE TOOLS:
- create_session: Start a new game session (optional map_name)
- list_sessions / get_session / delete_session: Manage sessions
- game_state: Map, heading, message and move log of a session
- advance, turn_left, turn_right: Drive one step or turn in place
- judge_left, judge_right: Answer where the destination is
- bulk_command: Several commands in sequence
- new_game: Start over with a new start and destination
- move_history: Paginated move log
- hint: Shortest remaining sequence of commands
- list_maps: Available city maps
- game_instructions: Full rules

NOTE: The 'intent' parameter on command tools serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	s.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func intentProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Brief explanation of the intent behind this command (serves as a rubber duck to help explain your reasoning)",
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Session management
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional map selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the map to play (optional, see list_maps)",
				},
			},
		},
	}, s.handleCreateSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListSessions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_session",
		Description: "End a session and discard its game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleDeleteSession)

	// Game operations
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state: map, heading, message and move log",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGameState)

	commandTools := []struct {
		name        string
		command     engine.Command
		description string
	}{
		{"advance", engine.CommandAdvance, "Go straight one intersection in the current heading. Does nothing at the edge of the map."},
		{"turn_left", engine.CommandTurnLeft, "Turn left (counter-clockwise) in place"},
		{"turn_right", engine.CommandTurnRight, "Turn right (clockwise) in place"},
		{"judge_left", engine.CommandJudgeLeft, "Say the destination is on your left. Only counts once you are in the destination's column."},
		{"judge_right", engine.CommandJudgeRight, "Say the destination is on your right. Only counts once you are in the destination's column."},
		{"new_game", engine.CommandReset, "Start a new game with a new start and destination"},
	}
	for _, tool := range commandTools {
		s.mcpServer.AddTool(mcp.Tool{
			Name:        tool.name,
			Description: tool.description,
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"session_id": sessionIDProperty(),
					"intent":     intentProperty(),
				},
				Required: []string{"session_id"},
			},
		}, s.handleCommand(tool.command))
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_command",
		Description: "Execute several commands in sequence. Stops early when the game is completed.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"commands": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"advance", "turn_left", "turn_right", "judge_left", "judge_right"},
					},
					"description": "Array of commands",
				},
				"intent": intentProperty(),
			},
			Required: []string{"session_id", "commands"},
		},
	}, s.handleBulkCommand)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the move log for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{service.OrderAsc, service.OrderDesc},
					"description": "Sort order (default desc, newest first)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleMoveHistory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Get the shortest sequence of commands that finishes the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleHint)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List available city maps",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListMaps)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the input closes
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func stringArg(args map[string]interface{}, key string) string {
	return strings.TrimSpace(cast.ToString(args[key]))
}

func intArg(args map[string]interface{}, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func sessionArg(args map[string]interface{}) (string, error) {
	id := stringArg(args, "session_id")
	if id == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return id, nil
}

// Tool handlers

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	session, err := s.service.CreateSession(ctx, stringArg(args, "map_name"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nMap: %s\n\n%s", session.ID, session.MapName, formatSnapshot(session.Snapshot))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.service.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionList(sessions)), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.service.GetSession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(session)), nil
}

func (s *Server) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.service.DeleteSession(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted session: %s", sessionID)), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snapshot, err := s.service.GetGameState(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSnapshot(snapshot) + "\n\n" + formatLandmarks(snapshot)), nil
}

// handleCommand returns the handler of a single-command tool
func (s *Server) handleCommand(cmd engine.Command) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(request)
		sessionID, err := sessionArg(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		// The intent only ends up in the log
		s.logger.Debug().
			Str("session", sessionID).
			Str("command", string(cmd)).
			Str("intent", stringArg(args, "intent")).
			Msg("tool command")

		result, err := s.service.Execute(ctx, sessionID, string(cmd))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatCommandResult(result)), nil
	}
}

func (s *Server) handleBulkCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, err := sessionArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	commands, err := cast.ToStringSliceE(args["commands"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("commands must be an array of strings: %v", err)), nil
	}
	if len(commands) == 0 {
		return mcp.NewToolResultError("commands cannot be empty"), nil
	}
	if len(commands) > maxBulkCommands {
		return mcp.NewToolResultError(fmt.Sprintf("at most %d commands per call", maxBulkCommands)), nil
	}

	// Reject the whole batch when any command is unknown
	for i, c := range commands {
		if _, err := engine.ParseCommand(c); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("command %d: %v", i+1, err)), nil
		}
	}

	results := make([]*service.CommandResult, 0, len(commands))
	for _, c := range commands {
		result, err := s.service.Execute(ctx, sessionID, c)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		results = append(results, result)
		if result.Snapshot != nil && result.Snapshot.Completed {
			break
		}
	}

	return mcp.NewToolResultText(formatBulkResult(sessionID, len(commands), results)), nil
}

func (s *Server) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, err := sessionArg(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := intArg(args, "page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := intArg(args, "limit")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	history, err := s.service.GetMoveHistory(ctx, sessionID, service.HistoryOptions{
		Page:  page,
		Limit: limit,
		Order: stringArg(args, "order"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(history)), nil
}

func (s *Server) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := sessionArg(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hint, err := s.service.Hint(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHint(hint)), nil
}

func (s *Server) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := s.service.ListConfigs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Maps:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (map_name: %s)\n  %s\n  Grid: %dx%d, Landmarks: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.Rows, config.Cols, config.Landmarks)
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(Instructions), nil
}
