// Package mcp exposes City Navigator as Model Context Protocol tools.
//
// The mcp package implements:
//   - An in-process MCP server over the game service
//   - Tool definitions for every player command
//   - Session-aware command execution
//   - Stdio transport
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_session, list_sessions, get_session, delete_session
//   - game_state: Text map, heading, message and move log
//   - advance, turn_left, turn_right: Drive the avatar
//   - judge_left, judge_right: Answer where the destination is
//   - bulk_command: Several commands in one call
//   - new_game: Draw a new start and destination
//   - move_history: Paginated move log
//   - hint: Shortest remaining route
//   - list_maps, game_instructions
//
// Tool arguments are coerced with spf13/cast, so numbers sent as strings or
// floats are accepted. Failures are returned as tool error results, never as
// protocol errors.
//
// Usage:
//
//	srv := mcp.NewServer(gameService, version)
//	if err := srv.ServeStdio(); err != nil {
//		log.Fatal().Err(err).Msg("MCP stdio server error")
//	}
package mcp
