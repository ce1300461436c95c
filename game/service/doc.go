// Package service provides the business logic layer for City Navigator.
//
// The service package implements:
//   - Multi-session game management
//   - Map configuration lookup
//   - Command parsing and execution
//   - Paginated move history
//   - Route hints
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages map configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the dispatchers (terminal UI and MCP) and
// the game engine, providing session isolation, configuration management, and
// business logic orchestration. Each session maintains its own game engine
// instance with independent state. Every operation runs in an OpenTelemetry
// span named "service.<Operation>" and logs through zerolog.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("maps")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	// Create a new session
//	sessionInfo, err := gameService.CreateSession(ctx, "bookstore")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Execute commands
//	result, err := gameService.Execute(ctx, sessionInfo.ID, "turn_left")
//
// Commands:
//
// Execute accepts the command names of engine.ParseCommand ("advance",
// "turn_left", "judge_right", "new_game" and their aliases). Rejected commands
// are not errors: the result reports Applied=false with a "rejected" event.
package service
