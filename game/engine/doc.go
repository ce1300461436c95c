// Package engine provides the core game logic for the City Navigator puzzle.
//
// The engine package implements the navigation state machine:
//   - Bounded grid movement along a compass heading
//   - Clockwise and counter-clockwise turns
//   - Proximity detection against the destination column
//   - Left/right judgment of the destination and game completion
//
// Core Types:
//
// Board is the immutable, validated form of a MapConfig and is passed to every
// command. GameState is one game instance. The transition functions (Advance,
// TurnLeft, TurnRight, JudgeLeft, JudgeRight) take a board and a state and
// return a new state without touching the input. GameEngine wraps a board, a
// RandomSource and the current state for callers that want an object.
//
// Usage:
//
//	board := engine.DefaultBoard()
//	gameEngine, err := engine.NewEngine(board, engine.NewRandomSource(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	state, applied := gameEngine.Execute(engine.CommandAdvance)
//	snapshot := gameEngine.Snapshot()
//
// Game Rules:
//
// The avatar starts on a random landmark facing East and must reach the column
// of another random landmark. Once there, the player judges whether the
// destination is on the left or on the right. A correct judgment completes the
// game; a wrong one only costs a log entry.
package engine
