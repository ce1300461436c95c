package engine

import "fmt"

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() GameState
	SetState(state GameState) error
	Reset() GameState
	IsCompleted() bool
	IsNearDestination() bool
	GetPosition() Position
	GetHeading() Heading

	// Commands
	Execute(cmd Command) (GameState, bool)

	// Board
	GetBoard() *Board

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Queries
	Snapshot() Snapshot
	Hint() (Route, bool)
}

// GameEngine implements the Engine interface. It owns the current state of one
// game and is not safe for concurrent use.
type GameEngine struct {
	board *Board
	rng   RandomSource
	state GameState
}

// NewEngine creates a game engine on board and draws the first game from rng
func NewEngine(board *Board, rng RandomSource) (*GameEngine, error) {
	if board == nil {
		return nil, fmt.Errorf("board cannot be nil")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}

	return &GameEngine{
		board: board,
		rng:   rng,
		state: NewGame(board, rng),
	}, nil
}

// NewEngineWithDefaults creates a game engine on the built-in map with a
// time-seeded random source
func NewEngineWithDefaults() *GameEngine {
	e, _ := NewEngine(DefaultBoard(), NewRandomSource(0))
	return e
}

// GetState returns the current game state
func (e *GameEngine) GetState() GameState {
	return e.state.clone()
}

// SetState replaces the current state. The state must reference landmarks of
// this engine's board and a position inside it.
func (e *GameEngine) SetState(state GameState) error {
	if _, ok := e.board.Landmark(state.Start); !ok {
		return fmt.Errorf("unknown start landmark %q", state.Start)
	}
	if _, ok := e.board.Landmark(state.Destination); !ok {
		return fmt.Errorf("unknown destination landmark %q", state.Destination)
	}
	if state.Start == state.Destination {
		return fmt.Errorf("start and destination must differ")
	}
	if !e.board.InBounds(state.Position) {
		return fmt.Errorf("position (%d,%d) is off the board", state.Position.Row, state.Position.Col)
	}
	if !state.Heading.Valid() {
		return fmt.Errorf("invalid heading %d", int(state.Heading))
	}
	e.state = state.clone()
	return nil
}

// Reset discards the current game and starts a new one
func (e *GameEngine) Reset() GameState {
	e.state = Reset(e.board, e.rng)
	return e.GetState()
}

// Execute applies cmd to the current state
func (e *GameEngine) Execute(cmd Command) (GameState, bool) {
	next, applied := Apply(e.board, e.state, cmd, e.rng)
	e.state = next
	return e.GetState(), applied
}

// IsCompleted returns whether the destination has been judged correctly
func (e *GameEngine) IsCompleted() bool {
	return e.state.Completed
}

// IsNearDestination returns whether judgments are currently accepted
func (e *GameEngine) IsNearDestination() bool {
	return IsNearDestination(e.board, e.state)
}

// GetPosition returns the avatar position
func (e *GameEngine) GetPosition() Position {
	return e.state.Position
}

// GetHeading returns the avatar heading
func (e *GameEngine) GetHeading() Heading {
	return e.state.Heading
}

// GetBoard returns the board this engine plays on
func (e *GameEngine) GetBoard() *Board {
	return e.board
}

// GetMoveHistory returns the move log of the current game
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	out := make([]MoveHistoryEntry, len(e.state.Moves))
	copy(out, e.state.Moves)
	return out
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.Moves) == 0 {
		return nil
	}
	last := e.state.Moves[len(e.state.Moves)-1]
	return &last
}

// Snapshot returns the read-only view of the current game
func (e *GameEngine) Snapshot() Snapshot {
	return MakeSnapshot(e.board, e.state)
}

// Hint plans the shortest way to finish the current game
func (e *GameEngine) Hint() (Route, bool) {
	return PlanRoute(e.board, e.state)
}

// MakeSnapshot builds the renderer view of s on b
func MakeSnapshot(b *Board, s GameState) Snapshot {
	dest, _ := b.Landmark(s.Destination)

	moves := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		moves[i] = m.Description
	}

	status := StatusInProgress
	if s.Completed {
		status = StatusCompleted
	}

	return Snapshot{
		GameID:          s.GameID,
		MapName:         b.Name(),
		Rows:            b.Rows(),
		Cols:            b.Cols(),
		Landmarks:       b.Landmarks(),
		Start:           s.Start,
		Destination:     s.Destination,
		DestinationPos:  dest.Position(),
		Position:        s.Position,
		Here:            b.LandmarksAt(s.Position),
		Heading:         s.Heading,
		Moves:           moves,
		Completed:       s.Completed,
		Status:          status,
		NearDestination: IsNearDestination(b, s),
		Message:         s.Message,
	}
}
