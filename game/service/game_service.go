package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/citynav/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, mapName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Execute(ctx context.Context, sessionID, command string) (*CommandResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	Hint(ctx context.Context, sessionID string) (*HintResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, mapName string) (*engine.MapConfig, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, mapName string, board *engine.Board) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, mapName string, board *engine.Board) (*Session, error)
	List() []Session
	Delete(id string) error
	Touch(id string) (Session, error)
}

// ConfigManager handles map configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.MapConfig, error)
	LoadBoard(name string) (*engine.Board, error)
	ListConfigs() ([]*ConfigInfo, error)
	DefaultName() string
}

// Session represents an active game session
type Session struct {
	ID             string
	MapName        string
	Engine         *engine.GameEngine
	Board          *engine.Board
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
