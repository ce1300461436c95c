package service

import (
	"time"

	"github.com/wricardo/mcp-training/citynav/game/engine"
)

// Event types reported in CommandResult.Events
const (
	EventMove      = "move"
	EventTurn      = "turn"
	EventJudgment  = "judgment"
	EventRejected  = "rejected"
	EventCompleted = "completed"
	EventReset     = "reset"
)

// History defaults, clamped the same way for every dispatcher
const (
	DefaultHistoryLimit = 20
	OrderAsc            = "asc"
	OrderDesc           = "desc"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	MapName        string           `json:"map_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
}

// CommandResult contains the result of one player command
type CommandResult struct {
	Command  engine.Command           `json:"command"`
	Applied  bool                     `json:"applied"`
	Snapshot *engine.Snapshot         `json:"snapshot"`
	Message  string                   `json:"message"`
	Events   []GameEvent              `json:"events"`
	LastMove *engine.MoveHistoryEntry `json:"last_move,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "turn", "judgment", "rejected", "completed", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position"`
	Heading   engine.Heading  `json:"heading"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// HintResult is the planned shortest way to finish a game
type HintResult struct {
	Next            engine.Command   `json:"next,omitempty"`
	Route           []engine.Command `json:"route"`
	Steps           int              `json:"steps"`
	ColumnsAway     int              `json:"columns_away"` // zero once judgments are accepted
	Distance        int              `json:"distance"`     // blocks to the destination

	NearDestination bool             `json:"near_destination"`
	Message         string           `json:"message"`
}

// ConfigInfo provides information about a map configuration
type ConfigInfo struct {
	Filename    string `json:"filename,omitempty"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Landmarks   int    `json:"landmarks"`
	BuiltIn     bool   `json:"built_in"`
}
