package engine

const (
	// Grid dimensions of the built-in map, counted in road intersections
	DefaultRows = 7
	DefaultCols = 9

	// Validation constants
	MinGridDimension = 2
	MaxGridDimension = 50
	MinLandmarks     = 2
	MaxHistoryLimit  = 100
)

// Move log descriptions
const (
	LogGoStraight   = "Go straight"
	LogTurnRight    = "Turn right"
	LogTurnLeft     = "Turn left"
	LogLeftCorrect  = "It's on your left ✓"
	LogLeftWrong    = "It's on your left ✗"
	LogRightCorrect = "It's on your right ✓"
	LogRightWrong   = "It's on your right ✗"
)

// Game status values reported in snapshots
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Position is a road intersection on the map
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Landmark is a named building placed at a fixed intersection
type Landmark struct {
	Name string `json:"name" yaml:"name"`
	Row  int    `json:"row" yaml:"row"`
	Col  int    `json:"col" yaml:"col"`
}

// Position returns the landmark's intersection
func (l Landmark) Position() Position {
	return Position{Row: l.Row, Col: l.Col}
}

// Messages holds the player-facing texts a map can override
type Messages struct {
	Welcome      string `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	TooFar       string `json:"too_far,omitempty" yaml:"too_far,omitempty"`
	LeftCorrect  string `json:"left_correct,omitempty" yaml:"left_correct,omitempty"`
	RightCorrect string `json:"right_correct,omitempty" yaml:"right_correct,omitempty"`
	LeftWrong    string `json:"left_wrong,omitempty" yaml:"left_wrong,omitempty"`
	RightWrong   string `json:"right_wrong,omitempty" yaml:"right_wrong,omitempty"`
}

// MapConfig is the on-disk description of a city map
type MapConfig struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Rows        int        `json:"rows" yaml:"rows"`
	Cols        int        `json:"cols" yaml:"cols"`
	Landmarks   []Landmark `json:"landmarks" yaml:"landmarks"`
	Messages    Messages   `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// Command is a single player instruction
type Command string

const (
	CommandAdvance    Command = "advance"
	CommandTurnLeft   Command = "turn_left"
	CommandTurnRight  Command = "turn_right"
	CommandJudgeLeft  Command = "judge_left"
	CommandJudgeRight Command = "judge_right"
	CommandReset      Command = "reset"
)

// GameState is one game instance. Commands never mutate a GameState in place;
// they return a new value.
type GameState struct {
	GameID      string             `json:"game_id"`
	Start       string             `json:"start"`
	Destination string             `json:"destination"`
	Position    Position           `json:"position"`
	Heading     Heading            `json:"heading"`
	Moves       []MoveHistoryEntry `json:"moves"`
	Completed   bool               `json:"completed"`
	Message     string             `json:"message"`
}

// MoveHistoryEntry is one record of the move log
type MoveHistoryEntry struct {
	MoveNumber  int      `json:"move_number"`
	Command     Command  `json:"command"`
	Description string   `json:"description"`
	From        Position `json:"from"`
	To          Position `json:"to"`
	Heading     Heading  `json:"heading"`
}

// Snapshot is the read-only view handed to renderers and dispatchers
type Snapshot struct {
	GameID          string     `json:"game_id"`
	MapName         string     `json:"map_name"`
	Rows            int        `json:"rows"`
	Cols            int        `json:"cols"`
	Landmarks       []Landmark `json:"landmarks"`
	Start           string     `json:"start"`
	Destination     string     `json:"destination"`
	DestinationPos  Position   `json:"destination_pos"`
	Position        Position   `json:"position"`
	Here            []string   `json:"here,omitempty"` // landmarks at Position
	Heading         Heading    `json:"heading"`
	Moves           []string   `json:"moves"`
	Completed       bool       `json:"completed"`
	Status          string     `json:"status"`
	NearDestination bool       `json:"near_destination"`
	Message         string     `json:"message"`
}
