package engine

// Board is the immutable, validated form of a MapConfig. Every command reads it
// and none may change it.
type Board struct {
	name        string
	description string
	rows        int
	cols        int
	landmarks   []Landmark
	index       map[string]int
	messages    Messages
}

// NewBoard validates config and compiles it into a Board
func NewBoard(config *MapConfig) (*Board, error) {
	if err := ValidateMapConfig(config); err != nil {
		return nil, err
	}

	b := &Board{
		name:        config.Name,
		description: config.Description,
		rows:        config.Rows,
		cols:        config.Cols,
		landmarks:   make([]Landmark, len(config.Landmarks)),
		index:       make(map[string]int, len(config.Landmarks)),
		messages:    config.Messages.withDefaults(),
	}
	copy(b.landmarks, config.Landmarks)
	for i, l := range b.landmarks {
		b.index[l.Name] = i
	}
	return b, nil
}

// MustNewBoard is NewBoard for configs known to be valid, such as the built-in map
func MustNewBoard(config *MapConfig) *Board {
	b, err := NewBoard(config)
	if err != nil {
		panic(err)
	}
	return b
}

// DefaultBoard returns a board for the built-in map
func DefaultBoard() *Board {
	return MustNewBoard(DefaultMapConfig())
}

// Name returns the map name
func (b *Board) Name() string { return b.name }

// Description returns the map description
func (b *Board) Description() string { return b.description }

// Rows returns the number of intersection rows
func (b *Board) Rows() int { return b.rows }

// Cols returns the number of intersection columns
func (b *Board) Cols() int { return b.cols }

// Messages returns the resolved player-facing texts
func (b *Board) Messages() Messages { return b.messages }

// Landmarks returns a copy of the landmarks in declaration order
func (b *Board) Landmarks() []Landmark {
	out := make([]Landmark, len(b.landmarks))
	copy(out, b.landmarks)
	return out
}

// Landmark looks up a landmark by exact name
func (b *Board) Landmark(name string) (Landmark, bool) {
	i, ok := b.index[name]
	if !ok {
		return Landmark{}, false
	}
	return b.landmarks[i], true
}

// InBounds reports whether p is a road intersection on this board
func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.rows && p.Col >= 0 && p.Col < b.cols
}

// LandmarksAt returns the names of the landmarks placed exactly at p
func (b *Board) LandmarksAt(p Position) []string {
	var names []string
	for _, l := range b.landmarks {
		if l.Position() == p {
			names = append(names, l.Name)
		}
	}
	return names
}
