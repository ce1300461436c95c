package engine

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// RandomSource picks uniformly from [0, n)
type RandomSource interface {
	IntN(n int) int
}

// NewRandomSource returns a deterministic source for the given seed.
// A zero seed is replaced by the current time.
func NewRandomSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewGame draws a start landmark from all landmarks and a destination from the
// remaining ones, and places the avatar on the start facing East.
func NewGame(b *Board, rng RandomSource) GameState {
	n := len(b.landmarks)
	startIdx := rng.IntN(n)

	// Draw from the n-1 others by skipping over the start index
	destIdx := rng.IntN(n - 1)
	if destIdx >= startIdx {
		destIdx++
	}

	start := b.landmarks[startIdx]
	dest := b.landmarks[destIdx]

	return GameState{
		GameID:      uuid.NewString(),
		Start:       start.Name,
		Destination: dest.Name,
		Position:    start.Position(),
		Heading:     East,
		Moves:       []MoveHistoryEntry{},
		Completed:   false,
		Message:     b.messages.Welcome,
	}
}
