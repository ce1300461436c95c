package engine

import "testing"

// fixedSource replays values in order, reduced into range
type fixedSource struct {
	values []int
	i      int
}

func (f *fixedSource) IntN(n int) int {
	v := f.values[f.i%len(f.values)]
	f.i++
	return v % n
}

func createTestBoard(t *testing.T) *Board {
	t.Helper()
	return DefaultBoard()
}

// stateAt builds an in-progress state without going through the random draw
func stateAt(t *testing.T, b *Board, start, dest string, pos Position, h Heading) GameState {
	t.Helper()
	if _, ok := b.Landmark(start); !ok {
		t.Fatalf("unknown start landmark %q", start)
	}
	if _, ok := b.Landmark(dest); !ok {
		t.Fatalf("unknown destination landmark %q", dest)
	}
	return GameState{
		GameID:      "test-game",
		Start:       start,
		Destination: dest,
		Position:    pos,
		Heading:     h,
		Moves:       []MoveHistoryEntry{},
		Message:     b.Messages().Welcome,
	}
}

func descriptions(s GameState) []string {
	out := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		out[i] = m.Description
	}
	return out
}
