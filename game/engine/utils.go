package engine

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dRow := from.Row - to.Row
	if dRow < 0 {
		dRow = -dRow
	}
	dCol := from.Col - to.Col
	if dCol < 0 {
		dCol = -dCol
	}
	return dRow + dCol
}

// ColumnDistance is how many columns separate the avatar from the
// destination. Zero means judgments are accepted.
func ColumnDistance(b *Board, s GameState) int {
	dest, ok := b.Landmark(s.Destination)
	if !ok {
		return -1
	}
	d := s.Position.Col - dest.Col
	if d < 0 {
		d = -d
	}
	return d
}

// CountLandmarksInColumn counts the landmarks placed in column col
func CountLandmarksInColumn(b *Board, col int) int {
	count := 0
	for _, l := range b.landmarks {
		if l.Col == col {
			count++
		}
	}
	return count
}
