// Package render turns engine snapshots into plain text. Every function is
// pure; callers decide where the lines go.
package render

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/citynav/game/engine"
)

// Map symbols
const (
	Intersection   = '+'
	Destination    = '*'
	Building       = '#'
	RoadEastWest   = '-'
	RoadNorthSouth = '|'
)

// roadLength is the number of road characters drawn between two intersections
const roadLength = 3

// Map draws the road grid of s, one string per text line. Intersections sit on
// even lines; the avatar is drawn as its heading arrow and hides whatever is
// underneath it.
func Map(s engine.Snapshot) []string {
	if s.Rows <= 0 || s.Cols <= 0 {
		return nil
	}

	buildings := make(map[engine.Position]bool, len(s.Landmarks))
	for _, l := range s.Landmarks {
		buildings[l.Position()] = true
	}

	road := strings.Repeat(string(RoadEastWest), roadLength)
	gap := strings.Repeat(" ", roadLength)

	lines := make([]string, 0, 2*s.Rows-1)
	for row := 0; row < s.Rows; row++ {
		if row > 0 {
			var b strings.Builder
			for col := 0; col < s.Cols; col++ {
				if col > 0 {
					b.WriteString(gap)
				}
				b.WriteRune(RoadNorthSouth)
			}
			lines = append(lines, b.String())
		}

		var b strings.Builder
		for col := 0; col < s.Cols; col++ {
			if col > 0 {
				b.WriteString(road)
			}
			b.WriteRune(cellRune(s, engine.Position{Row: row, Col: col}, buildings))
		}
		lines = append(lines, b.String())
	}
	return lines
}

func cellRune(s engine.Snapshot, p engine.Position, buildings map[engine.Position]bool) rune {
	switch {
	case p == s.Position:
		return s.Heading.Glyph()
	case p == s.DestinationPos && s.Destination != "":
		return Destination
	case buildings[p]:
		return Building
	default:
		return Intersection
	}
}

// Title is the question the player has to answer
func Title(s engine.Snapshot) string {
	return fmt.Sprintf("Where is the %s?", s.Destination)
}

// Route summarizes the trip, e.g. "From: Apartment → To: Book Store | Heading: East →"
func Route(s engine.Snapshot) string {
	return fmt.Sprintf("From: %s → To: %s | Heading: %s", s.Start, s.Destination, s.Heading.Label())
}

// Status is the one-line position summary
func Status(s engine.Snapshot) string {
	status := fmt.Sprintf("Position: (%d,%d) | Heading: %s | Moves: %d | Status: %s",
		s.Position.Row, s.Position.Col, s.Heading, len(s.Moves), s.Status)
	if s.NearDestination && !s.Completed {
		status += " | Near destination"
	}
	return status
}

// MoveLog numbers the move log from 1, e.g. "1. Go straight"
func MoveLog(s engine.Snapshot) []string {
	lines := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		lines[i] = fmt.Sprintf("%d. %s", i+1, m)
	}
	return lines
}

// Here names the landmarks under the avatar, or "" on a bare intersection
func Here(s engine.Snapshot) string {
	if len(s.Here) == 0 {
		return ""
	}
	return "At: " + strings.Join(s.Here, ", ")
}

// Legend explains the map symbols
func Legend(s engine.Snapshot) []string {
	return []string{
		fmt.Sprintf("%c you (%s)", s.Heading.Glyph(), s.Heading.Label()),
		fmt.Sprintf("%c %s", Destination, s.Destination),
		fmt.Sprintf("%c other landmark", Building),
		fmt.Sprintf("%c intersection", Intersection),
	}
}

// Landmarks lists every landmark with its marker and intersection
func Landmarks(s engine.Snapshot) []string {
	lines := make([]string, len(s.Landmarks))
	for i, l := range s.Landmarks {
		marker := Building
		if l.Name == s.Destination {
			marker = Destination
		}
		lines[i] = fmt.Sprintf("%c %s (%d,%d)", marker, l.Name, l.Row, l.Col)
	}
	return lines
}

// Text is the complete plain-text view of s
func Text(s engine.Snapshot) string {
	var b strings.Builder

	b.WriteString(Title(s) + "\n")
	b.WriteString(Route(s) + "\n")
	b.WriteString(Status(s) + "\n\n")

	for _, line := range Map(s) {
		b.WriteString(line + "\n")
	}

	if s.Completed {
		b.WriteString("\n🎉 CONGRATULATIONS!\n")
	}
	if s.Message != "" {
		b.WriteString(fmt.Sprintf("\nMessage: %s\n", s.Message))
	}

	b.WriteString("\nLegend: " + strings.Join(Legend(s), ", ") + "\n")

	if moves := MoveLog(s); len(moves) > 0 {
		b.WriteString("\nMoves:\n")
		for _, m := range moves {
			b.WriteString(m + "\n")
		}
	}
	return b.String()
}
